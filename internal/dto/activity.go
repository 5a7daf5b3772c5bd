package dto

// CreateActivityRequest adds an entry to the catalog.
type CreateActivityRequest struct {
	Name        string   `json:"name" validate:"required,max=120"`
	MinDuration int      `json:"minDuration" validate:"required,min=1,max=1440"`
	MaxDuration int      `json:"maxDuration" validate:"required,gtefield=MinDuration,max=1440"`
	Goals       []string `json:"goals" validate:"omitempty,dive,required,max=64"`
	Locations   []string `json:"locations" validate:"omitempty,dive,required,max=64"`
}

// ListActivitiesQuery filters catalog listings.
type ListActivitiesQuery struct {
	Goal       string `form:"goal"`
	ActiveOnly *bool  `form:"active"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}
