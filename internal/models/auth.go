package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// ClientRole represents the roles understood by the RBAC middleware.
type ClientRole string

const (
	RoleAdmin   ClientRole = "ADMIN"
	RolePlanner ClientRole = "PLANNER"
	RoleViewer  ClientRole = "VIEWER"
)

// JWTClaims represents the payload of issued access tokens.
type JWTClaims struct {
	ClientID string     `json:"client_id"`
	Role     ClientRole `json:"role"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
