package dto

import "time"

// ExportRequest asks for a rendered copy of a weekly proposal.
type ExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf"`
	Title  string `json:"title,omitempty" validate:"omitempty,max=120"`
}

// ExportJobResponse reports the progress of an export.
type ExportJobResponse struct {
	JobID       string     `json:"jobId"`
	ProposalID  string     `json:"proposalId"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	DownloadURL *string    `json:"downloadUrl,omitempty"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	Error       *string    `json:"error,omitempty"`
}

// TokenRequest exchanges client credentials for an access token.
type TokenRequest struct {
	ClientID     string `json:"clientId" validate:"required"`
	ClientSecret string `json:"clientSecret" validate:"required"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}
