package models

import "time"

// Comment represents a comment on a report. Comments are append-only except
// for owner-initiated deletion.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ReportID  string    `json:"report_id" gorm:"index"`
	UserID    string    `json:"user_id" gorm:"index"`
	UserEmail string    `json:"user_email"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCommentRequest defines the request body for commenting on a report
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}
