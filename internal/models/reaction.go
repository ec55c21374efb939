package models

import "time"

// Reaction type values form the closed set accepted by the engagement API
const (
	ReactionThumbsUp        = "thumbsUp"
	ReactionThumbsDown      = "thumbsDown"
	ReactionAngryCar        = "angryCar"
	ReactionAngryPedestrian = "angryPedestrian"
	ReactionAngryBicycle    = "angryBicycle"
)

var reactionTypes = map[string]bool{
	ReactionThumbsUp:        true,
	ReactionThumbsDown:      true,
	ReactionAngryCar:        true,
	ReactionAngryPedestrian: true,
	ReactionAngryBicycle:    true,
}

// ValidReactionType reports whether the value belongs to the reaction vocabulary
func ValidReactionType(v string) bool { return reactionTypes[v] }

// Reaction is a user's single active reaction to a report. The composite
// unique index on (report_id, user_id) is what lets the repository replace a
// prior reaction in one atomic upsert; rows are hard-deleted so a removed
// reaction never blocks a later one.
type Reaction struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	ReportID     string    `json:"report_id" gorm:"not null;index;uniqueIndex:idx_reactions_report_user"`
	UserID       string    `json:"user_id" gorm:"not null;uniqueIndex:idx_reactions_report_user"`
	UserEmail    string    `json:"user_email"`
	ReactionType string    `json:"reaction_type" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AddReactionRequest defines the request body for reacting to a report
type AddReactionRequest struct {
	ReactionType string `json:"reaction_type" validate:"required"`
}

// EngagementSummary aggregates the reactions and comments of one report.
// ViewerReactions is populated only when the request carried an identity.
type EngagementSummary struct {
	ReportID        string           `json:"report_id"`
	ReactionCounts  map[string]int64 `json:"reaction_counts"`
	ViewerReactions []string         `json:"viewer_reactions"`
	CommentCount    int64            `json:"comment_count"`
}

// BulkEngagementRequest defines the request body for batched engagement lookups
type BulkEngagementRequest struct {
	ReportIDs []string `json:"report_ids" validate:"required,min=1"`
}
