package repositories

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roadwatch/backend/internal/models"
)

// ReactionRepository defines the interface for reaction data operations
type ReactionRepository interface {
	UpsertReaction(reaction *models.Reaction) error
	DeleteReaction(reportID, userID, reactionType string) error
	GetReactionCounts(reportIDs []string) (map[string]map[string]int64, error)
	GetViewerReactions(reportIDs []string, userID string) (map[string][]string, error)
}

// PostgresReactionRepository implements ReactionRepository for PostgreSQL
type PostgresReactionRepository struct {
	db *gorm.DB
}

// NewPostgresReactionRepository creates a new PostgresReactionRepository
func NewPostgresReactionRepository(db *gorm.DB) *PostgresReactionRepository {
	return &PostgresReactionRepository{db: db}
}

// UpsertReaction inserts the reaction or, if the user already reacted to the
// report, replaces the prior reaction's type in the same statement. Keying
// the conflict on (report_id, user_id) keeps "at most one active reaction
// per user per report" true without a remove-then-add round trip.
func (r *PostgresReactionRepository) UpsertReaction(reaction *models.Reaction) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "report_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reaction_type", "user_email", "updated_at"}),
	}).Create(reaction).Error
}

// DeleteReaction removes the matching reaction row. Deleting a reaction that
// does not exist is not an error.
func (r *PostgresReactionRepository) DeleteReaction(reportID, userID, reactionType string) error {
	return r.db.Where("report_id = ? AND user_id = ? AND reaction_type = ?", reportID, userID, reactionType).
		Delete(&models.Reaction{}).Error
}

// reactionCountRow is the scan target for the grouped count query
type reactionCountRow struct {
	ReportID     string
	ReactionType string
	Count        int64
}

// GetReactionCounts aggregates reaction counts per type for a batch of
// reports in one round trip; the result maps reportID -> reactionType -> count
func (r *PostgresReactionRepository) GetReactionCounts(reportIDs []string) (map[string]map[string]int64, error) {
	var rows []reactionCountRow
	err := r.db.Model(&models.Reaction{}).
		Select("report_id, reaction_type, count(*) as count").
		Where("report_id IN ?", reportIDs).
		Group("report_id, reaction_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]map[string]int64)
	for _, row := range rows {
		if counts[row.ReportID] == nil {
			counts[row.ReportID] = make(map[string]int64)
		}
		counts[row.ReportID][row.ReactionType] = row.Count
	}
	return counts, nil
}

// GetViewerReactions returns, per report, the reaction types the viewer
// currently holds
func (r *PostgresReactionRepository) GetViewerReactions(reportIDs []string, userID string) (map[string][]string, error) {
	var reactions []models.Reaction
	err := r.db.Where("report_id IN ? AND user_id = ?", reportIDs, userID).Find(&reactions).Error
	if err != nil {
		return nil, err
	}

	viewer := make(map[string][]string)
	for _, reaction := range reactions {
		viewer[reaction.ReportID] = append(viewer[reaction.ReportID], reaction.ReactionType)
	}
	return viewer, nil
}
