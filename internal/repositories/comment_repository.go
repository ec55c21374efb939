package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/roadwatch/backend/internal/models"
)

// ErrCommentNotFound covers both a missing comment and one owned by a
// different user, so ownership is never leaked through the error.
var ErrCommentNotFound = errors.New("comment not found")

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(comment *models.Comment) error
	GetCommentsByReportID(reportID string) ([]models.Comment, error)
	DeleteCommentByIDAndUser(id uint, userID string) error
	GetCommentCounts(reportIDs []string) (map[string]int64, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// CreateComment appends a new comment
func (r *PostgresCommentRepository) CreateComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// GetCommentsByReportID retrieves all comments for a report, oldest first
func (r *PostgresCommentRepository) GetCommentsByReportID(reportID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	if err := r.db.Where("report_id = ?", reportID).Order("created_at asc").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// DeleteCommentByIDAndUser deletes a comment only when the caller authored it
func (r *PostgresCommentRepository) DeleteCommentByIDAndUser(id uint, userID string) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Comment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// commentCountRow is the scan target for the grouped count query
type commentCountRow struct {
	ReportID string
	Count    int64
}

// GetCommentCounts returns the comment count per report for a batch of
// reports in one round trip
func (r *PostgresCommentRepository) GetCommentCounts(reportIDs []string) (map[string]int64, error) {
	var rows []commentCountRow
	err := r.db.Model(&models.Comment{}).
		Select("report_id, count(*) as count").
		Where("report_id IN ?", reportIDs).
		Group("report_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, row := range rows {
		counts[row.ReportID] = row.Count
	}
	return counts, nil
}
