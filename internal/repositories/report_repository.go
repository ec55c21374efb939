package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/roadwatch/backend/internal/models"
)

// ErrReportNotFound covers both a report that does not exist and one the
// caller may not see (soft-deleted, or owned by someone else on owner-scoped
// lookups).
var ErrReportNotFound = errors.New("report not found")

// ErrAlreadyReviewed is returned when a moderation decision targets a report
// already in a terminal state.
var ErrAlreadyReviewed = errors.New("report already reviewed")

// ReportRepository defines the interface for report data operations
type ReportRepository interface {
	CreateReport(ctx context.Context, report *models.Report) error
	GetReportByID(ctx context.Context, id string) (*models.Report, error)
	GetReportByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Report, error)
	GetReportsByIDs(ctx context.Context, ids []string) ([]models.Report, error)
	GetReportsByOwner(ctx context.Context, ownerID string, skip, limit int64) ([]models.Report, error)
	GetAllReports(ctx context.Context, skip, limit int64) ([]models.Report, error)
	GetReportsByStatus(ctx context.Context, status string, skip, limit int64) ([]models.Report, error)
	SoftDeleteReport(ctx context.Context, id, ownerID string) error
	ReviewReport(ctx context.Context, id, status, reason string, priority *int) error
}

// MongoReportRepository implements ReportRepository for MongoDB
type MongoReportRepository struct {
	collection *mongo.Collection
}

// NewMongoReportRepository creates a new MongoReportRepository
func NewMongoReportRepository(db *mongo.Database) *MongoReportRepository {
	return &MongoReportRepository{collection: db.Collection("reports")}
}

// notDeleted excludes soft-deleted reports from every read
var notDeleted = bson.M{"$ne": true}

// CreateReport inserts a new report document. The id may be pre-assigned by
// the caller so blob objects can be keyed to the report before it exists.
func (r *MongoReportRepository) CreateReport(ctx context.Context, report *models.Report) error {
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	now := time.Now()
	report.CreatedAt = now
	report.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, report)
	return err
}

// GetReportByID retrieves a report by id, regardless of owner
func (r *MongoReportRepository) GetReportByID(ctx context.Context, id string) (*models.Report, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReportNotFound
	}

	var report models.Report
	err = r.collection.FindOne(ctx, bson.M{"_id": objID, "deleted": notDeleted}).Decode(&report)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

// GetReportByIDAndOwner retrieves a report jointly by id and owner; a report
// that exists but belongs to a different owner comes back as not found
func (r *MongoReportRepository) GetReportByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Report, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReportNotFound
	}

	var report models.Report
	err = r.collection.FindOne(ctx, bson.M{"_id": objID, "owner_id": ownerID, "deleted": notDeleted}).Decode(&report)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

// GetReportsByIDs retrieves the visible reports among the given ids in one
// query. Malformed, unknown and soft-deleted ids are simply absent from the
// result.
func (r *MongoReportRepository) GetReportsByIDs(ctx context.Context, ids []string) ([]models.Report, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objIDs = append(objIDs, objID)
	}
	if len(objIDs) == 0 {
		return []models.Report{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": objIDs}, "deleted": notDeleted}, 0, int64(len(objIDs)))
}

// GetReportsByOwner retrieves a user's own reports, newest first
func (r *MongoReportRepository) GetReportsByOwner(ctx context.Context, ownerID string, skip, limit int64) ([]models.Report, error) {
	return r.find(ctx, bson.M{"owner_id": ownerID, "deleted": notDeleted}, skip, limit)
}

// GetAllReports retrieves reports of any status for the moderation dashboard
func (r *MongoReportRepository) GetAllReports(ctx context.Context, skip, limit int64) ([]models.Report, error) {
	return r.find(ctx, bson.M{"deleted": notDeleted}, skip, limit)
}

// GetReportsByStatus retrieves reports in one status (the review queue and
// the public approved feed are both status-scoped listings)
func (r *MongoReportRepository) GetReportsByStatus(ctx context.Context, status string, skip, limit int64) ([]models.Report, error) {
	return r.find(ctx, bson.M{"status": status, "deleted": notDeleted}, skip, limit)
}

func (r *MongoReportRepository) find(ctx context.Context, filter bson.M, skip, limit int64) ([]models.Report, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reports := []models.Report{}
	if err = cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// SoftDeleteReport marks a report deleted so it disappears from listings.
// Media blobs are not purged; that is left to an out-of-band job.
func (r *MongoReportRepository) SoftDeleteReport(ctx context.Context, id, ownerID string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrReportNotFound
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "owner_id": ownerID, "deleted": notDeleted},
		bson.M{"$set": bson.M{"deleted": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrReportNotFound
	}
	return nil
}

// ReviewReport applies a moderation decision. Filtering the update on
// status=submitted makes the transition atomic: a terminal report can never
// move again, even under concurrent reviews.
func (r *MongoReportRepository) ReviewReport(ctx context.Context, id, status, reason string, priority *int) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrReportNotFound
	}

	set := bson.M{"status": status, "updated_at": time.Now()}
	if reason != "" {
		set["review_reason"] = reason
	}
	if priority != nil {
		set["priority"] = *priority
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "status": models.StatusSubmitted, "deleted": notDeleted},
		bson.M{"$set": set},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// distinguish a missing report from one already in a terminal state
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objID, "deleted": notDeleted})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrReportNotFound
		}
		return ErrAlreadyReviewed
	}
	return nil
}
