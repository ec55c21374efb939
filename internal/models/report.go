package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report status values. A report enters the system as StatusSubmitted and is
// moved by a moderator into exactly one of the two terminal states.
const (
	StatusSubmitted    = "submitted"
	StatusReviewedPass = "reviewed_pass"
	StatusReviewedFail = "reviewed_fail"
)

// MediaFile is one uploaded attachment owned by exactly one Report.
// For object-storage items ID is a generated file id and URL a short-lived
// signed link regenerated on every read; for video-hosted items ID is the
// provider's video id and URL the permanent watch link. ObjectPath is set
// only for object-storage items and is never serialized in responses.
type MediaFile struct {
	ID          string    `json:"id" bson:"id"`
	FileName    string    `json:"file_name" bson:"file_name"`
	ContentType string    `json:"content_type" bson:"content_type"`
	SizeBytes   int64     `json:"size_bytes" bson:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at" bson:"uploaded_at"`
	URL         string    `json:"url" bson:"url"`
	ObjectPath  string    `json:"-" bson:"object_path,omitempty"`
}

// Report represents a traffic/pedestrian incident report stored in MongoDB
type Report struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID      string             `json:"owner_id" bson:"owner_id"`
	Title        string             `json:"title" bson:"title"`
	Description  string             `json:"description" bson:"description"`
	OccurredAt   time.Time          `json:"occurred_at" bson:"occurred_at"`
	RoadUsages   []string           `json:"road_usages" bson:"road_usages"`
	EventTypes   []string           `json:"event_types" bson:"event_types"`
	State        string             `json:"state" bson:"state"`
	City         string             `json:"city,omitempty" bson:"city,omitempty"`
	Injuries     string             `json:"injuries" bson:"injuries"`
	MediaFiles   []MediaFile        `json:"media_files" bson:"media_files"`
	Status       string             `json:"status" bson:"status"`
	ReviewReason string             `json:"review_reason,omitempty" bson:"review_reason,omitempty"`
	Priority     *int               `json:"priority,omitempty" bson:"priority,omitempty"`
	Deleted      bool               `json:"-" bson:"deleted"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreateReportRequest defines the request body for submitting a new report.
// It binds from JSON as well as multipart form values; attachments travel as
// separate "media" file parts.
type CreateReportRequest struct {
	Title       string   `json:"title" form:"title" validate:"required,max=200"`
	Description string   `json:"description" form:"description" validate:"required,max=5000"`
	OccurredAt  string   `json:"occurred_at" form:"occurred_at" validate:"required"`
	RoadUsages  []string `json:"road_usages" form:"road_usages" validate:"required,min=1"`
	EventTypes  []string `json:"event_types" form:"event_types" validate:"required,min=1"`
	State       string   `json:"state" form:"state" validate:"required"`
	City        string   `json:"city" form:"city"`
	Injuries    string   `json:"injuries" form:"injuries" validate:"required"`
}

// ReviewReportRequest defines the request body for a moderation decision
type ReviewReportRequest struct {
	Status   string `json:"status" validate:"required,oneof=reviewed_pass reviewed_fail"`
	Reason   string `json:"reason,omitempty"`
	Priority *int   `json:"priority,omitempty"`
}

// roadUsages is the fixed vocabulary for the kinds of road users involved
var roadUsages = map[string]bool{
	"Auto":       true,
	"Bicycle":    true,
	"Pedestrian": true,
	"Motorcycle": true,
	"Scooter":    true,
	"Transit":    true,
	"Wheelchair": true,
}

// eventTypes is the fixed vocabulary for what happened
var eventTypes = map[string]bool{
	"Red Light":           true,
	"Stop Sign":           true,
	"Speeding":            true,
	"Failure to Yield":    true,
	"Crosswalk Violation": true,
	"Illegal Passing":     true,
	"Collision":           true,
	"Near Miss":           true,
	"Blocked Lane":        true,
	"Other":               true,
}

// ValidRoadUsage reports whether the value belongs to the road-usage vocabulary
func ValidRoadUsage(v string) bool { return roadUsages[v] }

// ValidEventType reports whether the value belongs to the event-type vocabulary
func ValidEventType(v string) bool { return eventTypes[v] }
