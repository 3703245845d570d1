package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is the kind of infrastructure problem a citizen is reporting
type Category string

// Report categories accepted by the submission form
const (
	CategoryRoad        Category = "Road"
	CategoryStreetLight Category = "Street Light"
	CategoryDrainage    Category = "Drainage"
	CategoryWater       Category = "Water"
	CategoryPower       Category = "Power"
	CategoryGarbage     Category = "Garbage"
	CategoryOther       Category = "Other"
)

// Categories lists every valid category in display order
var Categories = []Category{
	CategoryRoad,
	CategoryStreetLight,
	CategoryDrainage,
	CategoryWater,
	CategoryPower,
	CategoryGarbage,
	CategoryOther,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Severity is the reporter's own estimate of how urgent the problem is
type Severity string

// Severities a reporter may pick. Severity is optional.
const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Valid reports whether s is empty or one of the known severities
func (s Severity) Valid() bool {
	switch s {
	case "", SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Status tracks where a report is in the municipality's workflow
type Status string

// Report statuses. New reports always start Open.
const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
	StatusRejected   Status = "Rejected"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// Report represents a citizen-submitted infrastructure complaint
type Report struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title" validate:"required"`
	Category        Category           `bson:"category" json:"category" validate:"required,category"`
	Description     string             `bson:"description" json:"description" validate:"required"`
	Severity        Severity           `bson:"severity,omitempty" json:"severity,omitempty" validate:"severity"`
	Lat             *float64           `bson:"lat,omitempty" json:"lat"`
	Lng             *float64           `bson:"lng,omitempty" json:"lng"`
	Attachments     []string           `bson:"attachments" json:"attachments"`
	Status          Status             `bson:"status" json:"status"`
	ReporterContact string             `bson:"reporterContact,omitempty" json:"reporterContact,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       *time.Time         `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// CreateReportResponse is returned after a report has been stored
type CreateReportResponse struct {
	ID string `json:"id"`
}

// UpdateStatusRequest is the admin request body for changing a report's status
type UpdateStatusRequest struct {
	Status Status `json:"status"`
}

// SiteResponse carries public, non-secret settings for the submission form
type SiteResponse struct {
	SiteName   string     `json:"siteName"`
	Categories []Category `json:"categories"`
}
