package databases

// go generate: mockery --name ReportDatabase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/civic-report-api/models"
)

const reportName = "reports"

// RecentReportsLimit caps how many reports a listing returns
const RecentReportsLimit = 200

// ErrReportNotFound is returned when no report matches the given id
var ErrReportNotFound = errors.New("report not found")

// ReportDatabase contains the methods to use with the report database
type ReportDatabase interface {
	InsertOne(ctx context.Context, report *models.Report) (string, error)
	FindRecent(ctx context.Context, limit int64) ([]models.Report, error)
	FindByID(ctx context.Context, id string) (*models.Report, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Report, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type reportDatabase struct {
	db  DatabaseHelper
	now func() time.Time
}

// NewReportDatabase initializes a new instance of report database with the provided db connection
func NewReportDatabase(db DatabaseHelper) ReportDatabase {
	return &reportDatabase{
		db:  db,
		now: time.Now,
	}
}

// EnsureReportIndexes creates the indexes the listing and digest queries rely on
func EnsureReportIndexes(ctx context.Context, db DatabaseHelper) error {
	_, err := db.Collection(reportName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}

// InsertOne assigns the id, creation time and default status on report, stores it
// and returns the new id as a hex string.
func (c *reportDatabase) InsertOne(ctx context.Context, report *models.Report) (string, error) {
	report.ID = primitive.NewObjectID()
	report.CreatedAt = c.now().UTC()
	if report.Status == "" {
		report.Status = models.StatusOpen
	}
	if report.Attachments == nil {
		report.Attachments = []string{}
	}

	res, err := c.db.Collection(reportName).InsertOne(ctx, report)
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}
	if oid, ok := res.Decode().(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return report.ID.Hex(), nil
}

// FindRecent returns up to limit reports, newest first. limit is clamped to RecentReportsLimit.
func (c *reportDatabase) FindRecent(ctx context.Context, limit int64) ([]models.Report, error) {
	if limit <= 0 || limit > RecentReportsLimit {
		limit = RecentReportsLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cursor, err := c.db.Collection(reportName).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find recent reports: %w", err)
	}
	reports := []models.Report{}
	if err := cursor.Decode(ctx, &reports); err != nil {
		return nil, fmt.Errorf("decode recent reports: %w", err)
	}
	for i := range reports {
		if reports[i].Attachments == nil {
			reports[i].Attachments = []string{}
		}
	}
	return reports, nil
}

func (c *reportDatabase) FindByID(ctx context.Context, id string) (*models.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReportNotFound
	}
	report := &models.Report{}
	err = c.db.Collection(reportName).FindOne(ctx, bson.M{"_id": oid}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// UpdateStatus changes only the status and updatedAt fields and returns the updated report
func (c *reportDatabase) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReportNotFound
	}
	update := bson.M{"$set": bson.M{
		"status":    status,
		"updatedAt": c.now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	report := &models.Report{}
	err = c.db.Collection(reportName).FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update report status: %w", err)
	}
	return report, nil
}

func (c *reportDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(reportName).CountDocuments(ctx, filter)
}
