package testhelpers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/civic-report-api/databases"
	"github.com/linesmerrill/civic-report-api/models"
)

// ReportStore is an in-memory databases.ReportDatabase for handler tests.
// Creation times are strictly increasing in insert order, the same guarantee
// the real store gives for arrival order.
type ReportStore struct {
	// InsertErr, when set, makes every InsertOne fail with it
	InsertErr error
	// FindErr, when set, makes FindRecent fail with it
	FindErr error

	mu      sync.Mutex
	reports []models.Report
	last    time.Time
}

var _ databases.ReportDatabase = (*ReportStore)(nil)

// NewReportStore returns an empty store
func NewReportStore() *ReportStore {
	return &ReportStore{}
}

func (s *ReportStore) InsertOne(ctx context.Context, report *models.Report) (string, error) {
	if s.InsertErr != nil {
		return "", s.InsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Millisecond)
	}
	s.last = now

	report.ID = primitive.NewObjectID()
	report.CreatedAt = now
	if report.Status == "" {
		report.Status = models.StatusOpen
	}
	if report.Attachments == nil {
		report.Attachments = []string{}
	}
	stored := *report
	stored.Attachments = append([]string{}, report.Attachments...)
	s.reports = append(s.reports, stored)
	return report.ID.Hex(), nil
}

func (s *ReportStore) FindRecent(ctx context.Context, limit int64) ([]models.Report, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	if limit <= 0 || limit > databases.RecentReportsLimit {
		limit = databases.RecentReportsLimit
	}
	s.mu.Lock()
	out := append([]models.Report{}, s.reports...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ReportStore) FindByID(ctx context.Context, id string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reports {
		if s.reports[i].ID.Hex() == id {
			r := s.reports[i]
			return &r, nil
		}
	}
	return nil, databases.ErrReportNotFound
}

func (s *ReportStore) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reports {
		if s.reports[i].ID.Hex() == id {
			now := time.Now().UTC()
			s.reports[i].Status = status
			s.reports[i].UpdatedAt = &now
			r := s.reports[i]
			return &r, nil
		}
	}
	return nil, databases.ErrReportNotFound
}

// CountDocuments ignores the filter and counts every stored report
func (s *ReportStore) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.reports)), nil
}

// Len returns how many reports have been inserted
func (s *ReportStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

// ErrSimulatedUpload is returned by AttachmentStore for keys matching FailOn
var ErrSimulatedUpload = errors.New("simulated upload failure")

// Blob is one object held by AttachmentStore
type Blob struct {
	Data        []byte
	ContentType string
}

// AttachmentStore is an in-memory storage.AttachmentStore
type AttachmentStore struct {
	// FailOn makes Store fail for every key containing this substring
	FailOn string

	mu    sync.Mutex
	blobs map[string]Blob
	keys  []string
}

// NewAttachmentStore returns an empty store
func NewAttachmentStore() *AttachmentStore {
	return &AttachmentStore{blobs: map[string]Blob{}}
}

func (s *AttachmentStore) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.FailOn != "" && strings.Contains(key, s.FailOn) {
		return "", fmt.Errorf("store %s: %w", key, ErrSimulatedUpload)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.blobs[key] = Blob{Data: append([]byte{}, data...), ContentType: contentType}
	return key, nil
}

// Get returns the blob stored under key
func (s *AttachmentStore) Get(key string) (Blob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	return b, ok
}

// Keys returns the stored keys in the order they were first written
func (s *AttachmentStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.keys...)
}
