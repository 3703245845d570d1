package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/civic-report-api/api"
	"github.com/linesmerrill/civic-report-api/config"
	"github.com/linesmerrill/civic-report-api/databases"
	"github.com/linesmerrill/civic-report-api/models"
	"github.com/linesmerrill/civic-report-api/storage"
)

const (
	// MaxSubmissionBytes bounds the whole multipart body of one submission
	MaxSubmissionBytes = 32 << 20
	// PhotosField is the form field file attachments are sent under
	PhotosField = "photos"
)

// errBadCoordinate marks a lat/lng value that is present but unusable
var errBadCoordinate = errors.New("invalid coordinate")

// Report handles report-related requests
type Report struct {
	RDB   databases.ReportDatabase
	Store storage.AttachmentStore
	Feed  *Feed
	now   func() time.Time
}

// upload is one file part, read fully into memory in arrival order
type upload struct {
	filename    string
	contentType string
	arrived     time.Time
	data        []byte
}

// submission is the parsed multipart body of a report
type submission struct {
	fields  map[string]string
	uploads []upload
}

// CreateReportHandler ingests a multipart report submission. Each photo is
// uploaded on its own; a failed upload is logged and left out of the report.
// Blobs already uploaded stay in the store if the insert fails.
func (re Report) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxSubmissionBytes)
	sub, err := re.readSubmission(r)
	if err != nil {
		config.ErrorStatus("failed to parse multipart form", http.StatusInternalServerError, w, err)
		return
	}

	report, err := sub.report()
	if err != nil {
		config.ErrorStatus(err.Error(), http.StatusBadRequest, w, err)
		return
	}
	if err := models.ValidateReport(report); err != nil {
		config.ErrorStatus(err.Error(), http.StatusBadRequest, w, err)
		return
	}

	report.Attachments = re.storeAttachments(r.Context(), sub.uploads)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	started := time.Now()
	id, err := re.RDB.InsertOne(ctx, &report)
	api.RecordStoreCall("records", "insert", started, err)
	if err != nil {
		if len(report.Attachments) > 0 {
			zap.S().Warnw("report insert failed, uploaded attachments are orphaned", "attachments", report.Attachments)
		}
		config.ErrorStatus("failed to create report", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("report created", "id", id, "category", report.Category, "attachments", len(report.Attachments))
	re.Feed.Publish(models.FeedEvent{Type: models.FeedReportCreated, Report: report})

	writeJSON(w, http.StatusOK, models.CreateReportResponse{ID: id})
}

// ListReportsHandler returns the most recent reports, newest first
func (re Report) ListReportsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	started := time.Now()
	reports, err := re.RDB.FindRecent(ctx, databases.RecentReportsLimit)
	api.RecordStoreCall("records", "find_recent", started, err)
	if err != nil {
		config.ErrorStatus("failed to list reports", http.StatusInternalServerError, w, err)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// readSubmission walks the multipart body part by part. Files under PhotosField
// are buffered with their arrival time; files under any other name are discarded.
func (re Report) readSubmission(r *http.Request) (*submission, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	clock := re.now
	if clock == nil {
		clock = time.Now
	}

	sub := &submission{fields: map[string]string{}}
	var last time.Time
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return sub, nil
		}
		if err != nil {
			return nil, err
		}

		name := part.FormName()
		if part.FileName() == "" {
			b, err := io.ReadAll(part)
			part.Close()
			if err != nil {
				return nil, fmt.Errorf("read field %s: %w", name, err)
			}
			if _, seen := sub.fields[name]; !seen {
				sub.fields[name] = string(b)
			}
			continue
		}

		if name != PhotosField {
			_, _ = io.Copy(io.Discard, part)
			part.Close()
			continue
		}
		// keys carry millisecond stamps, so two files in the same millisecond
		// would collide when they share a name
		arrived := clock().Truncate(time.Millisecond)
		if !arrived.After(last) && !last.IsZero() {
			arrived = last.Add(time.Millisecond)
		}
		last = arrived
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("read file %s: %w", part.FileName(), err)
		}
		sub.uploads = append(sub.uploads, upload{
			filename:    part.FileName(),
			contentType: part.Header.Get("Content-Type"),
			arrived:     arrived,
			data:        data,
		})
	}
}

// report builds the record from the scalar fields. Status, id and creation
// time are left for the store to assign.
func (s *submission) report() (models.Report, error) {
	lat, err := parseCoordinate(s.fields["lat"], 90)
	if err != nil {
		return models.Report{}, fmt.Errorf("lat: %w", err)
	}
	lng, err := parseCoordinate(s.fields["lng"], 180)
	if err != nil {
		return models.Report{}, fmt.Errorf("lng: %w", err)
	}
	return models.Report{
		Title:           strings.TrimSpace(s.fields["title"]),
		Category:        models.Category(strings.TrimSpace(s.fields["category"])),
		Description:     strings.TrimSpace(s.fields["description"]),
		Severity:        models.Severity(strings.TrimSpace(s.fields["severity"])),
		Lat:             lat,
		Lng:             lng,
		ReporterContact: strings.TrimSpace(s.fields["reporter_contact"]),
	}, nil
}

// parseCoordinate maps a blank value to nil
func parseCoordinate(raw string, limit float64) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
		return nil, fmt.Errorf("%w %q", errBadCoordinate, raw)
	}
	return &v, nil
}

// storeAttachments uploads each file in order and returns the references that succeeded
func (re Report) storeAttachments(parent context.Context, uploads []upload) []string {
	refs := []string{}
	for _, u := range uploads {
		key := storage.AttachmentKey(u.arrived, u.filename)
		ctx, cancel := api.WithQueryTimeout(parent)
		started := time.Now()
		ref, err := re.Store.Store(ctx, key, u.data, u.contentType)
		cancel()
		api.RecordStoreCall("attachments", "store", started, err)
		if err != nil {
			api.RecordAttachmentDropped()
			zap.S().Warnw("failed to store attachment, skipping", "key", key, "error", err)
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorw("failed to encode response", "error", err)
	}
}
