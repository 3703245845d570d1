package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/civic-report-api/api"
	"github.com/linesmerrill/civic-report-api/config"
	"github.com/linesmerrill/civic-report-api/databases"
	"github.com/linesmerrill/civic-report-api/models"
)

// Admin handles the administrator's report workflow
type Admin struct {
	RDB  databases.ReportDatabase
	Feed *Feed
}

// GetReportHandler returns a single report by id
func (h Admin) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["report_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	started := time.Now()
	report, err := h.RDB.FindByID(ctx, id)
	api.RecordStoreCall("records", "find_by_id", started, err)
	if errors.Is(err, databases.ErrReportNotFound) {
		config.ErrorStatus("report not found", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to get report", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// UpdateReportStatusHandler moves a report to another workflow status
func (h Admin) UpdateReportStatusHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["report_id"]

	var req models.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !req.Status.Valid() {
		config.ErrorStatus("invalid status", http.StatusBadRequest, w, errors.New(string(req.Status)))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	started := time.Now()
	report, err := h.RDB.UpdateStatus(ctx, id, req.Status)
	api.RecordStoreCall("records", "update_status", started, err)
	if errors.Is(err, databases.ErrReportNotFound) {
		config.ErrorStatus("report not found", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to update report status", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("report status changed",
		"id", id,
		"status", report.Status,
		"admin", api.AdminFromContext(r.Context()),
	)
	h.Feed.Publish(models.FeedEvent{Type: models.FeedReportStatus, Report: *report})

	writeJSON(w, http.StatusOK, report)
}
