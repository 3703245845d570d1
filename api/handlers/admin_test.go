package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/linesmerrill/civic-report-api/models"
)

func seedReport(t *testing.T, ta *testApp) string {
	t.Helper()
	lat := 39.78
	id, err := ta.records.InsertOne(context.Background(), &models.Report{
		Title:       "Flooded underpass",
		Category:    models.CategoryDrainage,
		Description: "Water up to the curb",
		Lat:         &lat,
		Attachments: []string{"reports/1700000000000_flood.jpg"},
	})
	require.NoError(t, err)
	return id
}

func statusRequest(t *testing.T, id, token, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/reports/"+id+"/status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAdminToken_BadCredentials(t *testing.T) {
	ta := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/token", nil)
	req.SetBasicAuth(testAdminEmail, "nope")

	rr := ta.do(req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rr.Body.String())
}

func TestAdmin_RoutesRequireToken(t *testing.T) {
	ta := newTestApp(t)
	id := seedReport(t, ta)

	tests := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/admin/reports/"+id, nil),
		httptest.NewRequest(http.MethodGet, "/api/admin/reports/export", nil),
		httptest.NewRequest(http.MethodGet, "/api/admin/feed", nil),
		statusRequest(t, id, "", `{"status":"Resolved"}`),
		statusRequest(t, id, "abc123", `{"status":"Resolved"}`),
	}
	for _, req := range tests {
		t.Run(req.Method+" "+req.URL.Path, func(t *testing.T) {
			rr := ta.do(req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
	got, err := ta.records.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, got.Status)
}

func TestAdmin_UpdateReportStatus(t *testing.T) {
	ta := newTestApp(t)
	id := seedReport(t, ta)
	token := adminToken(t, ta)

	rr := ta.do(statusRequest(t, id, token, `{"status":"In Progress"}`))

	require.Equal(t, http.StatusOK, rr.Code)
	var updated models.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, id, updated.ID.Hex())
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, "Flooded underpass", updated.Title)
	assert.Equal(t, []string{"reports/1700000000000_flood.jpg"}, updated.Attachments)

	listed := ta.list(t)
	require.Len(t, listed, 1)
	assert.Equal(t, models.StatusInProgress, listed[0].Status)
}

func TestAdmin_UpdateReportStatusErrors(t *testing.T) {
	ta := newTestApp(t)
	id := seedReport(t, ta)
	token := adminToken(t, ta)

	tests := []struct {
		name           string
		id             string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{name: "bad json", id: id, body: `{"status":`, expectedStatus: http.StatusBadRequest, expectedError: "failed to decode request body"},
		{name: "unknown status", id: id, body: `{"status":"Closed"}`, expectedStatus: http.StatusBadRequest, expectedError: "invalid status"},
		{name: "empty status", id: id, body: `{}`, expectedStatus: http.StatusBadRequest, expectedError: "invalid status"},
		{name: "unknown report", id: "5f8d0d55b54764421b7156c9", body: `{"status":"Resolved"}`, expectedStatus: http.StatusNotFound, expectedError: "report not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ta.do(statusRequest(t, tt.id, token, tt.body))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.JSONEq(t, `{"error":`+mustJSON(t, tt.expectedError)+`}`, rr.Body.String())
		})
	}
}

func TestAdmin_GetReport(t *testing.T) {
	ta := newTestApp(t)
	id := seedReport(t, ta)
	token := adminToken(t, ta)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/reports/"+id, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := ta.do(req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got models.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, id, got.ID.Hex())

	missing := httptest.NewRequest(http.MethodGet, "/api/admin/reports/nope", nil)
	missing.Header.Set("Authorization", "Bearer "+token)
	rr = ta.do(missing)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdmin_ExportReports(t *testing.T) {
	ta := newTestApp(t)
	id := seedReport(t, ta)
	token := adminToken(t, ta)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/reports/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := ta.do(req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rr.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Disposition"), "attachment; filename="))

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Reports", "A1")
	require.NoError(t, err)
	assert.Equal(t, "ID", header)

	cell, err := f.GetCellValue("Reports", "A2")
	require.NoError(t, err)
	assert.Equal(t, id, cell)

	title, err := f.GetCellValue("Reports", "F2")
	require.NoError(t, err)
	assert.Equal(t, "Flooded underpass", title)

	lng, err := f.GetCellValue("Reports", "I2")
	require.NoError(t, err)
	assert.Empty(t, lng)
}

func TestAdmin_ExportReportsHeaderLayout(t *testing.T) {
	ta := newTestApp(t)
	seedReport(t, ta)
	token := adminToken(t, ta)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/reports/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := ta.do(req)
	require.Equal(t, http.StatusOK, rr.Code)

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	for _, cell := range []string{"A1", "K1"} {
		styleID, err := f.GetCellStyle("Reports", cell)
		require.NoError(t, err)
		style, err := f.GetStyle(styleID)
		require.NoError(t, err)
		require.NotNil(t, style.Font, cell)
		assert.True(t, style.Font.Bold, cell)
	}

	last, err := f.GetCellValue("Reports", "K1")
	require.NoError(t, err)
	assert.Equal(t, "Attachments", last)

	width, err := f.GetColWidth("Reports", "K")
	require.NoError(t, err)
	assert.Equal(t, float64(18), width)
}
