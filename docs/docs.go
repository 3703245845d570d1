// Package docs Civic Report API.
//
// Citizen infrastructure reports: submission with photos, public listing and
// a small admin surface for moving reports through their workflow.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - multipart/form-data
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - basic
//     - bearer
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//    bearer:
//      type: apiKey
//      name: Authorization
//      in: header
//
// swagger:meta
package docs

import (
	"github.com/linesmerrill/civic-report-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /api/reports reports createReport
// Submits a new report. Photos that fail to upload are left out of the report.
// consumes:
//   - multipart/form-data
// responses:
//   200: createReportResponse
//   400: errorResponse
//   500: errorResponse

// swagger:parameters createReport
type createReportParams struct {
	// in:formData
	// required: true
	Title string `json:"title"`
	// in:formData
	// required: true
	// enum: Road,Street Light,Drainage,Water,Power,Garbage,Other
	Category string `json:"category"`
	// in:formData
	// required: true
	Description string `json:"description"`
	// in:formData
	// enum: Low,Medium,High,Critical
	Severity string `json:"severity"`
	// in:formData
	Lat string `json:"lat"`
	// in:formData
	Lng string `json:"lng"`
	// in:formData
	ReporterContact string `json:"reporter_contact"`
	// in:formData
	// swagger:file
	Photos interface{} `json:"photos"`
}

// The id of the stored report
// swagger:response createReportResponse
type createReportResponseWrapper struct {
	// in:body
	Body models.CreateReportResponse
}

// swagger:route GET /api/reports reports listReports
// Lists up to 200 reports, newest first.
// responses:
//   200: reportsResponse
//   500: errorResponse

// swagger:response reportsResponse
type reportsResponseWrapper struct {
	// in:body
	Body []models.Report
}

// swagger:route GET /api/site site siteSettings
// Public settings for the submission form.
// responses:
//   200: siteResponse

// swagger:response siteResponse
type siteResponseWrapper struct {
	// in:body
	Body models.SiteResponse
}

// swagger:route POST /api/admin/token admin adminToken
// Exchanges admin credentials for a bearer token.
// security:
//   basic:
// responses:
//   200: adminTokenResponse
//   401: errorResponse

// swagger:response adminTokenResponse
type adminTokenResponseWrapper struct {
	// in:body
	Body models.AdminTokenResponse
}

// swagger:route GET /api/admin/reports/{report_id} admin adminGetReport
// Gets a single report by ID.
// security:
//   bearer:
// responses:
//   200: reportResponse
//   401: errorResponse
//   404: errorResponse

// swagger:route PATCH /api/admin/reports/{report_id}/status admin updateReportStatus
// Changes the status of a report.
// security:
//   bearer:
// responses:
//   200: reportResponse
//   400: errorResponse
//   401: errorResponse
//   404: errorResponse

// swagger:parameters adminGetReport updateReportStatus
type reportIDParam struct {
	// in:path
	// required: true
	ReportID string `json:"report_id"`
}

// swagger:parameters updateReportStatus
type updateStatusParams struct {
	// in:body
	Body models.UpdateStatusRequest
}

// swagger:response reportResponse
type reportResponseWrapper struct {
	// in:body
	Body models.Report
}

// swagger:route GET /api/admin/reports/export admin exportReports
// Downloads the 200 most recent reports as an xlsx workbook.
// produces:
//   - application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// security:
//   bearer:
// responses:
//   200: description: xlsx workbook
//   401: errorResponse

// swagger:route GET /api/admin/feed admin liveFeed
// Websocket stream of report.created and report.status events. The token may
// be passed as the token query parameter.
// security:
//   bearer:
// responses:
//   101: feedEvent
//   401: errorResponse

// swagger:response feedEvent
type feedEventWrapper struct {
	// in:body
	Body models.FeedEvent
}

// swagger:response errorResponse
type errorResponseWrapper struct {
	// in:body
	Body models.ErrorResponse
}
