package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/linesmerrill/civic-report-api/api"
	"github.com/linesmerrill/civic-report-api/config"
	"github.com/linesmerrill/civic-report-api/databases"
	"github.com/linesmerrill/civic-report-api/models"
)

const (
	exportSheet       = "Reports"
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportTimeLayout  = "2006-01-02 15:04:05"
	exportColumnWidth = 18
)

var exportColumns = []string{
	"ID", "Created", "Status", "Category", "Severity", "Title",
	"Description", "Latitude", "Longitude", "Reporter Contact", "Attachments",
}

// ExportReportsHandler downloads the most recent reports as an xlsx workbook
func (h Admin) ExportReportsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	started := time.Now()
	reports, err := h.RDB.FindRecent(ctx, databases.RecentReportsLimit)
	api.RecordStoreCall("records", "find_recent", started, err)
	if err != nil {
		config.ErrorStatus("failed to list reports", http.StatusInternalServerError, w, err)
		return
	}

	body, err := reportsWorkbook(reports)
	if err != nil {
		config.ErrorStatus("failed to build export", http.StatusInternalServerError, w, err)
		return
	}

	filename := fmt.Sprintf("reports-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func reportsWorkbook(reports []models.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, col); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for rowIdx, rep := range reports {
		row := []interface{}{
			rep.ID.Hex(),
			rep.CreatedAt.UTC().Format(exportTimeLayout),
			string(rep.Status),
			string(rep.Category),
			string(rep.Severity),
			rep.Title,
			rep.Description,
			coordinateCell(rep.Lat),
			coordinateCell(rep.Lng),
			rep.ReporterContact,
			strings.Join(rep.Attachments, "\n"),
		}
		for colIdx, v := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	for i := range exportColumns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(exportSheet, col, col, exportColumnWidth); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func coordinateCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
