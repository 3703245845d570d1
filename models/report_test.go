package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReport(t *testing.T) {
	tests := []struct {
		name    string
		report  Report
		wantErr string
	}{
		{
			name:   "minimal valid report",
			report: Report{Title: "Pothole", Category: CategoryRoad, Description: "Deep hole by the bus stop"},
		},
		{
			name:   "category with a space",
			report: Report{Title: "Dark corner", Category: CategoryStreetLight, Description: "Lamp out", Severity: SeverityHigh},
		},
		{
			name:    "blank title",
			report:  Report{Title: "   ", Category: CategoryRoad, Description: "x"},
			wantErr: "title is required",
		},
		{
			name:    "missing description",
			report:  Report{Title: "Pothole", Category: CategoryRoad},
			wantErr: "description is required",
		},
		{
			name:    "unknown category",
			report:  Report{Title: "Pothole", Category: "Potholes", Description: "x"},
			wantErr: `invalid category "Potholes"`,
		},
		{
			name:    "unknown severity",
			report:  Report{Title: "Pothole", Category: CategoryRoad, Description: "x", Severity: "Apocalyptic"},
			wantErr: `invalid severity "Apocalyptic"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReport(tt.report)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusOpen.Valid())
	assert.True(t, StatusInProgress.Valid())
	assert.False(t, Status("Closed").Valid())
	assert.False(t, Status("").Valid())
}

func TestReportJSONAbsentCoordinates(t *testing.T) {
	lng := 12.5
	b, err := json.Marshal(Report{Title: "t", Lng: &lng, Attachments: []string{}})
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Nil(t, out["lat"])
	assert.Equal(t, 12.5, out["lng"])
	assert.Equal(t, []interface{}{}, out["attachments"])
}
