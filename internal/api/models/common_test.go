package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starshield/warranty/internal/api/models"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "date only",
			input: `"2025-02-14"`,
			want:  time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339",
			input: `"2025-02-14T10:30:00Z"`,
			want:  time.Date(2025, 2, 14, 10, 30, 0, 0, time.UTC),
		},
		{
			name:    "free text",
			input:   `"yesterday"`,
			wantErr: true,
		},
		{
			name:    "number",
			input:   `20250214`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d models.Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(d.Time()))
		})
	}
}

func TestDate_NullLeavesPointerNil(t *testing.T) {
	var req models.RegisterDeviceRequest
	require.NoError(t, json.Unmarshal([]byte(`{"purchaseDate": null}`), &req))
	assert.Nil(t, req.PurchaseDate)
}

func TestValidationResult_OmitsEmptyPayloads(t *testing.T) {
	data, err := json.Marshal(models.ValidationResult{
		IsValid: false,
		Message: "Device not found or does not match the provided information",
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"isValid":false,"message":"Device not found or does not match the provided information"}`, string(data))
}
