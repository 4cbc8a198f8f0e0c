package domain

import (
	"strings"
	"time"
)

// DecodedVehicle is one VIN's decode result as returned by DecodeVINValuesBatch.
type DecodedVehicle struct {
	VIN       string            `json:"vin"`
	ModelYear string            `json:"model_year,omitempty"`
	Make      string            `json:"make,omitempty"`
	Model     string            `json:"model,omitempty"`
	ErrorCode string            `json:"error_code,omitempty"`
	ErrorText string            `json:"error_text,omitempty"`
	Variables map[string]string `json:"variables"`
	SourceID  string            `json:"source_id"`
	DecodedAt time.Time         `json:"decoded_at"`
}

// vPIC field names in DecodeVinValues rows.
const (
	FieldVIN       = "VIN"
	FieldModelYear = "ModelYear"
	FieldMake      = "Make"
	FieldModel     = "Model"
	FieldErrorCode = "ErrorCode"
	FieldErrorText = "ErrorText"
)

// NewDecodedVehicle builds a DecodedVehicle from a flat result row. Empty values
// are dropped from Variables.
func NewDecodedVehicle(sourceID string, row map[string]string, at time.Time) DecodedVehicle {
	vars := make(map[string]string, len(row))
	for k, v := range row {
		if v == "" {
			continue
		}
		vars[k] = v
	}
	return DecodedVehicle{
		VIN:       row[FieldVIN],
		ModelYear: row[FieldModelYear],
		Make:      row[FieldMake],
		Model:     row[FieldModel],
		ErrorCode: row[FieldErrorCode],
		ErrorText: row[FieldErrorText],
		Variables: vars,
		SourceID:  sourceID,
		DecodedAt: at.UTC(),
	}
}

// Clean reports whether vPIC decoded the VIN without errors. The service returns
// ErrorCode "0" (possibly with extra codes appended) on success.
func (v DecodedVehicle) Clean() bool {
	code := strings.TrimSpace(v.ErrorCode)
	if code == "" {
		return true
	}
	first, _, _ := strings.Cut(code, ",")
	return strings.TrimSpace(first) == "0"
}
