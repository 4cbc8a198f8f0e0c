package domain

import (
	"testing"
	"time"
)

func TestNewDecodedVehicle(t *testing.T) {
	at := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))
	v := NewDecodedVehicle("fleet", map[string]string{
		FieldVIN:       "2C4RDGCG4DR524227",
		FieldMake:      "DODGE",
		FieldModel:     "Grand Caravan",
		FieldModelYear: "2013",
		FieldErrorCode: "0",
		"Trim":         "",
	}, at)

	if v.VIN != "2C4RDGCG4DR524227" || v.Make != "DODGE" || v.ModelYear != "2013" {
		t.Fatalf("unexpected vehicle %+v", v)
	}
	if _, ok := v.Variables["Trim"]; ok {
		t.Fatalf("expected empty variables to be dropped")
	}
	if v.DecodedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", v.DecodedAt.Location())
	}
	if !v.Clean() {
		t.Fatalf("expected error code 0 to be clean")
	}

	v.ErrorCode = "1,11"
	if v.Clean() {
		t.Fatalf("expected error code 1 to be reported")
	}

	v.ErrorCode = "0,400"
	if !v.Clean() {
		t.Fatalf("expected leading code 0 to be clean")
	}

	v.ErrorCode = "10"
	if v.Clean() {
		t.Fatalf("expected error code 10 to be reported")
	}
}
