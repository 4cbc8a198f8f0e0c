package vpic

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	batchEntrySep = ";"
	batchYearSep  = ","
)

// MaxBatchSize is the service limit on VINs per DecodeVINValuesBatch call.
// EncodeBatch does not enforce it.
const MaxBatchSize = 50

// VINYear pairs a (possibly partial) VIN with an optional model year. A zero Year
// is omitted from requests.
type VINYear struct {
	VIN  string `json:"vin" yaml:"vin"`
	Year int    `json:"year,omitempty" yaml:"year,omitempty"`
}

func (p VINYear) token() string {
	if p.Year == 0 {
		return p.VIN
	}
	return p.VIN + batchYearSep + strconv.Itoa(p.Year)
}

// EncodeBatch joins pairs into the "VIN[,YEAR];VIN[,YEAR]" form accepted by
// DecodeVINValuesBatch. VINs are not validated and no length limit is applied.
func EncodeBatch(pairs []VINYear) string {
	tokens := make([]string, len(pairs))
	for i, p := range pairs {
		tokens[i] = p.token()
	}
	return strings.Join(tokens, batchEntrySep)
}

// ParseVINYear parses a single "VIN" or "VIN,YEAR" token.
func ParseVINYear(raw string) (VINYear, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return VINYear{}, fmt.Errorf("empty vin entry")
	}

	vin, yearRaw, hasYear := strings.Cut(raw, batchYearSep)
	pair := VINYear{VIN: strings.TrimSpace(vin)}
	if pair.VIN == "" {
		return VINYear{}, fmt.Errorf("vin entry %q has no vin", raw)
	}
	if !hasYear || strings.TrimSpace(yearRaw) == "" {
		return pair, nil
	}

	year, err := strconv.Atoi(strings.TrimSpace(yearRaw))
	if err != nil {
		return VINYear{}, fmt.Errorf("vin entry %q: invalid year: %w", raw, err)
	}
	pair.Year = year
	return pair, nil
}
