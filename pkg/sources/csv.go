package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Adda-Baaj/vpic-harvester/pkg/vpic"
)

const (
	defaultVINColumn  = "vin"
	defaultYearColumn = "year"
)

// Row is one CSV record keyed by its lower-cased header.
type Row map[string]string

// LoadRows reads a CSV file whose first record is the header.
func LoadRows(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()
	return ParseRows(file)
}

// ParseRows reads header-keyed rows from r. Blank lines are skipped and
// short records leave the missing columns empty.
func ParseRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []Row
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
}

// PairsFromRows maps rows to VIN/year pairs. Rows without a VIN are skipped and
// an empty year cell means no year.
func PairsFromRows(rows []Row, vinColumn, yearColumn string) ([]vpic.VINYear, error) {
	vinColumn = strings.ToLower(vinColumn)
	yearColumn = strings.ToLower(yearColumn)

	pairs := make([]vpic.VINYear, 0, len(rows))
	for i, row := range rows {
		vin := row[vinColumn]
		if vin == "" {
			continue
		}
		pair := vpic.VINYear{VIN: vin}
		if raw := row[yearColumn]; raw != "" {
			year, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid year %q", i+2, raw)
			}
			pair.Year = year
		}
		pairs = append(pairs, pair)
	}
	return dedupePairs(pairs), nil
}

func csvColumns(src Source) (string, string) {
	return ConfigString(src, ConfigVINColumnKey, defaultVINColumn),
		ConfigString(src, ConfigYearColumnKey, defaultYearColumn)
}

// CSVLoader reads pairs from a local CSV file.
type CSVLoader struct{}

func NewCSVLoader() *CSVLoader { return &CSVLoader{} }

func (*CSVLoader) Type() string { return TypeCSV }

func (*CSVLoader) Load(ctx context.Context, src Source) ([]vpic.VINYear, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := LoadRows(src.Location)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", src.ID, err)
	}
	vinCol, yearCol := csvColumns(src)
	return PairsFromRows(rows, vinCol, yearCol)
}

// HTTPCSVLoader downloads a CSV document and reads pairs from it.
type HTTPCSVLoader struct {
	client HTTPClient
}

func NewHTTPCSVLoader(client HTTPClient) *HTTPCSVLoader {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &HTTPCSVLoader{client: client}
}

func (*HTTPCSVLoader) Type() string { return TypeHTTPCSV }

func (l *HTTPCSVLoader) Load(ctx context.Context, src Source) ([]vpic.VINYear, error) {
	body, err := download(ctx, l.client, src)
	if err != nil {
		return nil, err
	}
	rows, err := ParseRows(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", src.ID, err)
	}
	vinCol, yearCol := csvColumns(src)
	return PairsFromRows(rows, vinCol, yearCol)
}

// dedupePairs drops repeated VIN/year pairs, keeping first occurrence order.
func dedupePairs(pairs []vpic.VINYear) []vpic.VINYear {
	seen := make(map[vpic.VINYear]struct{}, len(pairs))
	out := pairs[:0]
	for _, p := range pairs {
		p.VIN = strings.ToUpper(strings.TrimSpace(p.VIN))
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
