package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Adda-Baaj/vpic-harvester/internal/config"
	"github.com/Adda-Baaj/vpic-harvester/pkg/publishers"
)

// fakeVPIC answers DecodeVINValuesBatch with one FORD row per requested VIN.
func fakeVPIC(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/vehicles/DecodeVINValuesBatch") {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		*calls++

		var results []map[string]string
		for _, token := range strings.Split(r.PostForm.Get("data"), ";") {
			vin, year, _ := strings.Cut(token, ",")
			results = append(results, map[string]string{
				"VIN":       vin,
				"ModelYear": year,
				"Make":      "FORD",
				"ErrorCode": "0",
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"Count": len(results), "Results": results})
	}))
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestHarvesterSinglePassPublishesAndDedupes(t *testing.T) {
	var vpicCalls int
	vpicSrv := fakeVPIC(t, &vpicCalls)
	defer vpicSrv.Close()

	var mu sync.Mutex
	var events []publishers.Event
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt publishers.Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			t.Errorf("decode event: %v", err)
		}
		mu.Lock()
		events = append(events, evt)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer hook.Close()

	dir := t.TempDir()
	cfg := &config.Config{
		VPICBaseURL: vpicSrv.URL + "/api",
		SourcesFile: writeConfig(t, dir, "sources.yaml", `
sources:
  - id: inline
    type: static
    request_delay_ms: 1
    config:
      vins:
        - 1FTFW1CT5DFC10312,2013
        - 5UXWX7C5*BA,2011
        - 3GNDA13D76S000000
`),
		PublishersFile: writeConfig(t, dir, "publishers.yaml", `
publishers:
  - id: hook
    type: http
    http:
      url: `+hook.URL+`
`),
		BatchSize:   2,
		StorageType: "bbolt",
		BBoltPath:   filepath.Join(dir, "decoded.db"),
	}

	h, err := NewHarvester(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewHarvester: %v", err)
	}
	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if vpicCalls != 2 {
		t.Fatalf("expected 2 batch calls for 3 vins with batch size 2, got %d", vpicCalls)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 published events, got %d", len(events))
	}
	if events[0].SourceID != "inline" || events[0].Vehicle.Make != "FORD" || events[0].Vehicle.ModelYear != "2013" {
		t.Fatalf("unexpected first event %+v", events[0])
	}

	// a second run over the same store decodes nothing new
	h, err = NewHarvester(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewHarvester (second): %v", err)
	}
	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run (second): %v", err)
	}
	if vpicCalls != 2 || len(events) != 3 {
		t.Fatalf("expected no new work on second pass, calls=%d events=%d", vpicCalls, len(events))
	}
}

func TestHarvesterArchivesWithoutPublishersFile(t *testing.T) {
	var vpicCalls int
	vpicSrv := fakeVPIC(t, &vpicCalls)
	defer vpicSrv.Close()

	dir := t.TempDir()
	cfg := &config.Config{
		VPICBaseURL: vpicSrv.URL + "/api/",
		SourcesFile: writeConfig(t, dir, "sources.yaml", `
sources:
  - id: inline
    type: static
    config:
      vins: [1FTFW1CT5DFC10312]
`),
		BatchSize:   50,
		StorageType: "none",
	}

	h, err := NewHarvester(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewHarvester: %v", err)
	}
	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if vpicCalls != 1 {
		t.Fatalf("expected 1 batch call, got %d", vpicCalls)
	}
}

func TestNewHarvesterValidatesInputs(t *testing.T) {
	if _, err := NewHarvester(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	cfg := &config.Config{SourcesFile: filepath.Join(t.TempDir(), "absent.yaml")}
	if _, err := NewHarvester(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for missing sources file")
	}
}
