package decoder

import (
	"context"
	"errors"
	"testing"

	"github.com/Adda-Baaj/vpic-harvester/pkg/sources"
)

type fakeProcessor struct {
	calls []string
	fail  map[string]error
}

func (f *fakeProcessor) Process(_ context.Context, src sources.Source) (Result, error) {
	f.calls = append(f.calls, src.ID)
	return Result{SourceID: src.ID}, f.fail[src.ID]
}

func TestServiceRunAggregatesSourceErrors(t *testing.T) {
	boom := errors.New("boom")
	proc := &fakeProcessor{fail: map[string]error{"b": boom}}
	svc := NewService(proc, nil)

	err := svc.Run(context.Background(), []sources.Source{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap boom, got %v", err)
	}
	if len(proc.calls) != 3 {
		t.Fatalf("expected all sources processed, got %v", proc.calls)
	}
}

func TestServiceRunAllCancelsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := &fakeProcessor{}
	errs := NewService(proc, nil).runAll(ctx, []sources.Source{{ID: "p"}})
	if len(errs) != 0 {
		t.Fatalf("expected no errors on cancelled context, got %v", errs)
	}
	if len(proc.calls) != 0 {
		t.Fatalf("expected no sources processed, got %v", proc.calls)
	}
}

func TestRunReturnsOnEmptySources(t *testing.T) {
	if err := NewService(&fakeProcessor{}, nil).Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error when sources list empty")
	}
	var svc *Service
	if err := svc.Run(context.Background(), []sources.Source{{ID: "a"}}); err == nil {
		t.Fatalf("expected error for nil service")
	}
}
