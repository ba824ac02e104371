package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gyeh/refload/internal/exitcode"
	"github.com/gyeh/refload/internal/ingest"
	"github.com/gyeh/refload/internal/model"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&ingest.PipelineError{Phase: ingest.PhasePreflight, Err: errors.New("x")}, exitcode.ValidationError},
		{&ingest.PipelineError{Phase: ingest.PhaseFetch, Err: errors.New("x")}, exitcode.FetchError},
		{&ingest.PipelineError{Phase: ingest.PhaseRead, Err: errors.New("x")}, exitcode.ReadError},
		{&ingest.PipelineError{Phase: ingest.PhasePersist, Err: ingest.ErrStoreUnavailable}, exitcode.PersistError},
		{fmt.Errorf("wrapped: %w", &ingest.PipelineError{Phase: ingest.PhaseRead, Err: errors.New("x")}), exitcode.ReadError},
		{errors.New("other"), exitcode.PersistError},
	}
	for _, tt := range tests {
		if got := exitCodeFor(tt.err); got != tt.want {
			t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestGuardForNilCache(t *testing.T) {
	locker, sink := guardFor(nil)
	if locker != nil || sink != nil {
		t.Errorf("nil cache must yield nil interfaces, got %v %v", locker, sink)
	}
}

func TestGroupOf(t *testing.T) {
	if got := groupOf(&model.DrugRecord{PharmaceuticalForm: "Tablet"}); got != "Tablet" {
		t.Errorf("drug group = %q", got)
	}
	if got := groupOf(&model.DiagnosisRecord{Category: "Injury, poisoning and certain other consequences of external causes"}); got == "" {
		t.Error("diagnosis group empty")
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"ingest": false, "import": false, "plan": false, "export": false, "migrate": false, "serve": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}
