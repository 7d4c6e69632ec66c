package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"

	"github.com/roach88/sparqlc/internal/ir"
)

// goldenSuffix is the file extension of golden traces.
const goldenSuffix = ".golden"

// TraceSnapshot captures the trace of a scenario run.
// It is serialized with canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"seq":     event.Seq,
			"step":    event.Step,
			"op":      event.Op,
			"outcome": event.Outcome,
		}
		if event.RequestID != "" {
			eventMap["request_id"] = event.RequestID
		}
		if event.Query != "" {
			eventMap["query"] = event.Query
		}
		if event.Status != 0 {
			eventMap["status"] = event.Status
		}
		if event.Value != nil {
			eventMap["value"] = event.Value
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// Snapshot serializes a result's trace as canonical JSON.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: scenarioName, Trace: result.Trace}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(goldenSuffix),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}

// ErrGoldenMismatch is returned by CheckGolden when a trace differs from
// its golden file.
var ErrGoldenMismatch = errors.New("trace does not match golden file")

// CheckGolden compares data with dir/name.golden on fs, outside of go test.
// With update set, the file is (re)written instead. A missing golden file
// is written on first run.
func CheckGolden(fsys afero.Fs, dir, name string, data []byte, update bool) (written bool, err error) {
	path := filepath.Join(dir, name+goldenSuffix)

	existing, err := afero.ReadFile(fsys, path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		update = true
	case err != nil:
		return false, fmt.Errorf("read golden file: %w", err)
	}

	if update {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create golden dir: %w", err)
		}
		if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
			return false, fmt.Errorf("write golden file: %w", err)
		}
		return true, nil
	}

	if !bytes.Equal(existing, data) {
		return false, fmt.Errorf("%w: %s", ErrGoldenMismatch, path)
	}
	return false, nil
}
