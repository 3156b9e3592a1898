package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func runLint(t *testing.T, emptyRatio, threshold float64) (int, report, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(emptyRatio, threshold, &out, &errOut)

	var r report
	if out.Len() > 0 {
		if err := json.Unmarshal(out.Bytes(), &r); err != nil {
			t.Fatalf("bad report output %q: %v", out.String(), err)
		}
	}
	return code, r, errOut.String()
}

func TestGatePasses(t *testing.T) {
	code, r, _ := runLint(t, 0.03, 5)
	if code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}
	if !r.Pass || r.Status != "healthy" {
		t.Errorf("report = %+v", r)
	}
}

func TestGateBoundaryIsInclusive(t *testing.T) {
	// 5% against a threshold of 5 must pass: the gate is <=, not <.
	code, r, _ := runLint(t, 0.05, 5)
	if code != 0 {
		t.Fatalf("exit = %d, want 0 at the boundary", code)
	}
	if !r.Pass {
		t.Errorf("report = %+v", r)
	}
}

func TestGateFails(t *testing.T) {
	code, r, stderr := runLint(t, 0.12, 5)
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if r.Pass {
		t.Errorf("report = %+v", r)
	}
	if r.Status != "critical" {
		t.Errorf("status = %s, want critical at ratio 0.12", r.Status)
	}
	if !strings.Contains(stderr, "quality gate failed") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestGateWarningStillPassesHighThreshold(t *testing.T) {
	// Ratio in the warning band passes a generous threshold but keeps the
	// warning status in the report.
	code, r, _ := runLint(t, 0.08, 10)
	if code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}
	if r.Status != "warning" {
		t.Errorf("status = %s, want warning", r.Status)
	}
}

func TestGateRejectsBadInputs(t *testing.T) {
	if code, _, _ := runLint(t, -0.1, 5); code != 2 {
		t.Errorf("negative ratio exit = %d, want 2", code)
	}
	if code, _, _ := runLint(t, 1.5, 5); code != 2 {
		t.Errorf("ratio > 1 exit = %d, want 2", code)
	}
	if code, _, _ := runLint(t, 0.05, -1); code != 2 {
		t.Errorf("negative threshold exit = %d, want 2", code)
	}
	if code, _, _ := runLint(t, 0.05, 101); code != 2 {
		t.Errorf("threshold > 100 exit = %d, want 2", code)
	}
}
