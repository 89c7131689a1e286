package mcp

import (
	"errors"
	"testing"
	"time"
)

func TestToolParams(t *testing.T) {
	if got := toolParams(nil); got != nil {
		t.Errorf("toolParams(nil) = %v, want nil", got)
	}

	got := toolParams(map[string]any{"id": 3, "steps": -1.5})
	want := map[string]string{"id": "3", "steps": "-1.5", "_param_count": "2"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestAuditEntryFields(t *testing.T) {
	entry := AuditEntry{
		Timestamp:  time.Now(),
		Tool:       "spike_tick",
		DurationMs: 4,
		Status:     "error",
		Error:      errors.New("boom").Error(),
	}
	f := entry.fields()
	if f["kind"] != "mcp_tool" || f["tool"] != "spike_tick" || f["error"] != "boom" {
		t.Errorf("unexpected fields %v", f)
	}
	if _, ok := f["params"]; ok {
		t.Error("empty params should be omitted")
	}
}
