package mcp

import (
	"fmt"
	"time"
)

// AuditEntry represents a single audit log entry for an MCP tool invocation.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Tool       string            `json:"tool"`
	DurationMs int64             `json:"duration_ms"`
	Status     string            `json:"status"` // "success" or "error"
	Error      string            `json:"error,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

// toolParams renders tool arguments as strings for the audit log.
// A "_param_count" key is always included.
func toolParams(params map[string]any) map[string]string {
	if params == nil {
		return nil
	}
	result := make(map[string]string, len(params)+1)
	for key, val := range params {
		result[key] = fmt.Sprintf("%v", val)
	}
	result["_param_count"] = fmt.Sprintf("%d", len(params))
	return result
}

func (e AuditEntry) fields() map[string]any {
	m := map[string]any{
		"kind":        "mcp_tool",
		"tool":        e.Tool,
		"duration_ms": e.DurationMs,
		"status":      e.Status,
	}
	if e.Error != "" {
		m["error"] = e.Error
	}
	if len(e.Params) > 0 {
		m["params"] = e.Params
	}
	return m
}

// auditTool logs a tool invocation to the journal and the debug log.
func (s *Server) auditTool(toolName string, start time.Time, err error, params map[string]any) {
	entry := AuditEntry{
		Timestamp:  start,
		Tool:       toolName,
		DurationMs: time.Since(start).Milliseconds(),
		Status:     "success",
		Params:     toolParams(params),
	}
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
	}

	s.audit.Log(entry.fields())
	s.logger.Debug("mcp tool", "tool", toolName, "status", entry.Status, "duration_ms", entry.DurationMs)
}
