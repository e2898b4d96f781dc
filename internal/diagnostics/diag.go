package diagnostics

import "time"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Codes pushed by the host.
const (
	CodeCompositor   = "RENDER.COMPOSITOR"
	CodeResize       = "LAYOUT.RESIZE"
	CodeBadMessage   = "CONTROL.BAD_MESSAGE"
	CodeUnknownOp    = "CONTROL.UNKNOWN_OP"
	CodeLampFallback = "LAMP.FALLBACK"
	CodeLampWrite    = "LAMP.WRITE"
	CodeConfigSave   = "CONFIG.SAVE"
)

type Diagnostic struct {
	Time           time.Time      `json:"time"`
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// New stamps a diagnostic with the current time.
func New(sev Severity, code, summary string) Diagnostic {
	return Diagnostic{Time: time.Now().UTC(), Severity: sev, Code: code, Summary: summary}
}

// With returns d with one evidence entry added.
func (d Diagnostic) With(key string, v any) Diagnostic {
	ev := make(map[string]any, len(d.Evidence)+1)
	for k, old := range d.Evidence {
		ev[k] = old
	}
	ev[key] = v
	d.Evidence = ev
	return d
}
