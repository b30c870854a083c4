package models

import "time"

// Severity classifies a status report.
type Severity string

const (
	SeverityOK      Severity = "ok"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityPending Severity = "pending"
	SeverityIdle    Severity = "idle"
)

// Status is the advisory state descriptor a node reports to the host.
// The zero value clears the indicator.
type Status struct {
	Severity Severity `json:"severity,omitempty"`
	Text     string   `json:"text,omitempty"`
}

func StatusOK(text string) Status      { return Status{Severity: SeverityOK, Text: text} }
func StatusWarning(text string) Status { return Status{Severity: SeverityWarning, Text: text} }
func StatusError(text string) Status   { return Status{Severity: SeverityError, Text: text} }
func StatusPending(text string) Status { return Status{Severity: SeverityPending, Text: text} }
func StatusIdle(text string) Status    { return Status{Severity: SeverityIdle, Text: text} }

// IsCleared reports whether the status is the empty descriptor.
func (s Status) IsCleared() bool {
	return s.Severity == "" && s.Text == ""
}

// NodeStatus is the last status a node reported, as kept by the host.
type NodeStatus struct {
	NodeID     string    `json:"node_id"`
	NodeType   string    `json:"node_type"`
	Status     Status    `json:"status"`
	ReportedAt time.Time `json:"reported_at"`
}
