// Package notifications polls the per-user notification feed and reconciles
// it with locally tracked read state.
package notifications

import "time"

// Severity is the UI severity taxonomy.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
)

// MapSeverity maps the server's severity vocabulary into the UI taxonomy.
// Unknown values degrade to info rather than failing the fetch.
func MapSeverity(server string) Severity {
	switch server {
	case "critical", "danger":
		return SeverityError
	case "warning":
		return SeverityWarning
	case "success":
		return SeveritySuccess
	default:
		return SeverityInfo
	}
}

// SourceMeta carries provenance for a notification.
type SourceMeta struct {
	Source string `json:"source,omitempty"`
	Region string `json:"region,omitempty"`
}

// Notification is one feed entry. The server is authoritative for existence
// and content; the client is authoritative for Read.
type Notification struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Severity   Severity   `json:"severity"`
	Timestamp  time.Time  `json:"timestamp"`
	Read       bool       `json:"read"`
	SourceMeta SourceMeta `json:"sourceMeta"`
}

// ServerNotification is the wire shape of a feed entry.
type ServerNotification struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Severity   string     `json:"severity"`
	Timestamp  time.Time  `json:"timestamp"`
	SourceMeta SourceMeta `json:"sourceMeta"`
}
