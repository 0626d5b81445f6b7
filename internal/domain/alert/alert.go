// internal/domain/alert/alert.go
package alert

import (
	"fmt"

	"studio_alert_bot/internal/domain/studio"
)

// Severity drives both display styling and ordering.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Weight is the sort key: error=1, warning=2, info=3. Unknown severities sort last.
func (s Severity) Weight() int {
	switch s {
	case SeverityError:
		return 1
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 3
	}
	return 4
}

// SourceKind names the collection an alert was derived from.
type SourceKind string

const (
	SourcePrintJob     SourceKind = "print_job"
	SourcePhotoSession SourceKind = "photo_session"
)

// idPrefix is the domain segment of an alert id.
func (k SourceKind) idPrefix() string {
	if k == SourcePrintJob {
		return "print"
	}
	return "photo"
}

// Kind is the rule that produced an alert.
type Kind string

const (
	KindOverdue    Kind = "overdue"
	KindUpcoming   Kind = "upcoming"
	KindInProgress Kind = "in_progress"
	KindEditing    Kind = "editing"
	KindUnpaid     Kind = "unpaid"
)

// Alert is a derived, read-only notice. Alerts are rebuilt on every evaluation
// and never mutated after construction. Exactly one of PrintJob/PhotoSession is set.
type Alert struct {
	ID           string
	Kind         Kind
	Severity     Severity
	Message      string
	SourceKind   SourceKind
	SourceID     int64
	PrintJob     *studio.PrintJob
	PhotoSession *studio.PhotoSession
}

// ID formats the synthetic alert id {domain}-{kind}-{entityId}.
func ID(source SourceKind, kind Kind, entityID int64) string {
	return fmt.Sprintf("%s-%s-%d", source.idPrefix(), kind, entityID)
}

func newPrintJobAlert(job studio.PrintJob, kind Kind, severity Severity, message string) Alert {
	return Alert{
		ID:         ID(SourcePrintJob, kind, job.ID),
		Kind:       kind,
		Severity:   severity,
		Message:    message,
		SourceKind: SourcePrintJob,
		SourceID:   job.ID,
		PrintJob:   &job,
	}
}

func newPhotoSessionAlert(session studio.PhotoSession, kind Kind, severity Severity, message string) Alert {
	return Alert{
		ID:           ID(SourcePhotoSession, kind, session.ID),
		Kind:         kind,
		Severity:     severity,
		Message:      message,
		SourceKind:   SourcePhotoSession,
		SourceID:     session.ID,
		PhotoSession: &session,
	}
}
