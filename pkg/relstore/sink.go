package relstore

import (
	"context"
	"fmt"
	"log/slog"
)

// LimitPolicy decides what happens to a value that would exceed a relation limit
type LimitPolicy int

const (
	// LimitReject reports the violation and drops the value
	LimitReject LimitPolicy = iota
	// LimitWarn reports the violation and appends the value anyway
	LimitWarn
)

// String returns "reject" or "warn"
func (p LimitPolicy) String() string {
	switch p {
	case LimitReject:
		return "reject"
	case LimitWarn:
		return "warn"
	default:
		return fmt.Sprintf("LimitPolicy(%d)", int(p))
	}
}

// ParseLimitPolicy parses "reject" or "warn"
func ParseLimitPolicy(s string) (LimitPolicy, error) {
	switch s {
	case "reject":
		return LimitReject, nil
	case "warn":
		return LimitWarn, nil
	default:
		return 0, fmt.Errorf("unknown limit policy %q (expected reject or warn)", s)
	}
}

// Violation describes a one-to-many relation exceeding its limit
type Violation struct {
	Concept  string      // Source concept
	Relation string      // Table name
	SourceID any         // Source identifier
	Limit    int         // Declared limit
	Count    int         // Length the sequence would have with the new value
	Policy   LimitPolicy // Whether the value was dropped or appended
}

// Rejected reports whether the value was dropped
func (v Violation) Rejected() bool {
	return v.Policy == LimitReject
}

// String returns a human readable description
func (v Violation) String() string {
	outcome := "appended"
	if v.Rejected() {
		outcome = "rejected"
	}
	return fmt.Sprintf("%s.%s: %v would hold %d values, limit is %d (%s)",
		v.Concept, v.Relation, v.SourceID, v.Count, v.Limit, outcome)
}

// Sink receives limit violations. It is the single notification channel of a store;
// the host decides how violations are surfaced.
type Sink interface {
	Notify(v Violation)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(v Violation)

// Notify calls f(v)
func (f SinkFunc) Notify(v Violation) {
	f(v)
}

// Discard ignores every violation
var Discard Sink = SinkFunc(func(Violation) {})

// LogSink logs every violation at warn level
func LogSink(logger *slog.Logger) Sink {
	return SinkFunc(func(v Violation) {
		logger.LogAttrs(context.Background(), slog.LevelWarn, "relation limit exceeded",
			slog.String("concept", v.Concept),
			slog.String("relation", v.Relation),
			slog.Any("source_id", v.SourceID),
			slog.Int("limit", v.Limit),
			slog.Int("count", v.Count),
			slog.String("policy", v.Policy.String()),
		)
	})
}

// Fanout forwards every violation to each non-nil sink in order
func Fanout(sinks ...Sink) Sink {
	return SinkFunc(func(v Violation) {
		for _, s := range sinks {
			if s != nil {
				s.Notify(v)
			}
		}
	})
}
