// Package diag accumulates the diagnostics of a compilation run.
package diag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/broady/bridgec/ast"
)

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Level returns the slog level diagnostics of this severity are logged at.
func (s Severity) Level() slog.Level {
	switch s {
	case SeverityError:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Entry is one reported diagnostic.
type Entry struct {
	Severity Severity           `json:"severity"`
	Position ast.SourcePosition `json:"position"`
	Message  string             `json:"message"`
}

func (e Entry) String() string {
	if e.Position.IsZero() {
		return fmt.Sprintf("%s: %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Position, e.Severity, e.Message)
}

// Problems is an append-only, ordered diagnostics log. It is safe for
// concurrent use; entries reported by one goroutine keep their relative
// order.
type Problems struct {
	mu      sync.Mutex
	entries []Entry
	errors  int
}

// New returns an empty log.
func New() *Problems {
	return &Problems{}
}

// Error records an error. Any error fails the run.
func (p *Problems) Error(pos ast.SourcePosition, format string, args ...any) {
	p.add(SeverityError, pos, format, args)
}

// Warning records a warning.
func (p *Problems) Warning(pos ast.SourcePosition, format string, args ...any) {
	p.add(SeverityWarning, pos, format, args)
}

// Info records an informational note without a position.
func (p *Problems) Info(format string, args ...any) {
	p.add(SeverityInfo, ast.SourcePosition{}, format, args)
}

func (p *Problems) add(sev Severity, pos ast.SourcePosition, format string, args []any) {
	e := Entry{Severity: sev, Position: pos, Message: fmt.Sprintf(format, args...)}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, e)
	if sev == SeverityError {
		p.errors++
	}
}

// HasErrors reports whether any error was recorded.
func (p *Problems) HasErrors() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errors > 0
}

// ErrorCount returns the number of recorded errors.
func (p *Problems) ErrorCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errors
}

// Entries returns a copy of every entry in report order.
func (p *Problems) Entries() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Entry(nil), p.entries...)
}

// Messages returns the messages of the entries with the given severity.
func (p *Problems) Messages(sev Severity) []string {
	var msgs []string
	for _, e := range p.Entries() {
		if e.Severity == sev {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

// Errors returns the error messages.
func (p *Problems) Errors() []string { return p.Messages(SeverityError) }

// Warnings returns the warning messages.
func (p *Problems) Warnings() []string { return p.Messages(SeverityWarning) }

// Report logs every entry to logger at the level matching its severity.
func (p *Problems) Report(ctx context.Context, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, e := range p.Entries() {
		attrs := []slog.Attr{slog.String("severity", string(e.Severity))}
		if !e.Position.IsZero() {
			attrs = append(attrs, slog.String("position", e.Position.String()))
		}
		logger.LogAttrs(ctx, e.Severity.Level(), e.Message, attrs...)
	}
}
