package errors

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Severity represents the severity of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is one loader finding about a content file.
type Diagnostic struct {
	Kind      string
	File      string
	Severity  Severity
	Message   string
	Err       error
	Timestamp time.Time
}

// Error implements the error interface
func (d *Diagnostic) Error() string {
	if d.File == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.File, d.Severity, d.Message)
}

// Unwrap returns the error the diagnostic was derived from.
func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// Diagnostics collects findings reported while loading content.
// It is safe for concurrent use.
type Diagnostics struct {
	items []Diagnostic
	mutex sync.RWMutex
}

// NewDiagnostics creates an empty collector
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{items: make([]Diagnostic, 0)}
}

// Add records a diagnostic
func (d *Diagnostics) Add(diag Diagnostic) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if diag.Timestamp.IsZero() {
		diag.Timestamp = time.Now()
	}
	d.items = append(d.items, diag)
}

// Report converts err into a diagnostic for kind. Validation findings are
// warnings; everything else is an error.
func (d *Diagnostics) Report(kind string, err error) {
	if err == nil {
		return
	}

	diag := Diagnostic{
		Kind:     kind,
		Severity: SeverityError,
		Message:  err.Error(),
		Err:      err,
	}

	var e *Error
	if errors.As(err, &e) {
		diag.File = e.FilePath
		diag.Message = e.Message
		if e.Cause != nil {
			diag.Message += ": " + e.Cause.Error()
		}
		if e.Type == ErrorTypeValidation && e.Code != ErrCodeDuplicateID {
			diag.Severity = SeverityWarning
		}
	}

	d.Add(diag)
}

// All returns a copy of every diagnostic, ordered by file then insertion.
func (d *Diagnostics) All() []Diagnostic {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	result := make([]Diagnostic, len(d.items))
	copy(result, d.items)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].File < result[j].File
	})
	return result
}

// ByFile returns diagnostics for a specific file
func (d *Diagnostics) ByFile(file string) []Diagnostic {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	var result []Diagnostic
	for _, diag := range d.items {
		if diag.File == file {
			result = append(result, diag)
		}
	}
	return result
}

// Count returns the number of diagnostics with the given severity.
func (d *Diagnostics) Count(severity Severity) int {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	n := 0
	for _, diag := range d.items {
		if diag.Severity == severity {
			n++
		}
	}
	return n
}

// HasErrors returns true if any diagnostic has error severity.
func (d *Diagnostics) HasErrors() bool {
	return d.Count(SeverityError) > 0
}

// Len returns the total number of diagnostics.
func (d *Diagnostics) Len() int {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return len(d.items)
}

// Clear removes all diagnostics
func (d *Diagnostics) Clear() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.items = d.items[:0]
}
