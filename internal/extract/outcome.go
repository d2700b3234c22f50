package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind identifies the container format of a raw document.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindText Kind = "txt"
)

// KindFromName maps a file name to its document kind by extension.
func KindFromName(name string) (Kind, bool) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "pdf":
		return KindPDF, true
	case "docx":
		return KindDOCX, true
	case "txt", "text":
		return KindText, true
	default:
		return "", false
	}
}

// Status tags the result of an extraction.
type Status int

const (
	StatusOK Status = iota
	StatusTooShort
	StatusUnsupported
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTooShort:
		return "too_short"
	case StatusUnsupported:
		return "unsupported"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the tagged result of Extract. Text is always normalized and is
// empty unless Status is StatusOK or StatusTooShort.
type Outcome struct {
	Status Status
	Text   string
	Words  int
	// Method names the strategy whose output was kept.
	Method string
	// Err carries the cause for StatusFailed.
	Err error
}

// OK reports whether the outcome carries usable text.
func (o Outcome) OK() bool { return o.Status == StatusOK }

// Reason is a short human readable explanation used in logs and reports.
func (o Outcome) Reason() string {
	switch o.Status {
	case StatusOK:
		return ""
	case StatusTooShort:
		return fmt.Sprintf("extracted text too short (%d words)", o.Words)
	case StatusUnsupported:
		return "unsupported document type"
	default:
		if o.Err != nil {
			return fmt.Sprintf("extraction failed: %v", o.Err)
		}
		return "extraction failed"
	}
}
