package qrstamp

import "fmt"

// Kind classifies a stamping failure
type Kind int

const (
	// KindValidation covers bad input detected before any page is processed
	KindValidation Kind = iota + 1
	// KindProcessing covers failures while reading, stamping or writing pages
	KindProcessing
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// Error is returned by Stamp and StampRows. No output is produced when an
// Error is returned.
type Error struct {
	Kind Kind
	Page int // Zero-based page index, -1 when not tied to a page
	Err  error
}

func (e *Error) Error() string {
	if e.Page >= 0 {
		return fmt.Sprintf("%s error on page %d: %v", e.Kind, e.Page+1, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(err error) *Error {
	return &Error{Kind: KindValidation, Page: -1, Err: err}
}

func processingError(err error) *Error {
	return &Error{Kind: KindProcessing, Page: -1, Err: err}
}

// RowCountMismatch is an advisory: the CSV and the PDF disagree on length.
type RowCountMismatch struct {
	Pages int
	Rows  int
}

func (m RowCountMismatch) String() string {
	if m.Rows < m.Pages {
		return fmt.Sprintf("CSV has %d rows but PDF has %d pages; pages %d-%d were left unchanged",
			m.Rows, m.Pages, m.Rows+1, m.Pages)
	}
	return fmt.Sprintf("CSV has %d rows but PDF has %d pages; the last %d rows were ignored",
		m.Rows, m.Pages, m.Rows-m.Pages)
}
