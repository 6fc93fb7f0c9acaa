package prediction

import "github.com/bobmcallan/trendcast/internal/models"

// Kind classifies a pipeline failure for the HTTP layer.
type Kind int

const (
	// KindInternal is any unclassified failure.
	KindInternal Kind = iota
	// KindNotFound means the source returned no rows for the ticker.
	KindNotFound
	// KindSchema means required price columns were absent.
	KindSchema
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindSchema:
		return "schema"
	default:
		return "internal"
	}
}

// Error is the only error Predict returns. Message is safe to show to clients.
// LatestStats is set when the snapshot was computed before the failure.
type Error struct {
	Kind        Kind
	Message     string
	LatestStats *models.LatestStats
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }
