package task

import (
	"errors"
	"log/slog"

	"github.com/phrazzld/cart-tracker/internal/domain"
	"github.com/phrazzld/cart-tracker/internal/platform/metrics"
	"github.com/phrazzld/cart-tracker/internal/redact"
	"github.com/phrazzld/cart-tracker/internal/store"
)

var (
	// ErrTaskPanic wraps a panic recovered while executing a task.
	ErrTaskPanic = errors.New("task panicked")

	// ErrUndecodableJob is reported when a queued payload is not a valid item.
	ErrUndecodableJob = errors.New("job payload is not a valid item")
)

// Dead-letter reasons, used as the metric label.
const (
	ReasonDuplicate = "duplicate"
	ReasonInvalid   = "invalid"
	ReasonDecode    = "decode"
	ReasonPanic     = "panic"
	ReasonStorage   = "storage"
)

// DeadLetterReason classifies a permanent job failure.
func DeadLetterReason(err error) string {
	switch {
	case store.IsDuplicateError(err):
		return ReasonDuplicate
	case errors.Is(err, ErrUndecodableJob):
		return ReasonDecode
	case errors.Is(err, domain.ErrValidation), errors.Is(err, store.ErrInvalidEntity):
		return ReasonInvalid
	case errors.Is(err, ErrTaskPanic):
		return ReasonPanic
	default:
		return ReasonStorage
	}
}

// RecordDeadLetter logs a job that failed permanently and counts it.
// Jobs are not retried; the log record carries the raw payload so the item
// can be replayed by hand.
func RecordDeadLetter(logger *slog.Logger, transport string, payload []byte, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	reason := DeadLetterReason(err)
	metrics.RecordDeadLetter(transport, reason)

	logger.Error("item persistence failed",
		"dead_letter", true,
		"transport", transport,
		"reason", reason,
		"payload", string(payload),
		"error", redact.Error(err))
}
