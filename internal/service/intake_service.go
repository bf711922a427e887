package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/cart-tracker/internal/domain"
	"github.com/phrazzld/cart-tracker/internal/platform/logger"
	"github.com/phrazzld/cart-tracker/internal/platform/metrics"
	"github.com/phrazzld/cart-tracker/internal/redact"
	"github.com/phrazzld/cart-tracker/internal/task"
)

// IntakeService accepts tracked items from the request path.
type IntakeService interface {
	// Track parses and validates body, resolves the cart identity and hands
	// the item to the persistence dispatcher. The returned item is exactly
	// what was queued. Nothing is queued when an error is returned.
	Track(ctx context.Context, body []byte, cookieCartID *string) (*domain.Item, error)
}

type intakeServiceImpl struct {
	dispatcher task.Dispatcher
	logger     *slog.Logger
}

// NewIntakeService creates an IntakeService backed by dispatcher.
func NewIntakeService(dispatcher task.Dispatcher, logger *slog.Logger) (IntakeService, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &intakeServiceImpl{
		dispatcher: dispatcher,
		logger:     logger.With("component", "intake_service"),
	}, nil
}

// Track implements IntakeService.
func (s *intakeServiceImpl) Track(
	ctx context.Context,
	body []byte,
	cookieCartID *string,
) (*domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := ParseItem(body, cookieCartID)
	if err != nil {
		log.Debug("item rejected", "error", err)
		return nil, err
	}

	AssignCart(item, cookieCartID)

	if err := s.dispatcher.Enqueue(ctx, *item); err != nil {
		log.Error("failed to enqueue item",
			"error", redact.Error(err),
			"cart_id", item.CartID,
			"external_id", item.ExternalID)
		return nil, fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}

	metrics.RecordAccepted(item.NewCart)
	log.Info("item accepted",
		"cart_id", item.CartID,
		"external_id", item.ExternalID,
		"new_cart", item.NewCart)

	return item, nil
}
