package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mero-kart/internal/auth"
	"mero-kart/internal/correlator"
	"mero-kart/internal/model"
	"mero-kart/internal/payment"
	"mero-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo  repository.OrderRepository
	userRepo   repository.UserRepository
	correlator correlator.Correlator
	direct     payment.DirectGateway
	redirect   payment.RedirectGateway
	logger     zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	corr correlator.Correlator,
	direct payment.DirectGateway,
	redirect payment.RedirectGateway,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:  orderRepo,
		userRepo:   userRepo,
		correlator: corr,
		direct:     direct,
		redirect:   redirect,
		logger:     logger.With().Str("service", "order").Logger(),
	}
}

// GetOrder retrieves an order view for the buyer or an admin.
func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID, caller auth.Identity) (*model.OrderResponse, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if !caller.IsAdmin() && !caller.IsSelf(order.BuyerID) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("caller_id", caller.ID.String()).
			Msg("caller is neither buyer nor admin")
		return nil, model.ErrForbidden
	}

	return s.buildResponse(ctx, order, items)
}

// ApplyPayment applies a validated payment confirmation to the order.
//
// External validation (proof checks, correlation consumption, gateway
// verification) completes before the conditional store update is attempted,
// so a slow gateway never serializes unrelated requests, and a lost race on
// the update is resolved by a single re-read.
func (s *orderService) ApplyPayment(ctx context.Context, id uuid.UUID, proof model.PaymentProof) (*model.OrderResponse, error) {
	var update model.PaymentUpdate

	if proof.IsRedirect() {
		u, err := s.validateRedirectProof(ctx, id, proof)
		if err != nil {
			if errors.Is(err, model.ErrCorrelationUnknown) {
				// Duplicate return: the correlation was consumed by an
				// earlier application. Report the paid state if there is one.
				return s.alreadyPaidState(ctx, id)
			}
			return nil, err
		}
		update = u
	} else {
		if err := s.direct.ValidateProof(proof); err != nil {
			return nil, err
		}
		update = model.PaymentUpdate{
			Method:         s.direct.Method(),
			TransactionRef: proof.TransactionRef,
			PaidAt:         time.Now(),
		}
	}

	applied, err := s.orderRepo.MarkPaid(ctx, id, update)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to apply payment")
		return nil, fmt.Errorf("failed to apply payment: %w", err)
	}

	if !applied {
		// The conditional update lost: the order is absent or was paid by a
		// concurrent confirmation. Either way the re-read settles it.
		return s.alreadyPaidState(ctx, id)
	}

	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("method", string(update.Method)).
		Msg("payment applied")

	return s.buildResponse(ctx, order, items)
}

// validateRedirectProof consumes the correlation and verifies the transaction
// with the gateway, returning the payment fields to apply.
func (s *orderService) validateRedirectProof(ctx context.Context, id uuid.UUID, proof model.PaymentProof) (model.PaymentUpdate, error) {
	mappedID, err := s.correlator.Consume(ctx, proof.CorrelationID)
	if err != nil {
		return model.PaymentUpdate{}, err
	}

	if mappedID != id {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("mapped_order_id", mappedID.String()).
			Str("correlation_id", proof.CorrelationID).
			Msg("correlation belongs to a different order")
		return model.PaymentUpdate{}, model.ErrInvalidProof
	}

	order, _, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return model.PaymentUpdate{}, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return model.PaymentUpdate{}, model.ErrOrderNotFound
	}

	if err := s.redirect.Verify(ctx, proof.CorrelationID, order.Pricing.Total); err != nil {
		return model.PaymentUpdate{}, err
	}

	return model.PaymentUpdate{
		Method:         s.redirect.Method(),
		TransactionRef: proof.CorrelationID,
		PaidAt:         time.Now(),
	}, nil
}

// alreadyPaidState resolves the ambiguous outcome of a failed conditional
// update: a paid order means idempotent success, anything else is an error.
func (s *orderService) alreadyPaidState(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if !order.IsPaid {
		// Correlation gone but the order never became paid: the proof cannot
		// be tied to a successful application.
		return nil, model.ErrInvalidProof
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Msg("duplicate payment confirmation, returning stored paid state")

	return s.buildResponse(ctx, order, items)
}

// MarkDelivered transitions a paid order to delivered.
func (s *orderService) MarkDelivered(ctx context.Context, id uuid.UUID, caller auth.Identity) (*model.OrderResponse, error) {
	if !caller.IsAdmin() {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("caller_id", caller.ID.String()).
			Msg("non-admin attempted delivery")
		return nil, model.ErrForbidden
	}

	delivered, err := s.orderRepo.MarkDelivered(ctx, id, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark delivered")
		return nil, fmt.Errorf("failed to mark delivered: %w", err)
	}

	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if !delivered {
		if !order.IsPaid {
			return nil, model.ErrOrderNotPaid
		}
		if !order.IsDelivered {
			return nil, fmt.Errorf("delivery update affected no rows for order %s", id)
		}
		// Already delivered: idempotent no-op success.
		s.logger.Info().Str("order_id", id.String()).Msg("order already delivered")
	} else {
		s.logger.Info().Str("order_id", id.String()).Msg("order delivered")
	}

	return s.buildResponse(ctx, order, items)
}

// InitiateRedirectPayment issues a payment correlation for the order and
// returns the gateway form to submit.
func (s *orderService) InitiateRedirectPayment(ctx context.Context, id uuid.UUID, caller auth.Identity) (*payment.RedirectForm, error) {
	order, _, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if !caller.IsAdmin() && !caller.IsSelf(order.BuyerID) {
		return nil, model.ErrForbidden
	}

	if order.IsPaid {
		return nil, model.ErrOrderAlreadyPaid
	}

	correlationID, err := s.correlator.Issue(ctx, id)
	if err != nil {
		return nil, err
	}

	form := s.redirect.BuildRedirect(order, correlationID)

	s.logger.Info().
		Str("order_id", id.String()).
		Str("correlation_id", correlationID).
		Msg("redirect payment initiated")

	return &form, nil
}

// buildResponse assembles the order view with the buyer summary.
func (s *orderService) buildResponse(ctx context.Context, order *model.Order, items []model.OrderItem) (*model.OrderResponse, error) {
	resp := &model.OrderResponse{
		Order: *order,
		Items: items,
	}

	buyer, err := s.userRepo.GetByID(ctx, order.BuyerID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to load buyer details")
		return nil, fmt.Errorf("failed to load buyer details: %w", err)
	}
	if buyer != nil {
		resp.Buyer = &model.UserSummary{Name: buyer.Name, Email: buyer.Email}
	}

	return resp, nil
}
