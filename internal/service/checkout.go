package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/alphabotai/webappshop/internal/domain"
	"github.com/alphabotai/webappshop/internal/webhook"
	apperrors "github.com/alphabotai/webappshop/pkg/errors"
	"github.com/alphabotai/webappshop/pkg/logger"
)

// Error codes returned by the checkout flow.
const (
	CodeInvalidStep          = "INVALID_STEP"
	CodeSubmissionInProgress = "SUBMISSION_IN_PROGRESS"
	CodeSubmissionFailed     = "SUBMISSION_FAILED"
)

// ContactInput is the contact-info form.
type ContactInput struct {
	FullName       string `json:"full_name" validate:"max=200"`
	PhoneNumber    string `json:"phone_number" validate:"max=50"`
	PlatformUserID string `json:"platform_user_id" validate:"max=64"`
}

// AddressInput is the delivery address form.
type AddressInput struct {
	City     string `json:"city" validate:"max=100"`
	Street   string `json:"street" validate:"max=200"`
	Entrance string `json:"entrance" validate:"max=20"`
	Floor    string `json:"floor" validate:"max=20"`
	Flat     string `json:"flat" validate:"max=20"`
}

// PaymentInput selects a payment method.
type PaymentInput struct {
	Method string `json:"method" validate:"required"`
}

// SubmitResult is returned after the sink accepted an order.
type SubmitResult struct {
	Receipt *webhook.Receipt `json:"receipt"`
	Message string           `json:"message"`
	Session *SessionView     `json:"session"`
}

// UpdateContact replaces the contact form. Fields are free text; the gate on
// the contact step checks completeness.
func (s *SessionService) UpdateContact(ctx context.Context, sessionID string, input ContactInput) (*SessionView, error) {
	sess, err := s.mutate(ctx, sessionID, func(sess *domain.Session) error {
		sess.Contact = domain.ContactDetails{
			FullName:       strings.TrimSpace(input.FullName),
			PhoneNumber:    strings.TrimSpace(input.PhoneNumber),
			PlatformUserID: strings.TrimSpace(input.PlatformUserID),
		}
		sess.AdoptHostUser(sess.HostUser)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// UpdateAddress replaces the delivery address form.
func (s *SessionService) UpdateAddress(ctx context.Context, sessionID string, input AddressInput) (*SessionView, error) {
	sess, err := s.mutate(ctx, sessionID, func(sess *domain.Session) error {
		sess.Address = domain.DeliveryAddress{
			City:     strings.TrimSpace(input.City),
			Street:   strings.TrimSpace(input.Street),
			Entrance: strings.TrimSpace(input.Entrance),
			Floor:    strings.TrimSpace(input.Floor),
			Flat:     strings.TrimSpace(input.Flat),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// SelectPayment records the chosen payment method. It is only available
// when the payment step collects a method.
func (s *SessionService) SelectPayment(ctx context.Context, sessionID string, input PaymentInput) (*SessionView, error) {
	if s.payment.Mode != PaymentModeMethod {
		return nil, apperrors.InvalidInput("this store does not ask for a payment method")
	}
	if !slices.Contains(s.payment.Methods, input.Method) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("payment method must be one of: %s", strings.Join(s.payment.Methods, ", ")))
	}

	sess, err := s.mutate(ctx, sessionID, func(sess *domain.Session) error {
		sess.PaymentMethod = input.Method
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// Next advances the wizard if the gate of the current step passes.
func (s *SessionService) Next(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.mutate(ctx, sessionID, func(sess *domain.Session) error {
		return gateError(sess.Advance())
	})
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// Back returns to the previous step without validation.
func (s *SessionService) Back(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.mutate(ctx, sessionID, func(sess *domain.Session) error {
		sess.Back()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// Submit sends the order from the payment step. Only one submission per
// session can be in flight. On success the cart and both forms are cleared
// and the wizard returns to the catalog; on failure nothing changes.
func (s *SessionService) Submit(ctx context.Context, sessionID string) (*SubmitResult, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if !s.submitting.acquire(sessionID) {
		return nil, apperrors.Conflict(CodeSubmissionInProgress, "your order is already being sent")
	}
	defer s.submitting.release(sessionID)

	unlock := s.locks.lock(sessionID)
	defer unlock()

	ctx = logger.WithSessionID(ctx, sessionID)

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Step != domain.StepPayment {
		return nil, apperrors.Conflict(CodeInvalidStep, "orders are submitted from the payment step")
	}

	var methods []string
	if s.payment.Mode == PaymentModeMethod {
		methods = s.payment.Methods
	}
	if err := sess.CheckSubmittable(methods); err != nil {
		return nil, gateError(err)
	}

	now := s.now()
	order := domain.NewOrder(domain.NewOrderID(now), sess, s.placeholder, now)

	// A started submission runs to completion even if the caller goes away.
	receipt, err := s.sink.Submit(context.WithoutCancel(ctx), order)
	if err != nil {
		ordersSubmitted.WithLabelValues("failed").Inc()
		s.logger.ErrorContext(ctx, "order submission failed",
			slog.String("order_id", order.ClientOrderID),
			slog.Int64("total", order.Total),
			slog.String("error", err.Error()),
		)
		return nil, submissionError(err)
	}
	ordersSubmitted.WithLabelValues("accepted").Inc()

	s.logger.InfoContext(ctx, "order submitted",
		slog.String("order_id", order.ClientOrderID),
		slog.Int("entries", len(order.Products)),
		slog.Int64("total", order.Total),
	)

	sess.ResetAfterSubmit()
	if err := s.save(ctx, sess); err != nil {
		s.logger.ErrorContext(ctx, "failed to reset session after submission",
			slog.String("order_id", order.ClientOrderID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.events.PublishOrderSubmitted(ctx, sessionID, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.submitted event",
			slog.String("order_id", order.ClientOrderID),
			slog.String("error", err.Error()),
		)
	}

	return &SubmitResult{
		Receipt: receipt,
		Message: fmt.Sprintf("Thank you! Your order %s has been placed.", order.ClientOrderID),
		Session: s.view(sess),
	}, nil
}

func submissionError(err error) error {
	var subErr *webhook.SubmissionError
	if errors.As(err, &subErr) {
		return apperrors.Upstream(CodeSubmissionFailed, "order could not be sent: "+subErr.Error(), err)
	}
	return apperrors.Upstream(CodeSubmissionFailed, "order could not be sent", err)
}
