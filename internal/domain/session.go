package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Step is a checkout wizard screen.
type Step string

const (
	StepCatalog     Step = "catalog"
	StepCart        Step = "cart"
	StepContactInfo Step = "contactInfo"
	StepAddress     Step = "address"
	StepConfirm     Step = "confirm"
	StepPayment     Step = "payment"
)

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	switch s {
	case StepCatalog, StepCart, StepContactInfo, StepAddress, StepConfirm, StepPayment:
		return true
	}
	return false
}

// Prev returns the step before s. The catalog has no predecessor and
// returns itself.
func (s Step) Prev() Step {
	switch s {
	case StepCatalog, StepCart:
		return StepCatalog
	case StepContactInfo:
		return StepCart
	case StepAddress:
		return StepContactInfo
	case StepConfirm:
		return StepAddress
	case StepPayment:
		return StepConfirm
	default:
		return StepCatalog
	}
}

// ErrNoNextStep is returned by Advance on the payment step, which is left
// only by submitting the order.
var ErrNoNextStep = errors.New("payment step is left by submitting the order")

// GateError is a failed wizard gate. Message is meant for the buyer.
type GateError struct {
	Step    Step
	Message string
}

func (e *GateError) Error() string {
	return fmt.Sprintf("cannot leave %s: %s", e.Step, e.Message)
}

// Gate messages shown to the buyer.
const (
	MsgCartEmpty      = "your cart is empty"
	MsgContactMissing = "please enter your full name and phone number"
	MsgAddressMissing = "please enter city and street"
	MsgMethodMissing  = "please choose a payment method"
)

// HostUser is the identity supplied by the mini-app host.
type HostUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ContactDetails is the contact-info form.
type ContactDetails struct {
	FullName       string `json:"full_name"`
	PhoneNumber    string `json:"phone_number"`
	PlatformUserID string `json:"platform_user_id"`
}

// Complete reports whether name and phone are filled in.
func (c ContactDetails) Complete() bool {
	return strings.TrimSpace(c.FullName) != "" && strings.TrimSpace(c.PhoneNumber) != ""
}

// DeliveryAddress is the address form.
type DeliveryAddress struct {
	City     string `json:"city"`
	Street   string `json:"street"`
	Entrance string `json:"entrance"`
	Floor    string `json:"floor"`
	Flat     string `json:"flat"`
}

// Complete reports whether the mandatory city and street are filled in.
func (a DeliveryAddress) Complete() bool {
	return strings.TrimSpace(a.City) != "" && strings.TrimSpace(a.Street) != ""
}

// Session is the server-side state of one browsing session.
type Session struct {
	ID            string          `json:"id"`
	Step          Step            `json:"step"`
	Cart          Cart            `json:"cart"`
	Contact       ContactDetails  `json:"contact"`
	Address       DeliveryAddress `json:"address"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	HostUser      *HostUser       `json:"host_user,omitempty"`
	Warning       string          `json:"warning,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

// NewSession creates a session on the catalog step.
func NewSession(id string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		Step:      StepCatalog,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// AdoptHostUser records the host identity and pre-fills the platform id on
// the contact form when it is still empty.
func (s *Session) AdoptHostUser(u *HostUser) {
	s.HostUser = u
	if u != nil && u.ID != "" && s.Contact.PlatformUserID == "" {
		s.Contact.PlatformUserID = u.ID
	}
}

// Advance moves to the next step if the gate for the current one passes.
// A failed gate returns a *GateError and leaves the step unchanged.
func (s *Session) Advance() error {
	var next Step
	switch s.Step {
	case StepCatalog:
		if s.Cart.IsEmpty() {
			return &GateError{Step: s.Step, Message: MsgCartEmpty}
		}
		next = StepCart
	case StepCart:
		if s.Cart.IsEmpty() {
			return &GateError{Step: s.Step, Message: MsgCartEmpty}
		}
		next = StepContactInfo
	case StepContactInfo:
		if !s.Contact.Complete() {
			return &GateError{Step: s.Step, Message: MsgContactMissing}
		}
		next = StepAddress
	case StepAddress:
		if !s.Address.Complete() {
			return &GateError{Step: s.Step, Message: MsgAddressMissing}
		}
		next = StepConfirm
	case StepConfirm:
		next = StepPayment
	case StepPayment:
		return ErrNoNextStep
	default:
		return fmt.Errorf("unknown step %q", s.Step)
	}
	s.Step = next
	return nil
}

// Back moves to the previous step without validation.
func (s *Session) Back() {
	s.Step = s.Step.Prev()
}

// CheckSubmittable re-runs every wizard gate before an order is sent. When
// methods is non-empty a payment method from that list must have been chosen.
func (s *Session) CheckSubmittable(methods []string) error {
	if s.Cart.IsEmpty() {
		return &GateError{Step: s.Step, Message: MsgCartEmpty}
	}
	if !s.Contact.Complete() {
		return &GateError{Step: s.Step, Message: MsgContactMissing}
	}
	if !s.Address.Complete() {
		return &GateError{Step: s.Step, Message: MsgAddressMissing}
	}
	if len(methods) > 0 && !slices.Contains(methods, s.PaymentMethod) {
		return &GateError{Step: s.Step, Message: MsgMethodMissing}
	}
	return nil
}

// ResetAfterSubmit clears the cart and both forms, platform id included, and
// returns to the catalog. The host identity itself is kept, so the next
// contact form update fills the platform id in again.
func (s *Session) ResetAfterSubmit() {
	s.Cart.Clear()
	s.Contact = ContactDetails{}
	s.Address = DeliveryAddress{}
	s.PaymentMethod = ""
	s.Step = StepCatalog
}
