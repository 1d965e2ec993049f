package service

import (
	"time"

	"github.com/alphabotai/webappshop/internal/domain"
)

// PaymentOptions configures the payment step.
type PaymentOptions struct {
	Mode    string
	Methods []string
	QRURL   string
}

// PaymentInfo is the payment step as shown to the buyer.
type PaymentInfo struct {
	Mode    string   `json:"mode"`
	Methods []string `json:"methods,omitempty"`
	QRURL   string   `json:"qr_url,omitempty"`
}

// SessionView is what the mini app renders for a session.
type SessionView struct {
	ID            string                 `json:"id"`
	Step          domain.Step            `json:"step"`
	Cart          []domain.CartEntry     `json:"cart"`
	ItemCount     int                    `json:"item_count"`
	Total         int64                  `json:"total"`
	Contact       domain.ContactDetails  `json:"contact"`
	Address       domain.DeliveryAddress `json:"address"`
	PaymentMethod string                 `json:"payment_method,omitempty"`
	Payment       PaymentInfo            `json:"payment"`
	HostUser      *domain.HostUser       `json:"host_user,omitempty"`
	Warning       string                 `json:"warning,omitempty"`
	Submitting    bool                   `json:"submitting"`
	ExpiresAt     time.Time              `json:"expires_at"`
}

func (s *SessionService) view(sess *domain.Session) *SessionView {
	entries := sess.Cart.Entries
	if entries == nil {
		entries = []domain.CartEntry{}
	}

	info := PaymentInfo{Mode: s.payment.Mode}
	switch s.payment.Mode {
	case PaymentModeMethod:
		info.Methods = s.payment.Methods
	case PaymentModeQR:
		info.QRURL = s.payment.QRURL
	}

	return &SessionView{
		ID:            sess.ID,
		Step:          sess.Step,
		Cart:          entries,
		ItemCount:     sess.Cart.Len(),
		Total:         sess.Cart.Total(),
		Contact:       sess.Contact,
		Address:       sess.Address,
		PaymentMethod: sess.PaymentMethod,
		Payment:       info,
		HostUser:      sess.HostUser,
		Warning:       sess.Warning,
		Submitting:    s.submitting.active(sess.ID),
		ExpiresAt:     sess.ExpiresAt,
	}
}
