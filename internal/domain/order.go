package domain

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Order is the payload posted to the order sink. Field names follow the
// sink's wire format.
type Order struct {
	ClientOrderID   string       `json:"clientOrderId"`
	UserContext     UserContext  `json:"userContext"`
	ContactInfo     OrderContact `json:"contactInfo"`
	DeliveryAddress OrderAddress `json:"deliveryAddress"`
	Products        []OrderLine  `json:"products"`
	Total           int64        `json:"total"`
	PaymentMethod   string       `json:"paymentMethod,omitempty"`
	OrderTimestamp  string       `json:"orderTimestamp"`
}

// UserContext identifies the buyer on the host platform.
type UserContext struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// OrderContact is the contact block of an order.
type OrderContact struct {
	FullName       string `json:"fullName"`
	PhoneNumber    string `json:"phoneNumber"`
	TelegramUserID string `json:"telegramUserID"`
}

// OrderAddress is the delivery block of an order.
type OrderAddress struct {
	City     string `json:"city"`
	Street   string `json:"street"`
	Entrance string `json:"entrance"`
	Floor    string `json:"floor"`
	Flat     string `json:"flat"`
}

// OrderLine is one cart entry in an order.
type OrderLine struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	ImageURL            string `json:"imageURL"`
	Price               int64  `json:"price"`
	Description         string `json:"description"`
	EnhancedDescription string `json:"enhancedDescription,omitempty"`
	Stock               string `json:"stock"`
	Size                string `json:"size"`
	SelectedColor       string `json:"selectedColor,omitempty"`
	Quantity            int    `json:"quantity"`
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewOrderID returns WEBAPP-<unix ms>-<5 base36 chars>. The id is for
// display only and is not an idempotency key.
func NewOrderID(now time.Time) string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = base36[rand.IntN(len(base36))]
	}
	return fmt.Sprintf("WEBAPP-%d-%s", now.UnixMilli(), suffix)
}

// NewOrder snapshots the session. placeholder fills the user context when
// the host supplied no identity.
func NewOrder(id string, s *Session, placeholder string, now time.Time) Order {
	user := UserContext{ID: placeholder, Username: placeholder}
	if s.HostUser != nil {
		user = UserContext{ID: s.HostUser.ID, Username: s.HostUser.Username}
	}

	lines := make([]OrderLine, 0, s.Cart.Len())
	for _, e := range s.Cart.Entries {
		lines = append(lines, OrderLine{
			ID:                  e.Product.ID,
			Name:                e.Product.Name,
			ImageURL:            e.Product.ImageURL,
			Price:               e.Product.Price,
			Description:         e.Product.Description,
			EnhancedDescription: e.Product.EnhancedDescription,
			Stock:               e.Product.Stock,
			Size:                e.Product.Size,
			SelectedColor:       e.SelectedColor,
			Quantity:            e.Quantity,
		})
	}

	return Order{
		ClientOrderID: id,
		UserContext:   user,
		ContactInfo: OrderContact{
			FullName:       s.Contact.FullName,
			PhoneNumber:    s.Contact.PhoneNumber,
			TelegramUserID: s.Contact.PlatformUserID,
		},
		DeliveryAddress: OrderAddress(s.Address),
		Products:        lines,
		Total:           s.Cart.Total(),
		PaymentMethod:   s.PaymentMethod,
		OrderTimestamp:  now.UTC().Format(time.RFC3339),
	}
}
