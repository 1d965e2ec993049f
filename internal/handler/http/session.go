package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alphabotai/webappshop/internal/service"
	"github.com/alphabotai/webappshop/pkg/httputil"
	"github.com/alphabotai/webappshop/pkg/logger"
	"github.com/alphabotai/webappshop/pkg/middleware"
)

// SessionHandler handles HTTP requests for the cart and checkout wizard.
type SessionHandler struct {
	service *service.SessionService
	ids     *SessionIDs
	logger  *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(svc *service.SessionService, ids *SessionIDs, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: svc, ids: ids, logger: logger}
}

// StartRequest is the optional body of POST /api/v1/session. Init data may
// also arrive in the X-Telegram-Init-Data header.
type StartRequest struct {
	InitData string `json:"init_data" validate:"max=8192"`
}

// Start handles POST /api/v1/session
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	initData := r.Header.Get(middleware.HeaderHostInitData)
	if initData == "" && r.ContentLength > 0 {
		var req StartRequest
		if !decodeRequest(w, r, &req, h.logger) {
			return
		}
		initData = req.InitData
	}

	view, err := h.service.Start(r.Context(), initData)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.ids.Remember(w, r, view.ID)
	w.Header().Set(middleware.HeaderSessionID, view.ID)
	httputil.WriteData(w, http.StatusCreated, view)
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), sessionID(r))
	h.respond(w, r, view, err)
}

// End handles DELETE /api/v1/session
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	if err := h.service.End(r.Context(), sessionID(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.ids.Forget(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles POST /api/v1/session/cart/items
func (h *SessionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req service.AddItemInput
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}
	view, err := h.service.AddItem(r.Context(), sessionID(r), req)
	h.respond(w, r, view, err)
}

// RemoveItem handles DELETE /api/v1/session/cart/items/{index}
func (h *SessionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	index, ok := httputil.ParseIndex(w, chi.URLParam(r, "index"))
	if !ok {
		return
	}
	view, err := h.service.RemoveItem(r.Context(), sessionID(r), index)
	h.respond(w, r, view, err)
}

// UpdateContact handles PUT /api/v1/session/contact
func (h *SessionHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var req service.ContactInput
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}
	view, err := h.service.UpdateContact(r.Context(), sessionID(r), req)
	h.respond(w, r, view, err)
}

// UpdateAddress handles PUT /api/v1/session/address
func (h *SessionHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	var req service.AddressInput
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}
	view, err := h.service.UpdateAddress(r.Context(), sessionID(r), req)
	h.respond(w, r, view, err)
}

// SelectPayment handles PUT /api/v1/session/payment
func (h *SessionHandler) SelectPayment(w http.ResponseWriter, r *http.Request) {
	var req service.PaymentInput
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}
	view, err := h.service.SelectPayment(r.Context(), sessionID(r), req)
	h.respond(w, r, view, err)
}

// Next handles POST /api/v1/session/next
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Next(r.Context(), sessionID(r))
	h.respond(w, r, view, err)
}

// Back handles POST /api/v1/session/back
func (h *SessionHandler) Back(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Back(r.Context(), sessionID(r))
	h.respond(w, r, view, err)
}

// Submit handles POST /api/v1/session/submit
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Submit(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request, view *service.SessionView, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}

func sessionID(r *http.Request) string {
	return logger.SessionIDFromContext(r.Context())
}
