package handler

import (
	"errors"
	"net/http"

	"github.com/rolegate/internal/application/verify"
	"github.com/rolegate/internal/domain"
	"github.com/rs/zerolog"
)

// CallbackHandler terminates the identity provider's redirect.
type CallbackHandler struct {
	svc verify.Service
	log zerolog.Logger
}

func NewCallbackHandler(svc verify.Service, log zerolog.Logger) *CallbackHandler {
	return &CallbackHandler{svc: svc, log: log.With().Str("handler", "callback").Logger()}
}

func (h *CallbackHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	state := q.Get("state")
	if code == "" || state == "" {
		writePage(w, http.StatusBadRequest, badRequestPage())
		return
	}

	res, err := h.svc.CompleteVerification(r.Context(), code, state)
	switch {
	case err == nil:
		writePage(w, http.StatusOK, successPage(res.DisplayName))
	case errors.Is(err, domain.ErrBadRequest):
		writePage(w, http.StatusBadRequest, badRequestPage())
	case errors.Is(err, domain.ErrNotConfigured):
		writePage(w, http.StatusServiceUnavailable, notConfiguredPage())
	default:
		// Session rejections, upstream failures and identity mismatches all
		// render the same page; details are in operator logs.
		writePage(w, http.StatusForbidden, failurePage())
	}
}
