package handler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/altuslabsxyz/alert-dispatch/internal/adapter/dto"
	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
)

const maxWebhookBody = 4 << 20

// AlertmanagerWebhookHandler receives Alertmanager webhook notifications.
type AlertmanagerWebhookHandler struct {
	dispatcher Dispatcher
	token      string
	logger     Logger
}

// NewAlertmanagerWebhookHandler creates a new Alertmanager webhook handler.
// When token is set, requests must carry it as a bearer token.
func NewAlertmanagerWebhookHandler(dispatcher Dispatcher, token string, logger Logger) *AlertmanagerWebhookHandler {
	return &AlertmanagerWebhookHandler{
		dispatcher: dispatcher,
		token:      token,
		logger:     logger,
	}
}

// ServeHTTP handles POST /webhook/alertmanager
func (h *AlertmanagerWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.token != "" && !h.verifyToken(r.Header.Get("Authorization")) {
		h.logger.Warn("invalid alertmanager webhook token", "remoteAddr", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read request body", "error", err)
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	var payload dto.AlertmanagerWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Error("failed to parse alertmanager webhook payload", "error", err)
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	input := payload.ToDispatchInput(r.URL.Query().Get("receiver"))
	output, err := h.dispatcher.Execute(r.Context(), input)
	switch {
	case errors.Is(err, entity.ErrEmptyAlertGroup):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case entity.IsNotFound(err):
		h.logger.Warn("webhook for unknown receiver", "receiver", input.Receiver)
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		h.logger.Error("failed to dispatch alert group",
			"receiver", input.Receiver,
			"groupKey", input.GroupKey,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "dispatch failed")
		return
	}

	writeJSON(w, dispatchStatus(output), output)
}

func (h *AlertmanagerWebhookHandler) verifyToken(header string) bool {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) == 1
}
