package handler

import (
	"net/http"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	"github.com/altuslabsxyz/alert-dispatch/internal/usecase/notify"
)

type integrationView struct {
	UID          string `json:"uid"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	SendResolved bool   `json:"sendResolved"`
}

type receiverView struct {
	Name         string            `json:"name"`
	Integrations []integrationView `json:"integrations"`
}

// ReceiversHandler exposes the loaded receivers.
type ReceiversHandler struct {
	receivers  notify.ReceiverStore
	dispatcher Dispatcher
	logger     Logger
}

// NewReceiversHandler creates a new receivers handler.
func NewReceiversHandler(receivers notify.ReceiverStore, dispatcher Dispatcher, logger Logger) *ReceiversHandler {
	return &ReceiversHandler{
		receivers:  receivers,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// List handles GET /api/v1/receivers
func (h *ReceiversHandler) List(w http.ResponseWriter, _ *http.Request) {
	receivers := h.receivers.List()
	views := make([]receiverView, 0, len(receivers))
	for _, rcv := range receivers {
		view := receiverView{Name: rcv.Name, Integrations: make([]integrationView, 0, len(rcv.Integrations))}
		for _, i := range rcv.Integrations {
			view.Integrations = append(view.Integrations, integrationView{
				UID:          i.UID,
				Name:         i.Name,
				Type:         i.Type,
				SendResolved: i.Notifier.SendResolved(),
			})
		}
		views = append(views, view)
	}
	writeJSON(w, http.StatusOK, views)
}

// Test handles POST /api/v1/receivers/{name}/test
func (h *ReceiversHandler) Test(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	output, err := h.dispatcher.TestReceiver(r.Context(), name)
	if entity.IsNotFound(err) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to test receiver", "receiver", name, "error", err)
		writeError(w, http.StatusInternalServerError, "test notification failed")
		return
	}

	status := http.StatusOK
	if output.Failed() > 0 {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, output)
}
