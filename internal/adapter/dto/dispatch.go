package dto

import (
	"github.com/prometheus/common/model"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
)

// DispatchInput is one alert group routed to a receiver.
type DispatchInput struct {
	// Receiver is the contact point name.
	Receiver string

	// GroupKey identifies the alert group.
	GroupKey string

	// GroupLabels are the labels the group was formed on.
	GroupLabels model.LabelSet

	// ExternalURL overrides the configured base URL when set.
	ExternalURL string

	Alerts []*entity.Alert
}

// IntegrationResult is the outcome of one integration.
type IntegrationResult struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	UID       string `json:"uid"`
	Success   bool   `json:"success"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`

	// Err is the original error, kept for callers inspecting its category.
	Err error `json:"-"`
}

// DispatchOutput is the result of dispatching one alert group.
type DispatchOutput struct {
	NotificationID string              `json:"notificationId"`
	Receiver       string              `json:"receiver"`
	Results        []IntegrationResult `json:"results"`
}

// Failed returns the number of integrations that returned an error.
func (o *DispatchOutput) Failed() int {
	n := 0
	for _, r := range o.Results {
		if r.Error != "" {
			n++
		}
	}
	return n
}
