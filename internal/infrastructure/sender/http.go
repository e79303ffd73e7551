// Package sender holds the production outbound senders.
package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domainerrors "github.com/altuslabsxyz/alert-dispatch/internal/domain/errors"
	"github.com/altuslabsxyz/alert-dispatch/internal/domain/logger"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/channels"
)

const (
	defaultTimeout = 30 * time.Second

	// Response bodies are only read for error reporting.
	maxResponseBody = 64 << 10
)

// HTTPSenderOptions configures an HTTPSender.
type HTTPSenderOptions struct {
	Timeout       time.Duration
	SkipTLSVerify bool
	UserAgent     string
	Logger        logger.Logger
}

// HTTPSender performs webhook calls with net/http.
type HTTPSender struct {
	client    *http.Client
	userAgent string
	logger    logger.Logger
}

// NewHTTPSender creates an HTTPSender.
func NewHTTPSender(opts HTTPSenderOptions) *HTTPSender {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: opts.SkipTLSVerify} // #nosec G402
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "Grafana/" + channels.BuildVersion
	}
	return &HTTPSender{
		client:    &http.Client{Timeout: timeout, Transport: transport},
		userAgent: userAgent,
		logger:    log,
	}
}

// SendWebhook implements channels.WebhookSender.
// Network failures, timeouts and cancellation are transport errors;
// non-2xx answers are rejections carrying the status and trimmed body.
func (s *HTTPSender) SendWebhook(ctx context.Context, cmd *channels.SendWebhookSettings) error {
	method := cmd.HTTPMethod
	if method == "" {
		method = http.MethodPost
	}
	if method != http.MethodPost && method != http.MethodPut {
		return domainerrors.NewConfigurationErrorf("unsupported HTTP method %q", method)
	}

	req, err := http.NewRequestWithContext(ctx, method, cmd.URL, strings.NewReader(cmd.Body))
	if err != nil {
		return domainerrors.NewConfigurationErrorf("invalid webhook url: %v", err)
	}

	contentType := cmd.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", s.userAgent)
	if cmd.User != "" && cmd.Password != "" {
		req.SetBasicAuth(cmd.User, cmd.Password)
	}
	for k, v := range cmd.HTTPHeader {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	s.logger.Debug("webhook sent",
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		trimmed := strings.TrimSpace(string(body))
		if readErr != nil {
			trimmed = fmt.Sprintf("body read error: %v", readErr)
		}
		return domainerrors.NewRejectedError(resp.StatusCode, trimmed)
	}
	if readErr != nil {
		return domainerrors.NewTransportError("reading webhook response", readErr)
	}

	if cmd.Validation != nil {
		return cmd.Validation(body, resp.StatusCode)
	}
	return nil
}

func transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return domainerrors.NewTransportError("webhook request canceled", ctx.Err())
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domainerrors.NewTransportError("webhook request timed out", ctx.Err())
	default:
		return domainerrors.NewTransportError("sending webhook", err)
	}
}
