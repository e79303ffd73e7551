package handler

import (
	"context"

	"github.com/altuslabsxyz/alert-dispatch/internal/adapter/dto"
	"github.com/altuslabsxyz/alert-dispatch/internal/usecase/notify"
)

// Dispatcher delivers alert groups to receivers.
type Dispatcher interface {
	Execute(ctx context.Context, input dto.DispatchInput) (*dto.DispatchOutput, error)
	TestReceiver(ctx context.Context, name string) (*dto.DispatchOutput, error)
}

// Logger is the unified logging interface from domain layer.
type Logger = notify.Logger
