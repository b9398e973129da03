package interfaces

import (
	"context"

	"github.com/cuttlefish/cuttlefish/dto"
)

type MessageService interface {
	// BuildMIME assembles the outbound MIME message; the HTML body is
	// expected to have been through the filter chain already
	BuildMIME(ctx context.Context, message *dto.OutboundMessage) ([]byte, error)
	// ParseRaw extracts the sendable content from a raw MIME message
	ParseRaw(ctx context.Context, raw []byte) (*dto.OutboundMessage, error)
}
