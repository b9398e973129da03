package message

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuttlefish/cuttlefish/dto"
	"github.com/cuttlefish/cuttlefish/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func TestBuildMIME_RoundTrip(t *testing.T) {
	service := NewMessageService(getLogger())

	raw, err := service.BuildMIME(context.Background(), &dto.OutboundMessage{
		MessageID:   "<abc123@cuttlefish.io>",
		FromAddress: "sender@example.com",
		ToAddresses: []string{"one@example.com", "two@example.com"},
		Subject:     "Test email",
		BodyText:    "Hello in plain text",
		BodyHTML:    "<p>Hello in <b>HTML</b></p>",
	})
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	parsed, err := service.ParseRaw(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "<abc123@cuttlefish.io>", parsed.MessageID)
	assert.Equal(t, "Test email", parsed.Subject)
	assert.Contains(t, parsed.BodyText, "Hello in plain text")
	assert.Contains(t, parsed.BodyHTML, "<b>HTML</b>")
	assert.Equal(t, []string{"one@example.com", "two@example.com"}, parsed.ToAddresses)
}

func TestBuildMIME_HTMLOnly(t *testing.T) {
	service := NewMessageService(getLogger())

	raw, err := service.BuildMIME(context.Background(), &dto.OutboundMessage{
		MessageID:   "<def456@cuttlefish.io>",
		FromAddress: "sender@example.com",
		ToAddresses: []string{"one@example.com"},
		Subject:     "HTML only",
		BodyHTML:    "<p>No text part</p>",
	})
	require.NoError(t, err)

	parsed, err := service.ParseRaw(context.Background(), raw)
	require.NoError(t, err)

	assert.Contains(t, parsed.BodyHTML, "No text part")
	assert.Empty(t, parsed.BodyText)
}
