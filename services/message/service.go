package message

import (
	"bytes"
	"context"

	"github.com/jhillyerd/enmime"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/cuttlefish/cuttlefish/dto"
	"github.com/cuttlefish/cuttlefish/interfaces"
	"github.com/cuttlefish/cuttlefish/internal/logger"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
)

type messageService struct {
	log logger.Logger
}

func NewMessageService(log logger.Logger) interfaces.MessageService {
	return &messageService{
		log: log,
	}
}

func (s *messageService) BuildMIME(ctx context.Context, message *dto.OutboundMessage) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MessageService.BuildMIME")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	builder := enmime.Builder().
		From("", message.FromAddress).
		Subject(message.Subject).
		Header("Message-Id", message.MessageID)

	for _, to := range message.ToAddresses {
		builder = builder.To("", to)
	}

	if message.BodyText != "" {
		builder = builder.Text([]byte(message.BodyText))
	}
	if message.BodyHTML != "" {
		builder = builder.HTML([]byte(message.BodyHTML))
	}

	part, err := builder.Build()
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "building mime message"))
		return nil, err
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "encoding mime message"))
		return nil, err
	}

	return buf.Bytes(), nil
}

func (s *messageService) ParseRaw(ctx context.Context, raw []byte) (*dto.OutboundMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MessageService.ParseRaw")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "parsing mime message"))
		return nil, err
	}

	message := &dto.OutboundMessage{
		MessageID:   envelope.GetHeader("Message-Id"),
		FromAddress: envelope.GetHeader("From"),
		Subject:     envelope.GetHeader("Subject"),
		BodyText:    envelope.Text,
		BodyHTML:    envelope.HTML,
	}

	toAddresses, err := envelope.AddressList("To")
	if err == nil {
		for _, addr := range toAddresses {
			message.ToAddresses = append(message.ToAddresses, addr.Address)
		}
	}

	return message, nil
}
