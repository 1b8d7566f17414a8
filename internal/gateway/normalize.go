package gateway

import (
	"encoding/json"

	"waconsole/internal/domain/message"
)

// Normalize turns a raw webhook delivery into a canonical inbound message.
// A nil result with nil error means the payload carried no user message
// (status update, receipt, malformed body) and must be acknowledged with
// 200 without further processing.
func Normalize(raw []byte) (*InboundMessage, error) {
	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil
	}

	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return nil, nil
	}
	value := payload.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 || len(value.Contacts) == 0 {
		return nil, nil
	}

	msg := value.Messages[0]
	sender := value.Contacts[0]
	if msg.ID == "" || sender.WaID == "" {
		return nil, nil
	}

	inbound := &InboundMessage{
		SenderPhone: sender.WaID,
		SenderName:  sender.Profile.Name,
		ExternalID:  msg.ID,
	}
	if inbound.SenderName == "" {
		inbound.SenderName = "Unknown"
	}
	if msg.Context != nil {
		inbound.QuotedExternalID = msg.Context.ID
	}

	switch msg.Type {
	case "text":
		inbound.Kind = message.KindText
		if msg.Text != nil {
			inbound.Text = msg.Text.Body
		}
	case "image":
		inbound.Kind = message.KindImage
		inbound.MediaURL, inbound.Caption = mediaFields(msg.Image)
	case "video", "audio":
		// Stored as generic media; the console renders a link.
		inbound.Kind = message.KindImage
		if msg.Type == "video" {
			inbound.MediaURL, inbound.Caption = mediaFields(msg.Video)
		} else {
			inbound.MediaURL, inbound.Caption = mediaFields(msg.Audio)
		}
	case "document":
		inbound.Kind = message.KindDocument
		inbound.MediaURL, inbound.Caption = mediaFields(msg.Document)
	default:
		inbound.Kind = message.KindUnsupported
	}

	return inbound, nil
}

func mediaFields(m *webhookMedia) (link, caption string) {
	if m == nil {
		return "", ""
	}
	return m.Link, m.Caption
}
