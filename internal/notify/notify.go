package notify

import "context"

// Message is one outbound notification with an optional attachment.
type Message struct {
	Recipient      string
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
	ContentType    string
}

// Notifier delivers briefing reports. Send returns an error on transport
// failure; the caller decides whether the firing counts as failed.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
	// Configured reports whether the notifier has working credentials.
	Configured() bool
}
