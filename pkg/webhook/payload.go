// Package webhook posts messages to a Discord webhook.
package webhook

import "github.com/oliviabot/oliviabot/pkg/discord"

// Attachment is a file uploaded with a payload
type Attachment struct {
	Filename string
	Content  []byte
}

// Payload is one webhook execution
type Payload struct {
	Content         string                   `json:"content,omitempty"`
	Username        string                   `json:"username,omitempty"`
	Embeds          []discord.Embed          `json:"embeds,omitempty"`
	AllowedMentions *discord.AllowedMentions `json:"allowed_mentions,omitempty"`

	// Attachments are sent as multipart files, not in the JSON body.
	Attachments []Attachment `json:"-"`
}

type attachmentRef struct {
	ID       int    `json:"id"`
	Filename string `json:"filename"`
}

// wirePayload is the payload_json part of a multipart execution
type wirePayload struct {
	Payload
	Attachments []attachmentRef `json:"attachments,omitempty"`
}

func (p Payload) wire() wirePayload {
	w := wirePayload{Payload: p}
	for i, a := range p.Attachments {
		w.Attachments = append(w.Attachments, attachmentRef{ID: i, Filename: a.Filename})
	}
	return w
}
