package diagnostics

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/oliviabot/oliviabot/pkg/discord"
	"github.com/oliviabot/oliviabot/pkg/webhook"
)

// Discord embed limits
const (
	maxFieldValue  = 1024
	maxDescription = 4096
	maxTitle       = 256
)

// Report is one failure ready to be rendered
type Report struct {
	ID        string
	Severity  Severity
	Error     ErrorDetail
	Context   ErrorContext
	Timestamp time.Time
}

// Title returns "Error in {command}: {short}", or "Error: {short}" when no
// command name is known. Events without a short message, such as check
// failures, render as "Error in {command}" or "Error" with no trailing colon.
func (r Report) Title() string {
	title := "Error"
	if r.Context.CommandName != "" {
		title += " in " + r.Context.CommandName
	}
	if r.Error.Short != "" {
		title += ": " + r.Error.Short
	}
	return truncate(title, maxTitle)
}

// AttachmentName is the file name of the uploaded backtrace
func (r Report) AttachmentName() string {
	if r.ID == "" {
		return "backtrace.txt"
	}
	return fmt.Sprintf("backtrace-%s.txt", r.ID)
}

// Payload renders the report. It is a pure function of the report.
func (r Report) Payload() webhook.Payload {
	embed := discord.Embed{
		Title:       r.Title(),
		Description: truncate(r.Error.Detailed, maxDescription),
		Color:       r.Severity.Color(),
		Fields:      r.fields(),
	}
	if !r.Timestamp.IsZero() {
		embed.Timestamp = r.Timestamp.UTC().Format(time.RFC3339)
	}
	if r.ID != "" {
		embed.Footer = &discord.EmbedFooter{Text: fmt.Sprintf("Report %s · %s", r.ID, r.Severity)}
	}

	p := webhook.Payload{
		Embeds:          []discord.Embed{embed},
		AllowedMentions: &discord.AllowedMentions{Parse: []string{}},
	}

	if r.Error.Backtrace != "" {
		p.Attachments = []webhook.Attachment{{
			Filename: r.AttachmentName(),
			Content:  []byte(r.Error.Backtrace),
		}}
	}

	if r.Severity == Critical {
		p.Content = "@everyone"
		p.AllowedMentions = &discord.AllowedMentions{Parse: []string{"everyone"}}
	}

	return p
}

func (r Report) fields() []discord.EmbedField {
	var fields []discord.EmbedField
	add := func(name, value string, inline bool) {
		if value == "" {
			return
		}
		fields = append(fields, discord.EmbedField{Name: name, Value: truncate(value, maxFieldValue), Inline: inline})
	}

	ctx := r.Context
	add("Invocation", ctx.Invocation, false)
	if ctx.Author != nil {
		add("Author", fmt.Sprintf("%s (ID: %s)", ctx.Author.DisplayName(), ctx.Author.ID), true)
	}
	add("Location", location(ctx.Guild, ctx.Channel), true)
	if ctx.Permalink != "" {
		add("Jump", fmt.Sprintf("[Jump to message](%s)", ctx.Permalink), true)
	}
	return fields
}

func location(g *discord.Guild, ch *discord.Channel) string {
	if ch == nil {
		return ""
	}
	if g != nil {
		name := g.Name
		if name == "" {
			name = g.ID
		}
		return fmt.Sprintf("%s / %s", name, ch.Mention())
	}
	return ch.Mention()
}

// truncate caps s at max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
