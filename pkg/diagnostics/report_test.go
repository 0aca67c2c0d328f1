package diagnostics

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oliviabot/oliviabot/pkg/discord"
	"github.com/oliviabot/oliviabot/pkg/webhook"
)

func fullReport() Report {
	return Report{
		ID:       "3f1c",
		Severity: Degraded,
		Error: ErrorDetail{
			Short:     "database is locked",
			Detailed:  "database is locked\n\nCaused by:\n    0: busy",
			Backtrace: "main.run\n\t/src/main.go:10",
		},
		Context: ErrorContext{
			Invocation:  "!neofetch arch",
			CommandName: "neofetch",
			Permalink:   "https://discord.com/channels/1/2/3",
			Author:      &discord.User{ID: "42", Username: "olivia", GlobalName: "Olivia"},
			Channel:     &discord.Channel{ID: "2", Name: "bots"},
			Guild:       &discord.Guild{ID: "1", Name: "Esolangs"},
		},
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func fieldMap(p webhook.Payload) map[string]string {
	out := map[string]string{}
	for _, f := range p.Embeds[0].Fields {
		out[f.Name] = f.Value
	}
	return out
}

func TestPayload_Full(t *testing.T) {
	p := fullReport().Payload()

	require.Len(t, p.Embeds, 1)
	embed := p.Embeds[0]
	assert.Equal(t, "Error in neofetch: database is locked", embed.Title)
	assert.Equal(t, "database is locked\n\nCaused by:\n    0: busy", embed.Description)
	assert.Equal(t, Degraded.Color(), embed.Color)
	assert.Equal(t, "2024-03-01T12:00:00Z", embed.Timestamp)

	fields := fieldMap(p)
	assert.Equal(t, "!neofetch arch", fields["Invocation"])
	assert.Equal(t, "Olivia (ID: 42)", fields["Author"])
	assert.Equal(t, "Esolangs / <#2>", fields["Location"])
	assert.Equal(t, "[Jump to message](https://discord.com/channels/1/2/3)", fields["Jump"])

	require.Len(t, p.Attachments, 1)
	assert.Equal(t, "backtrace-3f1c.txt", p.Attachments[0].Filename)
	assert.Equal(t, "main.run\n\t/src/main.go:10", string(p.Attachments[0].Content))

	assert.Empty(t, p.Content)
	assert.Equal(t, []string{}, p.AllowedMentions.Parse)
}

func TestPayload_Title(t *testing.T) {
	tests := []struct {
		command, short, want string
	}{
		{"source", "boom", "Error in source: boom"},
		{"", "boom", "Error: boom"},
		{"source", "", "Error in source"},
		{"", "", "Error"},
	}
	for _, tt := range tests {
		r := Report{Error: ErrorDetail{Short: tt.short}, Context: ErrorContext{CommandName: tt.command}}
		assert.Equal(t, tt.want, r.Title())
	}
}

func TestPayload_LocationChannelOnly(t *testing.T) {
	r := Report{Context: ErrorContext{Channel: &discord.Channel{ID: "99", Type: discord.ChannelTypeDM}}}

	fields := fieldMap(r.Payload())
	assert.Equal(t, "<#99>", fields["Location"])
	assert.NotContains(t, fields["Location"], "/")
}

func TestPayload_MinimalReportOmitsEverything(t *testing.T) {
	p := Report{}.Payload()

	embed := p.Embeds[0]
	assert.Equal(t, "Error", embed.Title)
	assert.Empty(t, embed.Description)
	assert.Empty(t, embed.Fields)
	assert.Empty(t, embed.Timestamp)
	assert.Nil(t, embed.Footer)
	assert.Empty(t, p.Attachments)

	b, err := json.Marshal(embed)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "description")
}

func TestPayload_CriticalPingsEveryone(t *testing.T) {
	r := fullReport()
	r.Severity = Critical

	p := r.Payload()
	assert.Equal(t, "@everyone", p.Content)
	assert.Equal(t, []string{"everyone"}, p.AllowedMentions.Parse)
	assert.Equal(t, Critical.Color(), p.Embeds[0].Color)

	for _, sev := range []Severity{Notice, Degraded} {
		r.Severity = sev
		assert.Empty(t, r.Payload().Content)
	}
}

func TestPayload_FieldsTruncated(t *testing.T) {
	r := Report{Context: ErrorContext{Invocation: "!echo " + strings.Repeat("é", 2000)}}

	value := fieldMap(r.Payload())["Invocation"]
	assert.Equal(t, 1024, len([]rune(value)))
	assert.True(t, strings.HasSuffix(value, "…"))
}

func TestPayload_Idempotent(t *testing.T) {
	r := fullReport()

	first, err := json.Marshal(r.Payload())
	require.NoError(t, err)
	second, err := json.Marshal(r.Payload())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, r.Payload().Attachments, r.Payload().Attachments)
}
