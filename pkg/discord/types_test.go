package discord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageLink(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "guild message",
			msg:  Message{ID: "3", ChannelID: "2", GuildID: "1"},
			want: "https://discord.com/channels/1/2/3",
		},
		{
			name: "direct message",
			msg:  Message{ID: "3", ChannelID: "2"},
			want: "https://discord.com/channels/@me/2/3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg.Link())
		})
	}
}

func TestUserNames(t *testing.T) {
	legacy := User{ID: "1", Username: "olivia", Discriminator: "1234"}
	modern := User{ID: "2", Username: "olivia", GlobalName: "Olivia", Discriminator: "0"}

	assert.Equal(t, "olivia#1234", legacy.Tag())
	assert.Equal(t, "olivia", legacy.DisplayName())
	assert.Equal(t, "olivia", modern.Tag())
	assert.Equal(t, "Olivia", modern.DisplayName())
	assert.Equal(t, "<@2>", modern.Mention())
}

func TestChannelMention(t *testing.T) {
	assert.Equal(t, "<#42>", Channel{ID: "42"}.Mention())
}

func TestSnowflakeTime(t *testing.T) {
	// 175928847299117063 is the example ID from the Discord reference docs.
	ts, ok := SnowflakeTime("175928847299117063")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2016, 4, 30, 11, 18, 25, 796000000, time.UTC), ts)

	_, ok = SnowflakeTime("not-a-number")
	assert.False(t, ok)
}

func TestInteractionAuthor(t *testing.T) {
	guildUser := &User{ID: "1", Username: "guild"}
	dmUser := &User{ID: "2", Username: "dm"}

	assert.Equal(t, "guild", Interaction{Member: &Member{User: guildUser}}.Author().Username)
	assert.Equal(t, "dm", Interaction{User: dmUser}.Author().Username)
	assert.Empty(t, Interaction{}.Author().ID)
}

func TestInteractionStringOption(t *testing.T) {
	in := Interaction{Data: InteractionData{Options: []InteractionOption{
		{Name: "command", Type: 3, Value: "help"},
		{Name: "count", Type: 4, Value: float64(3)},
	}}}

	v, ok := in.StringOption("command")
	assert.True(t, ok)
	assert.Equal(t, "help", v)

	_, ok = in.StringOption("count")
	assert.False(t, ok)

	_, ok = in.StringOption("missing")
	assert.False(t, ok)
}
