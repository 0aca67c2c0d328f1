// Package discord is a small Discord client: REST calls, a gateway
// connection and the object types the command framework needs.
package discord

import (
	"fmt"
	"strconv"
	"time"
)

// discordEpoch is the first second of 2015 in milliseconds.
const discordEpoch = 1420070400000

// SnowflakeTime returns the creation time encoded in a Discord ID.
func SnowflakeTime(id string) (time.Time, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	ms := int64(n>>22) + discordEpoch
	return time.UnixMilli(ms).UTC(), true
}

// User represents a Discord user
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	GlobalName    string `json:"global_name,omitempty"`
	Discriminator string `json:"discriminator,omitempty"`
	Bot           bool   `json:"bot,omitempty"`
}

// DisplayName returns the global display name, falling back to the username.
func (u User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Tag returns "name#1234" for legacy accounts and the bare username otherwise.
func (u User) Tag() string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

// Mention returns the user mention markup.
func (u User) Mention() string {
	return "<@" + u.ID + ">"
}

// Member is a guild member; only the embedded user is used.
type Member struct {
	User *User  `json:"user,omitempty"`
	Nick string `json:"nick,omitempty"`
}

// Channel types used by the bot.
const (
	ChannelTypeGuildText = 0
	ChannelTypeDM        = 1
)

// Channel represents a Discord channel
type Channel struct {
	ID      string `json:"id"`
	Type    int    `json:"type"`
	GuildID string `json:"guild_id,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Mention returns the channel mention markup.
func (c Channel) Mention() string {
	return "<#" + c.ID + ">"
}

// Guild represents a Discord guild (server)
type Guild struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Channels []Channel `json:"channels,omitempty"`
}

// MessageReference points at another message, used for replies.
type MessageReference struct {
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id,omitempty"`
	GuildID   string `json:"guild_id,omitempty"`
}

// Message represents a MESSAGE_CREATE payload
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	GuildID   string    `json:"guild_id,omitempty"`
	Author    User      `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Link returns the jump URL of the message. Direct messages use "@me" in
// place of the guild ID.
func (m Message) Link() string {
	guild := m.GuildID
	if guild == "" {
		guild = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guild, m.ChannelID, m.ID)
}

// Interaction types
const (
	InteractionPing               = 1
	InteractionApplicationCommand = 2
)

// InteractionOption is a single slash command option
type InteractionOption struct {
	Name  string `json:"name"`
	Type  int    `json:"type"`
	Value any    `json:"value,omitempty"`
}

// InteractionData is the payload of an application command interaction
type InteractionData struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Options []InteractionOption `json:"options,omitempty"`
}

// Interaction represents an INTERACTION_CREATE payload
type Interaction struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	Type          int             `json:"type"`
	Token         string          `json:"token"`
	GuildID       string          `json:"guild_id,omitempty"`
	ChannelID     string          `json:"channel_id,omitempty"`
	Member        *Member         `json:"member,omitempty"`
	User          *User           `json:"user,omitempty"`
	Data          InteractionData `json:"data"`
}

// Author returns the invoking user whether the interaction came from a
// guild (member) or a direct message (user).
func (i Interaction) Author() User {
	if i.Member != nil && i.Member.User != nil {
		return *i.Member.User
	}
	if i.User != nil {
		return *i.User
	}
	return User{}
}

// StringOption returns a string option by name.
func (i Interaction) StringOption(name string) (string, bool) {
	for _, opt := range i.Data.Options {
		if opt.Name != name {
			continue
		}
		s, ok := opt.Value.(string)
		return s, ok
	}
	return "", false
}

// Embed represents a rich embed in Discord
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

// EmbedField represents a field in an embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter is the small text line under an embed
type EmbedFooter struct {
	Text string `json:"text"`
}

// AllowedMentions controls which mentions in content actually ping.
type AllowedMentions struct {
	Parse []string `json:"parse"`
}

// MessageSend is the body for creating or editing a message
type MessageSend struct {
	Content          string            `json:"content,omitempty"`
	Embeds           []Embed           `json:"embeds,omitempty"`
	MessageReference *MessageReference `json:"message_reference,omitempty"`
	AllowedMentions  *AllowedMentions  `json:"allowed_mentions,omitempty"`
}

// Application is the partial application object sent with READY
type Application struct {
	ID string `json:"id"`
}

// Application command option types
const (
	OptionTypeString  = 3
	OptionTypeBoolean = 5
)

// ApplicationCommandChatInput is the slash command type
const ApplicationCommandChatInput = 1

// ApplicationCommandOption declares one slash command option
type ApplicationCommandOption struct {
	Type        int    `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required,omitempty"`
}

// ApplicationCommand is a slash command definition
type ApplicationCommand struct {
	ID            string                     `json:"id,omitempty"`
	ApplicationID string                     `json:"application_id,omitempty"`
	Type          int                        `json:"type,omitempty"`
	Name          string                     `json:"name"`
	Description   string                     `json:"description"`
	Options       []ApplicationCommandOption `json:"options,omitempty"`
}
