// Package discord is the chat-platform side of the bridge: the gateway bot,
// role mutation and direct messages, all over one discordgo session.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rolegate/internal/domain"
	"github.com/rs/zerolog"
)

// Client wraps the discordgo session behind the capabilities the
// orchestrator consumes.
type Client struct {
	s   *discordgo.Session
	log zerolog.Logger
}

func NewClient(botToken string, log zerolog.Logger) (*Client, error) {
	s, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	return &Client{s: s, log: log.With().Str("service", "discord").Logger()}, nil
}

// Session exposes the underlying session for the bot wiring.
func (c *Client) Session() *discordgo.Session { return c.s }

func (c *Client) Open() error  { return c.s.Open() }
func (c *Client) Close() error { return c.s.Close() }

// GrantRole adds the role to the member. Discord's role-add is idempotent,
// so an already-granted role reports success.
func (c *Client) GrantRole(ctx context.Context, communityID, subjectID, roleID string) error {
	if err := c.s.GuildMemberRoleAdd(communityID, subjectID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("grant role %s in guild %s: %v: %w", roleID, communityID, err, domain.ErrUpstream)
	}
	return nil
}

// LookupRole reports whether the role still exists in the guild.
func (c *Client) LookupRole(communityID, roleID string) bool {
	roles, err := c.s.GuildRoles(communityID)
	if err != nil {
		c.log.Warn().Err(err).Str("guild", communityID).Msg("role lookup failed")
		return false
	}
	for _, r := range roles {
		if r.ID == roleID {
			return true
		}
	}
	return false
}

// CommunityName resolves the guild's display name; empty when unknown, which
// makes templates fall back to their literal default.
func (c *Client) CommunityName(communityID string) string {
	if g, err := c.s.State.Guild(communityID); err == nil && g.Name != "" {
		return g.Name
	}
	g, err := c.s.Guild(communityID)
	if err != nil {
		return ""
	}
	return g.Name
}

// SendDirectMessage delivers an embed to the subject's DM channel.
func (c *Client) SendDirectMessage(ctx context.Context, subjectID, title, body string, color int) error {
	ch, err := c.s.UserChannelCreate(subjectID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm channel for %s: %w", subjectID, err)
	}
	_, err = c.s.ChannelMessageSendEmbed(ch.ID, &discordgo.MessageEmbed{
		Title:       title,
		Description: body,
		Color:       color,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send dm to %s: %w", subjectID, err)
	}
	return nil
}
