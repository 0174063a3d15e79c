package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rolegate/internal/domain"
	"github.com/rs/zerolog"
)

const verifyButtonID = "verify:start"

// enroller starts a verification attempt and returns the link the user
// follows.
type enroller interface {
	BeginVerification(ctx context.Context, subjectID, communityID string) (string, error)
}

// settingsWriter is the slice of the settings store the bot commands need.
type settingsWriter interface {
	Get(communityID string) domain.CommunitySettings
	Update(ctx context.Context, communityID string, patch domain.SettingsPatch) (domain.CommunitySettings, error)
}

// Bot owns the interaction handlers: the /verify-setup configuration
// commands and the Verify button.
type Bot struct {
	client   *Client
	enroll   enroller
	settings settingsWriter
	log      zerolog.Logger
}

func NewBot(client *Client, enroll enroller, settings settingsWriter, log zerolog.Logger) *Bot {
	return &Bot{
		client:   client,
		enroll:   enroll,
		settings: settings,
		log:      log.With().Str("service", "bot").Logger(),
	}
}

// Start registers the interaction handler and the application commands.
// Call after the session is open.
func (b *Bot) Start() error {
	b.client.Session().AddHandler(b.handleInteraction)

	manageGuild := int64(discordgo.PermissionManageServer)
	cmd := &discordgo.ApplicationCommand{
		Name:                     "verify-setup",
		Description:              "Configure account verification for this server",
		DefaultMemberPermissions: &manageGuild,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "role",
				Description: "Set the role granted on successful verification",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "Role to grant",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "dm",
				Description: "Customize the direct message sent after verification",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "title", Description: "DM title"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "body", Description: "DM body ({server} and {user} are substituted)"},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "color", Description: "Embed color (decimal RGB)"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "prompt",
				Description: "Customize the channel prompt message",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "title", Description: "Prompt title"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "body", Description: "Prompt body ({server} is substituted)"},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "color", Description: "Embed color (decimal RGB)"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "post",
				Description: "Post the verification prompt in this channel",
			},
		},
	}
	s := b.client.Session()
	if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", cmd); err != nil {
		return err
	}
	return nil
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if i.ApplicationCommandData().Name == "verify-setup" {
			b.handleSetup(s, i)
		}
	case discordgo.InteractionMessageComponent:
		if i.MessageComponentData().CustomID == verifyButtonID {
			b.handleVerifyClick(s, i)
		}
	}
}

func (b *Bot) handleSetup(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" || i.Member == nil {
		b.respondEphemeral(s, i, "This command only works inside a server.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data := i.ApplicationCommandData()
	sub := data.Options[0]

	switch sub.Name {
	case "role":
		role := sub.Options[0].RoleValue(s, i.GuildID)
		if role == nil {
			b.respondEphemeral(s, i, "Could not resolve that role.")
			return
		}
		roleID := role.ID
		if _, err := b.settings.Update(ctx, i.GuildID, domain.SettingsPatch{RoleID: &roleID}); err != nil {
			b.log.Error().Err(err).Str("guild", i.GuildID).Msg("role update failed")
			b.respondEphemeral(s, i, "Could not save the role, try again.")
			return
		}
		b.respondEphemeral(s, i, "Verified members will now receive <@&"+roleID+">.")
	case "dm":
		patch := templatePatch(sub.Options, false)
		if _, err := b.settings.Update(ctx, i.GuildID, patch); err != nil {
			b.respondEphemeral(s, i, "Invalid message settings: "+err.Error())
			return
		}
		b.respondEphemeral(s, i, "Direct message template updated.")
	case "prompt":
		patch := templatePatch(sub.Options, true)
		if _, err := b.settings.Update(ctx, i.GuildID, patch); err != nil {
			b.respondEphemeral(s, i, "Invalid message settings: "+err.Error())
			return
		}
		b.respondEphemeral(s, i, "Prompt template updated.")
	case "post":
		b.postPrompt(s, i)
	}
}

// templatePatch maps the title/body/color options onto the prompt or DM
// fields of a settings patch.
func templatePatch(opts []*discordgo.ApplicationCommandInteractionDataOption, prompt bool) domain.SettingsPatch {
	var patch domain.SettingsPatch
	for _, o := range opts {
		switch o.Name {
		case "title":
			v := o.StringValue()
			if prompt {
				patch.PromptTitle = &v
			} else {
				patch.DMTitle = &v
			}
		case "body":
			v := o.StringValue()
			if prompt {
				patch.PromptBody = &v
			} else {
				patch.DMBody = &v
			}
		case "color":
			v := int(o.IntValue())
			if prompt {
				patch.PromptColor = &v
			} else {
				patch.DMColor = &v
			}
		}
	}
	return patch
}

func (b *Bot) postPrompt(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cfg := b.settings.Get(i.GuildID)
	vars := domain.TemplateVars{CommunityName: b.client.CommunityName(i.GuildID)}

	_, err := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       domain.RenderTemplate(cfg.PromptTitle, vars),
			Description: domain.RenderTemplate(cfg.PromptBody, vars),
			Color:       cfg.PromptColor,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Verify",
					Style:    discordgo.PrimaryButton,
					CustomID: verifyButtonID,
				},
			}},
		},
	})
	if err != nil {
		b.log.Error().Err(err).Str("guild", i.GuildID).Msg("prompt post failed")
		b.respondEphemeral(s, i, "Could not post the prompt here.")
		return
	}
	b.respondEphemeral(s, i, "Prompt posted.")
}

func (b *Bot) handleVerifyClick(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		b.respondEphemeral(s, i, "Verification only works inside a server.")
		return
	}
	subjectID := i.Member.User.ID

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	link, err := b.enroll.BeginVerification(ctx, subjectID, i.GuildID)
	if err != nil {
		b.log.Error().Err(err).Str("subject", subjectID).Str("guild", i.GuildID).
			Msg("begin verification failed")
		b.respondEphemeral(s, i, "Something went wrong, try again in a moment.")
		return
	}
	b.respondEphemeral(s, i, "Click to verify your account: "+link+
		"\nThe link is personal and expires in a few minutes.")
}

func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Warn().Err(err).Msg("interaction response failed")
	}
}
