package domain

import "strings"

// Default embed colors, Discord-style decimal RGB.
const (
	defaultPromptColor = 0x5865F2
	defaultDMColor     = 0x57F287
)

// CommunitySettings is the per-community verification configuration.
// An empty RoleID means verification is not configured for the community.
type CommunitySettings struct {
	CommunityID string `json:"community_id"`
	RoleID      string `json:"role_id,omitempty"`

	PromptTitle string `json:"prompt_title"`
	PromptBody  string `json:"prompt_body"`
	PromptColor int    `json:"prompt_color"`

	DMTitle string `json:"dm_title"`
	DMBody  string `json:"dm_body"`
	DMColor int    `json:"dm_color"`
}

// SettingsPatch is a partial update over CommunitySettings. Nil fields keep
// their current (or default) value.
type SettingsPatch struct {
	RoleID      *string `validate:"omitempty,max=64"`
	PromptTitle *string `validate:"omitempty,max=256"`
	PromptBody  *string `validate:"omitempty,max=2048"`
	PromptColor *int    `validate:"omitempty,min=0,max=16777215"`
	DMTitle     *string `validate:"omitempty,max=256"`
	DMBody      *string `validate:"omitempty,max=2048"`
	DMColor     *int    `validate:"omitempty,min=0,max=16777215"`
}

// DefaultSettings returns the settings used for a community with no stored
// record.
func DefaultSettings(communityID string) CommunitySettings {
	return CommunitySettings{
		CommunityID: communityID,
		PromptTitle: "Verification",
		PromptBody:  "Click the button below to verify your account and unlock {server}.",
		PromptColor: defaultPromptColor,
		DMTitle:     "Verified",
		DMBody:      "Welcome {user}, you are now verified on {server}!",
		DMColor:     defaultDMColor,
	}
}

// Apply merges the patch over s and returns the result.
func (p SettingsPatch) Apply(s CommunitySettings) CommunitySettings {
	if p.RoleID != nil {
		s.RoleID = *p.RoleID
	}
	if p.PromptTitle != nil {
		s.PromptTitle = *p.PromptTitle
	}
	if p.PromptBody != nil {
		s.PromptBody = *p.PromptBody
	}
	if p.PromptColor != nil {
		s.PromptColor = *p.PromptColor
	}
	if p.DMTitle != nil {
		s.DMTitle = *p.DMTitle
	}
	if p.DMBody != nil {
		s.DMBody = *p.DMBody
	}
	if p.DMColor != nil {
		s.DMColor = *p.DMColor
	}
	return s
}

// TemplateVars are the values substituted into message templates.
type TemplateVars struct {
	CommunityName string
	SubjectName   string
}

// RenderTemplate substitutes the {server} and {user} placeholders in tpl.
// Unknown placeholders are left as-is; missing variables fall back to
// "Server" and "User".
func RenderTemplate(tpl string, vars TemplateVars) string {
	server := vars.CommunityName
	if server == "" {
		server = "Server"
	}
	user := vars.SubjectName
	if user == "" {
		user = "User"
	}
	out := strings.ReplaceAll(tpl, "{server}", server)
	out = strings.ReplaceAll(out, "{user}", user)
	return out
}
