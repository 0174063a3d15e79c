package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rolegate/internal/domain"
	"golang.org/x/oauth2"
)

const (
	discordAuthURL     = "https://discord.com/api/oauth2/authorize"
	discordTokenURL    = "https://discord.com/api/oauth2/token"
	discordUserinfoURL = "https://discord.com/api/users/@me"
)

// Discord verifies identities against Discord's OAuth2 endpoints using the
// identify scope.
type Discord struct {
	oauth       *oauth2.Config
	userinfoURL string
	httpClient  *http.Client
}

func NewDiscord(clientID, clientSecret, redirectURL string) *Discord {
	return &Discord{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  discordAuthURL,
				TokenURL: discordTokenURL,
			},
		},
		userinfoURL: discordUserinfoURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *Discord) AuthCodeURL(state string) string {
	return d.oauth.AuthCodeURL(state)
}

func (d *Discord) ExchangeCode(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, d.httpClient)
	tok, err := d.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("discord code exchange: %v: %w", err, domain.ErrUpstream)
	}
	return tok.AccessToken, nil
}

func (d *Discord) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("discord userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discord userinfo: %v: %w", err, domain.ErrUpstream)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord userinfo status %d: %w", resp.StatusCode, domain.ErrUpstream)
	}

	var body struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode discord userinfo: %v: %w", err, domain.ErrUpstream)
	}
	name := body.GlobalName
	if name == "" {
		name = body.Username
	}
	return &Identity{ID: body.ID, DisplayName: name}, nil
}
