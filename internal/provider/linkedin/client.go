// Package linkedin implements the LinkedIn OpenID Connect authorization code
// flow.
package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/dtroode/feedback-server/internal/model"
)

const (
	AuthURL     = "https://www.linkedin.com/oauth/v2/authorization"
	TokenURL    = "https://www.linkedin.com/oauth/v2/accessToken"
	UserInfoURL = "https://api.linkedin.com/v2/userinfo"
)

var _ model.LinkedInClient = (*Client)(nil)

type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration

	// Endpoint overrides, empty means the public LinkedIn endpoints.
	AuthURL     string
	TokenURL    string
	UserInfoURL string
	HTTPClient  *http.Client
}

type Client struct {
	config      *oauth2.Config
	userInfoURL string
	timeout     time.Duration
	httpClient  *http.Client
}

type userInfo struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NewClient(opts Options) *Client {
	authURL := orDefault(opts.AuthURL, AuthURL)
	tokenURL := orDefault(opts.TokenURL, TokenURL)

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: orDefault(opts.UserInfoURL, UserInfoURL),
		timeout:     timeout,
		httpClient:  httpClient,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// Exchange trades the authorization code for an access token and reads the
// OpenID userinfo profile with it.
func (c *Client) Exchange(ctx context.Context, code string) (model.ProviderProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return model.ProviderProfile{}, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return model.ProviderProfile{}, fmt.Errorf("failed to build userinfo request: %w", err)
	}

	resp, err := c.config.Client(ctx, token).Do(req)
	if err != nil {
		return model.ProviderProfile{}, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return model.ProviderProfile{}, model.ErrProviderUnauthorized
	case http.StatusForbidden:
		return model.ProviderProfile{}, model.ErrProviderForbidden
	default:
		return model.ProviderProfile{}, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return model.ProviderProfile{}, fmt.Errorf("failed to decode userinfo: %w", err)
	}

	return model.ProviderProfile{
		Email:     info.Email,
		SubjectID: info.Sub,
		Name:      info.Name,
	}, nil
}
