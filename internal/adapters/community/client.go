// Package community implements the community platform's bot API: guild role
// grants and revokes, and channel messages.
package community

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/target/guardlink/internal/core"
	apperrors "github.com/target/guardlink/internal/errors"
)

// DefaultBaseURL is the bot API root.
const DefaultBaseURL = "https://www.kookapp.cn/api/v3"

// messageTypeText is a plain text channel message.
const messageTypeText = 1

// Config configures Client.
type Config struct {
	BaseURL  string
	BotToken string
	GuildID  string
	Timeout  time.Duration
	// Transport is the base transport under the bot-token authorization layer.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Client is a bot API client. It implements core.RoleGateway and core.Messenger.
type Client struct {
	base    *url.URL
	guildID string
	client  *http.Client
	logger  *slog.Logger
}

var (
	_ core.RoleGateway = (*Client)(nil)
	_ core.Messenger   = (*Client)(nil)
)

// NewClient builds a bot API client. Every request carries
// "Authorization: Bot <token>".
func NewClient(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, errors.New("community bot token is required")
	}
	if strings.TrimSpace(cfg.GuildID) == "" {
		return nil, errors.New("community guild id is required")
	}
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("community base url %q is not absolute", raw)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseTransport := cfg.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:    base,
		guildID: strings.TrimSpace(cfg.GuildID),
		client: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bot"}),
				Base:   baseTransport,
			},
		},
		logger: logger.With("component", "community_client"),
	}, nil
}

type roleRequest struct {
	GuildID string `json:"guild_id"`
	UserID  string `json:"user_id"`
	RoleID  int64  `json:"role_id"`
}

// Grant adds roleID to the member.
func (c *Client) Grant(ctx context.Context, memberID, roleID string) error {
	return c.role(ctx, "guild-role/grant", memberID, roleID)
}

// Revoke removes roleID from the member.
func (c *Client) Revoke(ctx context.Context, memberID, roleID string) error {
	return c.role(ctx, "guild-role/revoke", memberID, roleID)
}

func (c *Client) role(ctx context.Context, path, memberID, roleID string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(roleID), 10, 64)
	if err != nil {
		return apperrors.ValidationField("role_id", "role id must be numeric")
	}
	return c.post(ctx, path, roleRequest{GuildID: c.guildID, UserID: memberID, RoleID: id})
}

type messageRequest struct {
	Type         int    `json:"type"`
	TargetID     string `json:"target_id"`
	Content      string `json:"content"`
	TempTargetID string `json:"temp_target_id,omitempty"`
}

// Send posts msg to its channel. A RecipientID makes the message visible to
// that member only.
func (c *Client) Send(ctx context.Context, msg core.Message) error {
	if msg.ChannelID == "" {
		return apperrors.ValidationField("channel_id", "channel is required")
	}
	return c.post(ctx, "message/create", messageRequest{
		Type:         messageTypeText,
		TargetID:     msg.ChannelID,
		Content:      msg.Content,
		TempTargetID: msg.RecipientID,
	})
}

type apiResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.Unavailable(err, "community %s", path)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.Unavailable(nil, "community %s: %s: %s", path, resp.Status, strings.TrimSpace(string(respBody)))
	}
	var out apiResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return apperrors.Unavailable(err, "decode community %s response", path)
	}
	if out.Code != 0 {
		c.logger.WarnContext(ctx, "community api rejected request", "path", path, "code", out.Code, "message", out.Message)
		return fmt.Errorf("community %s: code %d: %s", path, out.Code, out.Message)
	}
	return nil
}
