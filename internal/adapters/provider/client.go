// Package provider implements the external account provider's HTTP API:
// the QR login handshake, account lookup and the paginated supporter roster.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/guardlink/internal/core"
	apperrors "github.com/target/guardlink/internal/errors"
)

const (
	DefaultPassportBaseURL = "https://passport.bilibili.com"
	DefaultAPIBaseURL      = "https://api.bilibili.com"
	DefaultLiveBaseURL     = "https://api.live.bilibili.com"
	DefaultUserAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	maxBodyBytes = 4 << 20
)

// RosterPaths are JMESPath expressions locating roster fields in a page response.
type RosterPaths struct {
	TotalPages string
	TotalCount string
	Top        string
	List       string
}

// DefaultRosterPaths matches the live guard-list response.
func DefaultRosterPaths() RosterPaths {
	return RosterPaths{
		TotalPages: "data.info.page",
		TotalCount: "data.info.num",
		Top:        "data.top3",
		List:       "data.list",
	}
}

// Config configures Client.
type Config struct {
	PassportBaseURL string
	APIBaseURL      string
	LiveBaseURL     string
	// RoomID and RulerUID identify the live room whose roster is ingested.
	RoomID    int64
	RulerUID  int64
	Timeout   time.Duration
	UserAgent string
	Paths     RosterPaths
	Client    *http.Client
	Logger    *slog.Logger
}

// Client talks to the provider. It implements core.AuthProvider and core.RosterSource.
type Client struct {
	passport  *url.URL
	api       *url.URL
	live      *url.URL
	roomID    int64
	rulerUID  int64
	userAgent string
	paths     RosterPaths
	client    *http.Client
	logger    *slog.Logger
}

var (
	_ core.AuthProvider = (*Client)(nil)
	_ core.RosterSource = (*Client)(nil)
)

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	passport, err := parseBase(cfg.PassportBaseURL, DefaultPassportBaseURL)
	if err != nil {
		return nil, fmt.Errorf("passport base url: %w", err)
	}
	api, err := parseBase(cfg.APIBaseURL, DefaultAPIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}
	live, err := parseBase(cfg.LiveBaseURL, DefaultLiveBaseURL)
	if err != nil {
		return nil, fmt.Errorf("live base url: %w", err)
	}

	paths := mergePaths(cfg.Paths)
	for name, expr := range map[string]string{
		"total pages": paths.TotalPages,
		"total count": paths.TotalCount,
		"top":         paths.Top,
		"list":        paths.List,
	} {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("roster %s expression %q: %w", name, expr, err)
		}
	}

	hc := cfg.Client
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}

	return &Client{
		passport:  passport,
		api:       api,
		live:      live,
		roomID:    cfg.RoomID,
		rulerUID:  cfg.RulerUID,
		userAgent: ua,
		paths:     paths,
		client:    hc,
		logger:    logger.With("component", "provider_client"),
	}, nil
}

func parseBase(raw, fallback string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("absolute url required")
	}
	return u, nil
}

func mergePaths(p RosterPaths) RosterPaths {
	def := DefaultRosterPaths()
	if strings.TrimSpace(p.TotalPages) == "" {
		p.TotalPages = def.TotalPages
	}
	if strings.TrimSpace(p.TotalCount) == "" {
		p.TotalCount = def.TotalCount
	}
	if strings.TrimSpace(p.Top) == "" {
		p.Top = def.Top
	}
	if strings.TrimSpace(p.List) == "" {
		p.List = def.List
	}
	return p
}

func endpoint(base *url.URL, path string, query url.Values) string {
	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do executes req and decodes a JSON body into out. Transport errors,
// non-200 statuses and undecodable bodies are Unavailable.
func (c *Client) do(hc *http.Client, req *http.Request, out any) error {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return apperrors.Unavailable(err, "%s %s", req.Method, req.URL.Path)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return apperrors.Unavailable(nil, "%s %s: %s", req.Method, req.URL.Path, resp.Status)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return apperrors.Unavailable(err, "decode %s response", req.URL.Path)
	}
	return nil
}

func (c *Client) get(ctx context.Context, hc *http.Client, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(hc, req, out)
}
