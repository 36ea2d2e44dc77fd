package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/target/guardlink/internal/domain/model"
	apperrors "github.com/target/guardlink/internal/errors"
)

// Cookie names carried by the authorized redirect URL.
const (
	cookieAccountID    = "DedeUserID"
	cookieAccountIDSig = "DedeUserID__ckMd5"
	cookieSession      = "SESSDATA"
	cookieCSRF         = "bili_jct"
)

type loginURLResponse struct {
	Code int `json:"code"`
	Data struct {
		URL      string `json:"url"`
		OAuthKey string `json:"oauthKey"`
	} `json:"data"`
}

// IssueToken requests a fresh QR login challenge.
func (c *Client) IssueToken(ctx context.Context) (model.LoginChallenge, error) {
	var body loginURLResponse
	if err := c.get(ctx, c.client, endpoint(c.passport, "qrcode/getLoginUrl", nil), &body); err != nil {
		return model.LoginChallenge{}, err
	}
	if body.Code != 0 || body.Data.OAuthKey == "" || body.Data.URL == "" {
		return model.LoginChallenge{}, apperrors.Unavailable(nil, "login url rejected: code %d", body.Code)
	}
	return model.LoginChallenge{PollToken: body.Data.OAuthKey, ChallengeURL: body.Data.URL}, nil
}

// loginInfoResponse carries an object in data once authorized and a bare
// status number while waiting.
type loginInfoResponse struct {
	Status bool            `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// PollTokenStatus asks whether the challenge behind pollToken was authorized.
func (c *Client) PollTokenStatus(ctx context.Context, pollToken string) (model.PollResult, error) {
	form := url.Values{"oauthKey": {pollToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint(c.passport, "qrcode/getLoginInfo", nil), strings.NewReader(form.Encode()))
	if err != nil {
		return model.PollResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var body loginInfoResponse
	if err := c.do(c.client, req, &body); err != nil {
		return model.PollResult{}, err
	}
	if !body.Status {
		return model.PollResult{Status: model.TokenNotYetAuthorized}, nil
	}

	var data struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body.Data, &data); err != nil {
		return model.PollResult{}, apperrors.Unavailable(err, "decode login info")
	}
	cred, err := credentialFromRedirect(data.URL)
	if err != nil {
		return model.PollResult{}, apperrors.Unavailable(err, "authorized login carried no credential")
	}
	return model.PollResult{Status: model.TokenAuthorized, Credential: &cred}, nil
}

func credentialFromRedirect(raw string) (model.Credential, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return model.Credential{}, err
	}
	q := u.Query()
	cred := model.Credential{
		AccountID:    q.Get(cookieAccountID),
		AccountIDSig: q.Get(cookieAccountIDSig),
		SessionData:  q.Get(cookieSession),
		CSRFToken:    q.Get(cookieCSRF),
	}
	if cred.AccountID == "" || cred.SessionData == "" {
		return model.Credential{}, fmt.Errorf("redirect missing %s or %s", cookieAccountID, cookieSession)
	}
	return cred, nil
}

type accountResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Mid int64 `json:"mid"`
	} `json:"data"`
}

type accountInfoResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Mid   int64  `json:"mid"`
		Name  string `json:"name"`
		Level int    `json:"level"`
	} `json:"data"`
}

// AccountLookup resolves the account behind cred. The credential is sent as
// cookies through a jar scoped to this lookup. Tier is left zero; it comes
// from the roster snapshot.
func (c *Client) AccountLookup(ctx context.Context, cred model.Credential) (model.Account, error) {
	hc, err := c.credentialClient(cred)
	if err != nil {
		return model.Account{}, err
	}

	var acct accountResponse
	if err := c.get(ctx, hc, endpoint(c.api, "x/member/web/account", nil), &acct); err != nil {
		return model.Account{}, err
	}
	if acct.Code != 0 || acct.Data.Mid == 0 {
		return model.Account{}, apperrors.Unavailable(nil, "account lookup rejected: code %d %s", acct.Code, acct.Message)
	}

	q := url.Values{"mid": {strconv.FormatInt(acct.Data.Mid, 10)}}
	var info accountInfoResponse
	if err := c.get(ctx, hc, endpoint(c.api, "x/space/acc/info", q), &info); err != nil {
		return model.Account{}, err
	}
	if info.Code != 0 {
		return model.Account{}, apperrors.Unavailable(nil, "account info rejected: code %d %s", info.Code, info.Message)
	}

	c.logger.DebugContext(ctx, "provider account resolved", "account_id", info.Data.Mid, "level", info.Data.Level)
	return model.Account{
		ID:          info.Data.Mid,
		DisplayName: info.Data.Name,
		Level:       info.Data.Level,
	}, nil
}

func (c *Client) credentialClient(cred model.Credential) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	jar.SetCookies(c.api, []*http.Cookie{
		{Name: cookieAccountID, Value: cred.AccountID},
		{Name: cookieAccountIDSig, Value: cred.AccountIDSig},
		{Name: cookieSession, Value: cred.SessionData},
		{Name: cookieCSRF, Value: cred.CSRFToken},
	})
	hc := *c.client
	hc.Jar = jar
	return &hc, nil
}
