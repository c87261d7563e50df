package reddit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/csspublisher/internal/config"
	"git.home.luguber.info/inful/csspublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/csspublisher/internal/notify"
	"git.home.luguber.info/inful/csspublisher/internal/publish"
)

// tokenSlack renews the bearer token this long before it expires.
const tokenSlack = time.Minute

// Client talks to the Reddit OAuth API.
type Client struct {
	httpClient   *http.Client
	apiURL       string
	tokenURL     string
	clientID     string
	clientSecret string
	refreshToken string
	userAgent    string
	clock        clockwork.Clock

	mu          sync.Mutex
	accessToken string
	expiry      time.Time
}

var (
	_ publish.API     = (*Client)(nil)
	_ notify.Composer = (*Client)(nil)
)

// NewClient creates a client from the destination configuration.
func NewClient(cfg config.DestinationConfig) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		apiURL:       cfg.APIURL,
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		refreshToken: cfg.RefreshToken,
		userAgent:    cfg.UserAgent,
		clock:        clockwork.NewRealClock(),
	}
	if c.apiURL == "" {
		c.apiURL = config.DefaultAPIURL
	}
	if c.tokenURL == "" {
		c.tokenURL = config.DefaultTokenURL
	}
	if c.userAgent == "" {
		c.userAgent = config.DefaultUserAgent
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	if h != nil {
		c.httpClient = h
	}
	return c
}

// WithClock replaces the clock used for token expiry.
func (c *Client) WithClock(clk clockwork.Clock) *Client {
	if clk != nil {
		c.clock = clk
	}
	return c
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// token returns a valid bearer token, refreshing it when needed.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && c.clock.Now().Before(c.expiry) {
		return c.accessToken, nil
	}
	if c.clientID == "" || c.refreshToken == "" {
		return "", errors.AuthError("reddit client_id and refresh_token are required").Build()
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.refreshToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.InternalError("failed to create token request").WithCause(err).Build()
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	var tr tokenResponse
	if err := c.doRequest(req, &tr); err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		msg := tr.Error
		if msg == "" {
			msg = "empty access token"
		}
		return "", errors.AuthError("reddit token refresh failed").WithContext("error", msg).Build()
	}

	c.accessToken = tr.AccessToken
	lifetime := time.Duration(tr.ExpiresIn) * time.Second
	if lifetime > tokenSlack {
		lifetime -= tokenSlack
	}
	c.expiry = c.clock.Now().Add(lifetime)
	return c.accessToken, nil
}

// newRequest builds an authenticated API request for endpoint, a path
// relative to the API base URL.
func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Request, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, errors.ConfigError("failed to parse API URL").
			WithCause(err).
			WithContext("api_url", c.apiURL).
			Build()
	}
	u.Path = path.Join(strings.TrimSuffix(u.Path, "/"), strings.TrimPrefix(endpoint, "/"))
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.InternalError("failed to create request").
			WithCause(err).
			WithContext("method", method).
			WithContext("url", u.String()).
			Build()
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// doRequest executes req and decodes a JSON body into result.
func (c *Client) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NetworkError("failed to execute reddit request").
			WithCause(err).
			WithContext("method", req.Method).
			WithContext("url", req.URL.String()).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		bodyStr := strings.ReplaceAll(string(limitedBody), "\n", " ")

		category := errors.CategoryPublish
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			category = errors.CategoryAuth
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			category = errors.CategoryNetwork
		}
		return errors.NewError(category, fmt.Sprintf("reddit API error: %s", resp.Status)).
			WithContext("status", resp.Status).
			WithContext("code", resp.StatusCode).
			WithContext("url", req.URL.String()).
			WithContext("response", bodyStr).
			Build()
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil && err != io.EOF {
			return errors.NewError(errors.CategoryPublish, "failed to decode reddit response").
				WithCause(err).
				WithContext("url", req.URL.String()).
				Build()
		}
	}
	return nil
}

// jsonEnvelope is the api_type=json response wrapper.
type jsonEnvelope struct {
	JSON struct {
		Errors []any `json:"errors"`
	} `json:"json"`
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) error {
	form.Set("api_type", "json")
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}
	var env jsonEnvelope
	if err := c.doRequest(req, &env); err != nil {
		return err
	}
	if len(env.JSON.Errors) > 0 {
		return &APIError{Endpoint: endpoint, Errors: flattenErrors(env.JSON.Errors)}
	}
	return nil
}

// UpdateStylesheet replaces the subreddit stylesheet with css.
func (c *Client) UpdateStylesheet(ctx context.Context, subreddit, css, reason string) error {
	form := url.Values{}
	form.Set("op", "save")
	form.Set("stylesheet_contents", css)
	form.Set("reason", reason)
	return c.postForm(ctx, "/r/"+subreddit+"/api/subreddit_stylesheet", form)
}

type uploadResponse struct {
	Errors       []any    `json:"errors"`
	ErrorsValues []string `json:"errors_values"`
	ImgSrc       string   `json:"img_src"`
}

// UploadImage uploads img as a stylesheet image named img.Name.
func (c *Client) UploadImage(ctx context.Context, subreddit string, img publish.AssetImage) error {
	f, err := os.Open(img.FilePath)
	if err != nil {
		return errors.FileSystemError("failed to open image").
			WithCause(err).
			WithContext("path", img.FilePath).
			Build()
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"name", img.Name},
		{"img_type", imgType(img.Kind)},
		{"upload_type", "img"},
		{"api_type", "json"},
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return errors.InternalError("failed to encode upload").WithCause(err).Build()
		}
	}
	part, err := mw.CreateFormFile("file", filepath.Base(img.FilePath))
	if err != nil {
		return errors.InternalError("failed to encode upload").WithCause(err).Build()
	}
	if _, err := io.Copy(part, f); err != nil {
		return errors.FileSystemError("failed to read image").
			WithCause(err).
			WithContext("path", img.FilePath).
			Build()
	}
	if err := mw.Close(); err != nil {
		return errors.InternalError("failed to encode upload").WithCause(err).Build()
	}

	endpoint := "/r/" + subreddit + "/api/upload_sr_img"
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}
	var ur uploadResponse
	if err := c.doRequest(req, &ur); err != nil {
		return err
	}
	if len(ur.Errors) > 0 {
		msgs := flattenErrors(ur.Errors)
		msgs = append(msgs, ur.ErrorsValues...)
		return &APIError{Endpoint: endpoint, Errors: msgs}
	}
	return nil
}

// ComposeMessage sends a private message; "/r/<name>" addresses modmail.
func (c *Client) ComposeMessage(ctx context.Context, msg notify.Message) error {
	form := url.Values{}
	form.Set("to", msg.To)
	form.Set("subject", msg.Subject)
	form.Set("text", msg.Text)
	return c.postForm(ctx, "/api/compose", form)
}

// imgType maps an image kind to the API's img_type value.
func imgType(k publish.ImageKind) string {
	if k == publish.KindPNG {
		return "png"
	}
	return "jpg"
}
