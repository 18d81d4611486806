// Package client talks to the storefront backend REST API. Every request is
// credentialed: the cookie jar is shared by all calls and mirrored into a
// storage slot so a session survives restarts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/sirupsen/logrus"
	"github.com/teris-io/shortid"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
	"vital_geo/database"
)

const requestIDHeader = "X-Request-ID"

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded with status %d", e.StatusCode)
	}
	return e.Message
}

// IsAPIError reports whether err carries a backend response, as opposed to
// a transport failure.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	jar     http.CookieJar
	store   database.Store

	mu             sync.RWMutex
	onUnauthorized func()
}

// New builds a client for apiURL. store may be nil, in which case cookies
// live only as long as the process.
func New(apiURL string, timeout time.Duration, store database.Store) (*Client, error) {
	base, err := url.Parse(NormalizeAPIURL(apiURL))
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", apiURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout, Jar: jar},
		jar:     jar,
		store:   store,
	}
	c.restoreCookies()
	return c, nil
}

// NormalizeAPIURL makes sure the base URL ends with /api.
func NormalizeAPIURL(raw string) string {
	if raw == "" {
		raw = "http://localhost:3000/api"
	}
	clean := strings.TrimRight(raw, "/")
	if !strings.HasSuffix(clean, "/api") {
		logrus.Warnf("api url %q does not end with /api, using %q", raw, clean+"/api")
		clean += "/api"
	}
	return clean
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// BackendBaseURL is the API URL without the /api suffix, where uploads are
// served from.
func (c *Client) BackendBaseURL() string {
	return strings.TrimSuffix(c.baseURL.String(), "/api")
}

// OnUnauthorized registers a hook fired on every 401 response.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

func (c *Client) restoreCookies() {
	if c.store == nil {
		return
	}
	var cookies []*http.Cookie
	found, err := c.store.Load(database.SlotCookies, &cookies)
	if err != nil {
		logrus.Errorf("restoreCookies: failed to load cookies err = %v", err)
		return
	}
	if found {
		c.jar.SetCookies(c.baseURL, cookies)
	}
}

func (c *Client) persistCookies() {
	if c.store == nil {
		return
	}
	if err := c.store.Save(database.SlotCookies, c.jar.Cookies(c.baseURL)); err != nil {
		logrus.Errorf("persistCookies: failed to save cookies err = %v", err)
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// credentialPaths answer 401 for bad credentials, not for an expired
// session, so they never fire the unauthorized hook.
var credentialPaths = map[string]bool{
	"/auth/login":  true,
	"/auth/signup": true,
	"/auth/logout": true,
}

// do sends the request and decodes a 2xx JSON body into out when out is not
// nil. Non-2xx responses become *APIError carrying the server message.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out interface{}) error {
	fullURL := c.endpoint(path, query)
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID, err := shortid.Generate()
	if err == nil {
		req.Header.Set(requestIDHeader, requestID)
	}

	log := logrus.WithFields(logrus.Fields{"method": method, "url": fullURL, "request_id": requestID})
	log.Debug("api request")
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		log.Errorf("api request failed err = %v", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	log.WithField("status", resp.StatusCode).Debugf("api response (%s)", time.Since(start))

	c.persistCookies()

	if resp.StatusCode == http.StatusUnauthorized && !credentialPaths[path] {
		log.Warn("401 unauthorized, session may have expired")
		c.mu.RLock()
		hook := c.onUnauthorized
		c.mu.RUnlock()
		if hook != nil {
			hook()
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &msg)
		return &APIError{StatusCode: resp.StatusCode, Message: msg.Message}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, http.MethodPost, path, nil, body, "application/json", out)
}
