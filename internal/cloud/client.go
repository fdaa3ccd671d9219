// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/jeranaias/cliff/internal/config"
	"github.com/jeranaias/cliff/internal/extract"
	"github.com/jeranaias/cliff/internal/logging"
	"github.com/jeranaias/cliff/internal/template"
	"github.com/jeranaias/cliff/internal/util"
)

const (
	// DefaultTimeout bounds one request when the model sets no timeout.
	DefaultTimeout = 120 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024

	// maxSnippet caps the response body excerpt kept in a ModelError.
	maxSnippet = 512

	// UserAgent identifies cliff to backends.
	UserAgent = "cliff/1.0"
)

// Shared client with connection pooling. Timeouts come from the request
// context so each model can set its own.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// Client sends prompts to configured backends.
type Client struct {
	httpClient *http.Client
	log        *logrus.Entry
	timeout    time.Duration
}

// NewClient creates a client using the shared pooled transport. A nil
// logger falls back to the logrus standard logger.
func NewClient(log *logrus.Entry) *Client {
	if log == nil {
		log = logging.Component(nil, "cloud")
	}
	return &Client{
		httpClient: sharedHTTPClient,
		log:        log,
		timeout:    DefaultTimeout,
	}
}

// WithHTTPClient replaces the transport, e.g. for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout sets the timeout used for models that do not set their own.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// =============================================================================
// COMPLETE
// =============================================================================

// Complete sends prompt to the model's backend and returns the extracted
// answer text. Every failure is a *ModelError. There are no retries.
func (c *Client) Complete(ctx context.Context, m config.ResolvedModel, prompt string) (string, error) {
	timeout := c.timeout
	if m.TimeoutSecs > 0 {
		timeout = time.Duration(m.TimeoutSecs) * time.Second
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	segs, err := extract.ParsePath(m.ResponsePath)
	if err != nil {
		return "", &ModelError{Kind: KindExtraction, Model: m.Name, Err: err}
	}

	body := RenderBody(m.ModelConfig, prompt)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.APIURL, strings.NewReader(body))
	if err != nil {
		return "", newModelError(KindTransport, m, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	c.setAuthHeader(req, m.ModelConfig)

	log := c.log.WithFields(logrus.Fields{
		"model":           m.Name,
		"source":          m.Source,
		"host":            hostOf(m.APIURL),
		"key_fingerprint": util.Fingerprint(m.APIKey),
	})
	log.WithField("prompt_bytes", len(prompt)).Debug("sending request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(scrub(err, m.APIKey)).Debug("request failed")
		return "", newModelError(KindTransport, m, err)
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"bytes":    len(data),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("response received")
	if err != nil {
		return "", newModelError(KindTransport, m, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		merr := newModelError(KindHTTP, m, nil)
		merr.Status = resp.StatusCode
		merr.BodySnippet = snippet(data, m.APIKey)
		return "", merr
	}

	if !gjson.ValidBytes(data) {
		merr := newModelError(KindInvalidJSON, m, nil)
		merr.BodySnippet = snippet(data, m.APIKey)
		return "", merr
	}

	answer, err := extract.Walk(gjson.ParseBytes(data), m.ResponsePath, segs)
	if err != nil {
		merr := newModelError(KindExtraction, m, err)
		merr.BodySnippet = snippet(data, m.APIKey)
		return "", merr
	}

	log.WithField("answer_bytes", len(answer)).Debug("answer extracted")
	return answer, nil
}

// UnknownModelIdentifier fills {{model}} when no identifier is configured.
const UnknownModelIdentifier = "?"

// RenderBody fills the request template. Both values are JSON-string escaped
// because they land inside a JSON document.
func RenderBody(m config.ModelConfig, prompt string) string {
	identifier := m.ModelIdentifier
	if identifier == "" {
		identifier = UnknownModelIdentifier
	}
	return template.Render(m.RequestFormat, map[string]string{
		template.VarPrompt: EscapeJSON(prompt),
		template.VarModel:  EscapeJSON(identifier),
	})
}

// EscapeJSON returns s escaped for use inside a JSON string literal, without
// the surrounding quotes.
func EscapeJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail
	_ = enc.Encode(s)
	out := buf.Bytes()
	// Strip the quotes and the encoder's trailing newline
	return string(out[1 : len(out)-2])
}

// AuthHeader returns the header carrying the API key. ok is false when the
// model has no key. A header template without ':' falls back to a bearer
// token and sets malformed.
func AuthHeader(m config.ModelConfig) (name, value string, ok, malformed bool) {
	if m.APIKey == "" {
		return "", "", false, false
	}
	if m.APIKeyHeader == "" {
		return "Authorization", "Bearer " + m.APIKey, true, false
	}

	rendered := template.Render(m.APIKeyHeader, map[string]string{template.VarAPIKey: m.APIKey})
	idx := strings.Index(rendered, ":")
	if idx <= 0 || strings.TrimSpace(rendered[:idx]) == "" {
		return "Authorization", "Bearer " + m.APIKey, true, true
	}
	return strings.TrimSpace(rendered[:idx]), strings.TrimSpace(rendered[idx+1:]), true, false
}

func (c *Client) setAuthHeader(req *http.Request, m config.ModelConfig) {
	name, value, ok, malformed := AuthHeader(m)
	if !ok {
		return
	}
	if malformed {
		c.log.WithField("model", m.Name).Warn("api_key_header has no ':' separator, using Authorization: Bearer")
	}
	req.Header.Set(name, value)
}

// readResponse reads the response body with size limits to prevent memory
// exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

func snippet(body []byte, apiKey string) string {
	s, cut := util.TruncateBytes(string(body), maxSnippet)
	s = util.Redact(strings.TrimSpace(s), apiKey)
	if cut {
		s += "..."
	}
	return s
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// =============================================================================
// BOUND MODEL
// =============================================================================

// Bound pairs a client with one resolved model so callers only pass a
// prompt.
type Bound struct {
	client *Client
	model  config.ResolvedModel
}

// Bind returns a Bound for m.
func Bind(c *Client, m config.ResolvedModel) *Bound {
	return &Bound{client: c, model: m}
}

// Complete sends prompt to the bound model.
func (b *Bound) Complete(ctx context.Context, prompt string) (string, error) {
	return b.client.Complete(ctx, b.model, prompt)
}

// Model returns the bound model definition.
func (b *Bound) Model() config.ResolvedModel {
	return b.model
}
