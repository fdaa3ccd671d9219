// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package context

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jeranaias/cliff/internal/logging"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrSourceTooLarge is returned when a source exceeds MaxSourceBytes.
	ErrSourceTooLarge = errors.New("context source too large")

	// ErrNotAFile is returned for a directory given as a source.
	ErrNotAFile = errors.New("context source is a directory")
)

// FetchError reports a URL that answered with a non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: status %s", e.URL, e.Status)
}

// =============================================================================
// GATHERER CONFIG
// =============================================================================

const (
	// DefaultMaxSourceBytes caps each source (default: 1MB).
	DefaultMaxSourceBytes = 1 << 20

	// DefaultFetchTimeout bounds a single URL fetch.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultURLsPerSecond paces URL fetches.
	DefaultURLsPerSecond = 2.0

	userAgent = "cliff/1.0"
)

// Options configures a Gatherer. Zero values take the defaults.
type Options struct {
	// MaxSourceBytes caps the size of each file or response body.
	MaxSourceBytes int64

	// FetchTimeout bounds each URL fetch.
	FetchTimeout time.Duration

	// URLsPerSecond limits the URL fetch rate; negative disables pacing.
	URLsPerSecond float64

	// WorkDir resolves relative file paths; empty means the current one.
	WorkDir string

	// HTTPClient overrides the client used for URLs.
	HTTPClient *http.Client
}

// =============================================================================
// GATHERER
// =============================================================================

// Gatherer reads context sources.
type Gatherer struct {
	opts    Options
	client  *http.Client
	limiter *rate.Limiter
	log     *logrus.Entry
}

// NewGatherer creates a gatherer. A nil logger logs through the standard
// logger.
func NewGatherer(opts Options, log *logrus.Entry) *Gatherer {
	if opts.MaxSourceBytes <= 0 {
		opts.MaxSourceBytes = DefaultMaxSourceBytes
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.URLsPerSecond == 0 {
		opts.URLsPerSecond = DefaultURLsPerSecond
	}
	if log == nil {
		log = logging.Component(nil, "context")
	}

	limit := rate.Inf
	if opts.URLsPerSecond > 0 {
		limit = rate.Limit(opts.URLsPerSecond)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Gatherer{
		opts:    opts,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
}

// Gather reads every source in order. The first failure aborts gathering
// and names the source. Blank sources are ignored.
func (g *Gatherer) Gather(ctx context.Context, sources []string) (PromptContext, error) {
	var pc PromptContext
	for _, src := range sources {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		s, err := g.Read(ctx, src)
		if err != nil {
			return PromptContext{}, err
		}
		pc.Sources = append(pc.Sources, s)
	}
	return pc, nil
}

// Read gathers a single source.
func (g *Gatherer) Read(ctx context.Context, source string) (Source, error) {
	var (
		text string
		err  error
	)
	if IsURL(source) {
		text, err = g.fetchURL(ctx, source)
	} else {
		text, err = g.readFile(source)
	}
	if err != nil {
		return Source{}, err
	}

	g.log.WithFields(logrus.Fields{"source": source, "bytes": len(text)}).Debug("context gathered")
	return Source{ID: source, Text: text}, nil
}

// IsURL reports whether source is fetched over HTTP.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// =============================================================================
// FILE SOURCE
// =============================================================================

func (g *Gatherer) readFile(source string) (string, error) {
	path, err := ExpandHome(source)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", source, err)
	}
	if !filepath.IsAbs(path) && g.opts.WorkDir != "" {
		path = filepath.Join(g.opts.WorkDir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", source, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotAFile, source)
	}
	if info.Size() > g.opts.MaxSourceBytes {
		return "", fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrSourceTooLarge, source, info.Size(), g.opts.MaxSourceBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", source, err)
	}
	return string(data), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}

// =============================================================================
// URL SOURCE
// =============================================================================

func (g *Gatherer) fetchURL(ctx context.Context, url string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, g.opts.MaxSourceBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", url, err)
	}
	if int64(len(body)) > g.opts.MaxSourceBytes {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrSourceTooLarge, url, g.opts.MaxSourceBytes)
	}
	return string(body), nil
}
