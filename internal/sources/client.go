// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pdiddy/reference-engine/internal/httputil"
	"github.com/pdiddy/reference-engine/pkg/types"
)

// maxResponseBytes bounds provider responses; anything larger is a
// misbehaving endpoint, not a result set.
const maxResponseBytes = 8 << 20

// client wraps an http.Client with the adapter's rate limiter and response
// cache. Adapters never touch the limiter or cache directly; all bookkeeping
// goes through fetch, which serializes it.
type client struct {
	http      *http.Client
	limiter   *rate.Limiter
	cache     *responseCache
	userAgent string
}

func newClient(hc *http.Client, cfg types.AdapterConfig, userAgent string) *client {
	rl := cfg.Rate
	if rl.RequestCount <= 0 || rl.Window <= 0 {
		rl = types.RateLimit{RequestCount: 1, Window: 0}
	}
	var limiter *rate.Limiter
	if rl.Window == 0 {
		limiter = rate.NewLimiter(rate.Inf, 1)
	} else {
		perSecond := float64(rl.RequestCount) / rl.Window.Seconds()
		limiter = rate.NewLimiter(rate.Limit(perSecond), rl.RequestCount)
	}
	return &client{
		http:      hc,
		limiter:   limiter,
		cache:     newResponseCache(cfg.Cache),
		userAgent: userAgent,
	}
}

// fetch performs a rate-limited GET with 429 retry and caches successful
// bodies. A 404 or 410 maps to types.ErrNotFound; other non-2xx statuses
// are transport errors. When checkBlocked is set, bodies that look like
// anti-bot interstitials map to types.ErrBlocked instead of being cached.
func (c *client) fetch(ctx context.Context, url string, headers map[string]string, checkBlocked bool) ([]byte, error) {
	if cached := c.cache.get(url); cached != nil {
		return cached, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return nil, fmt.Errorf("request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, types.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%s returned HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}

	if checkBlocked && httputil.IsBlockedPage(body) {
		return nil, types.ErrBlocked
	}

	c.cache.put(url, body)
	return body, nil
}

// getJSON fetches url and decodes the body into v.
func (c *client) getJSON(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.fetch(ctx, url, headers, false)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing response from %s: %w", url, err)
	}
	return nil
}

// getHTML fetches a scraped page with interstitial detection enabled.
func (c *client) getHTML(ctx context.Context, url string) ([]byte, error) {
	return c.fetch(ctx, url, nil, true)
}
