// Package broadstreet is the outbound adapter for the Broadstreet
// advertising API. The API is treated as an opaque upstream: responses may
// be malformed or inconsistent, and the client degrades to zero records
// instead of failing on unrecognized payloads.
package broadstreet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"adboard/internal/config/configs"
	"adboard/internal/core/port"
)

// Client implements port.UpstreamClient over HTTP. Every call carries the
// configured access token and a fixed timeout; there is no retry or
// backoff. When enabled, a circuit breaker sits in front of the transport
// so a dead upstream fails fast instead of tying up request handlers.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

// NewClient builds a client from configuration.
func NewClient(cfg configs.Broadstreet, logger *slog.Logger) *Client {
	c := &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
	if cfg.Breaker {
		c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "broadstreet-api",
			MaxRequests: 3,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 10 &&
					float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change",
					slog.String("name", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			},
		})
	}
	return c
}

// get fetches one endpoint and returns the raw body. Failures are
// classified into port.UpstreamError categories; callers never see
// transport detail beyond the category.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.breaker == nil {
		return c.roundTrip(ctx, path, query)
	}
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, path, query)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &port.UpstreamError{Category: port.UpstreamUnavailable, Err: err}
	}
	return body, err
}

func (c *Client) roundTrip(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("access_token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		category := port.UpstreamUnavailable
		if isTimeout(err) {
			category = port.UpstreamTimeout
		}
		return nil, &port.UpstreamError{Category: category, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &port.UpstreamError{Category: port.UpstreamUnavailable, Err: err}
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &port.UpstreamError{Category: port.UpstreamAuth, Status: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &port.UpstreamError{Category: port.UpstreamRateLimited, Status: resp.StatusCode}
	case resp.StatusCode >= 400:
		return nil, &port.UpstreamError{Category: port.UpstreamUnavailable, Status: resp.StatusCode}
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// listOf fetches and normalizes one list endpoint. Records that fail to
// decode are logged and skipped; an unrecognized envelope yields zero
// records with a warning, not an error.
func listOf[T any](ctx context.Context, c *Client, path, plural string, query url.Values) ([]T, error) {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	items, shp := decodeList(body, plural)
	if shp == shapeMalformed {
		c.logger.Warn("unexpected upstream payload shape", slog.String("endpoint", path))
		return nil, nil
	}
	out := make([]T, 0, len(items))
	for _, raw := range items {
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			c.logger.Warn("skipping undecodable record",
				slog.String("endpoint", path), slog.Any("error", err))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func scoped(param string, id int) url.Values {
	if id <= 0 {
		return nil
	}
	return url.Values{param: []string{strconv.Itoa(id)}}
}

// Networks lists all networks visible to the token.
func (c *Client) Networks(ctx context.Context) ([]port.RemoteNetwork, error) {
	return listOf[port.RemoteNetwork](ctx, c, "/networks", "networks", nil)
}

// Advertisers lists advertisers, optionally scoped to one network. The
// returned records carry the scope id in NetworkID.
func (c *Client) Advertisers(ctx context.Context, networkID int) ([]port.RemoteAdvertiser, error) {
	recs, err := listOf[port.RemoteAdvertiser](ctx, c, "/advertisers", "advertisers", scoped("network_id", networkID))
	for i := range recs {
		recs[i].NetworkID = networkID
	}
	return recs, err
}

// Campaigns lists campaigns, optionally scoped to one advertiser.
func (c *Client) Campaigns(ctx context.Context, advertiserID int) ([]port.RemoteCampaign, error) {
	recs, err := listOf[port.RemoteCampaign](ctx, c, "/campaigns", "campaigns", scoped("advertiser_id", advertiserID))
	for i := range recs {
		recs[i].AdvertiserID = advertiserID
	}
	return recs, err
}

// Advertisements lists advertisements, optionally scoped to one campaign.
func (c *Client) Advertisements(ctx context.Context, campaignID int) ([]port.RemoteAdvertisement, error) {
	recs, err := listOf[port.RemoteAdvertisement](ctx, c, "/advertisements", "advertisements", scoped("campaign_id", campaignID))
	for i := range recs {
		recs[i].CampaignID = campaignID
	}
	return recs, err
}

// Zones lists zones, optionally scoped to one network.
func (c *Client) Zones(ctx context.Context, networkID int) ([]port.RemoteZone, error) {
	recs, err := listOf[port.RemoteZone](ctx, c, "/zones", "zones", scoped("network_id", networkID))
	for i := range recs {
		recs[i].NetworkID = networkID
	}
	return recs, err
}

// Summary fetches the upstream dashboard summary, optionally scoped to
// one network.
func (c *Client) Summary(ctx context.Context, networkID int) (*port.DashboardSummary, error) {
	body, err := c.get(ctx, "/dashboard/summary", scoped("network_id", networkID))
	if err != nil {
		return nil, err
	}
	var sum port.DashboardSummary
	if err := json.Unmarshal(body, &sum); err != nil {
		c.logger.Warn("unexpected upstream summary payload", slog.Any("error", err))
		return &port.DashboardSummary{}, nil
	}
	return &sum, nil
}
