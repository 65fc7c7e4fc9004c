// Package fred retrieves US Treasury constant-maturity yield series from
// the FRED observations API via cursor-based pagination.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	appconfig "github.com/dobbobalina2/Crypto-US-yields/config"
	"github.com/dobbobalina2/Crypto-US-yields/logger"
	"github.com/dobbobalina2/Crypto-US-yields/models"
)

// missingSentinel is the literal FRED uses for missing observations.
const missingSentinel = "."

// requestTimeout bounds every page request. A timeout is fatal for the run;
// there is no retry.
const requestTimeout = 30 * time.Second

// Client pages through FRED series observations. Requests are rate limited
// because FRED enforces a per-minute quota per API key.
type Client struct {
	cfg     appconfig.FredConfig
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Log

	// PagesFetched counts page requests across all series for run metrics.
	PagesFetched int
}

// NewClient builds a client for the configured FRED endpoint.
func NewClient(cfg appconfig.FredConfig, apiKey string) *Client {
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 100000
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 120
	}
	return &Client{
		cfg:     cfg,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
		log:     logger.GetLogger(),
	}
}

type observationsResponse struct {
	Count        int              `json:"count"`
	Offset       int              `json:"offset"`
	Limit        int              `json:"limit"`
	Observations []rawObservation `json:"observations"`
}

type rawObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// FetchSeries retrieves every observation of one series from start onward,
// sorted ascending by date. Pagination is strictly sequential: each page's
// offset depends on the pages accumulated before it.
func (c *Client) FetchSeries(ctx context.Context, seriesID, start string) ([]models.YieldObservation, error) {
	log := c.log.WithComponent("fred_reader").WithFields(logger.Fields{"series_id": seriesID})

	limit := c.cfg.PageLimit
	offset := 0
	totalCount := -1
	var raw []rawObservation

	for {
		page, err := c.fetchPage(ctx, seriesID, start, offset, limit)
		if err != nil {
			return nil, err
		}
		c.PagesFetched++

		if totalCount < 0 {
			totalCount = page.Count
			log.WithFields(logger.Fields{
				"count":  page.Count,
				"offset": page.Offset,
				"limit":  page.Limit,
			}).Info("series metadata received")
		}

		raw = append(raw, page.Observations...)
		log.WithFields(logger.Fields{
			"offset": offset,
			"limit":  limit,
			"rows":   len(page.Observations),
		}).Debug("page fetched")

		// A zero-row page means the server-reported count was
		// incompatible with what it actually serves; stop rather than
		// loop forever.
		if len(page.Observations) == 0 {
			break
		}
		if offset+limit >= totalCount {
			break
		}
		offset += limit
	}

	log.WithFields(logger.Fields{"rows_collected": len(raw)}).Info("series fetched")

	out := make([]models.YieldObservation, 0, len(raw))
	for _, obs := range raw {
		t, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			continue
		}
		out = append(out, models.YieldObservation{
			Date:  models.Day(t),
			Value: parseValue(obs.Value),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// BuildYieldFrame fetches every tenor's series and outer-joins them on date
// so a reporting gap in one tenor does not drop the date from the others.
func (c *Client) BuildYieldFrame(ctx context.Context, start string) (models.YieldFrame, error) {
	log := c.log.WithComponent("fred_reader")

	byDate := make(map[time.Time]*models.YieldRow)
	for _, tenor := range models.Tenors {
		series, err := c.FetchSeries(ctx, tenor.SeriesID(), start)
		if err != nil {
			return nil, err
		}

		nulls := 0
		var maxDate time.Time
		for _, obs := range series {
			if obs.Value == nil {
				nulls++
			}
			if obs.Date.After(maxDate) {
				maxDate = obs.Date
			}
			row, ok := byDate[obs.Date]
			if !ok {
				row = &models.YieldRow{Date: obs.Date}
				byDate[obs.Date] = row
			}
			row.SetYield(tenor, obs.Value)
		}

		log.WithFields(logger.Fields{
			"series_id": tenor.SeriesID(),
			"column":    tenor.YieldColumn(),
			"max_date":  maxDate.Format("2006-01-02"),
			"nulls":     nulls,
		}).Info("series merged into yield frame")
	}

	frame := make(models.YieldFrame, 0, len(byDate))
	for _, row := range byDate {
		frame = append(frame, *row)
	}
	sort.Slice(frame, func(i, j int) bool { return frame[i].Date.Before(frame[j].Date) })
	return frame, nil
}

func (c *Client) fetchPage(ctx context.Context, seriesID, start string, offset, limit int) (*observationsResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	if start != "" {
		params.Set("observation_start", start)
	}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))

	reqURL := strings.TrimRight(c.cfg.URL, "/") + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &models.TransportError{Source: "fred:" + seriesID, URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.TransportError{Source: "fred:" + seriesID, URL: reqURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &models.TransportError{Source: "fred:" + seriesID, URL: reqURL, Status: resp.StatusCode}
	}

	var page observationsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode observations for %s: %w", seriesID, err)
	}
	return &page, nil
}

// parseValue coerces an observation value, treating the "." sentinel and
// unparseable numbers as missing.
func parseValue(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == missingSentinel || s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
