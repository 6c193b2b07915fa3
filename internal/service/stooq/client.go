package stooq

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"UnslugCity/internal/domain/models"
	xhttp "UnslugCity/pkg/http"
	applogger "UnslugCity/pkg/logger"
)

const defaultBaseURL = "https://stooq.com/q/d/l/"

// Client fetches daily OHLCV history from the Stooq CSV endpoint. It is
// the pull-based ingest collaborator feeding the bar store.
type Client struct {
	http    *xhttp.Client
	baseURL string
	suffix  string
	l       *applogger.Logger
}

type Option func(*Client)

// WithBaseURL overrides the download endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithSuffix sets the market suffix appended to bare symbols (e.g. ".us").
func WithSuffix(s string) Option {
	return func(c *Client) { c.suffix = s }
}

func New(httpClient *xhttp.Client, l *applogger.Logger, opts ...Option) *Client {
	c := &Client{
		http:    httpClient,
		baseURL: defaultBaseURL,
		suffix:  ".us",
		l:       l,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchDaily downloads daily bars for one symbol across the date range.
// Rows with unparsable fields are skipped, not fatal.
func (c *Client) FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	start := time.Now()

	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL,
		QueryParams: map[string][]string{
			"s":  {c.stooqSymbol(symbol)},
			"i":  {"d"},
			"d1": {from.Format("20060102")},
			"d2": {to.Format("20060102")},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("stooq fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("stooq fetch %s: status %d: %s", symbol, resp.StatusCode, body)
	}

	bars, err := c.parseCSV(symbol, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stooq parse %s: %w", symbol, err)
	}
	if c.l != nil {
		c.l.Info("stooq fetch ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return bars, nil
}

func (c *Client) stooqSymbol(symbol string) string {
	s := strings.ToLower(symbol)
	if strings.Contains(s, ".") || c.suffix == "" {
		return s
	}
	return s + c.suffix
}

// parseCSV reads the Date,Open,High,Low,Close,Volume layout.
func (c *Client) parseCSV(symbol string, r io.Reader) ([]models.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 6 || !strings.EqualFold(header[0], "Date") {
		return nil, fmt.Errorf("unexpected header: %v", header)
	}

	bars := make([]models.Bar, 0, 512)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) < 6 {
			continue
		}
		ts, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			c.skipRow(symbol, rec[0], err)
			continue
		}
		vals := make([]float64, 5)
		ok := true
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				c.skipRow(symbol, rec[0], err)
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}
		bars = append(bars, models.Bar{
			Symbol:   strings.ToUpper(symbol),
			Interval: "1d",
			Ts:       ts.UTC(),
			Open:     vals[0],
			High:     vals[1],
			Low:      vals[2],
			Close:    vals[3],
			AdjClose: vals[3],
			Volume:   vals[4],
		})
	}
	return bars, nil
}

func (c *Client) skipRow(symbol, date string, err error) {
	if c.l != nil {
		c.l.Warn("stooq row skipped",
			applogger.String("symbol", symbol),
			applogger.String("date", date),
			applogger.Error(err),
		)
	}
}
