package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"BookShelf/internal/catalog"
)

const (
	DefaultBaseURL = "https://openlibrary.org"
	DefaultLimit   = 18
	maxLimit       = 100

	searchFields = "key,title,author_name,first_publish_year,cover_i,isbn,subject,edition_count,number_of_pages_median"
)

type Config struct {
	BaseURL   string
	UserAgent string
	Limit     int
	Timeout   time.Duration
	// RPS paces outbound calls; zero disables pacing.
	RPS float64
}

type Client struct {
	baseURL    string
	userAgent  string
	limit      int
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
	metrics    *Metrics
}

func NewClient(cfg Config, log *zap.Logger, metrics *Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		limit:      clampLimit(cfg.Limit),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
		metrics:    metrics,
	}
	if cfg.RPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}
	return c
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > maxLimit:
		return maxLimit
	}
	return n
}

// SearchResponse matches the subset of search.json the catalog reads.
type SearchResponse struct {
	NumFound int    `json:"numFound"`
	Docs     *[]Doc `json:"docs"`
}

type Doc struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title"`
	AuthorName          []string `json:"author_name"`
	FirstPublishYear    int      `json:"first_publish_year"`
	CoverI              int      `json:"cover_i"`
	ISBN                []string `json:"isbn"`
	Subject             []string `json:"subject"`
	EditionCount        int      `json:"edition_count"`
	NumberOfPagesMedian int      `json:"number_of_pages_median"`
}

// Search runs one title search and maps every doc to a candidate. An empty
// query returns nothing without calling out. Failures are never retried.
func (c *Client) Search(ctx context.Context, query string) ([]catalog.Fields, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	res, err := c.searchTitle(ctx, query)
	if err != nil {
		c.metrics.observe(outcomeFailed)
		c.log.Warn("open library search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	c.metrics.observe(outcomeOK)

	docs := *res.Docs
	out := make([]catalog.Fields, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Candidate())
	}
	return out, nil
}

func (c *Client) searchTitle(ctx context.Context, title string) (*SearchResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", catalog.ErrSearchFailed, err)
		}
	}

	q := url.Values{}
	q.Set("title", title)
	q.Set("limit", strconv.Itoa(c.limit))
	q.Set("fields", searchFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalog.ErrSearchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalog.ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", catalog.ErrSearchFailed, resp.StatusCode)
	}

	var res SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", catalog.ErrSearchFailed, err)
	}
	if res.Docs == nil {
		return nil, fmt.Errorf("%w: response has no docs", catalog.ErrSearchFailed)
	}
	return &res, nil
}

// Candidate maps a doc into the catalog's field set. Any field may be
// missing from the response.
func (d Doc) Candidate() catalog.Fields {
	f := catalog.Fields{
		Title:        d.Title,
		Author:       first(d.AuthorName),
		Year:         catalog.LooseInt(d.FirstPublishYear),
		CoverID:      catalog.LooseInt(d.CoverI),
		ISBN:         first(d.ISBN),
		Subject:      first(d.Subject),
		EditionCount: catalog.Count(d.EditionCount),
		PageCount:    catalog.Count(d.NumberOfPagesMedian),
	}
	if f.Author == "" {
		f.Author = catalog.DefaultAuthor
	}
	return f
}

func first(xs []string) string {
	for _, x := range xs {
		if x = strings.TrimSpace(x); x != "" {
			return x
		}
	}
	return ""
}
