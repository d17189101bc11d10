package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/yourusername/race-forecast/internal/metrics"
)

const netkeibaSourceName = "netkeiba"

// maxPageBytes bounds a single page read.
const maxPageBytes = 8 << 20

// Default site roots.
const (
	DefaultNationalBaseURL = "https://race.netkeiba.com"
	DefaultRegionalBaseURL = "https://nar.netkeiba.com"
	DefaultHistoryBaseURL  = "https://db.netkeiba.com"
)

// NetkeibaConfig holds the site roots used to build page URLs.
type NetkeibaConfig struct {
	NationalBaseURL string
	RegionalBaseURL string
	HistoryBaseURL  string
}

// DefaultNetkeibaConfig returns the public site roots.
func DefaultNetkeibaConfig() NetkeibaConfig {
	return NetkeibaConfig{
		NationalBaseURL: DefaultNationalBaseURL,
		RegionalBaseURL: DefaultRegionalBaseURL,
		HistoryBaseURL:  DefaultHistoryBaseURL,
	}
}

// NetkeibaClient implements Source over HTTP.
type NetkeibaClient struct {
	httpClient *RateLimitedHTTPClient
	cfg        NetkeibaConfig
	logger     *logrus.Entry
}

// NewNetkeibaClient creates a new client.
func NewNetkeibaClient(httpClient *RateLimitedHTTPClient, cfg NetkeibaConfig, logger *logrus.Entry) *NetkeibaClient {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &NetkeibaClient{
		httpClient: httpClient,
		cfg:        cfg,
		logger:     logger.WithField("source", netkeibaSourceName),
	}
}

// Name returns the name of the data source
func (c *NetkeibaClient) Name() string {
	return netkeibaSourceName
}

// IsRegionalRace reports whether raceID belongs to a regional (NAR) meeting.
// Regional race IDs carry a 4 in their fifth digit.
func IsRegionalRace(raceID string) bool {
	return len(raceID) >= 5 && raceID[4] == '4'
}

// EntryURL returns the entry page URL for raceID on the matching circuit.
func (c *NetkeibaClient) EntryURL(raceID string) string {
	base := c.cfg.NationalBaseURL
	if IsRegionalRace(raceID) {
		base = c.cfg.RegionalBaseURL
	}
	return strings.TrimRight(base, "/") + "/race/shutuba.html?race_id=" + url.QueryEscape(raceID)
}

// HistoryURL returns the result history URL for horseID.
func (c *NetkeibaClient) HistoryURL(horseID string) string {
	return strings.TrimRight(c.cfg.HistoryBaseURL, "/") + "/horse/result/" + url.PathEscape(horseID) + "/"
}

// FetchEntryPage retrieves the entry page of a race.
func (c *NetkeibaClient) FetchEntryPage(ctx context.Context, raceID string) ([]byte, error) {
	if raceID == "" {
		return nil, NewDataSourceError(netkeibaSourceName, ErrCodeInvalidData, "empty race id", nil)
	}
	return c.fetch(ctx, KindEntry, c.EntryURL(raceID))
}

// FetchHistoryPage retrieves the result history of a horse.
func (c *NetkeibaClient) FetchHistoryPage(ctx context.Context, horseID string) ([]byte, error) {
	if horseID == "" {
		return nil, NewDataSourceError(netkeibaSourceName, ErrCodeNotFound, "entrant has no horse id", nil)
	}
	return c.fetch(ctx, KindHistory, c.HistoryURL(horseID))
}

func (c *NetkeibaClient) fetch(ctx context.Context, kind, pageURL string) ([]byte, error) {
	start := time.Now()
	body, err := c.get(ctx, pageURL)

	status := "ok"
	if err != nil {
		status = ErrorCode(err)
		if status == "" {
			status = ErrCodeNetworkError
		}
	}
	metrics.RecordFetch(kind, status, time.Since(start).Seconds())

	c.logger.WithFields(logrus.Fields{
		"kind":        kind,
		"url":         pageURL,
		"status":      status,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Page fetched")
	return body, err
}

func (c *NetkeibaClient) get(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, NewDataSourceError(netkeibaSourceName, ErrCodeInvalidData, "failed to create request", err)
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Accept-Language", "ja,en;q=0.8")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		if ErrorCode(err) != "" {
			return nil, err
		}
		return nil, NewDataSourceError(netkeibaSourceName, ErrCodeNetworkError, "failed to fetch page", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewDataSourceError(netkeibaSourceName, ErrCodeNotFound, "page not found", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewDataSourceError(netkeibaSourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		return nil, NewDataSourceError(netkeibaSourceName, ErrCodeServerError, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, NewDataSourceError(netkeibaSourceName, ErrCodeNetworkError, "failed to read body", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, NewDataSourceError(netkeibaSourceName, ErrCodeNotFound, "empty page", nil)
	}

	page, err := DecodePage(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, NewDataSourceError(netkeibaSourceName, ErrCodeInvalidData, "failed to decode page", err)
	}
	return page, nil
}

// DecodePage converts a page to UTF-8.
func DecodePage(raw []byte, contentType string) ([]byte, error) {
	enc := pageEncoding(raw, contentType)
	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// pageEncoding trusts a BOM, the header charset or a <meta> declaration. Without
// any of those a page that is not valid UTF-8 is taken to be EUC-JP.
func pageEncoding(raw []byte, contentType string) encoding.Encoding {
	enc, name, certain := charset.DetermineEncoding(raw, contentType)
	if certain || name != "windows-1252" {
		return enc
	}
	return japanese.EUCJP
}
