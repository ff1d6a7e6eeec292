package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bizmatch/internal/pkg/retry"

	"github.com/mmcdole/gofeed"
)

// SeoulBizConnector reads the Seoul business-support announcement RSS feed.
// Feed items are re-encoded to JSON so the normalizer sees the same raw
// record shape as the API-backed sources.
type SeoulBizConnector struct {
	client   *http.Client
	parser   *gofeed.Parser
	retryCfg retry.Config
	feedURL  string
}

type seoulBizItem struct {
	GUID        string   `json:"guid"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	Published   string   `json:"published,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

func NewSeoulBiz(feedURL string, retryCfg retry.Config) *SeoulBizConnector {
	return &SeoulBizConnector{
		client:   newHTTPClient(),
		parser:   gofeed.NewParser(),
		retryCfg: retryCfg,
		feedURL:  strings.TrimSpace(feedURL),
	}
}

func (c *SeoulBizConnector) Source() string {
	return SourceSeoulBiz
}

func (c *SeoulBizConnector) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *SeoulBizConnector) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	body, err := getBody(ctx, c.client, c.retryCfg, c.feedURL)
	if err != nil {
		return nil, fmt.Errorf("seoulbiz feed: %w", err)
	}

	feed, err := c.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("seoulbiz feed parse: %w", err)
	}

	out := make([]json.RawMessage, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		rec := seoulBizItem{
			GUID:        it.GUID,
			Title:       it.Title,
			Link:        it.Link,
			Description: it.Description,
			Categories:  it.Categories,
		}
		if it.PublishedParsed != nil {
			rec.Published = it.PublishedParsed.UTC().Format(time.RFC3339)
		} else if it.Published != "" {
			rec.Published = it.Published
		}
		b, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		out = append(out, json.RawMessage(b))
	}
	return out, nil
}
