package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bizmatch/internal/pkg/retry"
)

const bizinfoPageSize = 100

// BizinfoConnector pulls announcements from the Bizinfo open API, a
// page-indexed JSON endpoint authenticated with an API key query param.
type BizinfoConnector struct {
	client   *http.Client
	retryCfg retry.Config
	baseURL  string
	apiKey   string
	maxPages int
}

func NewBizinfo(baseURL, apiKey string, retryCfg retry.Config) *BizinfoConnector {
	return &BizinfoConnector{
		client:   newHTTPClient(),
		retryCfg: retryCfg,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:   strings.TrimSpace(apiKey),
		maxPages: 10,
	}
}

func (c *BizinfoConnector) Source() string {
	return SourceBizinfo
}

func (c *BizinfoConnector) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

type bizinfoPage struct {
	Items []json.RawMessage `json:"jsonArray"`
}

func (c *BizinfoConnector) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("bizinfo: api key not configured")
	}

	out := make([]json.RawMessage, 0, bizinfoPageSize)
	for page := 1; page <= c.maxPages; page++ {
		var p bizinfoPage
		if err := getJSON(ctx, c.client, c.retryCfg, c.pageURL(page), &p); err != nil {
			return nil, fmt.Errorf("bizinfo page %d: %w", page, err)
		}
		if len(p.Items) == 0 {
			break
		}
		out = append(out, p.Items...)
		if len(p.Items) < bizinfoPageSize {
			break
		}
	}
	return out, nil
}

func (c *BizinfoConnector) pageURL(page int) string {
	q := url.Values{}
	q.Set("crtfcKey", c.apiKey)
	q.Set("dataType", "json")
	q.Set("searchCnt", strconv.Itoa(bizinfoPageSize))
	q.Set("pageUnit", strconv.Itoa(bizinfoPageSize))
	q.Set("pageIndex", strconv.Itoa(page))
	return c.baseURL + "/uss/rss/bizinfoApi.do?" + q.Encode()
}
