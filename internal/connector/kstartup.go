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

const kstartupPageSize = 100

// KStartupConnector pulls startup-support announcements from the K-Startup
// service on the public data portal (serviceKey + pageNo/numOfRows envelope).
type KStartupConnector struct {
	client     *http.Client
	retryCfg   retry.Config
	baseURL    string
	serviceKey string
	maxPages   int
}

func NewKStartup(baseURL, serviceKey string, retryCfg retry.Config) *KStartupConnector {
	return &KStartupConnector{
		client:     newHTTPClient(),
		retryCfg:   retryCfg,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		serviceKey: strings.TrimSpace(serviceKey),
		maxPages:   10,
	}
}

func (c *KStartupConnector) Source() string {
	return SourceKStartup
}

func (c *KStartupConnector) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

type kstartupPage struct {
	CurrentCount int               `json:"currentCount"`
	TotalCount   int               `json:"totalCount"`
	Data         []json.RawMessage `json:"data"`
}

func (c *KStartupConnector) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	if c.serviceKey == "" {
		return nil, fmt.Errorf("kstartup: service key not configured")
	}

	out := make([]json.RawMessage, 0, kstartupPageSize)
	for page := 1; page <= c.maxPages; page++ {
		var p kstartupPage
		if err := getJSON(ctx, c.client, c.retryCfg, c.pageURL(page), &p); err != nil {
			return nil, fmt.Errorf("kstartup page %d: %w", page, err)
		}
		if len(p.Data) == 0 {
			break
		}
		out = append(out, p.Data...)
		if p.TotalCount > 0 && len(out) >= p.TotalCount {
			break
		}
	}
	return out, nil
}

func (c *KStartupConnector) pageURL(page int) string {
	q := url.Values{}
	q.Set("serviceKey", c.serviceKey)
	q.Set("returnType", "json")
	q.Set("page", strconv.Itoa(page))
	q.Set("perPage", strconv.Itoa(kstartupPageSize))
	return c.baseURL + "/getAnnouncementInformation01?" + q.Encode()
}
