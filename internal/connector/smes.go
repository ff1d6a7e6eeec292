package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"bizmatch/internal/pkg/retry"
)

// SMESConnector pulls the small-business support program list from the
// SMES 24 portal. Single-shot endpoint, no pagination or auth.
type SMESConnector struct {
	client   *http.Client
	retryCfg retry.Config
	baseURL  string
}

func NewSMES(baseURL string, retryCfg retry.Config) *SMESConnector {
	return &SMESConnector{
		client:   newHTTPClient(),
		retryCfg: retryCfg,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

func (c *SMESConnector) Source() string {
	return SourceSMES
}

func (c *SMESConnector) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

type smesListing struct {
	Items []json.RawMessage `json:"items"`
}

func (c *SMESConnector) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	var l smesListing
	if err := getJSON(ctx, c.client, c.retryCfg, c.baseURL+"/api/supportPgm.json", &l); err != nil {
		return nil, fmt.Errorf("smes listing: %w", err)
	}
	return l.Items, nil
}
