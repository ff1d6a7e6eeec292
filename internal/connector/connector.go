// Package connector fetches raw program listings from the external
// government registries. One connector per registry; every network call is
// wrapped by the shared retry strategy.
package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bizmatch/internal/pkg/retry"
)

const (
	SourceBizinfo  = "bizinfo"
	SourceKStartup = "kstartup"
	SourceSMES     = "smes"
	SourceSeoulBiz = "seoulbiz"
)

const (
	userAgent       = "BizmatchSync/1.0"
	maxResponseSize = 10 << 20
	httpTimeout     = 25 * time.Second
)

// Connector fetches all raw records for one registry. The payloads stay
// opaque here; interpretation happens in the normalizer.
type Connector interface {
	Source() string
	Fetch(ctx context.Context) ([]json.RawMessage, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

func getBody(ctx context.Context, client *http.Client, cfg retry.Config, url string) ([]byte, error) {
	var body []byte
	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json, application/xml, */*")

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &retry.StatusError{Code: resp.StatusCode, URL: url}
		}

		b, err := readAllLimit(resp.Body, maxResponseSize)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func getJSON(ctx context.Context, client *http.Client, cfg retry.Config, url string, out any) error {
	body, err := getBody(ctx, client, cfg, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func readAllLimit(r io.Reader, max int64) ([]byte, error) {
	lr := &io.LimitedReader{R: r, N: max}
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if lr.N <= 0 {
		return nil, fmt.Errorf("response too large")
	}
	return b, nil
}
