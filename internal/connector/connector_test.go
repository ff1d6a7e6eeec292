package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"bizmatch/internal/pkg/retry"
)

func testRetryCfg() retry.Config {
	return retry.Config{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
}

func TestBizinfoFetchPaginates(t *testing.T) {
	fullPage := make([]string, bizinfoPageSize)
	for i := range fullPage {
		fullPage[i] = fmt.Sprintf(`{"pblancId":"P%d","pblancNm":"n"}`, i)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("crtfcKey"); got != "test-key" {
			t.Errorf("crtfcKey = %q", got)
		}
		switch r.URL.Query().Get("pageIndex") {
		case "1":
			fmt.Fprintf(w, `{"jsonArray":[%s]}`, strings.Join(fullPage, ","))
		case "2":
			fmt.Fprint(w, `{"jsonArray":[{"pblancId":"LAST","pblancNm":"n"}]}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("pageIndex"))
			fmt.Fprint(w, `{"jsonArray":[]}`)
		}
	}))
	defer srv.Close()

	c := NewBizinfo(srv.URL, "test-key", testRetryCfg())
	defer c.Close()

	recs, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != bizinfoPageSize+1 {
		t.Errorf("records = %d, want %d", len(recs), bizinfoPageSize+1)
	}
}

func TestBizinfoFetchRequiresKey(t *testing.T) {
	c := NewBizinfo("http://localhost", "", testRetryCfg())
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Error("expected error without api key")
	}
}

func TestFetchRetriesOn503(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"items":[{"pgmId":"SM-1","pgmNm":"n"}]}`)
	}))
	defer srv.Close()

	c := NewSMES(srv.URL, testRetryCfg())
	defer c.Close()

	recs, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("records = %d, want 1", len(recs))
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestFetchDoesNotRetryOn404(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewSMES(srv.URL, testRetryCfg())
	defer c.Close()

	if _, err := c.Fetch(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (404 is not retryable)", calls.Load())
	}
}

func TestKStartupFetchStopsAtTotalCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page != "1" {
			t.Errorf("unexpected page %q", page)
		}
		fmt.Fprint(w, `{"currentCount":2,"totalCount":2,"data":[
			{"pbanc_sn":1,"biz_pbanc_nm":"a"},
			{"pbanc_sn":2,"biz_pbanc_nm":"b"}
		]}`)
	}))
	defer srv.Close()

	c := NewKStartup(srv.URL, "svc-key", testRetryCfg())
	defer c.Close()

	recs, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("records = %d, want 2", len(recs))
	}
}

const seoulBizFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>notices</title>
    <item>
      <guid>notice-1</guid>
      <title>지원사업 공고</title>
      <link>https://example.com/notice/1</link>
      <description>내용</description>
      <pubDate>Mon, 02 Mar 2026 09:00:00 +0900</pubDate>
      <category>자금</category>
    </item>
    <item>
      <title>no guid item</title>
      <link>https://example.com/notice/2</link>
    </item>
  </channel>
</rss>`

func TestSeoulBizFetchParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, seoulBizFeed)
	}))
	defer srv.Close()

	c := NewSeoulBiz(srv.URL, testRetryCfg())
	defer c.Close()

	recs, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}

	var first seoulBizItem
	if err := json.Unmarshal(recs[0], &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first.GUID != "notice-1" || first.Title != "지원사업 공고" {
		t.Errorf("first = %+v", first)
	}
	if len(first.Categories) != 1 || first.Categories[0] != "자금" {
		t.Errorf("Categories = %v", first.Categories)
	}
	// pubDate is +0900, so UTC lands on midnight of the same day
	if first.Published != "2026-03-02T00:00:00Z" {
		t.Errorf("Published = %q", first.Published)
	}
}
