package sync

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"bizmatch/internal/connector"
)

func TestNormalizeBizinfo(t *testing.T) {
	raw := json.RawMessage(`{
		"pblancId": "PBLN_000000000099",
		"pblancNm": " 2026 스마트공장 구축 지원 ",
		"bsnsSumryCn": "중소 제조기업 대상 스마트공장 도입 지원",
		"pldirSportRealmLclasCodeNm": "기술",
		"trgetNm": "중소기업/소상공인",
		"hashtags": "#스마트공장,#제조",
		"reqstBeginEndDe": "20260101 ~ 20260131",
		"pblancUrl": "/web/lay1/bbs/S1T122C128/AS/74/view.do?pblancId=PBLN_000000000099",
		"printFlpthNm": "/files/notice.hwp",
		"creatPnttm": "2026-01-02 09:00:00"
	}`)

	p, err := Normalize(connector.SourceBizinfo, raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if p.DataSource != connector.SourceBizinfo {
		t.Errorf("DataSource = %q", p.DataSource)
	}
	if p.ExternalID != "PBLN_000000000099" {
		t.Errorf("ExternalID = %q", p.ExternalID)
	}
	if p.Title != "2026 스마트공장 구축 지원" {
		t.Errorf("Title = %q", p.Title)
	}
	if got := p.TargetAudience; len(got) != 2 || got[0] != "중소기업" || got[1] != "소상공인" {
		t.Errorf("TargetAudience = %v", got)
	}
	if got := p.Keywords; len(got) != 2 || got[0] != "스마트공장" || got[1] != "제조" {
		t.Errorf("Keywords = %v", got)
	}
	if p.StartDate == nil || p.StartDate.Format("2006-01-02") != "2026-01-01" {
		t.Errorf("StartDate = %v", p.StartDate)
	}
	if p.Deadline == nil || p.Deadline.Format("2006-01-02") != "2026-01-31" {
		t.Errorf("Deadline = %v", p.Deadline)
	}
	if !strings.HasPrefix(p.SourceURL, "https://www.bizinfo.go.kr/web/") {
		t.Errorf("SourceURL = %q", p.SourceURL)
	}
	if p.AttachmentURL != "https://www.bizinfo.go.kr/files/notice.hwp" {
		t.Errorf("AttachmentURL = %q", p.AttachmentURL)
	}
	if p.RegisteredAt.IsZero() {
		t.Error("RegisteredAt is zero")
	}
	if string(p.RawData) != string(raw) {
		t.Error("RawData not preserved verbatim")
	}
}

func TestNormalizeKStartupNumericID(t *testing.T) {
	raw := json.RawMessage(`{
		"pbanc_sn": 174321,
		"biz_pbanc_nm": "예비창업패키지",
		"supt_biz_clsfc": "사업화",
		"aply_trgt_ctnt": "예비창업자",
		"supt_regin": "서울|경기",
		"pbanc_rcpt_bgng_dt": "20260201",
		"pbanc_rcpt_end_dt": "20260228",
		"detl_pg_url": "https://www.k-startup.go.kr/web/contents/174321.do",
		"pbanc_ntrp_dttm": "2026-02-01"
	}`)

	p, err := Normalize(connector.SourceKStartup, raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if p.ExternalID != "174321" {
		t.Errorf("ExternalID = %q", p.ExternalID)
	}
	if got := p.TargetLocation; len(got) != 2 || got[0] != "서울" || got[1] != "경기" {
		t.Errorf("TargetLocation = %v", got)
	}
	if got := p.Keywords; len(got) != 1 || got[0] != "사업화" {
		t.Errorf("Keywords = %v", got)
	}
}

func TestNormalizeSMESOptionalFields(t *testing.T) {
	raw := json.RawMessage(`{"pgmId":"SM-1","pgmNm":"수출바우처"}`)

	p, err := Normalize(connector.SourceSMES, raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if p.ExternalID != "SM-1" || p.Title != "수출바우처" {
		t.Errorf("got %q / %q", p.ExternalID, p.Title)
	}
	if p.Deadline != nil || p.StartDate != nil || p.EndDate != nil {
		t.Error("expected nil dates for missing fields")
	}
	if p.Keywords != nil {
		t.Errorf("Keywords = %v, want nil", p.Keywords)
	}
	if !p.RegisteredAt.IsZero() {
		t.Errorf("RegisteredAt = %v, want zero", p.RegisteredAt)
	}
}

func TestNormalizeSeoulBizFallbackID(t *testing.T) {
	raw := json.RawMessage(`{
		"title": "서울시 소상공인 경영개선 지원",
		"link": "https://www.seoulsbdc.or.kr/notice/123",
		"description": "경영 컨설팅 및 자금 지원",
		"published": "2026-03-01T10:00:00Z",
		"categories": ["경영", "자금"]
	}`)

	p, err := Normalize(connector.SourceSeoulBiz, raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !strings.HasPrefix(p.ExternalID, "urlsha1-") {
		t.Errorf("ExternalID = %q, want urlsha1 fallback", p.ExternalID)
	}
	if got := p.TargetLocation; len(got) != 1 || got[0] != "Seoul" {
		t.Errorf("TargetLocation = %v", got)
	}
	if p.Category != "경영" {
		t.Errorf("Category = %q", p.Category)
	}
	if !p.RegisteredAt.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("RegisteredAt = %v", p.RegisteredAt)
	}
}

func TestNormalizeFallbackIDIsStable(t *testing.T) {
	raw := json.RawMessage(`{"title":"t","link":"https://example.com/a"}`)

	a, err := Normalize(connector.SourceSeoulBiz, raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	b, err := Normalize(connector.SourceSeoulBiz, raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if a.ExternalID != b.ExternalID {
		t.Errorf("fallback id not stable: %q vs %q", a.ExternalID, b.ExternalID)
	}
}

func TestNormalizeRejectsUnusableRecords(t *testing.T) {
	cases := []struct {
		name   string
		source string
		raw    string
	}{
		{"no id and no url", connector.SourceSeoulBiz, `{"title":"t"}`},
		{"no title", connector.SourceBizinfo, `{"pblancId":"PBLN_1"}`},
		{"unknown source", "unknown", `{}`},
		{"malformed json", connector.SourceSMES, `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Normalize(tc.source, json.RawMessage(tc.raw)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSplitTerms(t *testing.T) {
	got := splitTerms(" 중소기업 / 소상공인 · 스타트업 | #제조 ")
	want := []string{"중소기업", "소상공인", "스타트업", "제조"}
	if len(got) != len(want) {
		t.Fatalf("splitTerms = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitTerms[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseDateRange(t *testing.T) {
	start, end := parseDateRange("20260101 ~ 20260131")
	if start == nil || end == nil {
		t.Fatal("expected both ends parsed")
	}
	if start.Format("20060102") != "20260101" || end.Format("20060102") != "20260131" {
		t.Errorf("got %v ~ %v", start, end)
	}

	if s, e := parseDateRange("not a range"); s != nil || e != nil {
		t.Error("expected nils for unparseable range")
	}
}
