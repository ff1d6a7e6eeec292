package sync

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bizmatch/internal/connector"
	"bizmatch/internal/repository"
)

// Normalize maps one raw source record to the canonical program shape.
// Pure function: missing optional fields become zero values, never errors;
// the raw payload is preserved verbatim for audit and re-derivation.
func Normalize(source string, raw json.RawMessage) (repository.ProgramUpsert, error) {
	fn, ok := normalizers[source]
	if !ok {
		return repository.ProgramUpsert{}, fmt.Errorf("unknown data source %q", source)
	}

	p, err := fn(raw)
	if err != nil {
		return repository.ProgramUpsert{}, err
	}

	p.DataSource = source
	p.RawData = raw

	if p.ExternalID == "" {
		p.ExternalID = stableExternalID(p.SourceURL)
	}
	if p.ExternalID == "" {
		return repository.ProgramUpsert{}, fmt.Errorf("%s record has no usable external id", source)
	}
	if p.Title == "" {
		return repository.ProgramUpsert{}, fmt.Errorf("%s record %s has no title", source, p.ExternalID)
	}
	return p, nil
}

var normalizers = map[string]func(json.RawMessage) (repository.ProgramUpsert, error){
	connector.SourceBizinfo:  normalizeBizinfo,
	connector.SourceKStartup: normalizeKStartup,
	connector.SourceSMES:     normalizeSMES,
	connector.SourceSeoulBiz: normalizeSeoulBiz,
}

type bizinfoRecord struct {
	PblancID       string `json:"pblancId"`
	PblancNm       string `json:"pblancNm"`
	BsnsSumryCn    string `json:"bsnsSumryCn"`
	CategoryNm     string `json:"pldirSportRealmLclasCodeNm"`
	TrgetNm        string `json:"trgetNm"`
	Hashtags       string `json:"hashtags"`
	ReqstBeginEnd  string `json:"reqstBeginEndDe"`
	PblancURL      string `json:"pblancUrl"`
	AttachmentPath string `json:"printFlpthNm"`
	CreatPnttm     string `json:"creatPnttm"`
}

func normalizeBizinfo(raw json.RawMessage) (repository.ProgramUpsert, error) {
	var rec bizinfoRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return repository.ProgramUpsert{}, fmt.Errorf("bizinfo record: %w", err)
	}

	start, end := parseDateRange(rec.ReqstBeginEnd)

	return repository.ProgramUpsert{
		ExternalID:     strings.TrimSpace(rec.PblancID),
		Title:          strings.TrimSpace(rec.PblancNm),
		Description:    strings.TrimSpace(rec.BsnsSumryCn),
		Category:       strings.TrimSpace(rec.CategoryNm),
		TargetAudience: splitTerms(rec.TrgetNm),
		Keywords:       splitTerms(rec.Hashtags),
		Deadline:       end,
		StartDate:      start,
		EndDate:        end,
		SourceURL:      absoluteURL("https://www.bizinfo.go.kr", rec.PblancURL),
		AttachmentURL:  absoluteURL("https://www.bizinfo.go.kr", rec.AttachmentPath),
		RegisteredAt:   parseDateOrZero(rec.CreatPnttm),
	}, nil
}

type kstartupRecord struct {
	PbancSn       json.Number `json:"pbanc_sn"`
	BizPbancNm    string      `json:"biz_pbanc_nm"`
	PbancCtnt     string      `json:"pbanc_ctnt"`
	SuptBizClsfc  string      `json:"supt_biz_clsfc"`
	AplyTrgtCtnt  string      `json:"aply_trgt_ctnt"`
	SuptRegin     string      `json:"supt_regin"`
	RcptBgngDt    string      `json:"pbanc_rcpt_bgng_dt"`
	RcptEndDt     string      `json:"pbanc_rcpt_end_dt"`
	DetlPgURL     string      `json:"detl_pg_url"`
	PbancNtrpDttm string      `json:"pbanc_ntrp_dttm"`
}

func normalizeKStartup(raw json.RawMessage) (repository.ProgramUpsert, error) {
	var rec kstartupRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return repository.ProgramUpsert{}, fmt.Errorf("kstartup record: %w", err)
	}

	end := parseDateOrNil(rec.RcptEndDt)

	return repository.ProgramUpsert{
		ExternalID:     strings.TrimSpace(rec.PbancSn.String()),
		Title:          strings.TrimSpace(rec.BizPbancNm),
		Description:    strings.TrimSpace(rec.PbancCtnt),
		Category:       strings.TrimSpace(rec.SuptBizClsfc),
		TargetAudience: splitTerms(rec.AplyTrgtCtnt),
		TargetLocation: splitTerms(rec.SuptRegin),
		Keywords:       splitTerms(rec.SuptBizClsfc),
		Deadline:       end,
		StartDate:      parseDateOrNil(rec.RcptBgngDt),
		EndDate:        end,
		SourceURL:      strings.TrimSpace(rec.DetlPgURL),
		RegisteredAt:   parseDateOrZero(rec.PbancNtrpDttm),
	}, nil
}

type smesRecord struct {
	PgmID          string   `json:"pgmId"`
	PgmNm          string   `json:"pgmNm"`
	PgmCn          string   `json:"pgmCn"`
	PgmTy          string   `json:"pgmTy"`
	TrgtEnterprise string   `json:"trgtEnterprise"`
	TrgtArea       string   `json:"trgtArea"`
	Tags           []string `json:"tags"`
	SprtBdgt       string   `json:"sprtBdgt"`
	RcptBgnDt      string   `json:"rcptBgnDt"`
	RcptEndDt      string   `json:"rcptEndDt"`
	DtlURL         string   `json:"dtlUrl"`
	AtchFileURL    string   `json:"atchFileUrl"`
	RegDt          string   `json:"regDt"`
}

func normalizeSMES(raw json.RawMessage) (repository.ProgramUpsert, error) {
	var rec smesRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return repository.ProgramUpsert{}, fmt.Errorf("smes record: %w", err)
	}

	end := parseDateOrNil(rec.RcptEndDt)

	return repository.ProgramUpsert{
		ExternalID:     strings.TrimSpace(rec.PgmID),
		Title:          strings.TrimSpace(rec.PgmNm),
		Description:    strings.TrimSpace(rec.PgmCn),
		Category:       strings.TrimSpace(rec.PgmTy),
		TargetAudience: splitTerms(rec.TrgtEnterprise),
		TargetLocation: splitTerms(rec.TrgtArea),
		Keywords:       trimAll(rec.Tags),
		BudgetRange:    strings.TrimSpace(rec.SprtBdgt),
		Deadline:       end,
		StartDate:      parseDateOrNil(rec.RcptBgnDt),
		EndDate:        end,
		SourceURL:      strings.TrimSpace(rec.DtlURL),
		AttachmentURL:  strings.TrimSpace(rec.AtchFileURL),
		RegisteredAt:   parseDateOrZero(rec.RegDt),
	}, nil
}

type seoulBizRecord struct {
	GUID        string   `json:"guid"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	Published   string   `json:"published"`
	Categories  []string `json:"categories"`
}

func normalizeSeoulBiz(raw json.RawMessage) (repository.ProgramUpsert, error) {
	var rec seoulBizRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return repository.ProgramUpsert{}, fmt.Errorf("seoulbiz record: %w", err)
	}

	return repository.ProgramUpsert{
		ExternalID:  strings.TrimSpace(rec.GUID),
		Title:       strings.TrimSpace(rec.Title),
		Description: strings.TrimSpace(rec.Description),
		Category:    first(rec.Categories),
		// the feed is Seoul-scoped, so every listing targets Seoul
		TargetLocation: []string{"Seoul"},
		Keywords:       trimAll(rec.Categories),
		SourceURL:      strings.TrimSpace(rec.Link),
		RegisteredAt:   parseDateOrZero(rec.Published),
	}, nil
}

// stableExternalID derives a deterministic fallback key from the source URL
// so re-syncs dedup even when a registry omits its native id.
func stableExternalID(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	h := sha1.Sum([]byte(url))
	return "urlsha1-" + hex.EncodeToString(h[:])
}

var termSplitter = strings.NewReplacer("/", ",", "·", ",", "|", ",")

func splitTerms(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(termSplitter.Replace(s), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimPrefix(p, "#"))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func trimAll(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func first(ss []string) string {
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if s != "" {
			return s
		}
	}
	return ""
}

func absoluteURL(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102",
	"2006.01.02",
}

func parseDateOrNil(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func parseDateOrZero(s string) time.Time {
	if t := parseDateOrNil(s); t != nil {
		return *t
	}
	return time.Time{}
}

// parseDateRange splits "20240101 ~ 20240131" style application windows.
func parseDateRange(s string) (*time.Time, *time.Time) {
	parts := strings.SplitN(s, "~", 2)
	if len(parts) != 2 {
		return nil, nil
	}
	return parseDateOrNil(parts[0]), parseDateOrNil(parts[1])
}
