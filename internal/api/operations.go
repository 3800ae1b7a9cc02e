package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"jetgrab/internal/domain"
	"jetgrab/internal/extractor"
	"jetgrab/internal/urlnorm"
)

type urlRequest struct {
	URL string `json:"url"`
}

// Result is the mapped outcome of /scrape or /extract.
type Result struct {
	URL       string
	Items     []domain.ResourceItem
	PageTitle string
	Message   string
	Counts    map[string]int
	Tips      []string
}

type scrapeResponse struct {
	Videos    []string       `json:"videos"`
	PageTitle string         `json:"page_title"`
	Message   string         `json:"message"`
	Counts    map[string]int `json:"counts"`
	Tips      []string       `json:"tips"`
}

// resourceEntry accepts either "url" or {"url": ..., "name": ...}.
type resourceEntry struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

func (r *resourceEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.URL = s
		return nil
	}
	type plain resourceEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = resourceEntry(p)
	return nil
}

type extractResponse struct {
	Resources struct {
		Videos  []resourceEntry `json:"videos"`
		Images  []resourceEntry `json:"images"`
		Audios  []resourceEntry `json:"audios"`
		Files   []resourceEntry `json:"files"`
		Folders []resourceEntry `json:"folders"`
	} `json:"resources"`
	PageTitle string         `json:"page_title"`
	Message   string         `json:"message"`
	Counts    map[string]int `json:"counts"`
}

// FetchOptions tune how a backend answer is mapped to items.
type FetchOptions struct {
	// KeepDuplicates keeps repeated (type, url) pairs.
	KeepDuplicates bool
}

// mapper builds a batch from backend entries, dropping invalid URLs and,
// unless keepDups is set, repeated (type, url) pairs.
type mapper struct {
	items    []domain.ResourceItem
	seen     map[string]struct{}
	keepDups bool
}

func newMapper(opts FetchOptions) *mapper {
	return &mapper{seen: make(map[string]struct{}), keepDups: opts.KeepDuplicates}
}

func (m *mapper) add(rawURL, name string, typ domain.ResourceType) {
	u := strings.TrimSpace(rawURL)
	if !urlnorm.Valid(u) {
		return
	}
	key := domain.ItemKey(typ, u)
	if _, dup := m.seen[key]; dup && !m.keepDups {
		return
	}
	m.seen[key] = struct{}{}
	if name == "" {
		name = extractor.NameFromURL(u)
	}
	m.items = append(m.items, domain.NewResourceItem(len(m.items), u, typ, name))
}

// Scrape asks the backend for the video URLs of a page.
func (c *Client) Scrape(ctx context.Context, pageURL string, opts FetchOptions) (Result, error) {
	u, err := urlnorm.ParseOne(pageURL)
	if err != nil {
		return Result{}, err
	}
	var resp scrapeResponse
	if err := c.RequestJSON(ctx, http.MethodPost, "scrape", urlRequest{URL: u}, &resp); err != nil {
		return Result{}, err
	}
	m := newMapper(opts)
	for _, v := range resp.Videos {
		m.add(v, "", domain.TypeVideo)
	}
	c.log.WithFields(logrus.Fields{"url": u, "count": len(m.items)}).Info("Scrape completed")
	return Result{
		URL:       u,
		Items:     m.items,
		PageTitle: resp.PageTitle,
		Message:   resp.Message,
		Counts:    resp.Counts,
		Tips:      resp.Tips,
	}, nil
}

// Extract asks the backend for every resource type on a page.
func (c *Client) Extract(ctx context.Context, pageURL string, opts FetchOptions) (Result, error) {
	u, err := urlnorm.ParseOne(pageURL)
	if err != nil {
		return Result{}, err
	}
	var resp extractResponse
	if err := c.RequestJSON(ctx, http.MethodPost, "extract", urlRequest{URL: u}, &resp); err != nil {
		return Result{}, err
	}
	m := newMapper(opts)
	buckets := []struct {
		entries []resourceEntry
		typ     domain.ResourceType
	}{
		{resp.Resources.Videos, domain.TypeVideo},
		{resp.Resources.Images, domain.TypeImage},
		{resp.Resources.Audios, domain.TypeAudio},
		{resp.Resources.Files, domain.TypeFile},
		{resp.Resources.Folders, domain.TypeFolder},
	}
	for _, b := range buckets {
		for _, e := range b.entries {
			m.add(e.URL, e.Name, b.typ)
		}
	}
	c.log.WithFields(logrus.Fields{"url": u, "count": len(m.items)}).Info("Extract completed")
	return Result{
		URL:       u,
		Items:     m.items,
		PageTitle: resp.PageTitle,
		Message:   resp.Message,
		Counts:    resp.Counts,
	}, nil
}

// Archive is a decoded /package payload.
type Archive struct {
	Filename     string
	Data         []byte
	Message      string
	SuccessCount int
	TotalCount   int
}

type packageItem struct {
	URL string `json:"url"`
}

type packageRequest struct {
	Videos []packageItem `json:"videos"`
}

type packageResponse struct {
	ZipData      string `json:"zip_data"`
	Filename     string `json:"filename"`
	Message      string `json:"message"`
	SuccessCount int    `json:"success_count"`
	TotalCount   int    `json:"total_count"`
}

// Package asks the backend to download items into a zip archive.
func (c *Client) Package(ctx context.Context, items []domain.ResourceItem) (Archive, error) {
	if len(items) == 0 {
		return Archive{}, fmt.Errorf("package: no items to package")
	}
	req := packageRequest{Videos: make([]packageItem, 0, len(items))}
	for _, it := range items {
		req.Videos = append(req.Videos, packageItem{URL: it.URL})
	}

	var resp packageResponse
	if err := c.RequestJSON(ctx, http.MethodPost, "package", req, &resp); err != nil {
		return Archive{}, err
	}
	if strings.TrimSpace(resp.ZipData) == "" {
		return Archive{}, ErrNoArchive
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(resp.ZipData))
	if err != nil {
		return Archive{}, fmt.Errorf("package: invalid archive encoding: %w", err)
	}
	c.log.WithFields(logrus.Fields{"bytes": len(data), "items": len(items)}).Info("Archive received")
	return Archive{
		Filename:     resp.Filename,
		Data:         data,
		Message:      resp.Message,
		SuccessCount: resp.SuccessCount,
		TotalCount:   resp.TotalCount,
	}, nil
}

// DiagResult is the best-effort target diagnostic.
type DiagResult struct {
	Target        string         `json:"target"`
	FinalURL      string         `json:"final_url"`
	StatusCode    int            `json:"status_code"`
	ContentType   string         `json:"content_type"`
	Server        string         `json:"server"`
	ContentLength string         `json:"content_length"`
	Environment   string         `json:"environment"`
	HTMLLength    int            `json:"html_length"`
	VideoTokens   map[string]int `json:"video_tokens"`
}

// Diag asks the backend how the target answers it.
func (c *Client) Diag(ctx context.Context, target string) (DiagResult, error) {
	u, err := urlnorm.ParseOne(target)
	if err != nil {
		return DiagResult{}, err
	}
	var resp DiagResult
	if err := c.RequestJSON(ctx, http.MethodPost, "diag", urlRequest{URL: u}, &resp); err != nil {
		return DiagResult{}, err
	}
	return resp, nil
}
