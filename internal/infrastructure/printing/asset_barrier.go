package printing

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	defaultAssetTimeout  = 10 * time.Second
	defaultMaxAssetBytes = 5 << 20
)

// AssetBarrierConfig configures image prefetching
type AssetBarrierConfig struct {
	// BaseURL resolves relative image sources such as /logo-udes.png
	BaseURL string
	// Timeout bounds each image fetch
	Timeout time.Duration
	// MaxBytes rejects larger images
	MaxBytes int
	Logger   *zap.Logger
}

// AssetResult is the settled outcome of one image fetch
type AssetResult struct {
	URL     string
	DataURI string
	Err     error
	Elapsed time.Duration
}

// OK reports whether the image was fetched
func (r AssetResult) OK() bool {
	return r.Err == nil && r.DataURI != ""
}

// InlineReport summarizes an Inline pass
type InlineReport struct {
	Loaded int
	Failed int
	// Skipped counts images already inline or left relative without a base URL
	Skipped int
}

// AssetBarrier fetches every image a certificate references before capture.
// Each fetch settles on its own; a failed image is dropped from the page
// instead of blocking the export.
type AssetBarrier struct {
	client   *resty.Client
	base     *url.URL
	maxBytes int
	logger   *zap.Logger
}

// NewAssetBarrier creates an asset barrier
func NewAssetBarrier(config AssetBarrierConfig) (*AssetBarrier, error) {
	if config.Timeout <= 0 {
		config.Timeout = defaultAssetTimeout
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = defaultMaxAssetBytes
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &AssetBarrier{
		client: resty.New().
			SetTimeout(config.Timeout).
			SetRetryCount(0).
			SetHeader("Accept", "image/*"),
		maxBytes: config.MaxBytes,
		logger:   logger,
	}

	if config.BaseURL != "" {
		base, err := url.Parse(config.BaseURL)
		if err != nil || base.Scheme == "" || base.Host == "" {
			return nil, fmt.Errorf("invalid asset base URL %q", config.BaseURL)
		}
		b.base = base
	}
	return b, nil
}

// Settle fetches urls concurrently and returns once every fetch has
// succeeded or failed. Results keep the order of urls.
func (b *AssetBarrier) Settle(ctx context.Context, urls []string) []AssetResult {
	results := make([]AssetResult, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i] = b.fetch(ctx, u)
		}(i, u)
	}
	wg.Wait()
	return results
}

func (b *AssetBarrier) fetch(ctx context.Context, rawURL string) AssetResult {
	start := time.Now()
	result := AssetResult{URL: rawURL}

	resp, err := b.client.R().SetContext(ctx).Get(rawURL)
	result.Elapsed = time.Since(start)
	if err != nil {
		result.Err = err
		return result
	}
	if !resp.IsSuccess() {
		result.Err = fmt.Errorf("unexpected status %d", resp.StatusCode())
		return result
	}

	body := resp.Body()
	if len(body) == 0 {
		result.Err = fmt.Errorf("empty image body")
		return result
	}
	if len(body) > b.maxBytes {
		result.Err = fmt.Errorf("image exceeds %d bytes", b.maxBytes)
		return result
	}

	contentType := strings.TrimSpace(strings.Split(resp.Header().Get("Content-Type"), ";")[0])
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(body)
	}
	if !strings.HasPrefix(contentType, "image/") {
		result.Err = fmt.Errorf("not an image: %s", contentType)
		return result
	}

	result.DataURI = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body)
	return result
}

// Inline rewrites every fetchable <img> in doc to a data URI and removes the
// images that failed to load
func (b *AssetBarrier) Inline(ctx context.Context, doc string) (string, InlineReport, error) {
	var report InlineReport

	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", report, NewRenderError(ErrCodeInvalidHTML, "failed to parse certificate HTML", err)
	}

	type pending struct {
		node *html.Node
		url  string
	}
	var imgs []pending
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			if u, ok := b.resolve(attr(n, "src")); ok {
				imgs = append(imgs, pending{node: n, url: u})
			} else {
				report.Skipped++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if len(imgs) > 0 {
		urls := make([]string, 0, len(imgs))
		index := make(map[string]int)
		for _, p := range imgs {
			if _, seen := index[p.url]; !seen {
				index[p.url] = len(urls)
				urls = append(urls, p.url)
			}
		}

		results := b.Settle(ctx, urls)
		for _, p := range imgs {
			r := results[index[p.url]]
			if r.OK() {
				setAttr(p.node, "src", r.DataURI)
				report.Loaded++
				continue
			}
			b.logger.Warn("certificate image failed to load, omitting",
				zap.String("url", r.URL),
				zap.Duration("elapsed", r.Elapsed),
				zap.Error(r.Err))
			if p.node.Parent != nil {
				p.node.Parent.RemoveChild(p.node)
			}
			report.Failed++
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", report, NewRenderError(ErrCodeInvalidHTML, "failed to render certificate HTML", err)
	}
	return buf.String(), report, nil
}

// resolve returns the absolute http(s) URL for src, or false when the image
// is already inline or cannot be fetched
func (b *AssetBarrier) resolve(src string) (string, bool) {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") {
		return "", false
	}
	u, err := url.Parse(src)
	if err != nil {
		return "", false
	}
	if !u.IsAbs() {
		if b.base == nil {
			return "", false
		}
		u = b.base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
