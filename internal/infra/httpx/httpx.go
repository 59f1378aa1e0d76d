package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultTimeout = 20 * time.Second

	// DefaultMaxRedirects 是手动跟随重定向的跳数上限（不含首次请求）。
	DefaultMaxRedirects = 5
)

// 页面抓取使用固定的浏览器形态请求头（站点对无 UA 请求返回非预期页面）。
const (
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) boxdsync/1.0"
	htmlAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	// 二进制（海报）下载使用图片导向的 Accept。
	imageAccept = "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8"
	acceptLang  = "en-US,en;q=0.9"
)

// StatusError 表示终点响应了非 2xx 非重定向的状态码。
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("抓取 %s 失败：HTTP %d", e.URL, e.Status)
}

// TooManyRedirectsError 表示重定向链超过了跳数上限。
type TooManyRedirectsError struct {
	URL string
	Max int
}

func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("抓取 %s 时重定向次数超过上限（%d）", e.URL, e.Max)
}

// Client 是手动跟随重定向的 GET 客户端。
//
// 设计目标：重定向解析必须由我们自己做（短链 -> 会员页 -> 规范页的链路
// 需要拿到“实际抓到的 URL”参与规范化判断），因此禁用 net/http 的自动跟随。
type Client struct {
	hc           *http.Client
	maxRedirects int
}

// New 构造默认客户端（总超时 + 禁用自动重定向）。
func New() *Client {
	return &Client{
		hc: &http.Client{
			Timeout: defaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxRedirects: DefaultMaxRedirects,
	}
}

// NewWithHTTPClient 允许注入底层 http.Client（测试与上层定制用）。
func NewWithHTTPClient(hc *http.Client, maxRedirects int) *Client {
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	return &Client{hc: hc, maxRedirects: maxRedirects}
}

// FetchText 抓取文本资源，手动跟随重定向，返回最终 URL 与响应体。
func (c *Client) FetchText(ctx context.Context, rawURL string) (string, string, error) {
	finalURL, body, err := c.fetch(ctx, rawURL, htmlAccept)
	if err != nil {
		return "", "", err
	}
	return finalURL, string(body), nil
}

// FetchBinary 与 FetchText 相同的重定向逻辑，但面向二进制资源（海报）。
func (c *Client) FetchBinary(ctx context.Context, rawURL string) (string, []byte, error) {
	return c.fetch(ctx, rawURL, imageAccept)
}

func (c *Client) fetch(ctx context.Context, rawURL, accept string) (string, []byte, error) {
	current := rawURL
	for i := 0; i <= c.maxRedirects; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, nil)
		if err != nil {
			return "", nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", accept)
		req.Header.Set("Accept-Language", acceptLang)

		resp, err := c.hc.Do(req)
		if err != nil {
			return "", nil, err
		}

		// Location 读取必须大小写无关：http.Header.Get 做 canonical 化，
		// 对非标准传输层写出的 "location" 同样命中。
		location := resp.Header.Get("Location")
		if isRedirect(resp.StatusCode) && location != "" {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			current = resolveLocation(location, current)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			b, err := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if err != nil {
				return "", nil, err
			}
			return current, b, nil
		}

		_ = resp.Body.Close()
		return "", nil, &StatusError{URL: current, Status: resp.StatusCode}
	}
	return "", nil, &TooManyRedirectsError{URL: rawURL, Max: c.maxRedirects}
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// resolveLocation 把相对 Location 按当前 URL 解析为绝对形式；
// 解析失败时原样返回（让下一轮请求以可观测的方式失败）。
func resolveLocation(location, base string) string {
	bu, err := url.Parse(base)
	if err != nil {
		return location
	}
	lu, err := url.Parse(location)
	if err != nil {
		return location
	}
	return bu.ResolveReference(lu).String()
}
