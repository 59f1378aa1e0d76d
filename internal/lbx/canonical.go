package lbx

import (
	"context"
	"fmt"
	"log/slog"
)

// maxResolveAttempts 是“规范化 -> 抓取 -> 再规范化”的收敛尝试上限。
// 短链 + 页内规范提示可以串出多跳；循环必须收敛或大声失败，
// 绝不允许无限循环或静默返回非规范页。
const maxResolveAttempts = 4

// TextFetcher 是规范化解析所需的最小抓取能力（httpx.Client 满足该接口）。
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (finalURL string, body string, err error)
}

// ResolvedPage 是规范化解析的终态：规范 URL + 该页 HTML。
// HTML 在成功返回时必然非空填充（解析中途的空值不对外暴露）。
type ResolvedPage struct {
	URL  string
	HTML string
}

// UnresolvedError 表示尝试次数耗尽仍未收敛到规范页。
type UnresolvedError struct {
	Input       string
	LastFetched string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("无法解析出规范影片页：输入 %s（最后抓取 %s）", e.Input, e.LastFetched)
}

// ResolveCanonicalFilmPage 反复“规范化 + 抓取”直到抓到的 URL 稳定。
//
// 每轮：
// (a) 目标 URL 可规范化则用规范形态，否则原样使用；
// (b) 抓取（重定向由 fetcher 内部处理）；
// (c) 从“实际抓到的 URL”计算规范形态，失败则回退页内提示
//     （rel=canonical / og:url）；
// (d) 规范形态与实际抓到的 URL 不同 => 以规范形态为新目标重抓；
// (e) 相同 => 当前结果即规范页，返回。
func ResolveCanonicalFilmPage(ctx context.Context, f TextFetcher, initialURL string) (ResolvedPage, error) {
	target := initialURL
	if normalized, ok := NormalizeFilmURL(initialURL); ok {
		target = normalized
	}

	lastFetched := initialURL
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		fetchedURL, html, err := f.FetchText(ctx, target)
		if err != nil {
			return ResolvedPage{}, err
		}
		lastFetched = fetchedURL

		normalized, ok := NormalizeFilmURL(fetchedURL)
		if !ok {
			normalized = CanonicalURLFromHTML(html, fetchedURL)
		}

		if normalized != "" && normalized != fetchedURL {
			slog.Debug("规范化后重抓", "fetched", fetchedURL, "canonical", normalized)
			target = normalized
			continue
		}

		final := fetchedURL
		if normalized != "" {
			final = normalized
		}
		return ResolvedPage{URL: final, HTML: html}, nil
	}

	return ResolvedPage{}, &UnresolvedError{Input: initialURL, LastFetched: lastFetched}
}
