package lbx

import (
	"context"
	"log/slog"
	"strings"

	"github.com/John-Robertt/boxdsync/internal/domain"
)

// maxCastEntries 限制写入文档的演员表长度（去重后的前 10 个）。
const maxCastEntries = 10

// BinaryFetcher 是海报下载所需的最小抓取能力（httpx.Client 满足该接口）。
type BinaryFetcher interface {
	FetchBinary(ctx context.Context, url string) (finalURL string, data []byte, err error)
}

// FetchMoviePageData 对一条观影记录执行完整的解析流水线：
// 规范页解析 -> 结构化数据提取 -> meta 标签回退 -> 归一化为 MoviePageData。
//
// 失败语义：只有规范页解析失败返回 error，且同时返回空哨兵（值总是可用，
// 调用方记录降级后可直接继续）；页面内容层面的缺失一律静默降级。
func FetchMoviePageData(ctx context.Context, f TextFetcher, uri string) (domain.MoviePageData, error) {
	resolved, err := ResolveCanonicalFilmPage(ctx, f, uri)
	if err != nil {
		slog.Warn("规范页解析失败", "uri", uri, "error", err)
		return domain.EmptyPageData(), err
	}

	md, perr := ParseJSONLD(resolved.HTML, resolved.URL)
	if perr != nil {
		// 畸形 JSON 按“无结构化数据”处理（静默回退，不算行失败）。
		slog.Debug("结构化数据解析失败，走回退", "url", resolved.URL, "error", perr)
		md = nil
	}
	if md == nil {
		slog.Warn("页面缺少结构化数据", "url", resolved.URL)
	}

	page := domain.EmptyPageData()
	page.MovieURL = resolved.URL

	description := ""
	if md != nil {
		page.PosterURL = md.PosterURL
		page.Metadata.Directors = md.Directors
		page.Metadata.Genres = md.Genres
		page.Metadata.Cast = capList(md.Cast, maxCastEntries)
		page.Metadata.AverageRating = md.AverageRating
		page.Metadata.Studios = md.Studios
		page.Metadata.Countries = md.Countries
		if md.Description != nil {
			description = *md.Description
		}
		if md.MovieURL != "" {
			page.MovieURL = md.MovieURL
		}
	}

	// 严格回退：仅当结构化数据没有可用简介时才查 meta 标签（不做合并）。
	if strings.TrimSpace(description) == "" {
		if fallback := DescriptionFromHTML(resolved.HTML); fallback != "" {
			slog.Debug("使用 og:description 回退简介", "url", resolved.URL)
			description = fallback
		}
	}
	page.Metadata.Description = strings.TrimSpace(description)

	if page.PosterURL == "" {
		slog.Warn("结构化数据缺少海报图", "url", resolved.URL)
	}
	return page, nil
}

// DownloadPoster 下载海报二进制内容（重定向逻辑与页面抓取一致）。
func DownloadPoster(ctx context.Context, f BinaryFetcher, url string) ([]byte, error) {
	_, data, err := f.FetchBinary(ctx, url)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func capList(in []string, max int) []string {
	if len(in) <= max {
		return in
	}
	return in[:max]
}
