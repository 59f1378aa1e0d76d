package lbx

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DescriptionFromHTML 从页面 meta 标签提取简介（结构化数据缺失时的回退）。
// 优先 og:description，其次通用 description；都没有返回空串。
func DescriptionFromHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	if content, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		if c := strings.TrimSpace(content); c != "" {
			return c
		}
	}
	if content, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		return strings.TrimSpace(content)
	}
	return ""
}

// CanonicalURLFromHTML 从页面内提取规范 URL 提示。
// 优先 <link rel="canonical">，其次 og:url；候选值先按 baseURL 解析为绝对
// 形式再返回；都没有（或解析失败）返回空串。
func CanonicalURLFromHTML(html, baseURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		if abs, ok := ResolveURL(href, baseURL); ok {
			return abs
		}
	}
	if content, ok := doc.Find(`meta[property="og:url"]`).First().Attr("content"); ok {
		if abs, ok := ResolveURL(content, baseURL); ok {
			return abs
		}
	}
	return ""
}
