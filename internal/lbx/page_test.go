package lbx

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func movieHTML(extraHead string) string {
	return `<html><head>
		<script type="application/ld+json">
		{
			"@type": "Movie",
			"image": "https://images.example/film-poster.jpg",
			"director": [{"@type":"Person","name":"Director Name"}],
			"actors": [
				{"@type":"Person","name":"Actor One"},
				{"@type":"Person","name":"Actor Two"},
				{"@type":"Person","name":"Actor Three"},
				{"@type":"Person","name":"Actor Four"},
				{"@type":"Person","name":"Actor Five"},
				{"@type":"Person","name":"Actor Six"},
				{"@type":"Person","name":"Actor Seven"},
				{"@type":"Person","name":"Actor Eight"},
				{"@type":"Person","name":"Actor Nine"},
				{"@type":"Person","name":"Actor Ten"},
				{"@type":"Person","name":"Actor Eleven"},
				{"@type":"Person","name":"Actor Twelve"}
			],
			"genre": ["Drama", "Science Fiction"],
			"description": "Example description.",
			"url": "https://letterboxd.com/film/example-film/",
			"aggregateRating": {"@type": "AggregateRating", "ratingValue": "4.2"},
			"productionCompany": [{"@type": "Organization", "name": "Example Studio"}],
			"countryOfOrigin": {"@type": "Country", "name": "Example Country"}
		}
		</script>
		` + extraHead + `
	</head></html>`
}

func TestFetchMoviePageData_ShortLinkResolvesAndExtracts(t *testing.T) {
	html := movieHTML(`<meta property="og:description" content="Fallback description" />`)
	f := &queueFetcher{steps: []fetchStep{
		// 短链抓取落在会员页（fetcher 已消化 301），随后重抓规范页。
		{finalURL: "https://letterboxd.com/member-name/film/example-film/", html: html},
		{finalURL: "https://letterboxd.com/film/example-film/", html: html},
	}}

	page, err := FetchMoviePageData(context.Background(), f, "https://boxd.it/abcd")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	if len(f.calls) != 2 {
		t.Fatalf("期望 2 次抓取：%v", f.calls)
	}
	if page.PosterURL != "https://images.example/film-poster.jpg" {
		t.Fatalf("poster 不一致：%q", page.PosterURL)
	}
	if page.MovieURL != "https://letterboxd.com/film/example-film/" {
		t.Fatalf("movieUrl 不一致：%q", page.MovieURL)
	}
	if page.Metadata.Description != "Example description." {
		t.Fatalf("结构化简介存在时不应走回退：%q", page.Metadata.Description)
	}
	if len(page.Metadata.Cast) != 10 || page.Metadata.Cast[9] != "Actor Ten" {
		t.Fatalf("cast 应截断为前 10 个：%v", page.Metadata.Cast)
	}
	if page.Metadata.AverageRating != "4.2" {
		t.Fatalf("averageRating 不一致：%q", page.Metadata.AverageRating)
	}
	if len(page.Metadata.Studios) != 1 || page.Metadata.Studios[0] != "Example Studio" {
		t.Fatalf("studios 不一致：%v", page.Metadata.Studios)
	}
	if len(page.Metadata.Countries) != 1 || page.Metadata.Countries[0] != "Example Country" {
		t.Fatalf("countries 不一致：%v", page.Metadata.Countries)
	}
}

func TestFetchMoviePageData_MissingStructuredDataFallsBack(t *testing.T) {
	html := `<html><head>
		<meta property="og:description" content="OG description" />
	</head></html>`
	f := &queueFetcher{steps: []fetchStep{
		{finalURL: "https://letterboxd.com/film/example-film/", html: html},
	}}

	page, err := FetchMoviePageData(context.Background(), f, "https://letterboxd.com/film/example-film/")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if page.Metadata.Description != "OG description" {
		t.Fatalf("应回退 og:description：%q", page.Metadata.Description)
	}
	// 海报保持空（回退不提供海报）。
	if page.PosterURL != "" {
		t.Fatalf("无结构化数据时 poster 应为空：%q", page.PosterURL)
	}
	// 规范 URL 回退为解析到的页面 URL。
	if page.MovieURL != "https://letterboxd.com/film/example-film/" {
		t.Fatalf("movieUrl 应回退解析 URL：%q", page.MovieURL)
	}
	if page.Metadata.Directors == nil || len(page.Metadata.Directors) != 0 {
		t.Fatalf("列表字段应为空切片：%v", page.Metadata.Directors)
	}
}

func TestFetchMoviePageData_ResolutionFailureYieldsEmptySentinel(t *testing.T) {
	f := &queueFetcher{steps: []fetchStep{{err: errors.New("连接失败")}}}

	page, err := FetchMoviePageData(context.Background(), f, "https://letterboxd.com/film/x/")
	if err == nil {
		t.Fatalf("解析失败应上抛错误供调用方归类")
	}
	if page.PosterURL != "" || page.MovieURL != "" || page.Metadata.Description != "" {
		t.Fatalf("失败路径仍须返回空哨兵：%+v", page)
	}
	if page.Metadata.Cast == nil {
		t.Fatalf("空哨兵的集合字段不得为 nil")
	}
}

func TestFetchMoviePageData_EmptyStructuredDescriptionFallsBack(t *testing.T) {
	// description 存在但为空串：仍应走 meta 回退（严格回退语义只看“可用性”）。
	html := `<html><head>
		<script type="application/ld+json">{"@type":"Movie","description":"  "}</script>
		<meta property="og:description" content="OG description" />
	</head></html>`
	f := &queueFetcher{steps: []fetchStep{
		{finalURL: "https://letterboxd.com/film/example-film/", html: html},
	}}

	page, err := FetchMoviePageData(context.Background(), f, "https://letterboxd.com/film/example-film/")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if page.Metadata.Description != "OG description" {
		t.Fatalf("空简介应触发回退：%q", page.Metadata.Description)
	}
}

type stubBinaryFetcher struct {
	data []byte
	err  error
}

func (s stubBinaryFetcher) FetchBinary(_ context.Context, url string) (string, []byte, error) {
	if s.err != nil {
		return "", nil, s.err
	}
	return url, s.data, nil
}

func TestDownloadPoster(t *testing.T) {
	data, err := DownloadPoster(context.Background(), stubBinaryFetcher{data: []byte{1, 2, 3}}, "https://cdn.example/p.jpg")
	if err != nil || len(data) != 3 {
		t.Fatalf("下载结果不一致：%v err=%v", data, err)
	}

	_, err = DownloadPoster(context.Background(), stubBinaryFetcher{err: errors.New("x")}, "https://cdn.example/p.jpg")
	if err == nil || !strings.Contains(err.Error(), "x") {
		t.Fatalf("错误应上抛给调用方降级：%v", err)
	}
}
