package lbx

import "testing"

func TestDescriptionFromHTML(t *testing.T) {
	// og:description 优先。
	html := `<html><head>
		<meta property="og:description" content=" OG description ">
		<meta name="description" content="Generic description">
	</head></html>`
	if got := DescriptionFromHTML(html); got != "OG description" {
		t.Fatalf("应优先 og:description：%q", got)
	}

	// og 缺失时回退通用 description。
	html = `<html><head><meta name="description" content="Generic description"></head></html>`
	if got := DescriptionFromHTML(html); got != "Generic description" {
		t.Fatalf("应回退通用 description：%q", got)
	}

	if got := DescriptionFromHTML("<html></html>"); got != "" {
		t.Fatalf("都缺失时应返回空串：%q", got)
	}
}

func TestCanonicalURLFromHTML(t *testing.T) {
	base := "https://letterboxd.com/member/film/example/"

	// rel=canonical 优先，相对路径解析为绝对形式。
	html := `<html><head>
		<link rel="canonical" href="/film/example/">
		<meta property="og:url" content="https://letterboxd.com/other/">
	</head></html>`
	if got := CanonicalURLFromHTML(html, base); got != "https://letterboxd.com/film/example/" {
		t.Fatalf("应优先 rel=canonical：%q", got)
	}

	// canonical 缺失时回退 og:url。
	html = `<html><head><meta property="og:url" content="https://letterboxd.com/film/example/"></head></html>`
	if got := CanonicalURLFromHTML(html, base); got != "https://letterboxd.com/film/example/" {
		t.Fatalf("应回退 og:url：%q", got)
	}

	if got := CanonicalURLFromHTML("<html></html>", base); got != "" {
		t.Fatalf("都缺失时应返回空串：%q", got)
	}
}
