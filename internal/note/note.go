// Package note 把行模型与抓取到的页面数据组装成 Markdown 文档。
//
// 文档 = frontmatter（--- 围栏）+ 正文 + "## Notes" 标记段。
// 生成是输入的纯函数：相同输入产出逐字节相同的文档（可幂等重跑）。
package note

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/John-Robertt/boxdsync/internal/domain"
	"github.com/John-Robertt/boxdsync/internal/lbx"
)

// NotesMarker 是用户自由编辑区的起始标记；合并时从该行起整段保留。
const NotesMarker = "## Notes"

// FieldPolicy 控制各元数据类别是否写入文档。
// 关闭的类别整体不出现（不输出空键）。
type FieldPolicy struct {
	Description   bool
	Directors     bool
	Genres        bool
	Cast          bool
	AverageRating bool
	Studios       bool
	Countries     bool
}

// AllFields 返回全开的默认策略。
func AllFields() FieldPolicy {
	return FieldPolicy{
		Description:   true,
		Directors:     true,
		Genres:        true,
		Cast:          true,
		AverageRating: true,
		Studios:       true,
		Countries:     true,
	}
}

// Input 是生成单篇文档所需的行外数据。
type Input struct {
	// PosterPath 本地海报的 vault 相对路径；非空时正文用 ![[...]] 内嵌。
	PosterPath string
	// PosterLink 远端海报直链；本地缺失时写 cover 字段 + 外链图。
	PosterLink string
	Metadata   domain.MovieMetadata
	// MovieURL 解析出的规范页面 URL；为空时回退行内链接的尽力规范化。
	MovieURL string
	// Status 由调用方决定（来源文件决定语义），这里只负责渲染。
	Status string
}

// Options 控制文档形态。
type Options struct {
	Policy FieldPolicy
	// Template 非空时使用自定义模板渲染，忽略内建版式。
	Template string
}

// Generate 生成完整文档文本。
//
// 内建版式永不出错；自定义模板的结构错误（段未闭合等）上抛。
func Generate(m domain.Movie, in Input, opts Options) (string, error) {
	if strings.TrimSpace(opts.Template) != "" {
		return renderTemplate(opts.Template, flatten(m, in, opts.Policy))
	}
	return builtinDocument(m, in, opts.Policy), nil
}

func builtinDocument(m domain.Movie, in Input, p FieldPolicy) string {
	var b strings.Builder
	b.WriteString("---\n")
	writeQuoted(&b, "title", m.Name)
	writeRaw(&b, "year", m.Year)
	writeRaw(&b, "status", in.Status)
	writeRaw(&b, "letterboxd", documentURL(m, in))
	writeRaw(&b, "rating", m.Rating)
	writeRaw(&b, "watchedDate", m.WatchedDate)
	if m.IsRewatch() {
		b.WriteString("rewatch: true\n")
	}
	writeList(&b, "tags", m.TagList())

	if p.Description {
		writeQuoted(&b, "description", in.Metadata.Description)
	}
	if p.AverageRating {
		writeRaw(&b, "averageRating", in.Metadata.AverageRating)
	}
	if p.Directors {
		writeList(&b, "directors", in.Metadata.Directors)
	}
	if p.Genres {
		writeList(&b, "genres", in.Metadata.Genres)
	}
	if p.Cast {
		writeList(&b, "cast", in.Metadata.Cast)
	}
	if p.Studios {
		writeList(&b, "studios", in.Metadata.Studios)
	}
	if p.Countries {
		writeList(&b, "countries", in.Metadata.Countries)
	}
	// 本地海报优先内嵌；否则退回远端直链（cover 字段 + 外链图）。
	remotePoster := in.PosterPath == "" && in.PosterLink != ""
	if remotePoster {
		writeQuoted(&b, "cover", in.PosterLink)
	}
	b.WriteString("---\n\n")

	switch {
	case in.PosterPath != "":
		fmt.Fprintf(&b, "![[%s]]\n\n", in.PosterPath)
	case remotePoster:
		fmt.Fprintf(&b, "![%s Poster](%s)\n\n", m.Name, in.PosterLink)
	}

	b.WriteString(NotesMarker + "\n")
	return b.String()
}

// documentURL 决定文档里的条目链接：优先解析出的规范 URL；
// 否则对行内链接做尽力规范化（第三方域名原样保留）。
func documentURL(m domain.Movie, in Input) string {
	if in.MovieURL != "" {
		return in.MovieURL
	}
	return lbx.BestEffortFilmURL(m.LetterboxdURI)
}

// flatten 把行模型与页面数据摊平成模板视图。
// 策略关闭的类别不进入视图（条件段随之抑制）。
func flatten(m domain.Movie, in Input, p FieldPolicy) map[string]any {
	v := map[string]any{
		"title":       m.Name,
		"year":        m.Year,
		"status":      in.Status,
		"letterboxd":  documentURL(m, in),
		"rating":      m.Rating,
		"watchedDate": m.WatchedDate,
		"rewatch":     m.IsRewatch(),
		"tags":        m.TagList(),
		"posterPath":  in.PosterPath,
		"posterLink":  in.PosterLink,
	}
	if p.Description {
		v["description"] = in.Metadata.Description
	}
	if p.AverageRating {
		v["averageRating"] = in.Metadata.AverageRating
	}
	if p.Directors {
		v["directors"] = in.Metadata.Directors
	}
	if p.Genres {
		v["genres"] = in.Metadata.Genres
	}
	if p.Cast {
		v["cast"] = in.Metadata.Cast
	}
	if p.Studios {
		v["studios"] = in.Metadata.Studios
	}
	if p.Countries {
		v["countries"] = in.Metadata.Countries
	}
	return v
}

func writeRaw(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", key, value)
}

func writeQuoted(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %q\n", key, value)
}

func writeList(b *strings.Builder, key string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", key)
	for _, v := range values {
		fmt.Fprintf(b, "  - %q\n", v)
	}
}

var (
	invalidFileChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]`)
	spaceRuns        = regexp.MustCompile(`\s+`)
)

// SanitizeFileName 把标题变成可落盘的文件名片段：
// 非法字符替换为 "-"，空白折叠为单个空格，去首尾空白。
func SanitizeFileName(name string) string {
	s := invalidFileChars.ReplaceAllString(name, "-")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
