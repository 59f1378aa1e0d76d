package lbx

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/boxdsync/internal/domain"
)

// JSONLDMetadata 是结构化数据脚本解析出的中间结果。
//
// Description 用指针区分“字段缺失”（nil）与“存在但为空”（指向空串）——
// 回退策略只在两者都不可用时生效，调用方需要这个区别。
type JSONLDMetadata struct {
	PosterURL     string
	Description   *string
	Directors     []string
	Genres        []string
	Cast          []string
	MovieURL      string
	AverageRating string
	Studios       []string
	Countries     []string
}

// 结构化数据偶尔混入 /* ... */ 形式的注释噪音，JSON 解析前剥掉。
var jsonCommentRE = regexp.MustCompile(`(?s)/\*.*?\*/`)

// ParseJSONLD 在 HTML 中定位 application/ld+json 脚本并解析为元数据。
//
// 返回约定：
// - 脚本缺失/内容为空/不是对象 => (nil, nil)，调用方走回退
// - JSON 畸形 => (nil, error)，调用方同样按“无结构化数据”处理（不上抛为硬错误）
//
// 负载形态宽容：顶层可以是对象或数组；数组时优先取 @type=="Movie" 的首个
// 元素，都不匹配时取第一个元素。
func ParseJSONLD(html, baseURL string) (*JSONLDMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	raw := doc.Find(`script[type="application/ld+json"]`).First().Text()
	raw = strings.TrimSpace(jsonCommentRE.ReplaceAllString(raw, ""))
	if raw == "" {
		return nil, nil
	}

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("结构化数据 JSON 解析失败：%w", err)
	}

	if arr, ok := parsed.([]any); ok {
		parsed = pickMovieEntry(arr)
	}

	data, ok := parsed.(map[string]any)
	if !ok {
		return nil, nil
	}

	md := &JSONLDMetadata{
		Directors: personNames(firstPresent(data, "director", "directors")),
		Cast:      personNames(firstPresent(data, "actors", "actor", "cast")),
		Genres:    stringList(data["genre"]),
		Studios:   personNames(data["productionCompany"]),
		Countries: personNames(data["countryOfOrigin"]),
	}

	if s, ok := data["description"].(string); ok {
		trimmed := strings.TrimSpace(s)
		md.Description = &trimmed
	}
	md.AverageRating = aggregateRatingValue(data["aggregateRating"])

	if s, ok := data["image"].(string); ok {
		if abs, ok := ResolveURL(s, baseURL); ok {
			md.PosterURL = abs
		}
	}
	if s, ok := data["url"].(string); ok {
		if abs, ok := ResolveURL(s, baseURL); ok {
			md.MovieURL = abs
		}
	}
	return md, nil
}

func pickMovieEntry(arr []any) any {
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := obj["@type"].(string); t == "Movie" {
			return item
		}
	}
	if len(arr) > 0 {
		return arr[0]
	}
	return nil
}

func firstPresent(data map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := data[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// personNames 把 Person/Organization/Country 形态的值归一化为去重后的名字列表。
// 每个条目允许是裸字符串或带 name 字符串属性的对象；其余形态忽略。
func personNames(v any) []string {
	var set domain.OrderedSet
	for _, entry := range toSlice(v) {
		switch e := entry.(type) {
		case string:
			set.Add(e)
		case map[string]any:
			if name, ok := e["name"].(string); ok {
				set.Add(name)
			}
		}
	}
	return set.Values()
}

// stringList 只接受字符串条目：去空白、去空项、去重。
func stringList(v any) []string {
	var set domain.OrderedSet
	for _, entry := range toSlice(v) {
		if s, ok := entry.(string); ok {
			set.Add(s)
		}
	}
	return set.Values()
}

// aggregateRatingValue 取 aggregateRating.ratingValue（数字或字符串均可）。
func aggregateRatingValue(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	switch rv := obj["ratingValue"].(type) {
	case float64:
		return strconv.FormatFloat(rv, 'f', -1, 64)
	case string:
		return strings.TrimSpace(rv)
	default:
		return ""
	}
}

func toSlice(v any) []any {
	if v == nil {
		return nil
	}
	if arr, ok := v.([]any); ok {
		return arr
	}
	return []any{v}
}
