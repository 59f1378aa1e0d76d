package domain

import "strings"

// Movie 是从导出 CSV 解析出的一行观影记录（SourceRow）。
//
// 约束：
// - LetterboxdURI 必填（下游解析流水线的唯一入口）
// - 解析完成后不可变；流水线各阶段只读传递，禁止就地修改
// - Rating/Rewatch/Tags 保留原始字符串形态（是否展示由 note 层决定）
type Movie struct {
	Date          string
	Name          string
	Year          string
	LetterboxdURI string
	Rating        string
	Rewatch       string
	Tags          string
	WatchedDate   string
}

// Key 返回用于跨文件去重与既有文档定位的身份键（name|year）。
//
// (Name, Year) 并非全局唯一，但作为同一用户导出集内的实用去重键足够。
func (m Movie) Key() string {
	return strings.TrimSpace(m.Name) + "|" + strings.TrimSpace(m.Year)
}

// FileNameBase 返回目标文档的基础文件名（未做字符清洗）。
// Year 为空时退化为纯片名。
func (m Movie) FileNameBase() string {
	name := strings.TrimSpace(m.Name)
	year := strings.TrimSpace(m.Year)
	if year == "" {
		return name
	}
	return name + " (" + year + ")"
}

// PosterFileNameBase 返回海报资产的基础文件名（不含扩展名）。
func (m Movie) PosterFileNameBase() string {
	name := strings.TrimSpace(m.Name)
	year := strings.TrimSpace(m.Year)
	if year == "" {
		return name
	}
	return name + "_" + year
}

// IsRewatch 把 CSV 的 Rewatch 列（布尔形态的字符串）解析为布尔值。
func (m Movie) IsRewatch() bool {
	return strings.EqualFold(strings.TrimSpace(m.Rewatch), "yes")
}

// TagList 把逗号拼接的 Tags 列拆分为去空白、去空项的列表。
func (m Movie) TagList() []string {
	if strings.TrimSpace(m.Tags) == "" {
		return nil
	}
	parts := strings.Split(m.Tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
