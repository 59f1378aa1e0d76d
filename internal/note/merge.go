package note

import "strings"

// ExtractNotesSection 返回从标记行起到文档末尾的整段（含标记行本身）。
func ExtractNotesSection(doc string) (string, bool) {
	i := strings.Index(doc, NotesMarker)
	if i < 0 {
		return "", false
	}
	return doc[i:], true
}

// MergeWithExisting 把旧文档的 Notes 段逐字拼回新生成的文档。
//
// 规则：
// - 旧文档没有标记段：直接用新文档（无可保留内容）
// - 新文档有标记：标记之前取新文档，标记起换成旧段
// - 新文档没有标记（自定义模板可能省略）：旧段追加在空行之后
func MergeWithExisting(fresh, existing string) string {
	section, ok := ExtractNotesSection(existing)
	if !ok {
		return fresh
	}
	if i := strings.Index(fresh, NotesMarker); i >= 0 {
		return fresh[:i] + section
	}
	return strings.TrimRight(fresh, "\n") + "\n\n" + section
}
