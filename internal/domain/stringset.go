package domain

import "strings"

// OrderedSet 是保持插入顺序的字符串集合。
//
// 用途：结构化数据里的人名/机构名列表经常以“string 或 object 或混合数组”
// 的形态出现且可能重复；用结构保证“无重复、无空项、保持首现顺序”的不变量，
// 而不是在各处做 ad hoc 扫描。
type OrderedSet struct {
	seen map[string]struct{}
	list []string
}

// Add 在去空白后加入 v；空串与重复项被忽略。
func (s *OrderedSet) Add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{}, 8)
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.list = append(s.list, v)
}

// Values 返回插入顺序的副本；空集合返回非 nil 空切片（下游可直接序列化）。
func (s *OrderedSet) Values() []string {
	out := make([]string, len(s.list))
	copy(out, s.list)
	return out
}

func (s *OrderedSet) Len() int { return len(s.list) }
