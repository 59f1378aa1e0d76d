// Package app 放与编排无关的批处理纯逻辑。
package app

import "github.com/John-Robertt/boxdsync/internal/domain"

// SeenKeys 记录已处理的身份键（name|year），用于跨来源去重。
// 来源按固定顺序处理，先出现的键获胜；后续来源的同键行被跳过。
type SeenKeys map[string]struct{}

// Observe 记录条目身份键并报告它是否已出现过。
//
// 注意：同一来源内的重复（日记里的重看行）也算重复；
// 首行已经生成完整文档，重复行只会重写同一文件。
func (s SeenKeys) Observe(m domain.Movie) (duplicate bool) {
	key := m.Key()
	if _, ok := s[key]; ok {
		return true
	}
	s[key] = struct{}{}
	return false
}

// Len 返回已记录的键数。
func (s SeenKeys) Len() int { return len(s) }
