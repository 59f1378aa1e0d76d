// Package scan 在导出目录里发现已知的来源文件。
//
// 导出包是平铺结构：已知文件直接位于目录下，子目录不参与。
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source 是一个被发现的来源文件。
type Source struct {
	Name string // 文件名，如 diary.csv
	Path string // 绝对路径
}

// knownSources 是已知来源文件名及其固定处理顺序。
// 顺序有语义：日记先于观看记录，跨来源去重依赖这一点。
var knownSources = []string{"diary.csv", "watched.csv", "watchlist.csv"}

// Discover 在 dir 下按固定顺序查找已知来源文件。
//
// 规则：
// - 只做 stat，不读内容；缺失的文件静默跳过
// - 一个都没有时报错（指向错误目录几乎总是用户失误）
func Discover(dir string) ([]Source, error) {
	dir = filepath.Clean(dir)
	out := make([]Source, 0, len(knownSources))
	for _, name := range knownSources {
		p := filepath.Join(dir, name)
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if info.IsDir() {
			continue
		}
		out = append(out, Source{Name: name, Path: p})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("目录 %q 下没有任何已知来源文件（%s）", dir, strings.Join(knownSources, ", "))
	}
	return out, nil
}
