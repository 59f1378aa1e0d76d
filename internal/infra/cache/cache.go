// Package cache 提供 <vault>/.boxdsync/cache/ 下的页面数据缓存。
//
// 缓存是纯加速层：命中可跳过网络抓取，坏缓存等同未命中。
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/boxdsync/internal/domain"
	"github.com/John-Robertt/boxdsync/internal/infra/fsx"
)

// Store 按条目身份键读写页面数据快照。
//
// 约束：Enabled=false 时读永远未命中，写返回 ErrDisabled。
type Store struct {
	Root    string // vault 根目录
	Enabled bool
}

var ErrDisabled = errors.New("cache: disabled")

func New(root string, enabled bool) Store {
	return Store{
		Root:    filepath.Clean(strings.TrimSpace(root)),
		Enabled: enabled,
	}
}

// PagePath 返回身份键对应的缓存文件绝对路径。
func (s Store) PagePath(key string) string {
	return filepath.Join(s.Root, ".boxdsync", "cache", "pages", keyFileName(key)+".json")
}

// ReadPage 读取缓存的页面数据。
// 未命中与坏 JSON 都返回 ok=false（坏缓存不值得让一行失败）。
func (s Store) ReadPage(key string) (domain.MoviePageData, bool, error) {
	if !s.Enabled {
		return domain.MoviePageData{}, false, nil
	}
	b, err := os.ReadFile(s.PagePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.MoviePageData{}, false, nil
		}
		return domain.MoviePageData{}, false, err
	}
	var page domain.MoviePageData
	if err := json.Unmarshal(b, &page); err != nil {
		return domain.MoviePageData{}, false, nil
	}
	return page, true, nil
}

// WritePage 原子写入页面数据快照。
func (s Store) WritePage(key string, page domain.MoviePageData) error {
	if !s.Enabled {
		return ErrDisabled
	}
	b, err := json.Marshal(page)
	if err != nil {
		return err
	}
	p := s.PagePath(key)
	dir := filepath.Dir(p)
	if err := fsx.EnsureFolder(dir); err != nil {
		return err
	}
	return fsx.WriteFileAtomic(dir, filepath.Base(p), b)
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// keyFileName 把身份键（name|year）变成可落盘的文件名。
func keyFileName(key string) string {
	s := unsafeKeyChars.ReplaceAllString(key, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "_"
	}
	return s
}
