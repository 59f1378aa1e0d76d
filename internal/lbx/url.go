// Package lbx 把“站点形态”（URL 形状、页面结构化数据、回退启发式）限制在
// 本包内部；核心流程只依赖稳定的 domain.MoviePageData。
package lbx

import (
	"net/url"
	"strings"
)

// filmPathMarker 是规范影片页路径中的固定段：/film/<slug>/。
const filmPathMarker = "film"

// NormalizeFilmURL 把任意形态的影片链接规范化为 scheme://host/film/<slug>/。
//
// 短链（路径中无 film 段）、会员页（/member/film/<slug>/）、规范页统一处理；
// 解析失败或缺少 film 段时返回 ok=false，绝不报错。
func NormalizeFilmURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}

	segments := splitPath(u.Path)
	for i, seg := range segments {
		if seg != filmPathMarker {
			continue
		}
		if i+1 >= len(segments) {
			return "", false
		}
		slug := segments[i+1]
		return u.Scheme + "://" + u.Host + "/" + filmPathMarker + "/" + slug + "/", true
	}
	return "", false
}

// ResolveURL 把 value 按 base 解析为绝对 URL；输入畸形时返回 ok=false。
func ResolveURL(value, base string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	bu, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	vu, err := url.Parse(value)
	if err != nil {
		return "", false
	}
	resolved := bu.ResolveReference(vu)
	if resolved.Scheme == "" || resolved.Host == "" {
		return "", false
	}
	return resolved.String(), true
}

// BestEffortFilmURL 对写入文档的链接做尽力规范化。
//
// 规则：只对追踪站点自己的主机名应用 slug 提取；第三方主机的链接原样放行
// （用户可能在 CSV 里手填任意链接，不应被改写）。
func BestEffortFilmURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	host := strings.ToLower(u.Host)
	if host != "letterboxd.com" && !strings.HasSuffix(host, ".letterboxd.com") {
		return raw
	}
	if normalized, ok := NormalizeFilmURL(raw); ok {
		return normalized
	}
	return raw
}

func splitPath(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
