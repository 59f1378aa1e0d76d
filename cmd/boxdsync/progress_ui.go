package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/John-Robertt/boxdsync/internal/app/run"
	"github.com/John-Robertt/boxdsync/internal/config"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端的进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
type progressUI struct {
	w io.Writer

	mu        sync.Mutex
	startedAt time.Time
}

func newProgressUI(w io.Writer, eff config.EffectiveConfig, sourceCount int) *progressUI {
	p := &progressUI{w: w, startedAt: time.Now()}

	fmt.Fprintf(w, "[%s] boxdsync import\n", p.startedAt.Format("15:04:05"))
	fmt.Fprintln(w, "配置（生效）:")
	fmt.Fprintf(w, "  vault: %s\n", eff.VaultPath)
	fmt.Fprintf(w, "  output: %s\n", eff.OutputFolder)
	fmt.Fprintf(w, "  posters: %s（%s）\n", onOff(eff.DownloadPosters), eff.PosterFolder)
	fmt.Fprintf(w, "  delay: %s\n", eff.Delay)
	if eff.SkipExisting {
		fmt.Fprintln(w, "  skip_existing: on")
	}
	if eff.Template != "" {
		fmt.Fprintln(w, "  template: 自定义")
	}
	fmt.Fprintf(w, "  sources: %d\n\n", sourceCount)
	return p
}

func (p *progressUI) OnSourceStart(name string, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "[%d/%d] %s\n", index, total, name)
}

func (p *progressUI) OnRowDone(idx, total int, title, posterURL string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mark := "ok"
	if !ok {
		mark = "失败"
	}
	fmt.Fprintf(p.w, "  (%d/%d) %s %s\n", idx, total, mark, title)
}

func (p *progressUI) OnSourceDone(name string, imported, skipped, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "  %s 完成：imported=%d skipped=%d failed=%d（累计 %s）\n",
		name, imported, skipped, failed, time.Since(p.startedAt).Round(time.Millisecond))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
