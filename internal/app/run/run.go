// Package run 按固定顺序串行处理来源文件，并产出对外稳定的 RunReport。
//
// 失败语义：
// - 来源校验失败只中止该来源，批次继续
// - 行级失败只体现为 row 结果，绝不中止批次
// - 取消是独立终态：已完成的行保持有效，报告带 Cancelled 标记
package run

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/John-Robertt/boxdsync/internal/app"
	"github.com/John-Robertt/boxdsync/internal/config"
	"github.com/John-Robertt/boxdsync/internal/csvx"
	"github.com/John-Robertt/boxdsync/internal/domain"
	"github.com/John-Robertt/boxdsync/internal/infra/cache"
	"github.com/John-Robertt/boxdsync/internal/infra/fsx"
	"github.com/John-Robertt/boxdsync/internal/lbx"
	"github.com/John-Robertt/boxdsync/internal/note"
)

// Fetcher 汇聚编排所需的抓取能力（httpx.Client 满足该接口）。
type Fetcher interface {
	lbx.TextFetcher
	lbx.BinaryFetcher
}

// Source 是一个待处理的来源文件。文件名决定条目状态语义。
type Source struct {
	Name string
	Path string
}

// Execute 执行一次导入并返回报告。
func Execute(ctx context.Context, eff config.EffectiveConfig, f Fetcher, sources []Source) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, f, sources, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 输出进度
//（由上层决定是否启用）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, f Fetcher, sources []Source, obs Observer) domain.RunReport {
	rr := domain.RunReport{
		VaultPath: eff.VaultPath,
		StartedAt: time.Now().UTC(),
		Sources:   make([]domain.SourceResult, 0, len(sources)),
	}

	e := &executor{
		eff:     eff,
		fetcher: f,
		store:   cache.New(eff.VaultPath, eff.CachePages),
		limiter: newLimiter(eff.Delay),
		seen:    make(app.SeenKeys),
		obs:     obs,
	}

	for i, src := range sources {
		if obs != nil {
			obs.OnSourceStart(src.Name, i+1, len(sources))
		}
		sr, cancelled := e.processSource(ctx, src)
		rr.Sources = append(rr.Sources, sr)
		if obs != nil {
			imported, skipped, failed := countRows(sr)
			obs.OnSourceDone(src.Name, imported, skipped, failed)
		}
		if cancelled {
			rr.Cancelled = true
			break
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

type executor struct {
	eff     config.EffectiveConfig
	fetcher Fetcher
	store   cache.Store
	limiter *rate.Limiter
	seen    app.SeenKeys
	obs     Observer
}

func (e *executor) processSource(ctx context.Context, src Source) (domain.SourceResult, bool) {
	sr := domain.SourceResult{Name: src.Name, Valid: true, Rows: []domain.RowResult{}}

	file, err := os.Open(src.Path)
	if err != nil {
		sr.Valid = false
		sr.ErrorCode = domain.ErrCodeIOFailed
		sr.ErrorMsg = fmt.Sprintf("来源文件读取失败：%v", err)
		return sr, false
	}
	movies, perr := csvx.Parse(file)
	file.Close()
	if perr != nil {
		sr.Valid = false
		sr.ErrorCode = domain.ErrCodeValidationFailed
		sr.ErrorMsg = perr.Error()
		return sr, false
	}
	sr.RowCount = len(movies)

	for i, m := range movies {
		// 取消检查在每行开始前：已完成的行保持有效。
		if ctx.Err() != nil {
			return sr, true
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return sr, true
		}

		row, posterURL := e.processRow(ctx, src.Name, m)
		sr.Rows = append(sr.Rows, row)
		if e.obs != nil {
			e.obs.OnRowDone(i+1, len(movies), m.Name, posterURL, row.Status != domain.RowStatusFailed)
		}
	}
	return sr, false
}

func (e *executor) processRow(ctx context.Context, sourceName string, m domain.Movie) (domain.RowResult, string) {
	row := domain.RowResult{Key: m.Key(), Title: m.Name, Status: domain.RowStatusImported}

	if e.seen.Observe(m) {
		row.Status = domain.RowStatusSkipped
		row.ErrorMsg = "身份键已在更早的来源/行导入"
		return row, ""
	}

	base := note.SanitizeFileName(m.FileNameBase())
	noteDir := filepath.Join(e.eff.VaultPath, filepath.FromSlash(e.eff.OutputFolder))
	notePath := filepath.Join(noteDir, base+".md")
	row.NotePath = relToVault(e.eff.VaultPath, notePath)

	if e.eff.SkipExisting {
		if ok, err := fsx.Exists(notePath); err == nil && ok {
			row.Status = domain.RowStatusSkipped
			row.ErrorMsg = "目标文档已存在（skip_existing）"
			return row, ""
		}
	}

	page, hit, cerr := e.store.ReadPage(m.Key())
	if cerr != nil {
		slog.Debug("缓存读取失败", "key", m.Key(), "error", cerr)
	}
	if !hit {
		if m.LetterboxdURI == "" {
			page = domain.EmptyPageData()
		} else {
			var err error
			page, err = lbx.FetchMoviePageData(ctx, e.fetcher, m.LetterboxdURI)
			if err != nil {
				// 解析失败降级：空哨兵继续走生成与写入；降级结果不进缓存。
				slog.Warn("规范页解析失败，降级为空元数据", "title", m.Name, "error", err)
			} else if e.store.Enabled {
				if werr := e.store.WritePage(m.Key(), page); werr != nil {
					slog.Debug("缓存写入失败", "key", m.Key(), "error", werr)
				}
			}
		}
	}

	posterPath := ""
	if e.eff.DownloadPosters && page.PosterURL != "" {
		p, err := e.ensurePoster(ctx, m, page.PosterURL)
		if err != nil {
			// 海报失败降级为远端外链，不让整行失败。
			slog.Warn("海报下载失败，降级为远端链接", "title", m.Name, "error", err)
		} else {
			posterPath = p
		}
	}

	in := note.Input{
		PosterPath: posterPath,
		Metadata:   page.Metadata,
		MovieURL:   page.MovieURL,
		Status:     statusFor(sourceName, m),
	}
	if posterPath == "" {
		in.PosterLink = page.PosterURL
	}

	doc, err := note.Generate(m, in, note.Options{Policy: e.eff.Policy, Template: e.eff.Template})
	if err != nil {
		row.Status = domain.RowStatusFailed
		row.ErrorCode = domain.ErrCodeIOFailed
		row.ErrorMsg = fmt.Sprintf("文档生成失败：%v", err)
		return row, page.PosterURL
	}

	if existing, ok, rerr := fsx.ReadFileIfExists(notePath); rerr == nil && ok {
		doc = note.MergeWithExisting(doc, string(existing))
	}

	if err := fsx.EnsureFolder(noteDir); err != nil {
		fillStorageError(&row, err)
		return row, page.PosterURL
	}
	if err := fsx.WriteFileAtomic(noteDir, base+".md", []byte(doc)); err != nil {
		fillStorageError(&row, err)
		return row, page.PosterURL
	}

	row.PosterPath = posterPath
	return row, page.PosterURL
}

// ensurePoster 确保本地海报就位并返回 vault 相对路径（斜杠形式）。
// 已存在的海报保持不动（重跑不重复下载）。
func (e *executor) ensurePoster(ctx context.Context, m domain.Movie, posterURL string) (string, error) {
	name := note.SanitizeFileName(m.PosterFileNameBase()) + posterExt(posterURL)
	dir := filepath.Join(e.eff.VaultPath, filepath.FromSlash(e.eff.PosterFolder))
	abs := filepath.Join(dir, name)

	if ok, err := fsx.Exists(abs); err == nil && ok {
		return path.Join(e.eff.PosterFolder, name), nil
	}

	data, err := lbx.DownloadPoster(ctx, e.fetcher, posterURL)
	if err != nil {
		return "", err
	}
	if err := fsx.EnsureFolder(dir); err != nil {
		return "", err
	}
	if err := fsx.WriteFileAtomic(dir, name, data); err != nil {
		return "", err
	}
	return path.Join(e.eff.PosterFolder, name), nil
}

// statusFor 由来源文件名决定条目状态；未知来源回退看 WatchedDate。
// 匹配用大小写无关的后缀：显式传入的文件路径不必恰好叫角色名。
func statusFor(sourceName string, m domain.Movie) string {
	name := strings.ToLower(sourceName)
	switch {
	case strings.HasSuffix(name, "watchlist.csv"):
		return "Want to Watch"
	case strings.HasSuffix(name, "watched.csv"), strings.HasSuffix(name, "diary.csv"):
		return "Watched"
	}
	if m.WatchedDate != "" {
		return "Watched"
	}
	return "Want to Watch"
}

func fillStorageError(row *domain.RowResult, err error) {
	row.Status = domain.RowStatusFailed
	if fsx.IsPathTypeConflict(err) {
		row.ErrorCode = domain.ErrCodeStorageConflict
	} else {
		row.ErrorCode = domain.ErrCodeIOFailed
	}
	row.ErrorMsg = err.Error()
}

func countRows(sr domain.SourceResult) (imported, skipped, failed int) {
	for _, row := range sr.Rows {
		switch row.Status {
		case domain.RowStatusImported:
			imported++
		case domain.RowStatusSkipped:
			skipped++
		case domain.RowStatusFailed:
			failed++
		}
	}
	return imported, skipped, failed
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func relToVault(vault, abs string) string {
	if rel, err := filepath.Rel(vault, abs); err == nil {
		return filepath.ToSlash(rel)
	}
	return abs
}

func posterExt(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ".jpg"
	}
	switch ext := strings.ToLower(path.Ext(u.Path)); ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
		return ext
	default:
		return ".jpg"
	}
}
