package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/boxdsync/internal/app/run"
	"github.com/John-Robertt/boxdsync/internal/config"
	"github.com/John-Robertt/boxdsync/internal/domain"
	"github.com/John-Robertt/boxdsync/internal/infra/httpx"
	"github.com/John-Robertt/boxdsync/internal/scan"
)

// exitCode 由 import 命令设置：0 全部成功；1 有失败行或无效来源。
// 参数错误由 cobra 报错后以 2 退出。
var exitCode int

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(2)
	}
	os.Exit(exitCode)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "boxdsync",
		Short:         "把 Letterboxd 导出的 CSV 同步为 Obsidian 笔记",
		SilenceUsage:  false,
		SilenceErrors: false,
	}
	root.AddCommand(newImportCmd())
	return root
}

var (
	flagDiary        string
	flagWatched      string
	flagWatchlist    string
	flagExports      string
	flagPosters      bool
	flagSkipExisting bool
	flagDelay        time.Duration
	flagConfig       string
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [vault-path]",
		Short: "导入观影记录并在 vault 中生成/更新笔记",
		Long: `按固定顺序处理来源文件（diary、watched、watchlist），逐行解析
影片规范页并生成 Markdown 笔记；既有笔记的 "## Notes" 段逐字保留。

示例：
  boxdsync import ~/vault --exports ~/letterboxd-export
  boxdsync import ~/vault --diary diary.csv --posters
  boxdsync import ~/vault --watchlist watchlist.csv --delay 500ms`,
		Args: cobra.MaximumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().StringVar(&flagDiary, "diary", "", "日记导出文件（diary.csv）")
	cmd.Flags().StringVar(&flagWatched, "watched", "", "观看记录导出文件（watched.csv）")
	cmd.Flags().StringVar(&flagWatchlist, "watchlist", "", "待看清单导出文件（watchlist.csv）")
	cmd.Flags().StringVar(&flagExports, "exports", "", "导出目录：自动发现其中的已知来源文件")
	cmd.Flags().BoolVar(&flagPosters, "posters", false, "下载海报到 vault（覆盖配置文件）")
	cmd.Flags().BoolVar(&flagSkipExisting, "skip-existing", false, "跳过目标文档已存在的行")
	cmd.Flags().DurationVar(&flagDelay, "delay", config.DefaultDelay, "相邻行之间的限速间隔")
	cmd.Flags().StringVar(&flagConfig, "config", "", "配置文件路径（默认 <vault>/boxdsync.yaml）")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	vaultPath := "."
	if len(args) == 1 {
		vaultPath = args[0]
	}

	hasExplicit := flagDiary != "" || flagWatched != "" || flagWatchlist != ""
	if flagExports == "" && !hasExplicit {
		return fmt.Errorf("至少提供一个来源：--exports 或 --diary/--watched/--watchlist")
	}
	if flagExports != "" && hasExplicit {
		return fmt.Errorf("--exports 与 --diary/--watched/--watchlist 不能同时使用")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("读取当前目录失败：%w", err)
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		VaultPath:       vaultPath,
		Diary:           flagDiary,
		Watched:         flagWatched,
		Watchlist:       flagWatchlist,
		Posters:         flagPosters,
		PostersSet:      cmd.Flags().Changed("posters"),
		Delay:           flagDelay,
		DelaySet:        cmd.Flags().Changed("delay"),
		SkipExisting:    flagSkipExisting,
		SkipExistingSet: cmd.Flags().Changed("skip-existing"),
		ConfigPath:      flagConfig,
	})
	if err != nil {
		emitReport(reportForConfigError(vaultPath, err))
		exitCode = 1
		return nil
	}

	setupLogging(eff.Debug)

	sources, err := collectSources(cwd, eff)
	if err != nil {
		return err
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW, eff, len(sources))
	}

	// Ctrl-C / SIGTERM 协作取消：已完成的行保持有效。
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rr := run.ExecuteWithObserver(ctx, eff, httpx.New(), sources, obs)

	emitReport(rr)
	if rr.Summary.Failed > 0 || rr.Summary.Invalid > 0 {
		exitCode = 1
	}
	return nil
}

// collectSources 把 CLI 的来源输入归一化为固定顺序的来源列表。
// 显式文件使用角色名（diary.csv 等）作为来源名：状态语义跟随角色而非实际文件名。
func collectSources(cwd string, eff config.EffectiveConfig) ([]run.Source, error) {
	if flagExports != "" {
		dir := flagExports
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cwd, dir)
		}
		found, err := scan.Discover(dir)
		if err != nil {
			return nil, err
		}
		out := make([]run.Source, 0, len(found))
		for _, s := range found {
			out = append(out, run.Source{Name: s.Name, Path: s.Path})
		}
		return out, nil
	}

	out := make([]run.Source, 0, 3)
	for _, s := range []struct{ name, path string }{
		{"diary.csv", eff.Diary},
		{"watched.csv", eff.Watched},
		{"watchlist.csv", eff.Watchlist},
	} {
		if strings.TrimSpace(s.path) == "" {
			continue
		}
		out = append(out, run.Source{Name: s.name, Path: s.path})
	}
	return out, nil
}

func setupLogging(debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：imported=%d skipped=%d failed=%d invalid_sources=%d\n",
			rr.Summary.Imported, rr.Summary.Skipped, rr.Summary.Failed, rr.Summary.Invalid,
		)
		if rr.Cancelled {
			fmt.Fprintln(os.Stdout, "批次被取消；已完成的行保持有效。")
		}
		if rr.Summary.Failed > 0 || rr.Summary.Invalid > 0 {
			for _, src := range rr.Sources {
				if !src.Valid {
					fmt.Fprintf(os.Stderr, "%s %s: %s\n", src.Name, src.ErrorCode, src.ErrorMsg)
					continue
				}
				for _, row := range src.Rows {
					if row.Status != domain.RowStatusFailed {
						continue
					}
					fmt.Fprintf(os.Stderr, "%s %s: %s\n", row.Title, row.ErrorCode, row.ErrorMsg)
				}
			}
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：imported=%d skipped=%d failed=%d invalid_sources=%d\n",
		rr.Summary.Imported, rr.Summary.Skipped, rr.Summary.Failed, rr.Summary.Invalid,
	)
}

// reportForConfigError 把配置错误合成为单来源失败的报告，保持输出契约一致。
func reportForConfigError(vaultPath string, err error) domain.RunReport {
	now := time.Now().UTC()
	code := config.Code(err)
	if code == "" {
		code = domain.ErrCodeConfigInvalid
	}
	rr := domain.RunReport{
		VaultPath:  vaultPath,
		StartedAt:  now,
		FinishedAt: now,
		Sources: []domain.SourceResult{{
			Name:      "config",
			Valid:     false,
			ErrorCode: code,
			ErrorMsg:  err.Error(),
			Rows:      []domain.RowResult{},
		}},
	}
	rr.Finalize()
	return rr
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
