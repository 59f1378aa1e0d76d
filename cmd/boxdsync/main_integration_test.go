package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/boxdsync/internal/config"
	"github.com/John-Robertt/boxdsync/internal/domain"
)

func TestCollectSources_ExplicitOrder(t *testing.T) {
	flagExports = ""
	flagDiary = ""
	flagWatched = ""
	flagWatchlist = ""
	t.Cleanup(func() { flagExports, flagDiary, flagWatched, flagWatchlist = "", "", "", "" })

	eff := config.EffectiveConfig{
		Watchlist: "/abs/watchlist.csv",
		Diary:     "/abs/diary.csv",
	}
	sources, err := collectSources("/cwd", eff)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// 顺序固定：diary 先于 watchlist，与标志出现顺序无关。
	if len(sources) != 2 || sources[0].Name != "diary.csv" || sources[1].Name != "watchlist.csv" {
		t.Fatalf("来源顺序不正确：%+v", sources)
	}
}

func TestCollectSources_ExportsDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "watched.csv"), []byte("x"), 0o644); err != nil {
		t.Fatalf("写入失败：%v", err)
	}
	flagExports = dir
	t.Cleanup(func() { flagExports = "" })

	sources, err := collectSources("/cwd", config.EffectiveConfig{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(sources) != 1 || sources[0].Name != "watched.csv" {
		t.Fatalf("导出目录发现不正确：%+v", sources)
	}
}

func TestReportForConfigError(t *testing.T) {
	err := &config.Error{Code: config.ErrCodeNotFound, Path: "/x/boxdsync.yaml"}
	rr := reportForConfigError("/vault", err)

	if len(rr.Sources) != 1 || rr.Sources[0].Valid {
		t.Fatalf("配置错误应合成单个无效来源：%+v", rr.Sources)
	}
	if rr.Sources[0].ErrorCode != config.ErrCodeNotFound {
		t.Fatalf("error_code 应取自配置错误：%+v", rr.Sources[0])
	}
	if rr.Summary.Invalid != 1 {
		t.Fatalf("summary 应统计无效来源：%+v", rr.Summary)
	}
}

func TestCLI_NoTTY_StdoutOnlyRunReportJSON(t *testing.T) {
	// 锁定对外契约：stdout 非 TTY 时只能输出一个 RunReport JSON。
	// 来源文件缺失即可走完整条命令路径而不触网。
	vault := t.TempDir()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	repoRoot := filepath.Clean(filepath.Join(wd, "..", ".."))

	cmd := exec.Command("go", "run", "./cmd/boxdsync", "import", vault, "--diary", filepath.Join(vault, "no-such.csv"))
	cmd.Dir = repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	// 来源读取失败记为无效来源：退出码应为 1。
	var ee *exec.ExitError
	if !errors.As(runErr, &ee) || ee.ExitCode() != 1 {
		t.Fatalf("期望退出码 1：err=%v\nstderr=%s", runErr, stderr.String())
	}

	var rr domain.RunReport
	if err := json.Unmarshal(stdout.Bytes(), &rr); err != nil {
		t.Fatalf("stdout 不是合法的 RunReport JSON：%v\nstdout=%q", err, stdout.String())
	}
	if rr.Summary.Invalid != 1 {
		t.Fatalf("报告应包含无效来源：%+v", rr.Summary)
	}
	if strings.Contains(stdout.String(), "配置（生效）") {
		t.Fatalf("stdout 不应包含进度输出：%q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "完成：imported=") {
		t.Fatalf("stderr 缺少完成摘要：%q", stderr.String())
	}
}
