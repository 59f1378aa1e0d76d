package fsx

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureFolder_CreatesIntermediateSegments(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a", "b", "c")

	if err := EnsureFolder(target); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	fi, err := os.Stat(target)
	if err != nil || !fi.IsDir() {
		t.Fatalf("目录未创建：%v", err)
	}
	// 幂等：再次创建不报错。
	if err := EnsureFolder(target); err != nil {
		t.Fatalf("重复创建不应报错：%v", err)
	}
}

func TestEnsureFolder_FileOccupiesSegment(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "a")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	err := EnsureFolder(filepath.Join(root, "a", "b"))
	if !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际 %v", err)
	}
	var e *PathTypeConflictError
	if !asConflict(err, &e) || e.Path != blocker {
		t.Fatalf("冲突路径应指明被文件占据的段：%v", err)
	}
}

func TestWriteFileAtomic_ReplaceAndNoTempLeftover(t *testing.T) {
	dir := t.TempDir()

	if err := WriteFileAtomic(dir, "n.md", []byte("v1")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := WriteFileAtomic(dir, "n.md", []byte("v2")); err != nil {
		t.Fatalf("覆盖写入失败：%v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "n.md"))
	if err != nil || string(b) != "v2" {
		t.Fatalf("内容不一致：%q err=%v", b, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("读取目录失败：%v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("不应残留临时文件：%v", entries)
	}
}

func TestWriteFileAtomic_TargetIsDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "n.md"), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	err := WriteFileAtomic(dir, "n.md", []byte("x"))
	if !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际 %v", err)
	}
}

func TestReadFileIfExists(t *testing.T) {
	dir := t.TempDir()
	if _, ok, err := ReadFileIfExists(filepath.Join(dir, "none")); err != nil || ok {
		t.Fatalf("不存在的文件应返回 ok=false：ok=%v err=%v", ok, err)
	}
	p := filepath.Join(dir, "f")
	if err := os.WriteFile(p, []byte("data"), 0o644); err != nil {
		t.Fatalf("写入失败：%v", err)
	}
	b, ok, err := ReadFileIfExists(p)
	if err != nil || !ok || string(b) != "data" {
		t.Fatalf("读取不一致：%q ok=%v err=%v", b, ok, err)
	}
}

func asConflict(err error, target **PathTypeConflictError) bool {
	e, ok := err.(*PathTypeConflictError)
	if ok {
		*target = e
	}
	return ok
}
