package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/John-Robertt/boxdsync/internal/config"
	"github.com/John-Robertt/boxdsync/internal/note"
)

func TestProgressUI_Sequence(t *testing.T) {
	var buf bytes.Buffer
	eff := config.EffectiveConfig{
		VaultPath:       "/vault",
		OutputFolder:    "Letterboxd",
		PosterFolder:    "Letterboxd/attachments",
		DownloadPosters: true,
		Delay:           config.DefaultDelay,
		Policy:          note.AllFields(),
	}

	ui := newProgressUI(&buf, eff, 2)
	ui.OnSourceStart("diary.csv", 1, 2)
	ui.OnRowDone(1, 3, "Film A", "https://img.example/a.jpg", true)
	ui.OnRowDone(2, 3, "Film B", "", false)
	ui.OnSourceDone("diary.csv", 1, 0, 1)

	out := buf.String()
	for _, want := range []string{
		"配置（生效）",
		"vault: /vault",
		"posters: on（Letterboxd/attachments）",
		"[1/2] diary.csv",
		"(1/3) ok Film A",
		"(2/3) 失败 Film B",
		"imported=1 skipped=0 failed=1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("进度输出缺少 %q：\n%s", want, out)
		}
	}
}

func TestOnOff(t *testing.T) {
	if onOff(true) != "on" || onOff(false) != "off" {
		t.Fatalf("onOff 输出不正确")
	}
}
