// Package config 负责发现、解析并合并运行配置。
//
// 配置来源与覆盖优先级（固定）：CLI 参数 > boxdsync.yaml > 内置默认值。
// 合并产物是 EffectiveConfig；实现层直接消费，不再做二次默认/优先级判断。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/boxdsync/internal/note"
)

const (
	// ErrCodeNotFound 表示 --config 指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是 vault 根目录下的默认配置文件名。
	FileName = "boxdsync.yaml"

	// DefaultOutputFolder / DefaultPosterFolder 是文档与海报的落盘位置
	//（相对 vault 根）。
	DefaultOutputFolder = "Letterboxd"
	DefaultPosterFolder = "Letterboxd/attachments"

	// DefaultDelay 是相邻行之间的限速间隔默认值。
	DefaultDelay = 200 * time.Millisecond
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --posters=false 必须能覆盖
// 配置文件里的 download_posters: true。
type CLIArgs struct {
	VaultPath string

	Diary     string
	Watched   string
	Watchlist string

	Posters    bool
	PostersSet bool

	Delay    time.Duration
	DelaySet bool

	SkipExisting    bool
	SkipExistingSet bool

	ConfigPath string
}

// FileConfig 对应 boxdsync.yaml 的解析结构。
// 布尔项用指针保留“未设置”状态。
type FileConfig struct {
	OutputFolder     string          `yaml:"output_folder"`
	PosterFolder     string          `yaml:"poster_folder"`
	DownloadPosters  *bool           `yaml:"download_posters"`
	SkipExisting     *bool           `yaml:"skip_existing"`
	CachePages       *bool           `yaml:"cache_pages"`
	RateLimitDelayMS *int            `yaml:"rate_limit_delay_ms"`
	Template         string          `yaml:"template"`
	Fields           map[string]bool `yaml:"fields"`
	Debug            bool            `yaml:"debug"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置。
type EffectiveConfig struct {
	VaultPath string

	// 来源文件的绝对路径；空串表示该来源未提供。
	Diary     string
	Watched   string
	Watchlist string

	OutputFolder    string
	PosterFolder    string
	DownloadPosters bool
	SkipExisting    bool
	CachePages      bool
	Delay           time.Duration

	// Template 是已读入的模板内容（空串使用内建版式）。
	Template string
	Policy   note.FieldPolicy
	Debug    bool
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：该文件必须存在且可解析
// 2) 否则尝试 <vault>/boxdsync.yaml（可选，不存在不算错误）
//
// 覆盖优先级：
// - posters / skip-existing / delay：CLI > config > 默认
// - 其余字段仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	vault := absCleanFrom(cwdAbs, cli.VaultPath)
	if vault == "" {
		vault = cwdAbs
	}

	var (
		cfgPath string
		fc      FileConfig
	)
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		exists, err := readFileConfig(cfgPath, &fc)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		cfgPath = filepath.Join(vault, FileName)
		if _, err := readFileConfig(cfgPath, &fc); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}

	return merge(cwdAbs, vault, cli, fc, cfgPath)
}

func merge(cwdAbs, vault string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	outputFolder := DefaultOutputFolder
	if strings.TrimSpace(fc.OutputFolder) != "" {
		outputFolder = strings.TrimSpace(fc.OutputFolder)
	}
	posterFolder := DefaultPosterFolder
	if strings.TrimSpace(fc.PosterFolder) != "" {
		posterFolder = strings.TrimSpace(fc.PosterFolder)
	}
	for _, f := range []string{outputFolder, posterFolder} {
		if err := validateVaultRelative(f); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}

	posters := false
	if cli.PostersSet {
		posters = cli.Posters
	} else if fc.DownloadPosters != nil {
		posters = *fc.DownloadPosters
	}

	skipExisting := false
	if cli.SkipExistingSet {
		skipExisting = cli.SkipExisting
	} else if fc.SkipExisting != nil {
		skipExisting = *fc.SkipExisting
	}

	cachePages := false
	if fc.CachePages != nil {
		cachePages = *fc.CachePages
	}

	delay := DefaultDelay
	if cli.DelaySet {
		delay = cli.Delay
	} else if fc.RateLimitDelayMS != nil {
		delay = time.Duration(*fc.RateLimitDelayMS) * time.Millisecond
	}
	if delay < 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("限速间隔不能为负：%v", delay)}
	}

	policy, err := policyFromFields(fc.Fields)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	template := ""
	if strings.TrimSpace(fc.Template) != "" {
		tplPath := fc.Template
		if !filepath.IsAbs(tplPath) {
			tplPath = filepath.Join(vault, tplPath)
		}
		b, err := os.ReadFile(tplPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("模板文件读取失败：%w", err)}
		}
		template = string(b)
		if err := note.ValidateTemplate(template); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("模板结构无效：%w", err)}
		}
	}

	return EffectiveConfig{
		VaultPath:       vault,
		Diary:           absCleanFrom(cwdAbs, cli.Diary),
		Watched:         absCleanFrom(cwdAbs, cli.Watched),
		Watchlist:       absCleanFrom(cwdAbs, cli.Watchlist),
		OutputFolder:    outputFolder,
		PosterFolder:    posterFolder,
		DownloadPosters: posters,
		SkipExisting:    skipExisting,
		CachePages:      cachePages,
		Delay:           delay,
		Template:        template,
		Policy:          policy,
		Debug:           fc.Debug,
	}, nil
}

// policyFromFields 把 fields 映射合并进全开默认策略；未知键视为配置错误。
func policyFromFields(fields map[string]bool) (note.FieldPolicy, error) {
	p := note.AllFields()
	for key, enabled := range fields {
		switch key {
		case "description":
			p.Description = enabled
		case "directors":
			p.Directors = enabled
		case "genres":
			p.Genres = enabled
		case "cast":
			p.Cast = enabled
		case "average_rating":
			p.AverageRating = enabled
		case "studios":
			p.Studios = enabled
		case "countries":
			p.Countries = enabled
		default:
			return note.FieldPolicy{}, fmt.Errorf("fields 含未知类别：%q", key)
		}
	}
	return p, nil
}

// validateVaultRelative 约束落盘目录必须是 vault 内的相对路径。
func validateVaultRelative(p string) error {
	if filepath.IsAbs(p) {
		return fmt.Errorf("目录必须是 vault 相对路径：%q", p)
	}
	clean := filepath.ToSlash(filepath.Clean(p))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("目录不能逃出 vault：%q", p)
	}
	return nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute；空串保持空串。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 YAML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string, fc *FileConfig) (exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := yaml.Unmarshal(b, fc); err != nil {
		return true, err
	}
	return true, nil
}
