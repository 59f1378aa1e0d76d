package domain

import (
	"encoding/json"
	"time"
)

const (
	RowStatusImported = "imported"
	RowStatusSkipped  = "skipped"
	RowStatusFailed   = "failed"
)

const (
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeStorageConflict  = "storage_conflict"
	ErrCodeIOFailed         = "io_failed"
	ErrCodeConfigNotFound   = "config_not_found"
	ErrCodeConfigInvalid    = "config_invalid"
)

// RunReport 是对外稳定输出（stdout JSON）的结构。
//
// 约束：
// - 单行失败只体现为 row 级条目；批次本身总是“完成或被取消”
// - Cancelled 是独立于成功/失败的终态（取消前已完成的行保持有效）
type RunReport struct {
	VaultPath string `json:"vault_path"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Cancelled bool `json:"cancelled"`

	Summary ReportSummary  `json:"summary"`
	Sources []SourceResult `json:"sources"`
}

type ReportSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Invalid  int `json:"invalid_sources"`
}

// SourceResult 对应一个输入 CSV 的处理结果。
// Valid=false 时 Rows 为空，ErrorMsg 给出校验失败原因（只中止该文件，不中止批次）。
type SourceResult struct {
	Name      string      `json:"name"`
	Valid     bool        `json:"valid"`
	ErrorCode string      `json:"error_code,omitempty"`
	ErrorMsg  string      `json:"error_msg,omitempty"`
	RowCount  int         `json:"row_count"`
	Rows      []RowResult `json:"rows"`
}

type RowResult struct {
	Key   string `json:"key"`
	Title string `json:"title"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`

	NotePath   string `json:"note_path,omitempty"`
	PosterPath string `json:"poster_path,omitempty"`
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) summary 由 sources/rows 计算得出
//
// 注意：不对 rows 排序——行序即处理序，是进度语义的一部分。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	var s ReportSummary
	for i := range r.Sources {
		src := &r.Sources[i]
		if !src.Valid {
			s.Invalid++
			continue
		}
		for _, row := range src.Rows {
			switch row.Status {
			case RowStatusImported:
				s.Imported++
			case RowStatusSkipped:
				s.Skipped++
			case RowStatusFailed:
				s.Failed++
			}
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
