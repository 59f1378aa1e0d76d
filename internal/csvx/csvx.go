// Package csvx 把导出 CSV 解析为行模型并做最小结构校验。
//
// 分词本身交给 encoding/csv（引号内逗号、双引号转义等规则由它保证）；
// 本包只负责列识别与必填校验。
package csvx

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/John-Robertt/boxdsync/internal/domain"
)

// 识别的列名（与导出文件的表头精确匹配，大小写敏感；匹配前去空白）。
const (
	ColDate          = "Date"
	ColName          = "Name"
	ColYear          = "Year"
	ColLetterboxdURI = "Letterboxd URI"
	ColRating        = "Rating"
	ColRewatch       = "Rewatch"
	ColTags          = "Tags"
	ColWatchedDate   = "Watched Date"
)

// ValidationError 表示输入记录集结构不完整（缺表头或缺必填列）。
// 该错误只中止当前输入源的处理，不中止整个批次。
type ValidationError struct {
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("CSV 缺少必需列：%s", strings.Join(e.Missing, ", "))
}

// Parse 读取带表头的 CSV 并返回行模型。
//
// 结构要求（硬校验）：
// - 表头必须存在
// - Name、Year、Letterboxd URI 三列必须齐全
// - Date 与 Watched Date 至少存在一列
// 不满足时返回 *ValidationError（行数为零）；满足时返回全部数据行，
// 值一律去首尾空白。
func Parse(r io.Reader) ([]domain.Movie, error) {
	cr := csv.NewReader(r)
	// 导出文件的行宽并不总是一致（后期新增列），逐行取所需列即可。
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ValidationError{Reason: "CSV 为空：缺少表头行"}
	}
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("CSV 表头读取失败：%v", err)}
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, required := range []string{ColName, ColYear, ColLetterboxdURI} {
		if _, ok := idx[required]; !ok {
			missing = append(missing, required)
		}
	}
	_, hasDate := idx[ColDate]
	_, hasWatched := idx[ColWatchedDate]
	if !hasDate && !hasWatched {
		missing = append(missing, ColDate+" 或 "+ColWatchedDate)
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	movies := make([]domain.Movie, 0, 64)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ValidationError{Reason: fmt.Sprintf("CSV 数据行解析失败：%v", err)}
		}

		m := domain.Movie{
			Date:          field(record, idx, ColDate),
			Name:          field(record, idx, ColName),
			Year:          field(record, idx, ColYear),
			LetterboxdURI: field(record, idx, ColLetterboxdURI),
			Rating:        field(record, idx, ColRating),
			Rewatch:       field(record, idx, ColRewatch),
			Tags:          field(record, idx, ColTags),
			WatchedDate:   field(record, idx, ColWatchedDate),
		}
		// 无片名且无链接的空行直接丢弃（导出文件尾部常见）。
		if m.Name == "" && m.LetterboxdURI == "" {
			continue
		}
		movies = append(movies, m)
	}
	return movies, nil
}

func field(record []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
