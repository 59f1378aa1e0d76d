package domain

// MovieMetadata 是从页面结构化数据解析得到的元数据（最小可用集）。
//
// 约束：
// - 所有列表字段不得含重复项或纯空白项（用 OrderedSet 在边界处保证）
// - Description 为空串表示“缺失或为空”；是否回退由 fetch 阶段决定
// - AverageRating 用字符串承载（来源可能是数字或字符串，展示层不关心精度）
type MovieMetadata struct {
	Directors     []string
	Genres        []string
	Description   string
	Cast          []string
	AverageRating string
	Studios       []string
	Countries     []string
}

// MoviePageData 是 fetch 阶段的产物：海报 + 元数据 + 规范 URL。
//
// 不变量：永远完整填充。失败路径必须返回 EmptyPageData()，
// 而不是半初始化的对象或 nil——下游据此免于逐字段判空。
type MoviePageData struct {
	PosterURL string
	Metadata  MovieMetadata
	MovieURL  string
}

// EmptyPageData 返回显式的“空”哨兵实例（空集合 + 空标量）。
func EmptyPageData() MoviePageData {
	return MoviePageData{
		PosterURL: "",
		Metadata: MovieMetadata{
			Directors: []string{},
			Genres:    []string{},
			Cast:      []string{},
			Studios:   []string{},
			Countries: []string{},
		},
		MovieURL: "",
	}
}
