package run

// Observer 用于把“运行进度/条目结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 行与来源严格串行，事件按处理顺序到达。
type Observer interface {
	// OnSourceStart 在开始处理一个来源文件时调用（index 从 1 起）。
	OnSourceStart(name string, index, total int)
	// OnRowDone 在某一行处理完成时调用（成功/跳过/失败都会触发）。
	OnRowDone(idx, total int, title string, posterURL string, ok bool)
	// OnSourceDone 在一个来源收尾时调用（校验失败的来源 rowCount 为 0）。
	OnSourceDone(name string, imported, skipped, failed int)
}
