package rpc

import "strings"

// keywordTable is the closed, documented auto task_type classifier
// (spec.md §6's "auto" type), adapted from the original system's
// keyword→type mapping to this system's TaskType enum. Checked in
// order; the first matching bucket wins.
var keywordTable = []struct {
	taskType TaskType
	keywords []string
}{
	// research precedes search: "research" contains "search" as a substring.
	{TaskResearch, []string{"research", "study", "研究"}},
	{TaskSearch, []string{"search", "搜索", "查找", "检索"}},
	{TaskAnalysis, []string{"analysis", "analyze", "分析", "评估", "质量", "gap", "缺口"}},
	{TaskInsight, []string{"insight", "洞察"}},
	{TaskIndustry, []string{"industry", "行业"}},
	{TaskNewsReport, []string{"news", "新闻", "breaking"}},
	{TaskComprehensive, []string{"report", "comprehensive", "报告", "完整", "全面", "综合"}},
}

// ClassifyTaskType maps task text to a TaskType via the closed keyword
// table, falling back to TaskComprehensive when nothing matches — the
// original system's own default (spec.md §6, SUPPLEMENTAL FEATURES §1).
func ClassifyTaskType(task string) TaskType {
	lower := strings.ToLower(task)
	for _, bucket := range keywordTable {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.taskType
			}
		}
	}
	return TaskComprehensive
}

// ResolveTaskType returns requested as-is unless it is "auto" (or empty),
// in which case it classifies task.
func ResolveTaskType(requested, task string) TaskType {
	switch TaskType(requested) {
	case "", TaskAuto:
		return ClassifyTaskType(task)
	default:
		return TaskType(requested)
	}
}
