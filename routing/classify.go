package routing

import (
	"regexp"
	"strings"
)

var codeBlockPattern = regexp.MustCompile("(?s)```.*?```")

var analyticalKeywords = []string{
	"audit", "review", "analyze", "find bugs",
	"identify issues", "examine", "investigate",
	"evaluate", "assess", "validate existing",
}

var generativeKeywords = []string{
	"implement", "create", "build", "generate",
	"write", "design", "develop", "code",
}

// classify scores task text against the analytical/generative keyword
// bags and resolves a TaskType.
func classify(task string, req Requirements) TaskType {
	lower := strings.ToLower(task)

	analyticalScore := countMatches(lower, analyticalKeywords)
	generativeScore := countMatches(lower, generativeKeywords)

	hasEmbeddedCode := strings.Contains(task, "```") && len(task) > 10_000
	needsPreciseRefs := req.NeedsFileLineRefs ||
		strings.Contains(lower, "file:line") ||
		strings.Contains(lower, "specific line")

	if hasEmbeddedCode || needsPreciseRefs {
		analyticalScore += 3
	}

	switch {
	case analyticalScore > generativeScore+1:
		return Analytical
	case generativeScore > analyticalScore:
		return Generative
	default:
		return Hybrid
	}
}

func countMatches(lower string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}

// extractMetadata derives TaskMetadata from the raw task text.
func extractMetadata(task string, req Requirements, taskType TaskType) TaskMetadata {
	blocks := codeBlockPattern.FindAllString(task, -1)
	lower := strings.ToLower(task)

	estimatedLines := 500
	switch {
	case strings.Contains(lower, "comprehensive") || strings.Contains(lower, "detailed"):
		estimatedLines = 1000
	case strings.Contains(lower, "simple") || strings.Contains(lower, "basic"):
		estimatedLines = 200
	}

	return TaskMetadata{
		InputSizeBytes:       len(task),
		HasEmbeddedCode:      len(blocks) > 0,
		CodeBlockCount:       len(blocks),
		EstimatedOutputLines: estimatedLines,
		TaskType:             taskType,
	}
}
