package routing

import "fmt"

// predictQuality applies an additive penalty table: start at 85, apply
// penalties for task type, context size, embedded code, and strict output
// requirements, then clamp to [0,100].
func predictQuality(meta TaskMetadata, req Requirements) (score int, reasoning []string) {
	base := 85

	switch meta.TaskType {
	case Analytical:
		base -= 30
		reasoning = append(reasoning, "analytical task (-30 points)")
	case Hybrid:
		base -= 15
		reasoning = append(reasoning, "hybrid task (-15 points)")
	}

	switch {
	case meta.InputSizeBytes > 100_000:
		base -= 20
		reasoning = append(reasoning, fmt.Sprintf("large context %dKB (-20 points)", meta.InputSizeBytes/1000))
	case meta.InputSizeBytes > 50_000:
		base -= 10
		reasoning = append(reasoning, fmt.Sprintf("medium context %dKB (-10 points)", meta.InputSizeBytes/1000))
	}

	if meta.HasEmbeddedCode {
		base -= 15
		reasoning = append(reasoning, fmt.Sprintf("embedded code blocks (%d) (-15 points)", meta.CodeBlockCount))
	}

	if req.NeedsFileLineRefs {
		base -= 15
		reasoning = append(reasoning, "requires file:line precision (-15 points)")
	}

	if req.NoPlaceholders {
		base -= 10
		reasoning = append(reasoning, "no placeholders allowed (-10 points)")
	}

	if base < 0 {
		base = 0
	}
	if base > 100 {
		base = 100
	}

	if len(reasoning) == 0 {
		reasoning = []string{"no penalties"}
	}

	return base, reasoning
}
