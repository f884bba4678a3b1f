package routing

// ModelCapability is the immutable matrix referenced (not mutated) by the
// router's escalation path.
type ModelCapability struct {
	Strengths               []string
	Weaknesses               []string
	MaxEffectiveContextBytes int
	QualityCeiling           int
}

// modelCapabilities catalogs strengths/weaknesses per provider tier, keyed
// by the tier name used in this fabric's llm provider registry.
var modelCapabilities = map[string]ModelCapability{
	"fast-cheap": {
		Strengths:                []string{"code_generation_simple", "documentation", "async_code"},
		Weaknesses:                []string{"code_audit", "large_context", "file_line_precision"},
		MaxEffectiveContextBytes: 50_000,
		QualityCeiling:           70,
	},
	"balanced": {
		Strengths:                []string{"code_generation_complex", "reasoning", "async_code"},
		Weaknesses:                []string{"code_audit", "embedded_code_analysis"},
		MaxEffectiveContextBytes: 100_000,
		QualityCeiling:           75,
	},
	"premium": {
		Strengths:                []string{"code_audit", "code_review", "analytical_tasks", "file_line_precision", "large_context"},
		Weaknesses:                []string{"cost"},
		MaxEffectiveContextBytes: 200_000,
		QualityCeiling:           95,
	},
}

var defaultCapability = ModelCapability{
	MaxEffectiveContextBytes: 50_000,
	QualityCeiling:           70,
}

// ModelCapabilities returns the capability entry for a provider tier, or a
// conservative default when the tier is unknown.
func ModelCapabilities(tier string) ModelCapability {
	if c, ok := modelCapabilities[tier]; ok {
		return c
	}
	return defaultCapability
}
