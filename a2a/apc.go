package a2a

import (
	"context"
	"sort"
	"strings"

	"github.com/delegatefabric/fabric/orchestration"
)

// APC capability names advertised on the bus.
const (
	CapabilityProjectQuery       = "project_query"
	CapabilityContextCompression = "context_compression"
	CapabilityValidation         = "validation"
)

// Query subtypes the APC adapter recognizes in a Query message's payload
// under the "query_subtype" key.
const (
	QuerySubtypeProjectQuery   = "project_query"
	QuerySubtypePrepareContext = "prepare_context"
	QuerySubtypeValidateOutput = "validate_output"
)

// CommandScanProject is the Command payload's "command" value that
// triggers a project (re)scan.
const CommandScanProject = "scan_project"

// ProjectIndex is the narrow interface the APC adapter uses to answer
// project_query questions. A concrete index is built by an external
// scanner and handed to the adapter; the adapter itself never walks the
// filesystem.
type ProjectIndex interface {
	FindFilesByPattern(pattern string) []string
	FindByExport(symbol string) []string
	DependenciesOf(path string) []string
	Answer(question string) string
}

// ProjectScanner triggers (re)building a ProjectIndex, invoked by the
// scan_project command.
type ProjectScanner interface {
	Scan(ctx context.Context) (ProjectIndex, error)
}

// ContextSegment is one unit of conversational or code context considered
// for inclusion by prepare_context.
type ContextSegment struct {
	Text      string
	Role      string // "user", "assistant", "code"
	Recency   int    // 0 = most recent
	IsCode    bool
}

// APCAdapter answers project_query/prepare_context/validate_output queries
// and scan_project commands over the bus, per the worker-contract
// capability set {project_query, context_compression, validation}.
type APCAdapter struct {
	AgentID string
	index   ProjectIndex
	scanner ProjectScanner
}

func NewAPCAdapter(agentID string, scanner ProjectScanner) *APCAdapter {
	return &APCAdapter{AgentID: agentID, scanner: scanner}
}

// Registration builds the AgentRegistration to hand to
// MessageBus.RegisterAgent. The returned handler closes over bus so it can
// call SendResponse; it must be registered on that same bus.
func (a *APCAdapter) Registration(bus *MessageBus) AgentRegistration {
	return AgentRegistration{
		AgentID:   a.AgentID,
		AgentType: "apc",
		Capabilities: []string{
			CapabilityProjectQuery,
			CapabilityContextCompression,
			CapabilityValidation,
		},
		Handler: func(ctx context.Context, msg Message) error {
			return a.handle(ctx, bus, msg)
		},
	}
}

// handle dispatches an inbound message to the matching query/command
// handler and replies via bus.SendResponse.
func (a *APCAdapter) handle(ctx context.Context, bus *MessageBus, msg Message) error {
	switch msg.Type {
	case Query:
		return a.handleQuery(ctx, bus, msg)
	case Command:
		return a.handleCommand(ctx, bus, msg)
	default:
		return nil
	}
}

func (a *APCAdapter) handleQuery(ctx context.Context, bus *MessageBus, msg Message) error {
	subtype, _ := msg.Payload["query_subtype"].(string)

	var result map[string]interface{}
	switch subtype {
	case QuerySubtypeProjectQuery:
		result = a.answerProjectQuery(msg)
	case QuerySubtypePrepareContext:
		result = a.prepareContext(msg)
	case QuerySubtypeValidateOutput:
		result = a.validateOutput(msg)
	default:
		result = map[string]interface{}{"error": "unknown query_subtype: " + subtype}
	}

	if hints := contextHints(msg); len(hints) > 0 {
		result["hints"] = hints
	}
	return bus.SendResponse(ctx, msg, result)
}

// canonicalLocationHints maps a keyword found in a query's context.task to
// the file(s) a caller asking about that topic most likely wants.
var canonicalLocationHints = map[string][]string{
	"validation":   {"orchestration/hybrid.go"},
	"orchestrator": {"orchestration/smart.go", "orchestration/facade.go"},
	"test":         {"*_test.go alongside the package under discussion"},
	"routing":      {"routing/router.go"},
	"cost":         {"llm/cost_tracker.go"},
	"session":      {"session/monitor.go"},
	"bus":          {"a2a/bus.go"},
}

// contextHints detects keywords in msg.Context["task"] and returns
// task-specific hints suggesting canonical file locations, per the APC
// worker contract's context-aware recommendation behavior. A message with
// no context.task, or one whose task mentions none of the known keywords,
// yields no hints.
func contextHints(msg Message) []string {
	task, _ := msg.Context["task"].(string)
	if task == "" {
		return nil
	}

	lower := strings.ToLower(task)
	var hints []string
	for _, keyword := range []string{"validation", "orchestrator", "test", "routing", "cost", "session", "bus"} {
		if !strings.Contains(lower, keyword) {
			continue
		}
		for _, loc := range canonicalLocationHints[keyword] {
			hints = append(hints, "mentions \""+keyword+"\" — see "+loc)
		}
	}
	return hints
}

func (a *APCAdapter) handleCommand(ctx context.Context, bus *MessageBus, msg Message) error {
	command, _ := msg.Payload["command"].(string)
	if command != CommandScanProject {
		return bus.SendResponse(ctx, msg, map[string]interface{}{"error": "unknown command: " + command})
	}
	if a.scanner == nil {
		return bus.SendResponse(ctx, msg, map[string]interface{}{"error": "no project scanner configured"})
	}

	index, err := a.scanner.Scan(ctx)
	if err != nil {
		return bus.SendResponse(ctx, msg, map[string]interface{}{"error": err.Error()})
	}
	a.index = index
	return bus.SendResponse(ctx, msg, map[string]interface{}{"status": "scanned"})
}

func (a *APCAdapter) answerProjectQuery(msg Message) map[string]interface{} {
	if a.index == nil {
		return map[string]interface{}{"error": "project index not built; run scan_project first"}
	}

	operation, _ := msg.Payload["operation"].(string)
	switch operation {
	case "find_files_by_pattern":
		pattern, _ := msg.Payload["pattern"].(string)
		return map[string]interface{}{"files": a.index.FindFilesByPattern(pattern)}
	case "find_by_export":
		symbol, _ := msg.Payload["symbol"].(string)
		return map[string]interface{}{"files": a.index.FindByExport(symbol)}
	case "dependencies_of":
		path, _ := msg.Payload["path"].(string)
		return map[string]interface{}{"dependencies": a.index.DependenciesOf(path)}
	default:
		question, _ := msg.Payload["question"].(string)
		return map[string]interface{}{"answer": a.index.Answer(question)}
	}
}

// defaultContextTargetTokens bounds prepare_context's selection when the
// caller does not specify token_budget.
const defaultContextTargetTokens = 8000

// prepareContext segments the supplied conversation/code text, scores
// each segment by recency * type weight * keyword overlap with the
// target task, and greedily selects segments under the token budget.
func (a *APCAdapter) prepareContext(msg Message) map[string]interface{} {
	rawSegments, _ := msg.Payload["segments"].([]interface{})
	task, _ := msg.Payload["task"].(string)
	budget := defaultContextTargetTokens
	if b, ok := msg.Payload["token_budget"].(int); ok && b > 0 {
		budget = b
	}

	segments := decodeSegments(rawSegments)
	scored := scoreSegments(segments, task)

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	var selected []string
	used := 0
	for _, s := range scored {
		tokens := estimateTokens(s.segment.Text)
		if used+tokens > budget {
			continue
		}
		selected = append(selected, s.segment.Text)
		used += tokens
	}

	return map[string]interface{}{
		"compressed_context": strings.Join(selected, "\n\n"),
		"segments_selected":  len(selected),
		"segments_total":     len(segments),
		"estimated_tokens":   used,
	}
}

func decodeSegments(raw []interface{}) []ContextSegment {
	segments := make([]ContextSegment, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		text, _ := m["text"].(string)
		role, _ := m["role"].(string)
		isCode := role == "code" || strings.Contains(text, "```")
		segments = append(segments, ContextSegment{
			Text:    text,
			Role:    role,
			Recency: i,
			IsCode:  isCode,
		})
	}
	return segments
}

type scoredSegment struct {
	segment ContextSegment
	score   float64
}

func scoreSegments(segments []ContextSegment, task string) []scoredSegment {
	keywords := keywordSet(task)

	out := make([]scoredSegment, 0, len(segments))
	for _, s := range segments {
		recencyWeight := 1.0 / float64(s.Recency+1)

		typeWeight := 1.0
		if s.IsCode {
			typeWeight = 1.5
		}

		overlap := keywordOverlap(s.Text, keywords)

		out = append(out, scoredSegment{segment: s, score: recencyWeight * typeWeight * (1 + overlap)})
	}
	return out
}

func keywordSet(task string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(task)) {
		if len(word) > 3 {
			set[word] = true
		}
	}
	return set
}

func keywordOverlap(text string, keywords map[string]bool) float64 {
	if len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for word := range keywords {
		if strings.Contains(lower, word) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

// estimateTokens is prepareContext's own len(text)/4 heuristic, separate
// from llm's token estimator: the APC adapter has no provider descriptor to
// source a tiktoken encoding from.
func estimateTokens(text string) int {
	return len(text) / 4
}

func (a *APCAdapter) validateOutput(msg Message) map[string]interface{} {
	text, _ := msg.Payload["text"].(string)
	task, _ := msg.Payload["task"].(string)

	requirements := make(map[string]string)
	if raw, ok := msg.Payload["requirements"].(map[string]interface{}); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				requirements[k] = s
			}
		}
	}

	report := orchestration.ValidateText(text, task, requirements)
	return map[string]interface{}{
		"score":        report.Score,
		"completeness": report.Completeness,
		"correctness":  report.Correctness,
		"production":   report.ProductionReady,
		"issues":       report.Issues,
	}
}
