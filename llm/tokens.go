package llm

import (
	"sync"

	"github.com/delegatefabric/fabric/core"
	"github.com/pkoukk/tiktoken-go"
)

// encodingCache memoizes tiktoken encodings by name; building one is
// expensive enough to matter on the hot path of every Call.
var (
	encodingMu    sync.Mutex
	encodingCache = map[string]*tiktoken.Tiktoken{}
)

// estimateTokens counts tokens in text using the named tiktoken encoding
// when available, falling back to the len(text)/4 heuristic otherwise.
// session.Monitor.Track uses the plain heuristic directly rather than this
// function: it has no provider descriptor to source an encoding name from.
func estimateTokens(text, encodingName string) int {
	if encodingName == "" {
		return fallbackTokenCount(text)
	}

	encodingMu.Lock()
	enc, ok := encodingCache[encodingName]
	encodingMu.Unlock()

	if !ok {
		built, err := tiktoken.GetEncoding(encodingName)
		if err != nil {
			return fallbackTokenCount(text)
		}
		encodingMu.Lock()
		encodingCache[encodingName] = built
		encodingMu.Unlock()
		enc = built
	}

	return len(enc.Encode(text, nil, nil))
}

// fallbackTokenCount is the len(text)/4 heuristic used when no tiktoken
// encoding is registered for a provider's model.
func fallbackTokenCount(text string) int {
	return len(text) / 4
}

// tokenUsageFor sizes a prompt/completion pair for cost accounting, using
// the tiktoken-go encoding named by encodingName when the provider
// declares one, and the length/4 heuristic otherwise.
func tokenUsageFor(prompt, completion, encodingName string) core.TokenUsage {
	in := estimateTokens(prompt, encodingName)
	out := estimateTokens(completion, encodingName)
	return core.TokenUsage{
		PromptTokens:     in,
		CompletionTokens: out,
		TotalTokens:      in + out,
	}
}
