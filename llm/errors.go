package llm

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ProvidersExhausted is raised when every provider in the fallback chain
// has failed for the current session. Attempts records the last error seen
// per provider, in fallback order.
type ProvidersExhausted struct {
	Attempts []ProviderAttempt
}

// ProviderAttempt records the outcome of the last attempt against one
// provider before it was marked failed for the session.
type ProviderAttempt struct {
	Provider string
	Err      error
}

func (e *ProvidersExhausted) Error() string {
	var sb strings.Builder
	sb.WriteString("all providers exhausted: ")
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, fmt.Sprintf("%s (%v)", a.Provider, a.Err))
	}
	sb.WriteString(strings.Join(names, "; "))
	return sb.String()
}

// Unwrap aggregates every attempt's error so errors.Is/As can still reach a
// sentinel wrapped deep in a particular provider's failure.
func (e *ProvidersExhausted) Unwrap() error {
	var merr *multierror.Error
	for _, a := range e.Attempts {
		merr = multierror.Append(merr, a.Err)
	}
	return merr.ErrorOrNil()
}
