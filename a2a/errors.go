package a2a

import "fmt"

// Timeout is raised by SendAndWait when no matching Response arrives
// before the deadline. The pending future is removed before the error is
// returned.
type Timeout struct {
	CorrelationID string
	Timeout       string
}

func (e *Timeout) Error() string {
	return fmt.Sprintf("a2a: timed out after %s waiting for response to %s", e.Timeout, e.CorrelationID)
}

// UnknownRecipient is raised by Send/SendAndWait when to_agent names an
// agent that is not currently registered (and is not the broadcast
// sentinel).
type UnknownRecipient struct {
	AgentID string
}

func (e *UnknownRecipient) Error() string {
	return fmt.Sprintf("a2a: unknown recipient agent %q", e.AgentID)
}

// DuplicateAgent is raised by RegisterAgent when agent_id is already
// registered.
type DuplicateAgent struct {
	AgentID string
}

func (e *DuplicateAgent) Error() string {
	return fmt.Sprintf("a2a: agent %q is already registered", e.AgentID)
}

// NotRegistered is raised by UnregisterAgent/Receive/StartListener for an
// agent_id the bus has no record of.
type NotRegistered struct {
	AgentID string
}

func (e *NotRegistered) Error() string {
	return fmt.Sprintf("a2a: agent %q is not registered", e.AgentID)
}
