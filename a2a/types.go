// Package a2a implements the in-process agent-to-agent message bus: named
// agents with capabilities exchange A2AMessages through per-agent queues,
// with correlation-id futures for request/response and broadcast delivery.
package a2a

import (
	"context"
	"time"
)

// MessageType classifies an A2AMessage's intent.
type MessageType string

const (
	Query          MessageType = "query"
	Response       MessageType = "response"
	Command        MessageType = "command"
	Event          MessageType = "event"
	Clarification  MessageType = "clarification"
	Recommendation MessageType = "recommendation"
)

// Priority orders message handling hints; the bus does not reorder queues
// by priority, and each agent's queue is delivered in FIFO order.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

// BroadcastRecipient is the sentinel to_agent value that fans a message
// out to every registered agent except the sender.
const BroadcastRecipient = "broadcast"

// Message is the wire shape exchanged over the bus. correlation_id
// defaults to message_id when unset; a Response must carry the original
// message's correlation_id.
type Message struct {
	MessageID     string                 `json:"message_id"`
	FromAgent     string                 `json:"from_agent"`
	ToAgent       string                 `json:"to_agent"`
	Type          MessageType            `json:"message_type"`
	Payload       map[string]interface{} `json:"payload"`
	CorrelationID string                 `json:"correlation_id"`
	ReplyTo       string                 `json:"reply_to,omitempty"`
	Priority      Priority               `json:"priority"`
	Context       map[string]interface{} `json:"context,omitempty"`
	TTLSeconds    int                    `json:"ttl,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// AgentRegistration is the record the bus holds for a registered agent.
// The bus has exclusive ownership of the agent's inbound queue.
type AgentRegistration struct {
	AgentID      string
	AgentType    string
	Capabilities []string
	Handler      Handler
}

// Handler processes one inbound Message. It is expected to call
// MessageBus.SendResponse for Query/Command messages that warrant a
// reply. A handler that panics or returns an error is caught by
// StartListener; the bus never lets a handler failure crash the loop.
type Handler func(ctx context.Context, msg Message) error

// AgentInfo is the read-only view returned by GetAgentInfo/GetAllAgents.
type AgentInfo struct {
	AgentID      string
	AgentType    string
	Capabilities []string
	QueueDepth   int
}
