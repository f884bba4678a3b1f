package a2a

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/delegatefabric/fabric/core"
)

const defaultQueueDepth = 64

// historyLimit bounds the optional message-history ring buffer. History is
// diagnostic only; nothing in the bus depends on it for correctness.
const historyLimit = 500

type pendingFuture struct {
	resultCh chan Message
	once     sync.Once
}

func (p *pendingFuture) resolve(msg Message) {
	p.once.Do(func() { p.resultCh <- msg })
}

type agentState struct {
	registration AgentRegistration
	queue        chan Message
	closed       bool
	done         chan struct{}
}

// MessageBus is an in-process, cooperative message bus: each registered
// agent owns a buffered inbound queue, and callers dispatch through
// Send/SendAndWait/SendResponse. Delivery is at-least-once and FIFO per
// sender/recipient pair; there is no cross-agent global ordering.
type MessageBus struct {
	mu      sync.RWMutex
	agents  map[string]*agentState
	pending map[string]*pendingFuture
	history []Message
	logger  core.Logger
}

// BusOption configures a MessageBus.
type BusOption func(*MessageBus)

// WithBusLogger attaches a logger used for handler-failure diagnostics.
func WithBusLogger(logger core.Logger) BusOption {
	return func(b *MessageBus) { b.logger = logger }
}

func NewMessageBus(opts ...BusOption) *MessageBus {
	b := &MessageBus{
		agents:  make(map[string]*agentState),
		pending: make(map[string]*pendingFuture),
		logger:  &core.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RegisterAgent adds an agent to the bus. Re-registering an id already
// present is rejected; callers must UnregisterAgent first.
func (b *MessageBus) RegisterAgent(reg AgentRegistration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, exists := b.agents[reg.AgentID]; exists && !existing.closed {
		return &DuplicateAgent{AgentID: reg.AgentID}
	}

	b.agents[reg.AgentID] = &agentState{
		registration: reg,
		queue:        make(chan Message, defaultQueueDepth),
		done:         make(chan struct{}),
	}
	b.emitAgentsRegisteredLocked()
	return nil
}

// UnregisterAgent removes an agent from lookup (FindAgentByCapability,
// GetAllAgents, Send) and signals its done channel, leaving a tombstone so
// a Receive already waiting on it observes ok=false rather than
// NotRegistered, and any sender currently blocked in enqueue gives up
// rather than delivering to a channel nobody drains. The queue itself is
// never closed, since a concurrent blocked send racing a close would
// panic. In-flight SendAndWait calls targeting this agent still time out
// normally.
func (b *MessageBus) UnregisterAgent(agentID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.agents[agentID]
	if !ok || state.closed {
		return &NotRegistered{AgentID: agentID}
	}
	state.closed = true
	close(state.done)
	b.emitAgentsRegisteredLocked()
	return nil
}

// emitAgentsRegisteredLocked reports the count of non-tombstoned agents.
// Callers must hold b.mu.
func (b *MessageBus) emitAgentsRegisteredLocked() {
	registry := core.GetGlobalMetricsRegistry()
	if registry == nil {
		return
	}
	var n float64
	for _, state := range b.agents {
		if !state.closed {
			n++
		}
	}
	registry.Gauge("a2a.agents.registered", n)
}

// Send delivers msg to msg.ToAgent, or to every other registered agent if
// ToAgent is BroadcastRecipient. CorrelationID defaults to MessageID when
// unset. MessageID and Timestamp are assigned if zero-valued. On a full
// recipient queue, Send blocks until room frees up, the recipient is
// unregistered, or ctx is done.
func (b *MessageBus) Send(ctx context.Context, msg Message) error {
	msg = b.normalize(msg)

	if msg.ToAgent == BroadcastRecipient {
		b.mu.RLock()
		targets := make([]*agentState, 0, len(b.agents))
		for id, state := range b.agents {
			if id == msg.FromAgent || state.closed {
				continue
			}
			targets = append(targets, state)
		}
		b.mu.RUnlock()

		for _, state := range targets {
			if err := b.enqueue(ctx, state, msg); err != nil {
				return err
			}
		}
		b.recordHistory(msg)
		b.emitMessageSent(msg)
		return nil
	}

	b.mu.RLock()
	state, ok := b.agents[msg.ToAgent]
	b.mu.RUnlock()
	if !ok || state.closed {
		return &UnknownRecipient{AgentID: msg.ToAgent}
	}

	if err := b.enqueue(ctx, state, msg); err != nil {
		return err
	}
	b.recordHistory(msg)
	b.emitMessageSent(msg)
	return nil
}

func (b *MessageBus) emitMessageSent(msg Message) {
	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Counter("a2a.messages.sent", "message_type", string(msg.Type))
	}
}

// SendAndWait sends msg and blocks until a Response carrying the same
// correlation_id arrives, the caller's context is cancelled, or timeout
// elapses. timeout bounds both the enqueue (if the recipient's queue is
// full) and the subsequent wait for a response.
func (b *MessageBus) SendAndWait(ctx context.Context, msg Message, timeout time.Duration) (Message, error) {
	msg = b.normalize(msg)

	future := &pendingFuture{resultCh: make(chan Message, 1)}
	b.mu.Lock()
	b.pending[msg.CorrelationID] = future
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, msg.CorrelationID)
		b.mu.Unlock()
	}()

	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := b.Send(deadlineCtx, msg); err != nil {
		return Message{}, b.waitError(ctx, deadlineCtx, msg.ToAgent, msg.CorrelationID, timeout, err)
	}

	select {
	case resp := <-future.resultCh:
		return resp, nil
	case <-deadlineCtx.Done():
		return Message{}, b.waitError(ctx, deadlineCtx, msg.ToAgent, msg.CorrelationID, timeout, deadlineCtx.Err())
	}
}

// waitError returns the caller's own cancellation error when ctx is done,
// a Timeout when deadlineCtx has expired, and err as-is otherwise (e.g. a
// recipient-unregistered error from enqueue).
func (b *MessageBus) waitError(ctx, deadlineCtx context.Context, toAgent, correlationID string, timeout time.Duration, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if deadlineCtx.Err() != nil {
		timeoutErr := &Timeout{CorrelationID: correlationID, Timeout: timeout.String()}
		if registry := core.GetGlobalMetricsRegistry(); registry != nil {
			registry.Counter("a2a.send_and_wait.timeouts", "to_agent", toAgent)
		}
		return timeoutErr
	}
	return err
}

// SendResponse replies to original, inheriting its correlation_id and
// setting reply_to to the original message's id. If a pending
// SendAndWait future is registered for that correlation_id it is resolved
// directly instead of being placed on the recipient's queue.
func (b *MessageBus) SendResponse(ctx context.Context, original Message, payload map[string]interface{}) error {
	resp := Message{
		MessageID:     uuid.New().String(),
		FromAgent:     original.ToAgent,
		ToAgent:       original.FromAgent,
		Type:          Response,
		Payload:       payload,
		CorrelationID: original.CorrelationID,
		ReplyTo:       original.MessageID,
		Priority:      original.Priority,
		Timestamp:     time.Now().UTC(),
	}

	b.mu.Lock()
	future, hasFuture := b.pending[resp.CorrelationID]
	b.mu.Unlock()

	if hasFuture {
		future.resolve(resp)
		b.recordHistory(resp)
		return nil
	}

	return b.Send(ctx, resp)
}

// Receive blocks until a message arrives for agentID or the agent is
// unregistered, in which case ok is false. Messages already buffered
// before an unregister are still delivered.
func (b *MessageBus) Receive(ctx context.Context, agentID string) (msg Message, ok bool, err error) {
	b.mu.RLock()
	state, exists := b.agents[agentID]
	b.mu.RUnlock()
	if !exists {
		return Message{}, false, &NotRegistered{AgentID: agentID}
	}

	select {
	case msg := <-state.queue:
		return msg, true, nil
	case <-state.done:
		select {
		case msg := <-state.queue:
			return msg, true, nil
		default:
			return Message{}, false, nil
		}
	case <-ctx.Done():
		return Message{}, false, ctx.Err()
	}
}

// StartListener runs agentID's receive -> handler loop until ctx is
// cancelled or the agent is unregistered. A handler panic or error is
// caught, logged, and (for Query/Command messages) translated into an
// error Response instead of propagating.
func (b *MessageBus) StartListener(ctx context.Context, agentID string) error {
	b.mu.RLock()
	state, exists := b.agents[agentID]
	b.mu.RUnlock()
	if !exists {
		return &NotRegistered{AgentID: agentID}
	}

	for {
		msg, open, err := b.Receive(ctx, agentID)
		if err != nil {
			return err
		}
		if !open {
			return nil
		}
		b.dispatch(ctx, state, msg)
	}
}

func (b *MessageBus) dispatch(ctx context.Context, state *agentState, msg Message) {
	handlerErr := b.invokeHandler(ctx, state.registration.Handler, msg)
	if handlerErr == nil {
		return
	}

	b.logger.Error("a2a handler failed", map[string]interface{}{
		"agent_id":   state.registration.AgentID,
		"message_id": msg.MessageID,
		"error":      handlerErr.Error(),
	})

	if msg.Type != Query && msg.Type != Command {
		return
	}
	_ = b.SendResponse(ctx, msg, map[string]interface{}{
		"error": handlerErr.Error(),
	})
}

func (b *MessageBus) invokeHandler(ctx context.Context, handler Handler, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("a2a: handler panic: %v\n%s", r, debug.Stack())
		}
	}()
	if handler == nil {
		return nil
	}
	return handler(ctx, msg)
}

// FindAgentByCapability returns every registered agent advertising the
// given capability.
func (b *MessageBus) FindAgentByCapability(capability string) []AgentInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []AgentInfo
	for _, state := range b.agents {
		if state.closed {
			continue
		}
		for _, c := range state.registration.Capabilities {
			if c == capability {
				out = append(out, b.infoLocked(state))
				break
			}
		}
	}
	return out
}

// GetAgentInfo returns the registration info for one agent.
func (b *MessageBus) GetAgentInfo(agentID string) (AgentInfo, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	state, ok := b.agents[agentID]
	if !ok || state.closed {
		return AgentInfo{}, false
	}
	return b.infoLocked(state), true
}

// GetAllAgents returns info for every registered agent.
func (b *MessageBus) GetAllAgents() []AgentInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]AgentInfo, 0, len(b.agents))
	for _, state := range b.agents {
		if state.closed {
			continue
		}
		out = append(out, b.infoLocked(state))
	}
	return out
}

func (b *MessageBus) infoLocked(state *agentState) AgentInfo {
	return AgentInfo{
		AgentID:      state.registration.AgentID,
		AgentType:    state.registration.AgentType,
		Capabilities: state.registration.Capabilities,
		QueueDepth:   len(state.queue),
	}
}

// History returns a snapshot of the most recent messages seen by the bus,
// most-recent-last. This is a diagnostic aid only, not part of the
// delivery contract.
func (b *MessageBus) History() []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Message, len(b.history))
	copy(out, b.history)
	return out
}

func (b *MessageBus) normalize(msg Message) Message {
	if msg.MessageID == "" {
		msg.MessageID = uuid.New().String()
	}
	if msg.CorrelationID == "" {
		msg.CorrelationID = msg.MessageID
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return msg
}

// enqueue blocks until msg fits on state.queue, the recipient is
// unregistered, or ctx is done.
func (b *MessageBus) enqueue(ctx context.Context, state *agentState, msg Message) error {
	start := time.Now()
	defer func() {
		if registry := core.GetGlobalMetricsRegistry(); registry != nil {
			registry.Histogram("a2a.enqueue.wait_ms", float64(time.Since(start).Milliseconds()), "to_agent", msg.ToAgent)
		}
	}()

	select {
	case state.queue <- msg:
		return nil
	case <-state.done:
		return &UnknownRecipient{AgentID: msg.ToAgent}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *MessageBus) recordHistory(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, msg)
	if len(b.history) > historyLimit {
		b.history = b.history[len(b.history)-historyLimit:]
	}
}
