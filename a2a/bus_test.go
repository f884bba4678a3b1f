package a2a

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegisterAgentRejectsDuplicate(t *testing.T) {
	bus := NewMessageBus()
	reg := AgentRegistration{AgentID: "worker-a", AgentType: "worker"}

	if err := bus.RegisterAgent(reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := bus.RegisterAgent(reg)
	var dup *DuplicateAgent
	if !errors.As(err, &dup) {
		t.Fatalf("expected *DuplicateAgent, got %v", err)
	}
}

func TestSendRejectsUnknownRecipient(t *testing.T) {
	bus := NewMessageBus()
	err := bus.Send(context.Background(), Message{FromAgent: "a", ToAgent: "nope", Type: Event})
	var unknown *UnknownRecipient
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownRecipient, got %v", err)
	}
}

func TestSendDefaultsCorrelationIDToMessageID(t *testing.T) {
	bus := NewMessageBus()
	if err := bus.RegisterAgent(AgentRegistration{AgentID: "b"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := bus.Send(context.Background(), Message{FromAgent: "a", ToAgent: "b", Type: Event, MessageID: "m1"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok, err := bus.Receive(ctx, "b")
	if err != nil || !ok {
		t.Fatalf("receive: ok=%v err=%v", ok, err)
	}
	if msg.CorrelationID != "m1" {
		t.Errorf("CorrelationID = %q, want m1", msg.CorrelationID)
	}
}

func TestBroadcastSkipsSender(t *testing.T) {
	bus := NewMessageBus()
	for _, id := range []string{"a", "b", "c"} {
		if err := bus.RegisterAgent(AgentRegistration{AgentID: id}); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}

	if err := bus.Send(context.Background(), Message{FromAgent: "a", ToAgent: BroadcastRecipient, Type: Event}); err != nil {
		t.Fatalf("send: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, ok, err := bus.Receive(ctx, "b"); err != nil || !ok {
		t.Fatalf("expected b to receive broadcast: ok=%v err=%v", ok, err)
	}

	ctxA, cancelA := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelA()
	if _, _, err := bus.Receive(ctxA, "a"); err == nil {
		t.Error("sender should not receive its own broadcast")
	}
}

func TestSendAndWaitResolvesOnMatchingResponse(t *testing.T) {
	bus := NewMessageBus()
	if err := bus.RegisterAgent(AgentRegistration{AgentID: "responder"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		msg, ok, err := bus.Receive(ctx, "responder")
		if err != nil || !ok {
			t.Errorf("receive: ok=%v err=%v", ok, err)
			return
		}
		if err := bus.SendResponse(ctx, msg, map[string]interface{}{"answer": 42}); err != nil {
			t.Errorf("send response: %v", err)
		}
	}()

	resp, err := bus.SendAndWait(context.Background(), Message{
		FromAgent: "caller", ToAgent: "responder", Type: Query,
		Payload: map[string]interface{}{"question": "?"},
	}, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Payload["answer"] != 42 {
		t.Errorf("Payload = %v", resp.Payload)
	}
	<-done
}

func TestSendAndWaitTimesOut(t *testing.T) {
	bus := NewMessageBus()
	if err := bus.RegisterAgent(AgentRegistration{AgentID: "silent"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := bus.SendAndWait(context.Background(), Message{
		FromAgent: "caller", ToAgent: "silent", Type: Query,
	}, 50*time.Millisecond)

	var timeout *Timeout
	if !errors.As(err, &timeout) {
		t.Fatalf("expected *Timeout, got %v", err)
	}
}

func TestStartListenerHandlesQueryAndReplies(t *testing.T) {
	bus := NewMessageBus()
	handler := func(ctx context.Context, msg Message) error {
		return bus.SendResponse(ctx, msg, map[string]interface{}{"echo": msg.Payload["value"]})
	}
	if err := bus.RegisterAgent(AgentRegistration{AgentID: "echo", Handler: handler}); err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = bus.StartListener(ctx, "echo") }()
	defer cancel()

	resp, err := bus.SendAndWait(context.Background(), Message{
		FromAgent: "caller", ToAgent: "echo", Type: Query,
		Payload: map[string]interface{}{"value": "hi"},
	}, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Payload["echo"] != "hi" {
		t.Errorf("Payload = %v", resp.Payload)
	}
}

func TestStartListenerTranslatesHandlerErrorToResponse(t *testing.T) {
	bus := NewMessageBus()
	handler := func(ctx context.Context, msg Message) error {
		return errors.New("boom")
	}
	if err := bus.RegisterAgent(AgentRegistration{AgentID: "flaky", Handler: handler}); err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = bus.StartListener(ctx, "flaky") }()
	defer cancel()

	resp, err := bus.SendAndWait(context.Background(), Message{
		FromAgent: "caller", ToAgent: "flaky", Type: Command,
	}, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Payload["error"] == nil {
		t.Error("expected error payload from failed handler")
	}
}

func TestStartListenerRecoversFromHandlerPanic(t *testing.T) {
	bus := NewMessageBus()
	handler := func(ctx context.Context, msg Message) error {
		panic("unexpected")
	}
	if err := bus.RegisterAgent(AgentRegistration{AgentID: "panicky", Handler: handler}); err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = bus.StartListener(ctx, "panicky") }()
	defer cancel()

	resp, err := bus.SendAndWait(context.Background(), Message{
		FromAgent: "caller", ToAgent: "panicky", Type: Query,
	}, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Payload["error"] == nil {
		t.Error("expected error payload after handler panic")
	}
}

func TestFindAgentByCapability(t *testing.T) {
	bus := NewMessageBus()
	if err := bus.RegisterAgent(AgentRegistration{AgentID: "apc", Capabilities: []string{"project_query", "validation"}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := bus.RegisterAgent(AgentRegistration{AgentID: "other", Capabilities: []string{"validation"}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	found := bus.FindAgentByCapability("project_query")
	if len(found) != 1 || found[0].AgentID != "apc" {
		t.Errorf("found = %+v, want only apc", found)
	}
}

func TestUnregisterAgentEndsReceive(t *testing.T) {
	bus := NewMessageBus()
	if err := bus.RegisterAgent(AgentRegistration{AgentID: "temp"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := bus.UnregisterAgent("temp"); err != nil {
		t.Fatalf("unregister: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, ok, err := bus.Receive(ctx, "temp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected unregistered agent to report ok=false")
	}
}

func TestSendBlocksOnFullQueueInsteadOfDroppingOldest(t *testing.T) {
	bus := NewMessageBus()
	if err := bus.RegisterAgent(AgentRegistration{AgentID: "slow"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for i := 0; i < defaultQueueDepth; i++ {
		if err := bus.Send(context.Background(), Message{FromAgent: "caller", ToAgent: "slow", Type: Event, MessageID: string(rune('a' + i%26))}); err != nil {
			t.Fatalf("fill send %d: %v", i, err)
		}
	}

	shortCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	first, _, err := bus.Receive(context.Background(), "slow")
	if err != nil {
		t.Fatalf("peek first: %v", err)
	}
	if first.MessageID != "a" {
		t.Fatalf("expected oldest message preserved, got %q", first.MessageID)
	}

	// Queue has one free slot now; this send must succeed without blocking.
	if err := bus.Send(context.Background(), Message{FromAgent: "caller", ToAgent: "slow", Type: Event, MessageID: "fits"}); err != nil {
		t.Fatalf("send into freed slot: %v", err)
	}

	// Queue is full again: a blocked send must respect the caller's
	// deadline instead of evicting anything.
	err = bus.Send(shortCtx, Message{FromAgent: "caller", ToAgent: "slow", Type: Event, MessageID: "blocked"})
	if err == nil {
		t.Fatal("expected full queue to block the sender until the deadline")
	}
	if shortCtx.Err() == nil {
		t.Fatalf("expected context deadline to have elapsed, got err=%v", err)
	}
}
