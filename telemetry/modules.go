package telemetry

// This file contains metric declarations for all modules
// It's in the telemetry package to avoid import cycles

func init() {
	// llm: per-call cost/latency/fallback accounting (§4.1)
	DeclareMetrics("llm", ModuleConfig{
		Metrics: []MetricDefinition{
			{
				Name:    "llm.call.duration_ms",
				Type:    "histogram",
				Help:    "LLM provider call latency in milliseconds",
				Labels:  []string{"provider", "model", "operation"},
				Unit:    "ms",
				Buckets: []float64{50, 100, 500, 1000, 5000, 15000},
			},
			{
				Name:   "llm.call.cost_usd",
				Type:   "histogram",
				Help:   "Recorded cost in USD for one completion call",
				Labels: []string{"provider", "model", "operation"},
			},
			{
				Name:   "llm.call.errors",
				Type:   "counter",
				Help:   "LLM provider call failures",
				Labels: []string{"provider", "operation", "retryable"},
			},
			{
				Name:   "llm.fallback.exhausted",
				Type:   "counter",
				Help:   "Calls where every provider in the fallback chain failed",
				Labels: []string{"operation"},
			},
			{
				Name:   "llm.provider.marked_failed",
				Type:   "counter",
				Help:   "A provider was marked failed for the rest of the session",
				Labels: []string{"provider"},
			},
		},
	})

	// a2a: message bus delivery (§4.6)
	DeclareMetrics("a2a", ModuleConfig{
		Metrics: []MetricDefinition{
			{
				Name:   "a2a.messages.sent",
				Type:   "counter",
				Help:   "Messages accepted by MessageBus.Send",
				Labels: []string{"message_type"},
			},
			{
				Name:    "a2a.enqueue.wait_ms",
				Type:    "histogram",
				Help:    "Time a sender spent blocked on a full recipient queue",
				Labels:  []string{"to_agent"},
				Unit:    "ms",
				Buckets: []float64{1, 10, 100, 1000, 5000},
			},
			{
				Name:   "a2a.send_and_wait.timeouts",
				Type:   "counter",
				Help:   "SendAndWait calls that hit their deadline before a response arrived",
				Labels: []string{"to_agent"},
			},
			{
				Name:   "a2a.agents.registered",
				Type:   "gauge",
				Help:   "Currently registered (non-unregistered) agents",
				Labels: []string{},
			},
		},
	})

	// orchestration: plan/assign/execute/validate pipeline (§4.3-4.5)
	DeclareMetrics("orchestration", ModuleConfig{
		Metrics: []MetricDefinition{
			{
				Name:   "orchestration.subtasks.executed",
				Type:   "counter",
				Help:   "Subtasks executed by SmartOrchestrator, by terminal status",
				Labels: []string{"status"},
			},
			{
				Name:    "orchestration.level.duration_ms",
				Type:    "histogram",
				Help:    "Wall-clock time to run one DAG execution level",
				Labels:  []string{},
				Unit:    "ms",
				Buckets: []float64{100, 500, 1000, 5000, 15000, 60000},
			},
			{
				Name:   "orchestration.routing.decisions",
				Type:   "counter",
				Help:   "Routing decisions made by the facade, by action",
				Labels: []string{"action"},
			},
			{
				Name:   "orchestration.validation.score",
				Type:   "histogram",
				Help:   "ValidationReport scores produced by the rubric",
				Labels: []string{"caller"},
			},
		},
	})

	// core.MemoryStore: the generic in-memory cache kept from the teacher
	// and still wired to core.GetGlobalMetricsRegistry() directly.
	DeclareMetrics("memory", ModuleConfig{
		Metrics: []MetricDefinition{
			{
				Name:   "memory.operations",
				Type:   "counter",
				Help:   "MemoryStore operations",
				Labels: []string{"operation", "memory_type", "result"},
			},
			{
				Name:   "memory.cache.hits",
				Type:   "counter",
				Help:   "MemoryStore cache hits",
				Labels: []string{"memory_type"},
			},
			{
				Name:   "memory.cache.misses",
				Type:   "counter",
				Help:   "MemoryStore cache misses",
				Labels: []string{"memory_type"},
			},
			{
				Name:   "memory.evictions",
				Type:   "counter",
				Help:   "MemoryStore evictions",
				Labels: []string{"memory_type", "reason"},
			},
		},
	})

	// session: context pressure and recovery (§4.8)
	DeclareMetrics("session", ModuleConfig{
		Metrics: []MetricDefinition{
			{
				Name:   "session.monitor.pressure",
				Type:   "gauge",
				Help:   "Most recent context-window pressure classification (0=normal..3=emergency)",
				Labels: []string{},
			},
			{
				Name:   "session.recovery.prepared",
				Type:   "counter",
				Help:   "PrepareRecovery calls, by whether the LLM manifest succeeded or fell back",
				Labels: []string{"outcome"},
			},
			{
				Name:   "session.checkpoint.writes",
				Type:   "counter",
				Help:   "CheckpointStore.Save calls, by whether the write was skipped as a duplicate",
				Labels: []string{"written"},
			},
		},
	})
}
