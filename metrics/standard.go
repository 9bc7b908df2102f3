package metrics

// Pre-defined metrics for the RV32IM zkVM execution-and-trace core. All
// metrics live in DefaultRegistry so they are globally accessible without
// passing a registry around.

var (
	// ---- Interpreter metrics ----

	// CyclesExecuted counts CPU cycles retired by the interpreter.
	CyclesExecuted = DefaultRegistry.Counter("runtime.cycles_executed")
	// ShardsEmitted counts shards the interpreter has closed out.
	ShardsEmitted = DefaultRegistry.Counter("runtime.shards_emitted")
	// MemoryAccesses counts memory read/write records appended to the
	// execution record.
	MemoryAccesses = DefaultRegistry.Counter("runtime.memory_accesses")
	// PrecompileInvocations counts precompile dispatches by the interpreter.
	PrecompileInvocations = DefaultRegistry.Counter("runtime.precompile_invocations")
	// RunDuration records wall-clock time spent in Runtime.Run, in
	// milliseconds.
	RunDuration = DefaultRegistry.Histogram("runtime.run_ms")
	// StepRate tracks instructions retired per second, marked once per
	// step so a long-running interpretation can be watched live via its
	// 1-/5-/15-minute rates rather than only read back after Run returns.
	StepRate = DefaultRegistry.Meter("runtime.step_rate")

	// ---- Trace generation metrics ----

	// TraceRowsGenerated counts total rows (across all chips) produced by
	// generate_traces, including padding rows.
	TraceRowsGenerated = DefaultRegistry.Counter("trace.rows_generated")
	// TraceGenDuration records wall-clock time spent generating all chip
	// traces for a shard, in milliseconds.
	TraceGenDuration = DefaultRegistry.Histogram("trace.generate_ms")
	// ChipsActive tracks how many chips produced at least one real row in
	// the most recently generated shard.
	ChipsActive = DefaultRegistry.Gauge("trace.chips_active")

	// ---- Interaction layer metrics ----

	// BusesChecked counts the number of interaction buses whose send/receive
	// multisets were checked for closure.
	BusesChecked = DefaultRegistry.Counter("interaction.buses_checked")
	// BusImbalances counts buses found not to sum to zero (debug harness
	// only; always zero in a correct build).
	BusImbalances = DefaultRegistry.Counter("interaction.bus_imbalances")

	// ---- Debug harness metrics ----

	// ConstraintViolations counts AIR assertion failures found by the debug
	// harness across all chips and rows.
	ConstraintViolations = DefaultRegistry.Counter("debug.constraint_violations")
)
