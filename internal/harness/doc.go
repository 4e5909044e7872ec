// Package harness runs YAML scenarios against a strictflux application and
// compares the resulting dispatch trace with golden files.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario checks"
//	steps:
//	  - dispatch: {type: TODO_ADD, source: VIEW_ACTION, payload: {title: milk}}
//	  - call: TodoActions.toggle
//	    args: [{id: t1}]
//	  - call: TodoActions.add
//	    args: [{title: ""}]
//	    error: INVALID_PAYLOAD
//	expect:
//	  - store: StatsStore
//	    method: stats
//	    value: {total: 1, completed: 1, remaining: 0}
//	  - error: INVALID_PAYLOAD
//
// A dispatch step sends an action straight to the dispatcher. A call step
// invokes an action creator method ("Creator.method") with args. A step that
// sets error must fail with that code; any other step must succeed.
//
// Expectations run after all steps. A store expectation calls a public store
// method and compares the thawed result with value. An error expectation
// checks that some step failed with the code.
//
// # Error Codes
//
// Dispatcher errors use their DispatchError code (CYCLIC_DEPENDENCY,
// DISPATCH_IN_PROGRESS, ...). Other library errors map to INVALID_PAYLOAD,
// UNKNOWN_METHOD, MUTABLE_LEAK, UNFREEZABLE and HANDLER_PANIC. Applications
// add their own codes by implementing ErrorCoder. Anything else is ERROR.
//
// # Deterministic Traces
//
// Each run builds a fresh application with dispatch IDs from
// testutil.SequenceGenerator, so the same scenario always yields the same
// trace. Timings are left out of the trace.
package harness
