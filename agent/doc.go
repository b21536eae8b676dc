// Package agent runs a tool-calling conversation loop over any relay.ChatProvider.
//
// An agent has a name, optional instructions sent as the leading system
// message, a tool registry and a function-invocation policy. Each run streams
// a model response; if the model requests tools they are executed and their
// results fed back until the model answers without tool calls.
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("get_weather", "Get current weather", weatherFn),
//	)
//	a := agent.New(client, "forecaster", "You answer weather questions.",
//	    agent.WithTools(registry),
//	    agent.WithMaxIterations(5),
//	)
//	result, err := a.Ask(ctx, "Do I need an umbrella in Shenzhen?")
//
// # Function Invocation
//
// The policy is an [Invocation]:
//
//   - Enabled: execute tool calls automatically (default true)
//   - MaxIterations: round trips that may use tools (default 10)
//   - ParallelToolCalls: run calls from one response concurrently (default true)
//   - HandlerTimeout: per-handler deadline (default 30s)
//   - IncludeDetailedErrors: send handler error text to the model (default false)
//
// When MaxIterations is spent the agent makes one final call with tool
// choice "none" so the model must answer from what it has.
//
// # Streaming Events
//
// RunStream emits step, delta, tool and completion events:
//
//	for ev := range a.RunStream(ctx, messages) {
//	    if ev.Type == agent.EventStreamDelta {
//	        fmt.Print(ev.Delta)
//	    }
//	}
package agent
