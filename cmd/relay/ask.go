package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/agent"
	"github.com/spetersoncode/relay/tool"
	"github.com/spf13/cobra"
)

const askInstructions = `You are a concise assistant. Use the available tools when a question
depends on the current date or time. Answer in the language of the question.`

// timeArgs are the arguments of the current_time tool.
type timeArgs struct {
	Timezone string `json:"timezone" desc:"IANA timezone such as Asia/Shanghai; empty means UTC"`
}

func currentTime(now func() time.Time) tool.Registration {
	return tool.Func("current_time", "Get the current date and time", func(ctx context.Context, args timeArgs) (string, error) {
		loc := time.UTC
		if args.Timezone != "" {
			var err error
			if loc, err = time.LoadLocation(args.Timezone); err != nil {
				return "", fmt.Errorf("unknown timezone %q", args.Timezone)
			}
		}
		return now().In(loc).Format(time.RFC1123Z), nil
	})
}

func newAskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question with an agent that can call tools",
		Long: `Answer a question with an agent that can call built-in tools.

The agent streams its answer to stdout. With --show-tools each tool call
and result is reported on stderr.

Examples:
  relay ask "What day of the week is it in Chengdu?"
  relay ask --max-iterations 2 --show-tools "How long until midnight UTC?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, a, args)
		},
	}
	cmd.Flags().String("instructions", askInstructions, "agent instructions")
	cmd.Flags().Int("max-iterations", 5, "tool-calling round trips before a final answer")
	cmd.Flags().Bool("no-tools", false, "run without tools")
	cmd.Flags().Bool("show-tools", false, "report tool calls on stderr")
	cmd.Flags().Bool("detailed-errors", false, "send tool error text to the model")
	return cmd
}

func runAsk(cmd *cobra.Command, a *app, args []string) error {
	question, err := readPrompt(cmd, args)
	if err != nil {
		return err
	}
	client, err := a.client()
	if err != nil {
		return err
	}

	instructions, _ := cmd.Flags().GetString("instructions")
	maxIter, _ := cmd.Flags().GetInt("max-iterations")
	noTools, _ := cmd.Flags().GetBool("no-tools")
	showTools, _ := cmd.Flags().GetBool("show-tools")
	detailed, _ := cmd.Flags().GetBool("detailed-errors")

	opts := []agent.Option{
		agent.WithMaxIterations(maxIter),
		agent.WithDetailedErrors(detailed),
		agent.WithLogger(a.logger),
	}
	if !noTools {
		opts = append(opts, agent.WithTools(tool.NewRegistry().Add(currentTime(time.Now))))
	}
	ag := client.AsAgent("relay", instructions, opts...)

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	var result *agent.Result
	var last string
	for ev := range ag.RunStream(cmd.Context(), []ai.Message{ai.NewUserMessage(question)}) {
		switch ev.Type {
		case agent.EventStreamDelta:
			fmt.Fprint(out, ev.Delta)
			last = ev.Delta
		case agent.EventToolCallRequested:
			if showTools {
				fmt.Fprintf(errOut, "-> %s %s\n", ev.ToolCall.Name, ev.ToolCall.Arguments)
			}
		case agent.EventToolResult:
			if showTools {
				fmt.Fprintf(errOut, "<- %s %s\n", ev.ToolCall.Name, ev.ToolResult.Content)
			}
		case agent.EventAgentComplete:
			result = ev.Result
		case agent.EventError:
			return ev.Error
		}
	}
	if !strings.HasSuffix(last, "\n") && (isTerminal(out) || last != "") {
		fmt.Fprintln(out)
	}

	if result != nil && result.Termination != agent.TerminationComplete {
		a.logger.Info("agent stopped early", "reason", result.Termination, "steps", result.Steps)
	}
	return nil
}
