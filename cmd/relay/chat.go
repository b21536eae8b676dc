package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/store"
	"github.com/spf13/cobra"
)

func newChatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Send one prompt and stream the reply",
		Long: `Send one prompt and stream the reply to stdout.

The prompt is taken from the arguments or, when none are given, from stdin.

Examples:
  relay chat "Translate 'good morning' into Cantonese"
  relay chat --system "Answer in JSON" --json "List three rivers in China"
  relay chat --session trip "Plan two days in Xi'an"
  relay chat --session trip "Now make it three"
  cat notes.txt | relay chat --profile venus-openai --model deepseek-r1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, a, args)
		},
	}
	cmd.Flags().StringP("system", "s", "", "system instructions")
	cmd.Flags().Float64P("temperature", "t", 0, "sampling temperature")
	cmd.Flags().Int("max-tokens", 0, "maximum tokens to generate")
	cmd.Flags().Bool("json", false, "request a JSON object reply")
	cmd.Flags().Bool("usage", false, "print token usage to stderr")
	cmd.Flags().String("session", "", "continue the named conversation and save the reply to it")
	cmd.Flags().String("session-dir", "", "directory for saved conversations (default $HOME/.relay/sessions)")
	return cmd
}

func runChat(cmd *cobra.Command, a *app, args []string) error {
	prompt, err := readPrompt(cmd, args)
	if err != nil {
		return err
	}
	client, err := a.client()
	if err != nil {
		return err
	}

	history, key, err := openSession(cmd)
	if err != nil {
		return err
	}

	system, _ := cmd.Flags().GetString("system")
	if system != "" && history.Len() == 0 {
		history.Append(ai.NewSystemMessage(system))
	}
	history.Append(ai.NewUserMessage(prompt))
	messages := history.Messages()

	var opts []ai.Option
	if cmd.Flags().Changed("temperature") {
		t, _ := cmd.Flags().GetFloat64("temperature")
		opts = append(opts, ai.WithTemperature(t))
	}
	if n, _ := cmd.Flags().GetInt("max-tokens"); n > 0 {
		opts = append(opts, ai.WithMaxTokens(n))
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		opts = append(opts, ai.WithJSONMode())
	}

	stream, err := client.ChatStream(cmd.Context(), messages, opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var resp *ai.Response
	var last string
	for ev := range stream {
		switch {
		case ev.Err != nil:
			return ev.Err
		case ev.Done:
			resp = ev.Response
		case ev.Delta != "":
			fmt.Fprint(out, ev.Delta)
			last = ev.Delta
		}
	}
	if resp != nil && last == "" && resp.Content != "" {
		// Some endpoints deliver JSON-mode replies only in the final response.
		fmt.Fprint(out, resp.Content)
		last = resp.Content
	}
	if !strings.HasSuffix(last, "\n") && (isTerminal(out) || last != "") {
		fmt.Fprintln(out)
	}

	if showUsage, _ := cmd.Flags().GetBool("usage"); showUsage && resp != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %d input tokens, %d output tokens\n",
			resp.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}

	if key == "" || resp == nil {
		return nil
	}
	history.Append(resp.Message())
	return history.Sync(cmd.Context(), key)
}

// openSession loads the conversation named by --session. Without the flag
// the history is in-memory and key is empty.
func openSession(cmd *cobra.Command) (*store.MessageStore, string, error) {
	key, _ := cmd.Flags().GetString("session")
	if key == "" {
		return store.NewMessageStore(nil), "", nil
	}

	dir, _ := cmd.Flags().GetString("session-dir")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, "", fmt.Errorf("finding home directory: %w", err)
		}
		dir = filepath.Join(home, ".relay", "sessions")
	}
	adapter, err := store.NewFileAdapter(dir)
	if err != nil {
		return nil, "", err
	}

	history := store.NewMessageStore(adapter)
	if err := history.Reload(cmd.Context(), key); err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		return nil, "", fmt.Errorf("loading session %q: %w", key, err)
	}
	return history, key, nil
}
