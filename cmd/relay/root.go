package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spetersoncode/relay/compat"
	"github.com/spetersoncode/relay/middleware"
	"github.com/spetersoncode/relay/retry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// app carries state shared by all subcommands of one invocation.
type app struct {
	v      *viper.Viper
	logger *slog.Logger
	extra  []compat.Option
}

// boundFlags are persistent flags also readable from RELAY_* variables and
// the config file. Dashes become underscores in keys.
var boundFlags = []string{
	"profile", "env-file", "env-encoding", "model", "base-url",
	"instruction-role", "log-level", "retries", "rpm",
}

func newRootCmd(extra ...compat.Option) *cobra.Command {
	a := &app{v: viper.New(), extra: extra}

	root := &cobra.Command{
		Use:   "relay",
		Short: "Chat with OpenAI- and Anthropic-compatible endpoints",
		Long: `Relay resolves credentials, endpoints and models for the Hunyuan and
Venus chat services and talks to them over their OpenAI or Anthropic
compatible APIs.

Settings come from flags, RELAY_* variables and ~/.relay.yaml. Credentials
are read from <PREFIX>_API_KEY in the environment or the --env-file.

Examples:
  relay profiles
  relay config --profile venus-openai
  relay chat "Summarize the plot of Journey to the West"
  echo "What is 17 * 23?" | relay ask --profile hunyuan-anthropic`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default is $HOME/.relay.yaml)")
	pf.StringP("profile", "p", compat.HunyuanOpenAI.Name, "endpoint profile (see relay profiles)")
	pf.String("env-file", ".env", "dotenv or YAML settings file")
	pf.String("env-encoding", "", "settings file encoding, e.g. gbk (default utf-8)")
	pf.StringP("model", "m", "", "model ID override")
	pf.String("base-url", "", "endpoint override")
	pf.String("instruction-role", "", "role for system messages on OpenAI profiles (system, developer)")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")
	pf.Int("retries", 0, "retry transient failures this many times")
	pf.Int("rpm", 0, "limit requests per minute (0 is unlimited)")
	for _, name := range boundFlags {
		_ = a.v.BindPFlag(flagKey(name), pf.Lookup(name))
	}

	root.AddCommand(
		newProfilesCmd(),
		newConfigCmd(a),
		newChatCmd(a),
		newAskCmd(a),
		newVersionCmd(),
	)
	return root
}

func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func (a *app) init(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home)
		}
		a.v.SetConfigName(".relay")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix("RELAY")
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log_level"))); err != nil {
		return fmt.Errorf("invalid log level %q", a.v.GetString("log_level"))
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) profile() (compat.Profile, error) {
	name := a.v.GetString("profile")
	p, ok := compat.LookupProfile(name)
	if !ok {
		var names []string
		for _, p := range compat.Profiles() {
			names = append(names, p.Name)
		}
		return compat.Profile{}, fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(names, ", "))
	}
	return p, nil
}

func (a *app) options() []compat.Option {
	opts := []compat.Option{
		compat.WithEnvFile(a.v.GetString("env_file"), a.v.GetString("env_encoding")),
		compat.WithModel(a.v.GetString("model")),
		compat.WithBaseURL(a.v.GetString("base_url")),
		compat.WithInstructionRole(a.v.GetString("instruction_role")),
		compat.WithLogger(a.logger),
	}
	if headers := a.v.GetStringMapString("headers"); len(headers) > 0 {
		opts = append(opts, compat.WithDefaultHeaders(headers))
	}
	return append(opts, a.extra...)
}

func (a *app) middleware() []middleware.Middleware {
	mws := []middleware.Middleware{middleware.Logging(a.logger)}
	if n := a.v.GetInt("retries"); n > 0 {
		cfg := retry.DefaultConfig()
		cfg.MaxAttempts = n + 1
		mws = append(mws, middleware.RetryWithLogger(cfg, a.logger))
	}
	if n := a.v.GetInt("rpm"); n > 0 {
		mws = append(mws, middleware.RateLimit(middleware.PerMinute(n)))
	}
	return mws
}

func (a *app) client() (*compat.Client, error) {
	p, err := a.profile()
	if err != nil {
		return nil, err
	}
	opts := append(a.options(), compat.WithMiddleware(a.middleware()...))
	return compat.New(p, opts...)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// readPrompt joins args, falling back to piped stdin.
func readPrompt(cmd *cobra.Command, args []string) (string, error) {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" && !isTerminal(cmd.InOrStdin()) {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}
	if prompt == "" {
		return "", errors.New("no prompt given; pass it as an argument or on stdin")
	}
	return prompt, nil
}
