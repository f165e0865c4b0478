package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"pkt.systems/pslog"

	"pkt.systems/jmap/client"
	"pkt.systems/jmap/internal/loggingutil"
)

const (
	defaultConfigDir      = ".jmapc"
	defaultConfigFileName = "config.yaml"

	outputJSON = "json"
	outputYAML = "yaml"
)

func submain(ctx context.Context) int {
	baseLogger := pslog.LoggerFromEnv(
		pslog.WithEnvPrefix("JMAPC_LOG_"),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured, MinLevel: pslog.WarnLevel}),
		pslog.WithEnvWriter(os.Stderr),
	).With("app", "jmapc")
	cmd := newRootCommand(baseLogger)
	ctx = withSignalCancel(ctx)
	if _, err := cmd.ExecuteContextC(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "%s\n", err)
		}
		return 1
	}
	return 0
}

func withSignalCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signals)
	}()
	return ctx
}

// cliConfig resolves flags, JMAPC_* environment variables and the optional
// config file, in that order of precedence.
type cliConfig struct {
	v          *viper.Viper
	baseLogger pslog.Logger
	logger     pslog.Logger
	closers    []io.Closer
}

func newRootCommand(baseLogger pslog.Logger) *cobra.Command {
	cfg := &cliConfig{v: viper.New(), baseLogger: loggingutil.EnsureLogger(baseLogger)}
	cmd := &cobra.Command{
		Use:           "jmapc",
		Short:         "jmapc talks to JMAP mail servers",
		SilenceErrors: true,
		SilenceUsage:  true,
		Example: `
  # Inspect the session of a Fastmail account
  JMAPC_TOKEN=fmu1-... jmapc --endpoint api.fastmail.com session

  # Round-trip Core/echo
  jmapc echo '{"hello":"world"}'

  # Call any method; the primary account is filled in
  jmapc call Mailbox/get '{"ids":null}' --using urn:ietf:params:jmap:mail

  # Follow push notifications for emails and mailboxes
  jmapc events --types Email,Mailbox
`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			cfg.cleanup()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("endpoint", "", "JMAP host or session URL (a bare host uses /.well-known/jmap)")
	flags.String("token", "", "bearer token")
	flags.String("token-file", "", "file holding the bearer token, reloaded when it changes")
	flags.String("user", "", "basic auth username")
	flags.String("password", "", "basic auth password")
	flags.String("account", "", "account id (default: the session's primary account)")
	flags.Duration("timeout", client.DefaultHTTPTimeout, "HTTP request timeout")
	flags.StringP("output", "o", outputJSON, "output format (json|yaml)")
	flags.String("log-level", "", "log level override (trace|debug|info|warn|error|none)")
	flags.String("config", "", "config file (default $HOME/.jmapc/config.yaml when present)")

	cfg.v.SetEnvPrefix("JMAPC")
	cfg.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.v.AutomaticEnv()
	flags.VisitAll(func(flag *pflag.Flag) {
		if err := cfg.v.BindPFlag(flag.Name, flag); err != nil {
			panic(err)
		}
	})

	cmd.AddCommand(
		newSessionCommand(cfg),
		newEchoCommand(cfg),
		newCallCommand(cfg),
		newEventsCommand(cfg),
		newVersionCommand(cfg),
	)
	return cmd
}

func (c *cliConfig) load() error {
	if _, err := c.loadConfigFile(); err != nil {
		return err
	}
	switch c.output() {
	case outputJSON, outputYAML:
	default:
		return fmt.Errorf("invalid --output %q (want json or yaml)", c.v.GetString("output"))
	}
	logger := c.baseLogger
	levelStr := strings.TrimSpace(strings.ToLower(c.v.GetString("log-level")))
	switch levelStr {
	case "":
	case "none", "disabled", "off":
		logger = loggingutil.NoopLogger()
	default:
		level, ok := pslog.ParseLevel(levelStr)
		if !ok {
			return fmt.Errorf("invalid log level %q", levelStr)
		}
		logger = logger.LogLevel(level)
	}
	c.logger = loggingutil.WithSubsystem(logger, "cli")
	return nil
}

func (c *cliConfig) loadConfigFile() (string, error) {
	cfgPath := strings.TrimSpace(c.v.GetString("config"))
	explicit := cfgPath != ""
	if cfgPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfgPath = filepath.Join(home, defaultConfigDir, defaultConfigFileName)
		}
	}
	if cfgPath == "" {
		return "", nil
	}
	expanded, err := expandPath(cfgPath)
	if err != nil {
		return "", fmt.Errorf("expand config path %q: %w", cfgPath, err)
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return "", nil
		}
		return "", fmt.Errorf("config file %q: %w", expanded, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("config file %q is a directory", expanded)
	}
	c.v.SetConfigFile(expanded)
	if err := c.v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("read config file %q: %w", expanded, err)
	}
	return expanded, nil
}

func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if len(p) == 1 {
			p = home
		} else if p[1] == '/' || p[1] == '\\' {
			p = filepath.Join(home, p[2:])
		}
	}
	return filepath.Abs(p)
}

func (c *cliConfig) output() string {
	return strings.ToLower(strings.TrimSpace(c.v.GetString("output")))
}

func (c *cliConfig) cleanup() {
	for _, closer := range c.closers {
		_ = closer.Close()
	}
	c.closers = nil
}

// newClient builds a client from the resolved configuration.
func (c *cliConfig) newClient(extra ...client.Option) (*client.Client, error) {
	endpoint := strings.TrimSpace(c.v.GetString("endpoint"))
	if endpoint == "" {
		return nil, errors.New("no endpoint configured (use --endpoint or JMAPC_ENDPOINT)")
	}
	opts := []client.Option{
		client.WithLogger(c.logger),
		client.WithHTTPTimeout(c.v.GetDuration("timeout")),
		client.WithAccountID(c.v.GetString("account")),
	}
	switch {
	case strings.TrimSpace(c.v.GetString("token-file")) != "":
		path, err := expandPath(strings.TrimSpace(c.v.GetString("token-file")))
		if err != nil {
			return nil, err
		}
		src, err := client.NewFileTokenSource(path, c.logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, src)
		opts = append(opts, client.WithTokenSource(src))
	case strings.TrimSpace(c.v.GetString("token")) != "":
		opts = append(opts, client.WithBearerToken(c.v.GetString("token")))
	case c.v.GetString("user") != "":
		opts = append(opts, client.WithBasicAuth(c.v.GetString("user"), c.v.GetString("password")))
	}
	opts = append(opts, extra...)
	return client.New(endpoint, opts...)
}

// render writes v in the configured output format.
func (c *cliConfig) render(w io.Writer, v any) error {
	if c.output() == outputYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func humanizeBytes(n int64) string {
	if n <= 0 {
		return "0B"
	}
	return strings.ReplaceAll(humanize.Bytes(uint64(n)), " ", "")
}
