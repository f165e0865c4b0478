package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/jmap/api"
	"pkt.systems/jmap/client"
	"pkt.systems/jmap/codec"
	"pkt.systems/jmap/dispatch"
	"pkt.systems/jmap/internal/version"
	"pkt.systems/jmap/methods"
	"pkt.systems/jmap/request"
)

type sessionView struct {
	Username     string            `json:"username" yaml:"username"`
	APIURL       string            `json:"apiUrl" yaml:"apiUrl"`
	State        string            `json:"state" yaml:"state"`
	Accounts     map[string]string `json:"accounts" yaml:"accounts"`
	Primary      map[string]string `json:"primaryAccounts" yaml:"primaryAccounts"`
	Capabilities []string          `json:"capabilities" yaml:"capabilities"`
	Limits       map[string]string `json:"limits,omitempty" yaml:"limits,omitempty"`
}

func newSessionCommand(cfg *cliConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Fetch and print the session descriptor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := cfg.newClient()
			if err != nil {
				return err
			}
			sess, err := cli.Session(cmd.Context())
			if err != nil {
				return err
			}
			view := sessionView{
				Username:     sess.Username,
				APIURL:       sess.APIURL,
				State:        sess.State,
				Accounts:     make(map[string]string, len(sess.Accounts)),
				Primary:      sess.PrimaryAccounts,
				Capabilities: sess.CapabilityURNs(),
			}
			for id, acct := range sess.Accounts {
				view.Accounts[id] = acct.Name
			}
			if core, err := sess.Core(); err == nil {
				view.Limits = map[string]string{
					"maxSizeUpload":         humanizeBytes(core.MaxSizeUpload),
					"maxSizeRequest":        humanizeBytes(core.MaxSizeRequest),
					"maxConcurrentUpload":   fmt.Sprint(core.MaxConcurrentUpload),
					"maxConcurrentRequests": fmt.Sprint(core.MaxConcurrentRequests),
					"maxCallsInRequest":     fmt.Sprint(core.MaxCallsInRequest),
					"maxObjectsInGet":       fmt.Sprint(core.MaxObjectsInGet),
					"maxObjectsInSet":       fmt.Sprint(core.MaxObjectsInSet),
				}
			} else {
				cfg.logger.Warn("cli.session.core.error", "error", err)
			}
			return cfg.render(cmd.OutOrStdout(), view)
		},
	}
}

func newEchoCommand(cfg *cliConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "echo [json]",
		Short: "Round-trip a JSON object through Core/echo",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := map[string]any{"hello": "world"}
			if len(args) == 1 {
				parsed, err := parseObject(cmd.InOrStdin(), args[0])
				if err != nil {
					return err
				}
				data = parsed
			}
			cli, err := cfg.newClient()
			if err != nil {
				return err
			}
			resp, err := client.CallAs[*methods.CoreEchoResponse](cmd.Context(), cli, methods.CoreEcho{Data: data})
			if err != nil {
				return err
			}
			return cfg.render(cmd.OutOrStdout(), resp.Data)
		},
	}
}

// resultView is one response triple as printed by call.
type resultView struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Response any    `json:"response" yaml:"response"`
}

func newCallCommand(cfg *cliConfig) *cobra.Command {
	var using []string
	var strict bool
	cmd := &cobra.Command{
		Use:   "call <Type/method> [json|-]",
		Short: "Call any JMAP method and print the decoded responses",
		Long: `Call sends one method call. The arguments are a JSON object given inline or
read from stdin with "-". The session's primary account is added as accountId
unless the arguments or --account name one.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if !strings.Contains(name, "/") {
				return fmt.Errorf("method name %q must look like Type/method", name)
			}
			data := map[string]any{}
			if len(args) == 2 {
				parsed, err := parseObject(cmd.InOrStdin(), args[1])
				if err != nil {
					return err
				}
				data = parsed
			}
			cli, err := cfg.newClient()
			if err != nil {
				return err
			}
			var opts []client.RequestOption
			if strict {
				opts = append(opts, client.Strict())
			}
			call := methods.Custom{Name: name, Using: using, Data: data}
			results, err := cli.Request(cmd.Context(), []request.Method{call}, opts...)
			if err != nil {
				return err
			}
			views, err := renderResults(results)
			if err != nil {
				return err
			}
			return cfg.render(cmd.OutOrStdout(), views)
		},
	}
	cmd.Flags().StringSliceVar(&using, "using", nil, "capability URNs the method needs (repeatable)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any response is a method error")
	return cmd
}

func renderResults(results []dispatch.InvocationResponse) ([]resultView, error) {
	views := make([]resultView, 0, len(results))
	for _, res := range results {
		view := resultView{ID: res.ID, Name: res.Response.MethodName()}
		switch r := res.Response.(type) {
		case *dispatch.Passthrough:
			view.Response = r.Data
		default:
			encoded, _, err := codec.EncodeValue(r)
			if err != nil {
				return nil, fmt.Errorf("render %s: %w", view.Name, err)
			}
			view.Response = encoded
		}
		views = append(views, view)
	}
	return views, nil
}

func newEventsCommand(cfg *cliConfig) *cobra.Command {
	var types []string
	var closeAfterState bool
	var ping int
	var lastEventID string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream push state changes as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			es := client.EventSourceConfig{Types: types, Ping: ping, CloseAfter: client.CloseAfterNo}
			if closeAfterState {
				es.CloseAfter = client.CloseAfterState
			}
			opts := []client.Option{client.WithEventSource(es)}
			if lastEventID != "" {
				opts = append(opts, client.WithLastEventID(lastEventID))
			}
			cli, err := cfg.newClient(opts...)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			stream, err := cli.Events(ctx)
			if err != nil {
				return err
			}
			go func() {
				<-ctx.Done()
				_ = stream.Close()
			}()
			defer stream.Close()
			enc := json.NewEncoder(cmd.OutOrStdout())
			for {
				ev, err := stream.Next()
				if err != nil {
					if errors.Is(err, io.EOF) || ctx.Err() != nil {
						return nil
					}
					return err
				}
				if err := enc.Encode(eventLine(ev)); err != nil {
					return err
				}
			}
		},
	}
	cmd.Flags().StringSliceVar(&types, "types", nil, "type names to follow (default all)")
	cmd.Flags().BoolVar(&closeAfterState, "close-after-state", false, "ask the server to close after the first state event")
	cmd.Flags().IntVar(&ping, "ping", 0, "keepalive ping interval in seconds (0 disables)")
	cmd.Flags().StringVar(&lastEventID, "last-event-id", "", "resume after this event id")
	return cmd
}

type eventView struct {
	ID      string                   `json:"id,omitempty"`
	Changed map[string]api.TypeState `json:"changed"`
}

func eventLine(ev api.Event) eventView {
	return eventView{ID: ev.ID, Changed: ev.Data.Changed}
}

func newVersionCommand(cfg *cliConfig) *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", version.Module(), version.Current())
				return err
			}
			return cfg.render(cmd.OutOrStdout(), version.Read())
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only module and version")
	return cmd
}

// parseObject decodes a JSON object from arg, or from in when arg is "-".
func parseObject(in io.Reader, arg string) (map[string]any, error) {
	var data []byte
	if arg == "-" {
		if in == nil {
			in = os.Stdin
		}
		raw, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("read arguments: %w", err)
		}
		data = raw
	} else {
		data = []byte(arg)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
