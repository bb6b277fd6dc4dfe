package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/petasbytes/research-agent/internal/runner"
	"github.com/petasbytes/research-agent/internal/telemetry"
	"github.com/petasbytes/research-agent/memory"
	"github.com/petasbytes/research-agent/tools"
	"github.com/spf13/cobra"
)

func newChatCmd(a *app) *cobra.Command {
	var fresh bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive research session (Ctrl-C to quit)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.chat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), fresh)
		},
	}
	cmd.Flags().BoolVar(&fresh, "new", false, "Ignore the saved transcript and start over")
	return cmd
}

func (a *app) chat(ctx context.Context, in io.Reader, out io.Writer, fresh bool) error {
	if a.cfg.APIKey == "" {
		return errors.New("missing ANTHROPIC_API_KEY; export it or add it to .env")
	}

	path := memory.Path(a.cfg.StateDir)
	var tr memory.Transcript
	if !fresh {
		var err error
		if tr, err = memory.Load(path); err != nil {
			a.log.Warn("failed to load saved transcript; starting over", "path", path, "err", err)
			tr = memory.Transcript{}
		}
	}
	conv := tr.Params()

	r := runner.New(a.newClient(a.cfg), tools.Registry(a.toolDeps()), runner.Options{
		System:    systemPrompt,
		MaxTokens: int64(a.cfg.MaxTokens),
		Budget:    a.cfg.TokenBudget,
		Out:       out,
		Logger:    a.log,
	})
	model := anthropic.Model(a.cfg.Model)

	// stdin reader goroutine -> lines into channel
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	fmt.Fprintln(out, "Chat with Claude (Ctrl-C to quit)")
	if n := len(tr.Artifacts); n > 0 {
		fmt.Fprintf(out, "Resuming session; last paper: %s\n", tr.Artifacts[n-1].Path)
	}

	for {
		fmt.Fprint(out, "\u001b[94mYou\u001b[0m: ")
		var user string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nExiting...")
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				if err := <-scanErr; err != nil {
					a.log.Warn("stdin read error", "err", err)
				}
				return nil
			}
			user = l
		}
		if strings.TrimSpace(user) == "" {
			continue
		}

		turnCtx, turnID := telemetry.EnsureTurnID(ctx)
		telemetry.EmitLocalFeatures(turnCtx, user)

		start := len(conv)
		conv = append(conv, anthropic.NewUserMessage(anthropic.NewTextBlock(user)))
		var err error
		conv, err = r.RunTurn(turnCtx, model, conv)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(out, "\nExiting...")
				a.save(path, &tr, conv[start:])
				return nil
			}
			a.log.Error("turn failed", "turn_id", turnID, "err", err)
		}
		a.save(path, &tr, conv[start:])
	}
}

// save appends the text of one turn and its rendered papers to tr and writes it out.
func (a *app) save(path string, tr *memory.Transcript, turn []anthropic.MessageParam) {
	tr.Messages = append(tr.Messages, memory.FromParams(turn)...)
	now := time.Now()
	tr.AddArtifacts(now, memory.RenderedPaths(turn)...)
	tr.UpdatedAt = now.UTC()
	if err := memory.Save(path, *tr); err != nil {
		a.log.Warn("failed to save transcript", "path", path, "err", err)
	}
}
