package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/petasbytes/research-agent/internal/arxiv"
	"github.com/petasbytes/research-agent/internal/config"
	"github.com/petasbytes/research-agent/internal/logging"
	"github.com/petasbytes/research-agent/internal/pdftext"
	"github.com/petasbytes/research-agent/internal/provider"
	"github.com/petasbytes/research-agent/internal/render"
	"github.com/petasbytes/research-agent/internal/telemetry"
	"github.com/petasbytes/research-agent/internal/webpage"
	"github.com/petasbytes/research-agent/tools"
	"github.com/spf13/cobra"
)

// app carries the state shared by all subcommands once the root pre-run has loaded it.
type app struct {
	cfg config.Config
	log *slog.Logger

	// Test seams.
	newClient func(cfg config.Config) *anthropic.Client
	lookPath  func(string) (string, error)
}

func newApp() *app {
	return &app{newClient: func(cfg config.Config) *anthropic.Client {
		return provider.NewAnthropicClient(cfg.APIKey)
	}}
}

type rootFlags struct {
	config    string
	outputDir string
	engine    string
	logLevel  string
	noColor   bool
}

func newRootCmd(a *app) *cobra.Command {
	var f rootFlags
	root := &cobra.Command{
		Use:   "researcher",
		Short: "Research assistant that finds papers and writes LaTeX papers as PDF",
		Long: `researcher discusses a topic with you, finds recent papers on arxiv.org,
reads them, proposes research directions and writes a LaTeX paper that it
renders to PDF with a local typesetting engine (tectonic by default).

Usage:
  researcher chat
  researcher render paper.tex
  researcher search "diffusion models"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.config, "config", config.DefaultFile, "YAML config file")
	pf.StringVar(&f.outputDir, "output-dir", "", "Directory for generated .tex and .pdf files")
	pf.StringVar(&f.engine, "engine", "", "Typesetting engine executable")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.BoolVar(&f.noColor, "no-color", os.Getenv("NO_COLOR") != "", "Disable coloured log output")

	root.AddCommand(newChatCmd(a), newRenderCmd(a), newSearchCmd(a))
	return root
}

// load assembles the configuration. Flags win over file and environment.
func (a *app) load(cmd *cobra.Command, f rootFlags) error {
	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if flags.Changed("engine") {
		cfg.Engine = f.engine
	}
	if flags.Changed("log-level") {
		lvl, err := config.ParseLogLevel(f.logLevel)
		if err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		cfg.LogLevel, cfg.LogLevelName = lvl, f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, f.noColor)
	slog.SetDefault(a.log)
	telemetry.SetDir(cfg.StateDir)
	return nil
}

func (a *app) renderer() *render.Renderer {
	return render.New(render.Options{
		OutputDir: a.cfg.OutputDir,
		Engine:    a.cfg.Engine,
		Timeout:   a.cfg.CompileTimeout,
		Collision: render.CollisionPolicy(a.cfg.Collision),
		Logger:    a.log,
		LookPath:  a.lookPath,
	})
}

func (a *app) searchClient() *arxiv.Client { return arxiv.New(a.cfg.SearchURL) }

// toolDeps wires every tool against the loaded configuration.
func (a *app) toolDeps() tools.Deps {
	return tools.Deps{
		Search:     a.searchClient(),
		MaxResults: a.cfg.SearchMaxResults,
		Papers:     pdftext.NewDownloader(filepath.Join(a.cfg.StateDir, "papers")),
		Pages:      webpage.New(),
		Renderer:   a.renderer(),
	}
}
