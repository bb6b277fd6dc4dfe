package main

import (
	"fmt"
	"io"
	"os"

	"github.com/petasbytes/research-agent/internal/render"
	"github.com/spf13/cobra"
)

func newRenderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "render <file.tex|->",
		Short: "Render a LaTeX file (or stdin with -) to PDF and print its path",
		Long: `Render compiles LaTeX into a PDF in the output directory. Sources without
\documentclass are wrapped in a default article preamble.

Examples:
  researcher render notes.tex
  cat body.tex | researcher render - --engine pdflatex`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := a.renderer().Render(cmd.Context(), src)
			if err != nil {
				if d := render.Diagnostics(err); d != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), d)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.PDFPath)
			return nil
		},
	}
}

func readSource(cmd *cobra.Command, arg string) (string, error) {
	var (
		b   []byte
		err error
	)
	if arg == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(arg)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", arg, err)
	}
	return string(b), nil
}
