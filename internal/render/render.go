package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Defaults applied by New for zero-valued options.
const (
	DefaultEngine    = "tectonic"
	DefaultOutputDir = "output"
)

// maxSuffix bounds the free-name search under CollisionSuffix.
const maxSuffix = 100

// waitDelay bounds how long a killed engine may keep its output pipes open.
const waitDelay = 5 * time.Second

// CollisionPolicy decides what happens when a stem is already taken in the output directory.
type CollisionPolicy string

const (
	// CollisionSuffix appends _2, _3, ... until the .tex and .pdf names are free.
	CollisionSuffix CollisionPolicy = "suffix"
	// CollisionOverwrite reuses the stem and replaces the earlier files.
	CollisionOverwrite CollisionPolicy = "overwrite"
)

// Options configures a Renderer.
type Options struct {
	OutputDir string
	Engine    string
	// Timeout bounds a single engine run. Zero means no bound.
	Timeout   time.Duration
	Collision CollisionPolicy
	Logger    *slog.Logger

	// Test seams.
	Now      func() time.Time
	LookPath func(string) (string, error)
}

// Result describes a successful render.
type Result struct {
	PDFPath  string // absolute
	TexPath  string // absolute
	Stem     string
	Full     bool // source already declared a document class
	ExitCode int
	Stderr   string
	Duration time.Duration
}

// Renderer compiles LaTeX sources. It holds no mutable state and is safe for concurrent use.
type Renderer struct {
	opts Options
}

// New returns a Renderer with defaults filled in.
func New(opts Options) *Renderer {
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	if opts.Engine == "" {
		opts.Engine = DefaultEngine
	}
	if opts.Collision == "" {
		opts.Collision = CollisionSuffix
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	return &Renderer{opts: opts}
}

// OutputDir returns the configured output directory as given (possibly relative).
func (r *Renderer) OutputDir() string { return r.opts.OutputDir }

// Engine returns the configured engine name.
func (r *Renderer) Engine() string { return r.opts.Engine }

// Render writes src as a .tex file under the output directory, runs the engine on it and
// returns the absolute path of the produced PDF. Errors are *Error values of kind
// ErrEngineNotFound, ErrWrite or ErrCompile.
func (r *Renderer) Render(ctx context.Context, src string) (Result, error) {
	log := r.opts.Logger

	// Engine lookup precedes any filesystem side effect.
	enginePath, err := r.opts.LookPath(r.opts.Engine)
	if err != nil {
		log.Error("typesetting engine unavailable", "engine", r.opts.Engine, "err", err)
		return Result{}, &Error{Kind: ErrEngineNotFound, Path: r.opts.Engine, Err: fmt.Errorf("%s is not installed; install it first: %w", r.opts.Engine, err)}
	}

	outDir, err := filepath.Abs(r.opts.OutputDir)
	if err != nil {
		return Result{}, &Error{Kind: ErrWrite, Path: r.opts.OutputDir, Err: err}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Error("create output directory", "dir", outDir, "err", err)
		return Result{}, &Error{Kind: ErrWrite, Path: outDir, Err: err}
	}

	doc, full := Normalize(src)
	if full {
		log.Info("detected full LaTeX document; compiling as-is")
	} else {
		log.Info("detected body-only LaTeX; wrapping with preamble")
	}

	stem, texPath, err := r.writeTex(outDir, SafeStem(ExtractTitle(src), r.opts.Now()), doc)
	if err != nil {
		log.Error("write tex file", "dir", outDir, "err", err)
		return Result{}, err
	}
	pdfPath := filepath.Join(outDir, stem+".pdf")

	res, err := r.compile(ctx, enginePath, outDir, stem)
	res.TexPath, res.Stem, res.Full = texPath, stem, full
	if res.ExitCode != 0 && res.Stderr != "" {
		log.Warn("typesetting engine reported errors", "exit_code", res.ExitCode, "stderr", res.Stderr)
	}

	if fi, statErr := os.Stat(pdfPath); statErr == nil && fi.Mode().IsRegular() {
		res.PDFPath = pdfPath
		log.Info("generated PDF", "path", pdfPath, "duration", res.Duration)
		return res, nil
	}

	diag := res.Stderr
	if errors.Is(err, context.DeadlineExceeded) {
		diag = strings.TrimSpace(diag + fmt.Sprintf("\n%s timed out after %s", r.opts.Engine, r.opts.Timeout))
	}
	log.Error("PDF file was not generated", "tex", texPath, "exit_code", res.ExitCode, "stderr", diag, "err", err)
	return res, &Error{Kind: ErrCompile, Path: pdfPath, Diagnostics: diag, Err: err}
}

// writeTex creates <stem>.tex in dir according to the collision policy and returns
// the stem actually used.
func (r *Renderer) writeTex(dir, stem, doc string) (string, string, error) {
	if r.opts.Collision == CollisionOverwrite {
		texPath := filepath.Join(dir, stem+".tex")
		if err := os.WriteFile(texPath, []byte(doc), 0o644); err != nil {
			return "", "", &Error{Kind: ErrWrite, Path: texPath, Err: err}
		}
		// A stale PDF under the same stem must not pass for this run's output.
		if err := os.Remove(filepath.Join(dir, stem+".pdf")); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", "", &Error{Kind: ErrWrite, Path: texPath, Err: err}
		}
		return stem, texPath, nil
	}

	for n := 1; n <= maxSuffix; n++ {
		candidate := stem
		if n > 1 {
			candidate = fmt.Sprintf("%s_%d", stem, n)
		}
		if _, err := os.Stat(filepath.Join(dir, candidate+".pdf")); err == nil {
			continue
		}
		texPath := filepath.Join(dir, candidate+".tex")
		f, err := os.OpenFile(texPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", &Error{Kind: ErrWrite, Path: texPath, Err: err}
		}
		_, werr := f.WriteString(doc)
		cerr := f.Close()
		if werr == nil {
			werr = cerr
		}
		if werr != nil {
			return "", "", &Error{Kind: ErrWrite, Path: texPath, Err: werr}
		}
		return candidate, texPath, nil
	}
	return "", "", &Error{Kind: ErrWrite, Path: filepath.Join(dir, stem+".tex"), Err: fmt.Errorf("no free name after %d attempts", maxSuffix)}
}

// compile runs the engine with batch-captured output. The returned error is the process
// error, if any; callers decide success by the presence of the PDF.
func (r *Renderer) compile(ctx context.Context, enginePath, outDir, stem string) (Result, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, enginePath, stem+".tex", "--outdir", outDir)
	cmd.Dir = outDir
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{Duration: time.Since(start)}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
	}
	res.Stderr = strings.TrimSpace(stderr.String())
	if res.Stderr == "" && err != nil {
		res.Stderr = strings.TrimSpace(stdout.String())
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	return res, err
}
