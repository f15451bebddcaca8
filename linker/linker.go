package linker

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/aspect-linker/aspect"
	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/errors"
	"github.com/wippyai/aspect-linker/linker/internal/analysis"
	"github.com/wippyai/aspect-linker/linker/internal/cleanup"
	"github.com/wippyai/aspect-linker/linker/internal/introduce"
	"github.com/wippyai/aspect-linker/linker/internal/resolve"
	"github.com/wippyai/aspect-linker/linker/internal/rewrite"
)

// Options configures a link.
type Options struct {
	// Logger receives phase logs. Nil uses Logger().
	Logger *zap.Logger

	// Rules attach linker options to declarations by name.
	Rules aspect.OptionSet

	// Concurrency bounds the declarations and types processed at once.
	// Zero or less means unbounded.
	Concurrency int

	// KeepBlocks disables flattening of spliced blocks.
	KeepBlocks bool
}

// DefaultOptions returns options sized to the machine.
func DefaultOptions() Options {
	return Options{Concurrency: runtime.GOMAXPROCS(0)}
}

// Input is everything a link consumes. None of it is modified.
type Input struct {
	Program         *ast.Program
	Layers          *aspect.LayerOrder
	Transformations []aspect.Transformation
	Options         Options
}

// Severity of a diagnostic.
type Severity = analysis.Severity

const (
	SeverityWarning = analysis.SeverityWarning
	SeverityError   = analysis.SeverityError
)

// Diagnostic is a user-facing finding that did not stop the link.
type Diagnostic struct {
	Code        string
	Severity    Severity
	Message     string
	Declaration string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s: %s", d.Severity, d.Code, d.Declaration, d.Message)
}

// Disposition is what happened to a linked body.
type Disposition = rewrite.Disposition

const (
	KeptLinked        = rewrite.KeptLinked
	InlinedIntoCaller = rewrite.InlinedIntoCaller
	Trampoline        = rewrite.Trampoline
	Discarded         = rewrite.Discarded
)

// Decision describes one body of an override chain after linking.
type Decision struct {
	// Body is "Type.Member", suffixed with the accessor for accessor bodies.
	Body string
	// Semantic is "default" for chain entries, "original" for the
	// pre-aspect implementation and "public" for the visible declaration.
	Semantic    string
	Disposition Disposition
	// Retained is set when an inlined body is also kept as a member.
	Retained bool
	// Into names the body an inlined body was spliced into.
	Into string
	// Emitted is the member name in the final program.
	Emitted string
}

func (d Decision) String() string {
	s := fmt.Sprintf("%s [%s] %s", d.Body, d.Semantic, d.Disposition)
	if d.Into != "" {
		s += " into " + d.Into
	}
	if d.Emitted != "" {
		s += " as " + d.Emitted
	}
	if d.Retained {
		s += " (retained)"
	}
	return s
}

// Result is the linked program with everything learned while linking it.
type Result struct {
	Program     *ast.Program
	Diagnostics []Diagnostic
	Decisions   []Decision
}

// Link applies transformations to program and links every override chain.
// Fatal conditions are returned as *LinkError wrapping an *errors.Error;
// recoverable ones are reported as diagnostics.
func Link(ctx context.Context, in Input) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := in.Options
	log := phaseLogger(opts.Logger, "link")
	start := time.Now()

	intro, err := introduce.Run(ctx, in.Program, in.Layers, in.Transformations, introduce.Config{
		Logger: phaseLogger(opts.Logger, "introduce"),
		Rules:  opts.Rules,
	})
	if err != nil {
		return nil, linkError(errors.PhaseIntroduce, "introduction", err)
	}

	an, err := analysis.Run(ctx, intro, resolve.New(intro), analysis.Config{
		Logger:      phaseLogger(opts.Logger, "analyze"),
		Concurrency: opts.Concurrency,
	})
	if err != nil {
		return nil, linkError(errors.PhaseAnalyze, "analysis", err)
	}

	rw, err := rewrite.Run(ctx, intro, an, rewrite.Config{
		Logger:      phaseLogger(opts.Logger, "rewrite"),
		Concurrency: opts.Concurrency,
	})
	if err != nil {
		return nil, linkError(errors.PhaseRewrite, "rewrite", err)
	}

	if !opts.KeepBlocks {
		cleanup.Flatten(rw.Program)
	}
	if err := verify(rw.Program); err != nil {
		return nil, linkError(errors.PhaseCleanup, "verification", err)
	}

	res := &Result{Program: rw.Program}
	for _, d := range an.Diagnostics() {
		res.Diagnostics = append(res.Diagnostics, Diagnostic(d))
	}
	for _, d := range rw.Decisions {
		res.Decisions = append(res.Decisions, Decision{
			Body:        d.Body,
			Semantic:    d.Key.Semantic.String(),
			Disposition: d.Disposition,
			Retained:    d.Retained,
			Into:        d.IntoName,
			Emitted:     d.Emitted,
		})
	}

	log.Debug("link complete",
		zap.Int("types", len(res.Program.Types)),
		zap.Int("chains", len(intro.Roots())),
		zap.Int("decisions", len(res.Decisions)),
		zap.Int("diagnostics", len(res.Diagnostics)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// verify fails when a placeholder survived into the final program.
func verify(p *ast.Program) error {
	for _, t := range p.Types {
		for _, m := range t.Members {
			var found *ast.AspectRef
			ast.Inspect(m, func(n ast.Node) bool {
				if found != nil {
					return false
				}
				if r := ast.MetaOf(n).Ref; r != nil {
					found = r
					return false
				}
				return true
			})
			if found != nil {
				return errors.New(errors.PhaseCleanup, errors.KindMissingChainEntry).
					Decl(t.Name + "." + m.MemberName()).
					Layer(string(found.Layer)).
					Detail("placeholder %s survived linking", found.Order).
					Build()
			}
		}
	}
	return nil
}
