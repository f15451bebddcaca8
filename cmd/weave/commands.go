package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/interp"
	"github.com/wippyai/aspect-linker/linker"
	"github.com/wippyai/aspect-linker/manifest"
	"github.com/wippyai/aspect-linker/source"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
)

// dispositionColors highlights dispositions in the explain table and the
// inspector.
var dispositionColors = map[linker.Disposition]lipgloss.Color{
	linker.KeptLinked:        "#87CEEB",
	linker.InlinedIntoCaller: "#98FB98",
	linker.Trampoline:        "#F1FA8C",
	linker.Discarded:         "#666666",
}

func (a *app) linkCmd() *cobra.Command {
	var (
		format     string
		keepBlocks bool
	)
	cmd := &cobra.Command{
		Use:   "link MANIFEST",
		Short: "Link a manifest and print the final program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.link(cmd.Context(), args[0], keepBlocks)
			if err != nil {
				return err
			}
			if format == "" {
				format = a.cfg.Output.Format
			}
			var text string
			switch format {
			case "csharp":
				text = ast.Format(res.Program)
			case "sexpr":
				text = source.Print(res.Program)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			a.diagnostics(cmd.ErrOrStderr(), res.Diagnostics)
			_, err = io.WriteString(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: csharp or sexpr (default from config)")
	cmd.Flags().BoolVar(&keepBlocks, "keep-blocks", false, "keep spliced blocks nested")
	return cmd
}

func (a *app) explainCmd() *cobra.Command {
	var markdown bool
	cmd := &cobra.Command{
		Use:   "explain MANIFEST",
		Short: "Show what happened to every body of every override chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.link(cmd.Context(), args[0], false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			a.diagnostics(cmd.ErrOrStderr(), res.Diagnostics)
			if markdown {
				text, err := a.report(args[0], res, a.colored(out))
				if err != nil {
					return err
				}
				_, err = io.WriteString(out, text)
				return err
			}
			_, err = fmt.Fprintln(out, a.decisionTable(res.Decisions, a.colored(out)))
			return err
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "render a markdown report with the final program")
	return cmd
}

// report renders a markdown report of a link: the dispositions followed by
// the final program.
func (a *app) report(name string, res *linker.Result, color bool) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", name)
	if len(res.Diagnostics) > 0 {
		b.WriteString("## Diagnostics\n\n")
		for _, d := range res.Diagnostics {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\n")
	}
	b.WriteString("## Dispositions\n\n")
	b.WriteString("| Body | Semantic | Disposition | Into | Emitted |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, d := range res.Decisions {
		disp := d.Disposition.String()
		if d.Retained {
			disp += " (retained)"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", d.Body, d.Semantic, disp, d.Into, d.Emitted)
	}
	b.WriteString("\n## Program\n\n```csharp\n")
	b.WriteString(ast.Format(res.Program))
	b.WriteString("```\n")

	style := "notty"
	if color {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	return r.Render(b.String())
}

func (a *app) decisionTable(ds []linker.Decision, color bool) string {
	rows := make([][]string, 0, len(ds))
	for _, d := range ds {
		retained := ""
		if d.Retained {
			retained = "yes"
		}
		rows = append(rows, []string{d.Body, d.Semantic, d.Disposition.String(), d.Into, d.Emitted, retained})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("BODY", "SEMANTIC", "DISPOSITION", "INTO", "EMITTED", "RETAINED").
		Rows(rows...)
	if color {
		t = t.StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 && row >= 0 && row < len(ds) {
				return cellStyle.Foreground(dispositionColors[ds[row].Disposition])
			}
			return cellStyle
		})
	} else {
		t = t.StyleFunc(func(row, col int) lipgloss.Style { return cellStyle })
	}
	return t.Render()
}

func (a *app) diagnostics(w io.Writer, ds []linker.Diagnostic) {
	color := a.colored(w)
	for _, d := range ds {
		line := d.String()
		if color {
			line = warningStyle.Render(line)
		}
		fmt.Fprintln(w, line)
	}
}

func (a *app) evalCmd() *cobra.Command {
	var original bool
	cmd := &cobra.Command{
		Use:   "eval MANIFEST TYPE.METHOD [ARGS...]",
		Short: "Run a method of the linked program",
		Long: `Runs a method of the linked program in the interpreter and prints its
result followed by the lines recorded by log. Arguments are integers,
true, false, null or strings.

With --original the program is run as written, before any aspect applies.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prog *ast.Program
			if original {
				m, err := manifest.Load(args[0])
				if err != nil {
					return err
				}
				in, err := m.Input()
				if err != nil {
					return err
				}
				prog = in.Program
			} else {
				res, err := a.link(cmd.Context(), args[0], false)
				if err != nil {
					return err
				}
				prog = res.Program
			}

			typ, method, ok := strings.Cut(args[1], ".")
			if !ok {
				return fmt.Errorf("expected TYPE.METHOD, got %q", args[1])
			}
			vals := make([]interp.Value, len(args)-2)
			for i, s := range args[2:] {
				vals[i] = interp.Parse(s)
			}
			v, lines, err := a.eval(cmd, prog, typ, method, vals)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, v)
			for _, l := range lines {
				fmt.Fprintln(out, "log:", l)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&original, "original", false, "run the program without aspects")
	return cmd
}

// eval calls typ.method on a fresh runtime. Static methods are called on the
// type, instance methods on a new object.
func (a *app) eval(cmd *cobra.Command, p *ast.Program, typ, method string, args []interp.Value) (interp.Value, []string, error) {
	ctx := cmd.Context()
	rt, err := interp.New(p, interp.Options{Logger: a.log.Named("eval"), MaxSteps: a.cfg.Eval.MaxSteps})
	if err != nil {
		return interp.Null, nil, err
	}
	td := p.Type(typ)
	if td == nil {
		return interp.Null, nil, fmt.Errorf("unknown type %q", typ)
	}
	static := false
	for _, m := range td.FindMembers(method) {
		if m.Kind() == ast.KindMethod && m.Modifiers().Has(ast.ModStatic) {
			static = true
		}
	}

	var v interp.Value
	if static {
		v, err = rt.CallStatic(ctx, typ, method, args...)
	} else {
		var obj *interp.Object
		obj, err = rt.Instantiate(ctx, typ)
		if err == nil {
			v, err = rt.Call(ctx, obj, method, args...)
		}
	}
	if err != nil {
		return interp.Null, rt.Log(), err
	}
	a.log.Debug("evaluated", zap.String("method", typ+"."+method), zap.Stringer("result", v))
	return v, rt.Log(), nil
}

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect MANIFEST",
		Short: "Browse dispositions and final members interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.link(cmd.Context(), args[0], false)
			if err != nil {
				return err
			}
			return runInspector(args[0], res)
		},
	}
}
