// Command weave links aspect layers into a program and shows the result.
//
//	weave link calc.yaml
//	weave explain calc.yaml
//	weave eval calc.yaml Calc.Add 2 3
//	weave inspect calc.yaml
//	weave watch calc.yaml
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/aspect-linker/config"
	"github.com/wippyai/aspect-linker/linker"
	"github.com/wippyai/aspect-linker/manifest"
)

// app carries the state shared by all commands.
type app struct {
	cfg        *config.Config
	log        *zap.Logger
	configPath string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "weave",
		Short: "Link aspect layers into a program",
		Long: `weave applies the transformations of ordered aspect layers to a program,
resolves every aspect reference to a concrete target and inlines the
override chains that allow it.

A manifest lists the layers, the program and the transformations:

  layers: [Logging]
  program_file: calc.sx
  transformations:
    - {layer: Logging, kind: override, type: Calc, target: Add, template_file: log.sx}`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "weave.yaml", "config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		a.linkCmd(),
		a.explainCmd(),
		a.evalCmd(),
		a.inspectCmd(),
		a.watchCmd(),
	)
	return root
}

func (a *app) init(stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	log, err := cfg.Logger(isTerminal(stderr))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.log = log
	linker.SetLogger(log)
	return nil
}

// link loads the manifest at path and links it with the configured options.
func (a *app) link(ctx context.Context, path string, keepBlocks bool) (*linker.Result, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	in, err := m.Input()
	if err != nil {
		return nil, err
	}
	in.Options = a.cfg.LinkOptions(a.log)
	if keepBlocks {
		in.Options.KeepBlocks = true
	}
	a.log.Debug("linking", zap.String("manifest", path), zap.Int("transformations", len(in.Transformations)))
	return linker.Link(ctx, in)
}

// colored reports whether output to w should be styled.
func (a *app) colored(w io.Writer) bool {
	switch a.cfg.Output.Color {
	case "always":
		return true
	case "never":
		return false
	}
	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
