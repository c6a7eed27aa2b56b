// Command mquery is a thin debugging/demonstration harness around the
// analysis core in pkg/mcomplete: it lexes and parses a file, resolves the
// active node at a given cursor, and prints the resulting autocomplete
// suggestions. Per spec.md §1 the CLI itself carries no analysis logic —
// it only wires the core's public API to a terminal.
//
// Grounded on vito/dang's cmd/dang/main.go: a cobra.Command wrapped by
// fang.Execute, slog.NewTextHandler against stderr, and lipgloss styling
// for terminal output.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/powerquery-lang/mquery/pkg/mcomplete"
	"github.com/powerquery-lang/mquery/pkg/mlangconfig"
	"github.com/powerquery-lang/mquery/pkg/mlexer"
	"github.com/powerquery-lang/mquery/pkg/mnode"
	"github.com/powerquery-lang/mquery/pkg/mtype"
)

// cliConfig holds the argument and flags the root command accepts.
type cliConfig struct {
	File   string
	Cursor string
	Debug  bool
}

func main() {
	var cfg cliConfig

	rootCmd := &cobra.Command{
		Use:   "mquery [flags] <file>",
		Short: "M (Power Query) language-service analysis core debugger",
		Long: `mquery runs the language-service analysis core (lex, parse,
active-node resolution, autocomplete) against a file and cursor position,
and prints the resulting suggestions.`,
		Example: `  # Ask what completes at line 2, column 5 (1-based) of formula.m
  mquery --cursor 2:5 formula.m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.File = args[0]
			return run(cmd.Context(), cfg)
		},
	}

	rootCmd.Flags().StringVar(&cfg.Cursor, "cursor", "1:1", "cursor position as line:column (1-based)")
	rootCmd.Flags().BoolVarP(&cfg.Debug, "debug", "d", false, "enable debug logging")

	if err := fang.Execute(context.Background(), rootCmd,
		fang.WithVersion("v0.1.0"),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliConfig) error {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	source, err := os.ReadFile(cfg.File)
	if err != nil {
		return fmt.Errorf("reading %s: %w", cfg.File, err)
	}

	loadedFrom, mqcfg, err := mlangconfig.Find(filepath.Dir(cfg.File))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if loadedFrom != "" {
		logger.DebugContext(ctx, "loaded config", "path", loadedFrom)
	}

	position, err := parseCursor(cfg.Cursor)
	if err != nil {
		return fmt.Errorf("parsing --cursor %q: %w", cfg.Cursor, err)
	}

	var engine mcomplete.TypeEngine
	if mqcfg.FieldAccess.Enabled {
		engine = noopTypeEngine{}
	}

	req := mcomplete.NewRequest(string(source), position, engine)
	req.Logger = logger
	logger.DebugContext(ctx, "running autocomplete", "request_id", req.ID, "cursor", position)

	result, err := mcomplete.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("running autocomplete: %w", err)
	}

	render(os.Stdout, result)
	return nil
}

// parseCursor converts a 1-based "line:column" flag value into the core's
// 0-based mlexer.Position.
func parseCursor(s string) (mlexer.Position, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return mlexer.Position{}, fmt.Errorf("expected line:column, got %q", s)
	}
	line, err := strconv.Atoi(parts[0])
	if err != nil {
		return mlexer.Position{}, fmt.Errorf("invalid line %q: %w", parts[0], err)
	}
	col, err := strconv.Atoi(parts[1])
	if err != nil {
		return mlexer.Position{}, fmt.Errorf("invalid column %q: %w", parts[1], err)
	}
	if line < 1 || col < 1 {
		return mlexer.Position{}, fmt.Errorf("line and column are 1-based, got %d:%d", line, col)
	}
	return mlexer.Position{LineNumber: line - 1, LineCodeUnit: col - 1}, nil
}

// noopTypeEngine reports "no type information" for every node: it lets the
// CLI exercise the field-access analysis' code paths end to end without
// requiring a real type-inference engine, which remains out of scope per
// spec.md §1.
type noopTypeEngine struct{}

func (noopTypeEngine) TryType(_ mnode.ID) (mtype.Type, error) {
	return mtype.Unknown{}, nil
}

var (
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	keywordChip   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Padding(0, 1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	activeNoneMsg = lipgloss.NewStyle().Faint(true)
)

// render prints a styled summary of an Autocomplete result.
func render(w io.Writer, result mcomplete.Autocomplete) {
	printSection(w, "keywords", result.Keyword.Keywords, result.Keyword.Err)
	printSection(w, "primitive types", result.PrimitiveType.Names, result.PrimitiveType.Err)
	printSection(w, "language constants", result.LanguageConstant.Constants, result.LanguageConstant.Err)

	fmt.Fprintln(w, sectionStyle.Render("field access"))
	if result.FieldAccess.Err != nil {
		fmt.Fprintln(w, errorStyle.Render("  "+result.FieldAccess.Err.Error()))
	} else if len(result.FieldAccess.Fields) == 0 {
		fmt.Fprintln(w, activeNoneMsg.Render("  (none)"))
	} else {
		for _, f := range result.FieldAccess.Fields {
			fmt.Fprintf(w, "  %s %s\n", keywordChip.Render(f.Name), f.Type)
		}
	}
}

func printSection(w io.Writer, title string, items []string, err error) {
	fmt.Fprintln(w, sectionStyle.Render(title))
	if err != nil {
		fmt.Fprintln(w, errorStyle.Render("  "+err.Error()))
		return
	}
	if len(items) == 0 {
		fmt.Fprintln(w, activeNoneMsg.Render("  (none)"))
		return
	}
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(keywordChip.Render(it))
	}
	fmt.Fprintln(w, "  "+b.String())
}
