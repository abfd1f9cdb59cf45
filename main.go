package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/misselvexu/mixai-wren-engine/analyze"
	"github.com/misselvexu/mixai-wren-engine/mdl"
	"github.com/misselvexu/mixai-wren-engine/plan"
	"github.com/misselvexu/mixai-wren-engine/sql"
	"github.com/misselvexu/mixai-wren-engine/sqlgen"
)

var (
	fManifest string
	fColor    bool
	fVerbose  bool
)

func readQuery(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read query: %w", err)
	}
	return string(data), nil
}

// compile runs the pipeline up to the fully resolved plan
func compile(args []string) (plan.Plan, error) {
	if fManifest == "" {
		return nil, fmt.Errorf("no manifest, use --manifest")
	}
	m, err := mdl.ReadManifestFile(fManifest)
	if err != nil {
		return nil, err
	}
	analyzed, err := mdl.Analyze(m)
	if err != nil {
		return nil, err
	}

	query, err := readQuery(args)
	if err != nil {
		return nil, err
	}
	code, err := sql.Parse(query)
	if err != nil {
		return nil, err
	}

	bound, err := analyze.NewModelAnalyzeRule(analyzed).Bind(code)
	if err != nil {
		return nil, err
	}

	analyzer := analyze.NewAnalyzer(analyze.NewModelGenerationRule(analyzed))
	if fVerbose {
		analyzer = analyzer.WithLogger(
			slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})),
		)
	}

	out, err := analyzer.Analyze(bound)
	if err != nil {
		return nil, err
	}
	return out.Plan, nil
}

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan [query]",
		Short: "Compile a query against the manifest and dump the plan tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := compile(args)
			if err != nil {
				return err
			}
			if fColor {
				fmt.Print(plan.PrintColor(p))
			} else {
				fmt.Print(plan.Print(p))
			}
			return nil
		},
	}
}

func newSqlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sql [query]",
		Short: "Compile a query against the manifest and emit SQL for the remote engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := compile(args)
			if err != nil {
				return err
			}
			text, err := sqlgen.Generate(p)
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
}

func main() {
	root := &cobra.Command{
		Use:   "wren-engine",
		Short: "Semantic layer query compiler",
		Long: "Rewrites queries over semantic models into plans and SQL " +
			"over the physical tables the models describe. The manifest " +
			"names the models, their columns, calculated columns and " +
			"relationships.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(
		&fManifest, "manifest", "m", "", "path to the manifest file, json or yaml",
	)
	root.PersistentFlags().BoolVar(
		&fColor, "color", false, "colored plan output",
	)
	root.PersistentFlags().BoolVarP(
		&fVerbose, "verbose", "v", false, "log analyze passes to stderr",
	)

	root.AddCommand(newPlanCmd())
	root.AddCommand(newSqlCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
