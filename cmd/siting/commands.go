package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"example.com/your_project/facility-location/internal/buildinfo"
	"example.com/your_project/facility-location/internal/config"
	"example.com/your_project/facility-location/internal/logging"
	"example.com/your_project/facility-location/internal/metrics"
	"example.com/your_project/facility-location/internal/pipeline"
	"example.com/your_project/facility-location/internal/solver"
)

// app is the state shared by the subcommands once flags are parsed.
type app struct {
	configFile string
	cfg        config.Config
	log        logr.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "siting",
		Short:         "Choose facility sites for a city by mixed integer programming",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Flags())
		},
	}
	fs := root.PersistentFlags()
	fs.StringVar(&a.configFile, "config", "", "optional YAML config file")
	fs.Duration("duration", 0, "solver time limit per document (overrides solver.duration)")
	fs.Float64("gap", 0, "relative MIP gap (overrides solver.gap)")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("log-format", "", "json or console")
	fs.String("metrics-textfile", "", "write prometheus metrics to this file on exit")

	root.AddCommand(a.solveCommand(), a.batchCommand(), versionCommand())
	return root
}

func (a *app) setup(fs *pflag.FlagSet) error {
	v, err := config.New(a.configFile)
	if err != nil {
		return err
	}
	if err := config.BindFlags(v, fs); err != nil {
		return err
	}
	if a.cfg, err = config.Load(v); err != nil {
		return err
	}
	if a.log, err = logging.New(a.cfg.Log.Level, a.cfg.Log.Format); err != nil {
		return err
	}
	metrics.Register()
	return nil
}

func (a *app) runner() pipeline.Runner {
	return pipeline.Runner{
		Solver:    solver.Highs{Gap: a.cfg.Solver.Gap},
		Policy:    a.cfg.Policy,
		TimeLimit: a.cfg.Solver.Duration,
	}
}

func (a *app) context(cmd *cobra.Command) context.Context {
	return logr.NewContext(cmd.Context(), a.log)
}

func (a *app) flushMetrics() {
	if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.log.Error(err, "write metrics", "path", a.cfg.Metrics.Textfile)
	}
}

func (a *app) solveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "solve <input> <output> [k]",
		Short: "Solve one document and write the result",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var k *int
			if len(args) == 3 {
				n, err := strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("k must be an integer: %w", err)
				}
				k = &n
			}
			defer a.flushMetrics()
			rec, err := a.runner().RunFile(a.context(cmd), args[0], args[1], k)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[1], rec.Status)
			return nil
		},
	}
}

func (a *app) batchCommand() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "batch --out-dir DIR <inputs...>",
		Short: "Solve independent documents concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				return errors.New("--out-dir is required")
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			defer a.flushMetrics()
			return a.batch(a.context(cmd), cmd, outDir, args)
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for the result documents")
	cmd.Flags().Int("parallel", 0, "documents solved at once (overrides batch.parallel)")
	return cmd
}

func (a *app) batch(ctx context.Context, cmd *cobra.Command, outDir string, inputs []string) error {
	r := a.runner()

	statuses := make([]string, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Batch.Parallel)
	for i, in := range inputs {
		out := filepath.Join(outDir, resultName(in))
		g.Go(func() error {
			rec, err := r.RunFile(ctx, in, out, nil)
			if err != nil {
				return err
			}
			statuses[i] = rec.Status
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, in := range inputs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", in, statuses[i])
	}
	return nil
}

// resultName maps cities/recife.yaml to recife_resultado.json.
func resultName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_resultado.json"
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			info := buildinfo.Info()
			fmt.Fprintf(cmd.OutOrStdout(), "siting %s commit=%s built=%s\n", info["version"], info["commit"], info["builtAt"])
		},
	}
}
