// Command facility runs the siting pipeline under the nextmv runner, which
// reads the input document and writes the output from the paths and limits
// given on its command line (-runner.input.path, -runner.output.path,
// -limits.duration).
package main

import (
	"context"
	"log"
	"time"

	"github.com/go-logr/logr"
	"github.com/nextmv-io/sdk/run"

	"example.com/your_project/facility-location/internal/config"
	"example.com/your_project/facility-location/internal/facility"
	"example.com/your_project/facility-location/internal/logging"
	"example.com/your_project/facility-location/internal/metrics"
	"example.com/your_project/facility-location/internal/pipeline"
	"example.com/your_project/facility-location/internal/solver"
)

func main() {
	err := run.CLI(solve).Run(context.Background())
	if err != nil {
		log.Fatal(err)
	}
}

// The Option for the solver.
type Option struct {
	// A duration limit of 0 is treated as infinity. Cloud runs need an
	// explicit limit, hence the 10s default.
	Limits struct {
		Duration time.Duration `json:"duration" default:"10s"`
	} `json:"limits"`
}

func solve(input facility.Document, opts Option) ([]pipeline.Output, error) {
	v, err := config.New("")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	metrics.Register()

	r := pipeline.Runner{
		Solver:    solver.Highs{Gap: cfg.Solver.Gap},
		Policy:    cfg.Policy,
		TimeLimit: opts.Limits.Duration,
	}
	out := r.Run(logr.NewContext(context.Background(), logger), input)
	if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logger.Error(err, "write metrics", "path", cfg.Metrics.Textfile)
	}
	return []pipeline.Output{out}, nil
}
