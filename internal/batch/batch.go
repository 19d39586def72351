// Package batch solves several construction files side by side. Each file
// gets its own Construction, so no solver state is shared between goroutines.
package batch

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/trussim/internal/construction"
	"github.com/san-kum/trussim/internal/storage"
)

type Job struct {
	Path string
}

type Outcome struct {
	Path         string
	Construction *construction.Construction
	Result       *storage.Result
	Err          error
}

// OpenFunc reads one job's construction.
type OpenFunc func(path string, cfg construction.Config) (*construction.Construction, error)

type Runner struct {
	cfg     construction.Config
	workers int
	open    OpenFunc
}

// NewRunner returns a runner using at most workers goroutines; zero or less
// means one per CPU.
func NewRunner(cfg construction.Config, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{cfg: cfg, workers: workers, open: loadFile}
}

// WithOpener replaces the default binary file loader.
func (r *Runner) WithOpener(open OpenFunc) *Runner {
	r.open = open
	return r
}

func loadFile(path string, cfg construction.Config) (*construction.Construction, error) {
	c := construction.New(cfg)
	if err := c.Load(path); err != nil {
		return nil, err
	}
	return c, nil
}

// Run solves every job and returns one outcome per job in input order. A
// failing job does not stop the others; its error is kept in the outcome.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Outcome {
	outcomes := make([]Outcome, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, job := range jobs {
		g.Go(func() error {
			outcomes[i] = r.solve(ctx, job)
			return nil
		})
	}
	g.Wait()

	return outcomes
}

func (r *Runner) solve(ctx context.Context, job Job) Outcome {
	out := Outcome{Path: job.Path}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	c, err := r.open(job.Path, r.cfg)
	if err != nil {
		out.Err = fmt.Errorf("%s: %w", job.Path, err)
		return out
	}
	out.Construction = c

	if err := c.Simulate(true); err != nil {
		out.Err = fmt.Errorf("%s: %w", job.Path, err)
		return out
	}
	res, err := storage.Capture(c)
	if err != nil {
		out.Err = fmt.Errorf("%s: %w", job.Path, err)
		return out
	}
	out.Result = res
	return out
}

// Failed counts outcomes with an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
