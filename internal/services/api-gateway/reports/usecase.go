// Package reports serves the analytics dashboard and its CSV export.
package reports

import (
	"context"
	"io"

	"github.com/NordCoder/apiwatch/internal/analytics"
	"github.com/NordCoder/apiwatch/internal/domain/clock"
	"github.com/NordCoder/apiwatch/internal/domain/monitor"
	"github.com/NordCoder/apiwatch/internal/domain/query"
)

type Lister interface {
	List(ctx context.Context, sort query.Sort) ([]*monitor.Monitor, error)
}

type Report struct {
	Range analytics.Range `json:"range"`
	analytics.Report
}

type Usecase struct {
	monitors Lister
	clk      clock.Clock
}

func New(monitors Lister, clk clock.Clock) *Usecase {
	if clk == nil {
		clk = clock.System{}
	}
	return &Usecase{monitors: monitors, clk: clk}
}

func (u *Usecase) Report(ctx context.Context, rng analytics.Range, filter string) (Report, error) {
	ms, err := u.monitors.List(ctx, query.Sort{})
	if err != nil {
		return Report{}, err
	}
	return Report{Range: rng, Report: analytics.Aggregate(ms, rng.Start(u.clk.Now()), filter)}, nil
}

// Export writes the CSV for the window and returns the suggested file name.
func (u *Usecase) Export(ctx context.Context, w io.Writer, rng analytics.Range, filter string) (string, int, error) {
	ms, err := u.monitors.List(ctx, query.Sort{})
	if err != nil {
		return "", 0, err
	}
	now := u.clk.Now()
	n, err := analytics.WriteCSV(w, ms, rng.Start(now), filter)
	return analytics.Filename(now), n, err
}
