package probe

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const ruleWidth = 60

// Runner executes suites one check at a time and prints a report to out.
type Runner struct {
	out    io.Writer
	clock  clockwork.Clock
	logger *zap.Logger
}

func NewRunner(out io.Writer, logger *zap.Logger) *Runner {
	return &Runner{
		out:    out,
		clock:  clockwork.NewRealClock(),
		logger: logger,
	}
}

func (r *Runner) SetClock(clock clockwork.Clock) {
	r.clock = clock
}

func (r *Runner) Run(ctx context.Context, suite Suite) Summary {
	start := r.clock.Now()

	fmt.Fprintf(r.out, "=== %s ===\n\n", suite.Title)

	summary := Summary{
		Title:     suite.Title,
		Total:     len(suite.Checks),
		Threshold: suite.PassThreshold,
	}

	for _, c := range suite.Checks {
		res := r.runCheck(ctx, c)
		summary.Results = append(summary.Results, res)
		if res.Success {
			summary.Passed++
		}
	}
	for _, c := range suite.Required {
		summary.Required = append(summary.Required, r.runCheck(ctx, c))
	}

	summary.Elapsed = r.clock.Since(start)
	r.report(suite, summary)

	r.logger.Debug("Suite finished",
		zap.String("suite", suite.Title),
		zap.Int("passed", summary.Passed),
		zap.Int("total", summary.Total),
		zap.Bool("ok", summary.OK()),
		zap.Duration("elapsed", summary.Elapsed))

	return summary
}

func (r *Runner) runCheck(ctx context.Context, c Check) Result {
	res := c.Run(ctx)
	if res.Name == "" {
		res.Name = c.Name
	}

	if res.Success {
		fmt.Fprintf(r.out, "  [PASS] %s\n", res.Name)
	} else {
		fmt.Fprintf(r.out, "  [FAIL] %s\n", res.Name)
		if res.Err != nil {
			fmt.Fprintf(r.out, "         error: %v\n", res.Err)
			r.logger.Debug("Check failed", zap.String("check", res.Name), zap.Error(res.Err))
		}
		if hint := Hint(res.Err); hint != "" {
			fmt.Fprintf(r.out, "         hint: %s\n", hint)
		}
	}
	for _, d := range res.Details {
		fmt.Fprintf(r.out, "         %s\n", d)
	}
	return res
}

func (r *Runner) report(suite Suite, s Summary) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintf(r.out, "\n%s\n%s RESULTS\n%s\n", rule, strings.ToUpper(s.Title), rule)

	for _, set := range [][]Result{s.Results, s.Required} {
		for _, res := range set {
			fmt.Fprintf(r.out, "  %-42s %s\n", res.Name, status(res.Success))
		}
	}

	fmt.Fprintf(r.out, "\nOverall: %d/%d passed (need %d) in %s\n",
		s.Passed, s.Total, s.Threshold, s.Elapsed.Round(time.Millisecond))

	notes := suite.OnFail
	if s.OK() {
		notes = suite.OnPass
	}
	if len(notes) > 0 {
		fmt.Fprintln(r.out)
		for i, n := range notes {
			fmt.Fprintf(r.out, "  %d. %s\n", i+1, n)
		}
	}
}

func status(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
