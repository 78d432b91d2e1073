// Package report consumes conversion outcomes and prints per-file lines
// and the run summary.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"heic2jpg/task"
)

// Summary is the terminal artifact of a run.
type Summary struct {
	RunID      string        `json:"runId"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Elapsed    time.Duration `json:"elapsed"`
	OutputRoot string        `json:"outputRoot"`
}

func (s Summary) Total() int { return s.Succeeded + s.Failed }

// RunInfo identifies the run an Aggregator reports on.
type RunInfo struct {
	ID         string
	OutputRoot string
	Started    time.Time
}

// Aggregator owns the counters of one run. Only the goroutine calling
// Consume touches them.
type Aggregator struct {
	out   io.Writer
	color bool

	// OnOutcome, when set, is called for every outcome after its line
	// has been written.
	OnOutcome func(task.Outcome)
}

// NewAggregator writes to w, with coloured status tags when w is a terminal.
func NewAggregator(w io.Writer) *Aggregator {
	return &Aggregator{out: w, color: isTerminal(w)}
}

// Statusf prints a progress line that is not tied to an outcome.
func (a *Aggregator) Statusf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// Consume drains outcomes as they arrive, prints one line for each, and
// prints the summary once the channel is closed.
func (a *Aggregator) Consume(outcomes <-chan task.Outcome, run RunInfo) Summary {
	s := Summary{RunID: run.ID, OutputRoot: run.OutputRoot}
	for o := range outcomes {
		switch o.Status {
		case task.StatusSuccess:
			s.Succeeded++
			fmt.Fprintf(a.out, "%s %s -> %s\n", a.tag("[success]", text.FgGreen), o.Source, o.Destination)
		default:
			s.Failed++
			fmt.Fprintf(a.out, "%s %s: %s\n", a.tag("[failure]", text.FgRed), o.Source, o.Description())
		}
		if a.OnOutcome != nil {
			a.OnOutcome(o)
		}
	}
	s.Elapsed = time.Since(run.Started)

	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, RenderSummary(s))
	return s
}

func (a *Aggregator) tag(s string, c text.Color) string {
	if !a.color {
		return s
	}
	return c.Sprint(s)
}

// RenderSummary formats s as a table.
func RenderSummary(s Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Conversion complete")
	tw.AppendRows([]table.Row{
		{"Success", s.Succeeded},
		{"Failures", s.Failed},
		{"Time", fmt.Sprintf("%.2f seconds", s.Elapsed.Seconds())},
		{"Output directory", s.OutputRoot},
		{"Run", s.RunID},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignLeft},
	})
	return tw.Render()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
