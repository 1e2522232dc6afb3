package benchmark

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/dd0wney/graphem/pkg/stats"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// WriteSummary prints the size and timing of a run.
func WriteSummary(w io.Writer, r *Result) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "vertices\t%s\n", humanize.Comma(int64(r.Vertices)))
	fmt.Fprintf(tw, "edges\t%s\n", humanize.Comma(int64(r.Edges)))
	fmt.Fprintf(tw, "dimension\t%d\n", r.Dimension)
	fmt.Fprintf(tw, "iterations\t%d\n", r.Iterations)
	fmt.Fprintf(tw, "layout time\t%s\n", r.LayoutTime.Round(1e6))
	if sum, err := stats.Summarize(r.Radii); err == nil {
		fmt.Fprintf(tw, "radius\tmean %.3f  median %.3f  sd %.3f  range [%.3f, %.3f]\n",
			sum.Mean, sum.Median, sum.StdDev, sum.Min, sum.Max)
	}
	return tw.Flush()
}

// WriteCorrelations prints one line per centrality measure.
func WriteCorrelations(w io.Writer, rows []CorrelationRow) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "MEASURE\tRHO\tP-VALUE\tN")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%.3f\t%.3g\t%s\n", r.Measure, r.Rho, r.P, humanize.Comma(int64(r.N)))
	}
	return tw.Flush()
}

// WriteInfluence prints one line per seed selection method.
func WriteInfluence(w io.Writer, rows []InfluenceRow) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "METHOD\tSEEDS\tSPREAD\tSTDDEV\tRUNTIME\tEVALUATIONS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.2f\t%s\t%s\n",
			r.Method,
			len(r.Seeds),
			humanize.CommafWithDigits(r.Spread.Mean, 2),
			r.Spread.StdDev,
			r.Runtime.Round(1e3),
			humanize.Comma(int64(r.Evaluations)),
		)
	}
	return tw.Flush()
}
