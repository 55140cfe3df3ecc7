// Package render draws usage reports as terminal tables with a short
// summary panel underneath.
package render

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"

	"github.com/wesm/ocusage/internal/db"
)

// Summary carries the period-over-period change for the three headline
// numbers. A nil field means there is no prior value to compare against.
type Summary struct {
	Calls  *float64
	Tokens *float64
	Cost   *float64
}

// Params describes one rendered report.
type Params struct {
	View    string
	Period  string
	Rows    []db.UsageRow
	Totals  db.UsageRow
	Deltas  []*float64 // aligned with Rows; nil when not comparing
	Summary *Summary   // nil when not comparing
	Width   int        // terminal columns; 0 means unconstrained
}

// Below this width the token breakdown columns are dropped so the table
// still fits on one screen.
const narrowWidth = 100

// TerminalWidth reports the column count when w is a terminal, else 0.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func labelHeader(view string) string {
	switch view {
	case "day":
		return "Date"
	case "model":
		return "Model"
	case "agent":
		return "Agent"
	case "provider":
		return "Provider"
	case "session":
		return "Session"
	}
	return view
}

func titleFor(view, period string) string {
	if view == "day" {
		return fmt.Sprintf("Daily Usage (%s)", period)
	}
	return fmt.Sprintf("Usage by %s (%s)", labelHeader(view), period)
}

// Write renders the report: a titled table for the rows, then the
// overall summary panel.
func Write(w io.Writer, p Params, st Styles) error {
	fmt.Fprintln(w, st.Bold(titleFor(p.View, p.Period)))

	if len(p.Rows) == 0 {
		fmt.Fprintln(w, st.Dim("No usage recorded in this period."))
	} else if err := writeTable(w, p, st); err != nil {
		return err
	}

	fmt.Fprintln(w)
	writeSummary(w, p, st)
	return nil
}

func writeTable(w io.Writer, p Params, st Styles) error {
	narrow := p.Width > 0 && p.Width < narrowWidth
	showBreakdown := p.View != "session" && p.View != "agent" && !narrow
	showDetail := p.View == "agent"
	showTrend := p.View == "day"
	showDeltas := p.Deltas != nil

	headers := []string{labelHeader(p.View)}
	aligns := []tw.Align{tw.AlignLeft}
	add := func(h string, a tw.Align) {
		headers = append(headers, h)
		aligns = append(aligns, a)
	}
	if showDetail {
		add("Model", tw.AlignLeft)
	}
	add("Calls", tw.AlignRight)
	if showBreakdown {
		add("Input", tw.AlignRight)
		add("Output", tw.AlignRight)
		add("Cache R", tw.AlignRight)
		add("Cache W", tw.AlignRight)
	}
	add("Total", tw.AlignRight)
	add("Cost", tw.AlignRight)
	if showTrend {
		add("Trend", tw.AlignLeft)
	}
	if showDeltas {
		add("Δ", tw.AlignRight)
	}

	// The agent view groups several rows under one label; merged label
	// cells plus row separators keep the groups readable.
	var table *tablewriter.Table
	if showDetail {
		table = tablewriter.NewTable(w,
			tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
				Settings: tw.Settings{
					Separators: tw.Separators{BetweenRows: tw.On},
				},
			})))
	} else {
		table = tablewriter.NewTable(w)
	}
	table.Header(headers)
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.PerColumn = aligns
		if showDetail {
			c.Row.Formatting = tw.CellFormatting{MergeMode: tw.MergeHierarchical}
		}
	})

	var trendMax int64
	for _, r := range p.Rows {
		if showTrend && r.Tokens.Total > trendMax {
			trendMax = r.Tokens.Total
		}
	}

	for i, r := range p.Rows {
		cells := []string{r.Label}
		if showDetail {
			detail := ""
			if r.Detail != "" {
				detail = ShortModel(r.Detail)
			}
			cells = append(cells, detail)
		}
		cells = append(cells, strconv.FormatInt(r.Calls, 10))
		if showBreakdown {
			cells = append(cells,
				FormatTokens(r.Tokens.Input),
				FormatTokens(r.Tokens.Output),
				FormatTokens(r.Tokens.CacheRead),
				FormatTokens(r.Tokens.CacheWrite),
			)
		}
		cells = append(cells,
			st.Bold(FormatTokens(r.Tokens.Total)),
			FormatCost(r.Cost),
		)
		if showTrend {
			cells = append(cells, st.Cyan(SparkBar(r.Tokens.Total, trendMax)))
		}
		if showDeltas {
			cell := st.Dim("-")
			if i < len(p.Deltas) && p.Deltas[i] != nil {
				cell = FormatDelta(*p.Deltas[i], st)
			}
			cells = append(cells, cell)
		}
		table.Append(cells)
	}

	return table.Render()
}

func writeSummary(w io.Writer, p Params, st Styles) {
	line := st.Dim("Calls: ") + st.Bold(humanize.Comma(p.Totals.Calls))
	if p.Summary != nil && p.Summary.Calls != nil {
		line += " " + FormatDelta(*p.Summary.Calls, st)
	}
	line += st.Dim("  │  Tokens: ") + st.Bold(FormatTokens(p.Totals.Tokens.Total))
	if p.Summary != nil && p.Summary.Tokens != nil {
		line += " " + FormatDelta(*p.Summary.Tokens, st)
	}
	line += st.Dim("  │  Cost: ") + st.Bold(FormatCost(p.Totals.Cost))
	if p.Summary != nil && p.Summary.Cost != nil {
		line += " " + FormatDelta(*p.Summary.Cost, st)
	}

	fmt.Fprintln(w, st.Bold("OpenCode Usage — "+p.Period))
	fmt.Fprintln(w, "  "+line)
}
