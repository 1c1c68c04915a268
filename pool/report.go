package pool

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	boldLabel   = color.New(color.Bold)
	greenCount  = color.New(color.FgGreen)
	yellowCount = color.New(color.FgYellow)
	redCount    = color.New(color.FgRed)
)

// Fprint writes a colored, tabular rendering of Report to w: one row
// per lifecycle bucket with its count, plus a bold total row.
func (r Report) Fprint(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.Header("State", "Workers")

	_ = table.Append(greenCount.Sprint("Running"), fmt.Sprint(r.Running))
	_ = table.Append(yellowCount.Sprint("CancelWait"), fmt.Sprint(r.CancelWait))
	_ = table.Append(redCount.Sprint("Cancelled"), fmt.Sprint(r.Cancelled))
	_ = table.Append(boldLabel.Sprint("Total"), fmt.Sprint(r.Running+r.CancelWait+r.Cancelled))

	_ = table.Render()
}
