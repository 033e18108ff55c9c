package imagesync

import (
	"fmt"
	"io"

	"bazaar-items/lib/termutil"

	"github.com/jedib0t/go-pretty/v6/table"
)

// how many missing items are listed before the rest is summarized
const missingExamples = 10

// RenderAnalysis prints the image counts and a few of the missing items.
func RenderAnalysis(w io.Writer, analysis Analysis) {
	t := termutil.NewTable(w)
	t.SetTitle("Image analysis")
	t.AppendHeader(table.Row{"Images", "Count"})
	t.AppendRows([]table.Row{
		{"Items", analysis.Total},
		{"Existing", analysis.Existing},
		{"Updated naming", analysis.Renamed},
		{"Missing", len(analysis.Missing)},
		{"Without image", analysis.Skipped},
	})
	t.Render()

	if len(analysis.Missing) == 0 {
		return
	}

	missing := termutil.NewTable(w)
	missing.AppendHeader(table.Row{"Missing item", "File"})
	for i, target := range analysis.Missing {
		if i == missingExamples {
			missing.AppendRow(table.Row{fmt.Sprintf("... and %d more", len(analysis.Missing)-missingExamples), ""})
			break
		}
		missing.AppendRow(table.Row{target.Name, target.Filename})
	}
	missing.Render()
}

// RenderDownload prints the outcome of a download run.
func RenderDownload(w io.Writer, analysis Analysis, report DownloadReport) {
	t := termutil.NewTable(w)
	t.SetTitle("Download summary")
	t.AppendHeader(table.Row{"Images", "Count"})
	t.AppendRows([]table.Row{
		{"Downloaded", report.Downloaded},
		{"Failed", len(report.Failed)},
		{"Total on disk", analysis.Existing + report.Downloaded},
	})
	t.Render()

	if len(report.Failed) == 0 {
		return
	}

	failed := termutil.NewTable(w)
	failed.AppendHeader(table.Row{"Failed item", "Error"})
	for _, f := range report.Failed {
		failed.AppendRow(table.Row{f.Target.Name, f.Err.Error()})
	}
	failed.Render()
}
