package exporter

import (
	"fmt"
	"io"

	"arcdata/models"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tidwall/gjson"
)

// SummarizeCollection prints what was exported for a paginated source.
// With listRecords every record gets a row with its name, id and loot count.
func SummarizeCollection(w io.Writer, source string, export models.AggregateExport, path string, listRecords bool) {
	fmt.Fprintf(w, "Export complete: %s\n", source)
	fmt.Fprintf(w, "Records exported: %d\n", len(export.Data))
	if len(export.MaxValue) > 0 {
		fmt.Fprintf(w, "Max value: %s\n", export.MaxValue)
	}
	fmt.Fprintf(w, "Saved to: %s\n", path)

	if !listRecords || len(export.Data) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "ID", "Loot items"})
	for _, rec := range export.Data {
		fields := gjson.GetManyBytes(rec, "name", "id", "loot.#")
		t.AppendRow(table.Row{fields[0].String(), fields[1].String(), fields[2].Int()})
	}
	t.Render()
}

// SummarizeWorkbenches prints station and level counts for a workbench export
func SummarizeWorkbenches(w io.Writer, doc *models.WorkbenchDocument, path string, size int64) {
	fmt.Fprintf(w, "Data saved to %s\n", path)
	fmt.Fprintf(w, "File size: %d bytes (%.1f KB)\n", size, float64(size)/1024)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Station", "Levels"})
	for _, wb := range doc.Workbenches {
		t.AppendRow(table.Row{wb.Name, len(wb.Levels)})
	}
	t.AppendRow(table.Row{doc.Scrappy.Name, len(doc.Scrappy.Levels)})
	t.AppendFooter(table.Row{"Total workbenches", len(doc.Workbenches)})
	t.Render()
}
