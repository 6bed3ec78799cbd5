package report

import (
	"github.com/xuri/excelize/v2"
)

// WriteXLSX saves the study summary as a workbook with a Summary sheet
// (status tallies) and a Runs sheet (one row per run).
func WriteXLSX(path string, summary *Summary) error {
	f := excelize.NewFile()

	sheet := "Summary"
	f.SetSheetName("Sheet1", sheet)

	f.SetCellValue(sheet, "A1", "Study")
	f.SetCellValue(sheet, "B1", summary.Study)
	f.SetCellValue(sheet, "A2", "Runs")
	f.SetCellValue(sheet, "B2", len(summary.Runs))

	row := 4
	f.SetCellValue(sheet, "A3", "Status")
	f.SetCellValue(sheet, "B3", "Count")
	for _, status := range []string{"completed", "failed", "timed-out", "skipped"} {
		count, ok := summary.Counts()[status]
		if !ok {
			continue
		}
		cellA, _ := excelize.CoordinatesToCellName(1, row)
		cellB, _ := excelize.CoordinatesToCellName(2, row)
		f.SetCellValue(sheet, cellA, status)
		f.SetCellValue(sheet, cellB, count)
		row++
	}

	writeRuns(f, summary)

	return f.SaveAs(path)
}

func writeRuns(f *excelize.File, summary *Summary) {
	sheet := "Runs"
	f.NewSheet(sheet)

	col := 1
	set := func(r int, v interface{}) {
		cell, _ := excelize.CoordinatesToCellName(col, r)
		f.SetCellValue(sheet, cell, v)
		col++
	}

	set(1, "run")
	for _, p := range summary.ParameterOrder {
		set(1, p)
	}
	set(1, "status")
	set(1, "exit_code")
	set(1, "duration_seconds")

	for i, r := range summary.Runs {
		row := i + 2
		col = 1
		set(row, r.Name)
		for _, p := range summary.ParameterOrder {
			set(row, r.Parameters[p])
		}
		set(row, r.Status)
		set(row, r.ExitCode)
		set(row, r.DurationS)
	}
}
