package report

import (
	"fmt"

	"github.com/phpdave11/gofpdf"
)

// WritePDF renders rep as a one-page statement at path.
func WritePDF(rep *Report, path string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Ghost budget statement %s", rep.Month.Format("2006-01")), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Ghost Budget Statement")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("User: %s    Month: %s", rep.User.Username, rep.Month.Format("January 2006")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(70, 8, "Expense type", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, "Records", "1", 0, "R", false, 0, "")
	pdf.CellFormat(50, 8, "Total", "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, tt := range rep.Totals {
		pdf.CellFormat(70, 8, string(tt.ExpenseType), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%d", tt.Count), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 8, tt.Total.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(70, 8, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%d", rep.Count), "1", 0, "R", false, 0, "")
	pdf.CellFormat(50, 8, rep.Total.StringFixed(2), "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 11)
	balances := []struct{ label, value string }{
		{"Current balance", rep.User.CurrentBalance.StringFixed(2)},
		{"Ghost budget", rep.User.GhostBudget.StringFixed(2)},
		{"Roth IRA contribution", rep.User.RothIRAContribution.StringFixed(2)},
		{"High-yield savings", rep.User.HighYieldSavings.StringFixed(2)},
	}
	for _, b := range balances {
		pdf.CellFormat(70, 7, b.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, b.value, "", 1, "R", false, 0, "")
	}
	return pdf.OutputFileAndClose(path)
}
