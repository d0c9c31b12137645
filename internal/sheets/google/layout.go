package google

import (
	"fmt"
	"strings"

	"casaconti/internal/core"
)

const lastColumn = "H"

func sheetName(prefix string, p core.Period) string {
	return fmt.Sprintf("%s %s", strings.TrimSpace(prefix), p.String())
}

// quoteSheet quotes a tab title for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// weekProgress renders paid weeks of a weekly row as "paid/total".
func weekProgress(paid []int, total int) string {
	return fmt.Sprintf("%d/%d", len(paid), total)
}

// statementValues lays a statement out as sheet rows: a header, one line
// per statement row, a blank line, then the balance block.
func statementValues(stmt core.Statement, h core.Household) [][]any {
	nameA, nameB := h.A.Name, h.B.Name
	values := [][]any{
		{"Expense", "Frequency", "Split", "Total", nameA, nameB, "Paid " + nameA, "Paid " + nameB},
	}

	for _, row := range stmt.Rows {
		shares := row.RowShares()
		switch r := row.(type) {
		case core.GroupRow:
			values = append(values, []any{
				r.Label,
				"group",
				fmt.Sprintf("fixed %s %s", h.Person(r.FixedPayer).Name, core.FormatAmount(r.FixedAmount)),
				core.FormatAmount(r.Total),
				core.FormatAmount(shares.A),
				core.FormatAmount(shares.B),
				yesNo(r.Paid.A),
				yesNo(r.Paid.B),
			})
		case core.IndividualRow:
			label := r.Label
			if r.AmountKind == core.VariableAmount && r.Edited {
				label += " (edited)"
			}
			split := "50/50"
			if r.Distribution != nil {
				split = core.Tag(r.Distribution)
			}
			paidA, paidB := yesNo(r.Paid.A), yesNo(r.Paid.B)
			if r.Weeks != nil {
				paidA = weekProgress(r.Weeks.PaidA, r.Weeks.Weeks)
				paidB = weekProgress(r.Weeks.PaidB, r.Weeks.Weeks)
			}
			values = append(values, []any{
				label,
				string(r.Frequency),
				split,
				core.FormatAmount(r.Total),
				core.FormatAmount(shares.A),
				core.FormatAmount(shares.B),
				paidA,
				paidB,
			})
		}
	}

	b := stmt.Balance
	values = append(values,
		[]any{},
		[]any{"Owed", "", "", core.FormatAmount(b.Owed.Total()), core.FormatAmount(b.Owed.A), core.FormatAmount(b.Owed.B)},
		[]any{"Paid", "", "", core.FormatAmount(b.Paid.Total()), core.FormatAmount(b.Paid.A), core.FormatAmount(b.Paid.B)},
		[]any{"Pending", "", "", core.FormatAmount(b.Pending.Total()), core.FormatAmount(b.Pending.A), core.FormatAmount(b.Pending.B)},
		[]any{b.Settlement(h)},
	)
	return values
}
