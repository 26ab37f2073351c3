package summary

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"patterncal/internal/extract"
	"patterncal/internal/rules"
)

// Template placeholders filled in an invoice document.
const (
	PlaceholderClient = "{{CLIENT_NOM}}"
	PlaceholderCount  = "{{NOMBRE_PRESTATION}}"
	PlaceholderTotal  = "{{COUT_TOTAL}}"
	PlaceholderDates  = "{{LISTE_DATE_PRESTATION}}"
)

// Invoice gathers what an invoice needs for one client.
type Invoice struct {
	Client string
	Count  int
	Total  float64
	Dates  []string
}

// InvoiceFor collects the rows of client. amountColumn may be empty, in
// which case the total is zero.
func InvoiceFor(t *extract.Table, clientColumn, amountColumn, client string) (Invoice, error) {
	col := t.Index(clientColumn)
	if col < 0 {
		return Invoice{}, fmt.Errorf("no column %q in result", clientColumn)
	}
	amount := -1
	if amountColumn != "" {
		amount = t.Index(amountColumn)
		if amount < 0 || t.Columns[amount].Kind != extract.CellNumber {
			return Invoice{}, fmt.Errorf("no numeric column %q in result", amountColumn)
		}
	}
	date := t.Index(rules.ColumnDate)

	inv := Invoice{Client: client}
	for _, row := range t.Rows {
		if row[col].Missing || row[col].String() != client {
			continue
		}
		inv.Count++
		if amount >= 0 && !row[amount].Missing {
			inv.Total += row[amount].Number
		}
		if date >= 0 {
			inv.Dates = append(inv.Dates, invoiceDate(row[date]))
		}
	}
	if inv.Count == 0 {
		return Invoice{}, errors.New("no event found for client " + strconv.Quote(client))
	}
	return inv, nil
}

func invoiceDate(c extract.Cell) string {
	if c.Kind == extract.CellWhen && !c.Missing {
		if day, ok := c.When.Day(); ok {
			return day.Format("02/01/2006")
		}
	}
	return c.String()
}

// Replacements maps each template placeholder to its value. Amounts are
// formatted for tag, e.g. language.French.
func (inv Invoice) Replacements(tag language.Tag) map[string]string {
	p := message.NewPrinter(tag)
	return map[string]string{
		PlaceholderClient: inv.Client,
		PlaceholderCount:  strconv.Itoa(inv.Count),
		PlaceholderTotal:  p.Sprintf("%.2f", inv.Total),
		PlaceholderDates:  strings.Join(inv.Dates, ", "),
	}
}
