// Package export renders ledger data for download.
package export

import (
	"fmt"
	"io"

	"duoledger/internal/core"

	"github.com/gocarina/gocsv"
)

// csvRow is the flat CSV shape of a transaction.
type csvRow struct {
	Period    string `csv:"period"`
	Category  string `csv:"category"`
	Label     string `csv:"label"`
	Amount    string `csv:"amount"`
	Split     string `csv:"split"`
	Owner     string `csv:"owner"`
	Note      string `csv:"note"`
	Recurring bool   `csv:"recurring"`
	Pinned    bool   `csv:"pinned"`
	Method    string `csv:"method"`
	CreatedAt string `csv:"created_at"`
}

// WriteCSV writes the transactions as CSV with a header row.
func WriteCSV(w io.Writer, transactions []core.Transaction) error {
	rows := make([]csvRow, len(transactions))
	for i, t := range transactions {
		rows[i] = csvRow{
			Period:    t.Period.Key(),
			Category:  string(t.Category),
			Label:     t.Label,
			Amount:    t.Amount.String(),
			Split:     string(t.Split),
			Owner:     string(t.Owner),
			Note:      t.Note,
			Recurring: t.Recurring,
			Pinned:    t.Pinned,
			Method:    string(t.Method),
			CreatedAt: t.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("marshal csv: %w", err)
	}
	return nil
}
