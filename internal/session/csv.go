package session

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"market-tax-sim/internal/model"
)

// WriteHistoryCSV writes the history log to path, one row per entry.
func WriteHistoryCSV(path string, history []model.HistoryEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeHistoryCSV(f, history)
}

func EncodeHistoryCSV(out io.Writer, history []model.HistoryEntry) error {
	w := csv.NewWriter(out)

	header := []string{
		"index",
		"event",
		"tax_rate",
		"price",
		"quantity",
		"total_welfare",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, h := range history {
		row := []string{
			strconv.Itoa(h.Index),
			h.Event,
			fmtFloat(h.TaxRate),
			fmtFloat(h.Price),
			fmtFloat(h.Quantity),
			fmtFloat(h.TotalWelfare),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
