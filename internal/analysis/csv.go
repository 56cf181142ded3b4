package analysis

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

// WriteSweepCSV writes sweep points to path in the order given.
func WriteSweepCSV(path string, points []SweepPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeSweepCSV(f, points)
}

func EncodeSweepCSV(out io.Writer, points []SweepPoint) error {
	w := csv.NewWriter(out)

	header := []string{
		"tax_rate",
		"price",
		"producer_price",
		"quantity",
		"consumer_surplus",
		"producer_surplus",
		"tax_revenue",
		"total_welfare",
		"deadweight_loss",
		"consumer_burden",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, p := range points {
		row := []string{
			fmtFloat(p.TaxRate),
			fmtFloat(p.Price),
			fmtFloat(p.ProducerPrice),
			fmtFloat(p.Quantity),
			fmtFloat(p.ConsumerSurplus),
			fmtFloat(p.ProducerSurplus),
			fmtFloat(p.TaxRevenue),
			fmtFloat(p.TotalWelfare),
			fmtFloat(p.DeadweightLoss),
			fmtFloat(p.ConsumerBurden),
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
