package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// CSVSaver writes the summary table as CSV with raw percentages.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(doc Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(summaryHeader()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range doc.Summary {
		rec := []string{r.Sector, r.Ticker}
		for _, v := range r.Percentages() {
			rec = append(rec, strconv.FormatFloat(v, 'f', 4, 64))
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row %s: %w", r.Ticker, err)
		}
	}
	w.Flush()
	return w.Error()
}
