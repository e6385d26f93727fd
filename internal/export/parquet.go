package export

import (
	"github.com/parquet-go/parquet-go"

	"MarketLens/internal/model"
)

// ParquetSaver writes the summary table as Parquet. Matrices are not written.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(doc Document, path string) error {
	rows := doc.Summary
	if rows == nil {
		rows = []model.SummaryRow{}
	}
	return parquet.WriteFile(path, rows)
}
