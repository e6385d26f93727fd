// Package export writes analysis tables to files.
package export

import (
	"fmt"
	"strings"

	"MarketLens/internal/model"
)

// Document is what a Saver writes: the summary table plus any correlation matrices.
type Document struct {
	Summary  []model.SummaryRow
	Matrices []NamedMatrix
}

// NamedMatrix labels a correlation matrix for export.
type NamedMatrix struct {
	Name   string
	Matrix model.CorrelationMatrix
}

// Saver writes a Document to path.
type Saver interface {
	Save(doc Document, path string) error
	Extension() string
}

// NewSaver returns the saver for format (csv, json, parquet, xlsx), or nil if unsupported.
func NewSaver(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "json":
		return JSONSaver{}
	case "parquet":
		return ParquetSaver{}
	case "xlsx", "excel":
		return XLSXSaver{}
	default:
		return nil
	}
}

// Formats lists the supported export formats.
var Formats = []string{"csv", "json", "parquet", "xlsx"}

// FromBundle builds a document from a sector analysis.
func FromBundle(b *model.SectorBundle) Document {
	return Document{
		Summary: b.Summary,
		Matrices: []NamedMatrix{
			{Name: "Correlation 1M", Matrix: b.MonthCorrelation},
			{Name: "Correlation 1Y", Matrix: b.YearCorrelation},
		},
	}
}

// FromResults builds a document from symbol results. Failed symbols are skipped.
func FromResults(results []model.AnalyticsResult) Document {
	var doc Document
	for _, r := range results {
		if !r.OK() || r.Performance == nil {
			continue
		}
		row := model.NewSummaryRow(model.SectorResult{
			SectorProxy: model.SectorProxy{Ticker: r.Symbol},
			Performance: *r.Performance,
		})
		doc.Summary = append(doc.Summary, row)
	}
	return doc
}

// Path joins base with the saver extension unless base already has it.
func Path(base string, s Saver) string {
	ext := "." + s.Extension()
	if strings.HasSuffix(strings.ToLower(base), ext) {
		return base
	}
	return fmt.Sprintf("%s%s", base, ext)
}

func summaryHeader() []string { return model.SummaryHeader }
