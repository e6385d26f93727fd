package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"MarketLens/internal/model"
)

func sampleDoc() Document {
	return Document{
		Summary: []model.SummaryRow{
			{Sector: "Technology", Ticker: "XLK", DailyPct: 1.25, QuarterlyPct: 10},
			{Sector: "Energy", Ticker: "XLE", DailyPct: -0.5, YearlyPct: 3.333},
		},
		Matrices: []NamedMatrix{{
			Name: "Correlation 1M",
			Matrix: model.CorrelationMatrix{
				Labels: []string{"Technology", "Energy"},
				Values: [][]float64{{1, 0.4}, {0.4, 1}},
			},
		}},
	}
}

func TestNewSaver(t *testing.T) {
	for _, f := range Formats {
		s := NewSaver(f)
		require.NotNil(t, s, f)
		assert.Equal(t, f, s.Extension())
	}
	assert.IsType(t, XLSXSaver{}, NewSaver(" Excel "))
	assert.Nil(t, NewSaver("pdf"))
}

func TestPath(t *testing.T) {
	assert.Equal(t, "out/sectors.csv", Path("out/sectors", CSVSaver{}))
	assert.Equal(t, "out/sectors.CSV", Path("out/sectors.CSV", CSVSaver{}))
}

func TestCSVSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	require.NoError(t, CSVSaver{}.Save(sampleDoc(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, model.SummaryHeader, records[0])
	assert.Equal(t, "XLK", records[1][1])
	assert.Equal(t, "1.2500", records[1][2])
	assert.Equal(t, "10.0000", records[1][5])
}

func TestJSONSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	require.NoError(t, JSONSaver{}.Save(sampleDoc(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var got struct {
		Summary  []model.SummaryRow `json:"summary"`
		Matrices []struct {
			Name   string
			Matrix model.CorrelationMatrix
		} `json:"matrices"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, sampleDoc().Summary, got.Summary)
	require.Len(t, got.Matrices, 1)
	assert.Equal(t, 0.4, got.Matrices[0].Matrix.Values[0][1])
}

func TestParquetSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.parquet")
	require.NoError(t, ParquetSaver{}.Save(sampleDoc(), path))

	rows, err := parquet.ReadFile[model.SummaryRow](path)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc().Summary, rows)
}

func TestXLSXSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	require.NoError(t, XLSXSaver{}.Save(sampleDoc(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	ticker, err := f.GetCellValue(summarySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "XLK", ticker)

	corr, err := f.GetCellValue("Correlation 1M", "C2")
	require.NoError(t, err)
	assert.Equal(t, "0.4", corr)
}

func TestFromResults_SkipsFailures(t *testing.T) {
	results := []model.AnalyticsResult{
		{Symbol: "AAPL", Stage: model.StageAnalyzed, Performance: &model.PerformanceSnapshot{DailyPct: 2}},
		model.Failed("TSLA", model.StageRequested, assert.AnError),
	}
	doc := FromResults(results)
	require.Len(t, doc.Summary, 1)
	assert.Equal(t, "AAPL", doc.Summary[0].Ticker)
	assert.Equal(t, 2.0, doc.Summary[0].DailyPct)
	assert.Empty(t, doc.Matrices)
}

func TestFromBundle(t *testing.T) {
	b := &model.SectorBundle{Summary: sampleDoc().Summary}
	doc := FromBundle(b)
	assert.Len(t, doc.Summary, 2)
	assert.Len(t, doc.Matrices, 2)
}
