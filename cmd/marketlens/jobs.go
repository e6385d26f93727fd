package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"MarketLens/internal/export"
	"MarketLens/internal/interval"
	"MarketLens/internal/model"
	"MarketLens/internal/palette"
	"MarketLens/internal/recorder"
	"MarketLens/internal/report"
)

// symbolsOutput is the JSON shape of an analyze run.
type symbolsOutput struct {
	RunID    string                   `json:"run_id"`
	Start    string                   `json:"start"`
	End      string                   `json:"end"`
	Plan     planOutput               `json:"plan"`
	Theme    palette.Theme            `json:"theme"`
	Overlays map[string]palette.Style `json:"overlays"`
	Results  []resultOutput           `json:"results"`
	Errors   map[string]string        `json:"errors,omitempty"`
}

// resultOutput decorates a result with its chart style and the colour of its daily move.
type resultOutput struct {
	model.AnalyticsResult
	Style      palette.Style `json:"style"`
	DailyColor string        `json:"daily_color,omitempty"`
}

type planOutput struct {
	Granularity model.Granularity      `json:"granularity"`
	BarInterval string                 `json:"bar_interval"`
	DaysDiff    int                    `json:"days_diff"`
	Axis        string                 `json:"axis"`
	AxisFormat  string                 `json:"axis_format"`
	AxisTitle   string                 `json:"axis_title"`
	Breaks      interval.SessionBreaks `json:"breaks"`
}

func newPlanOutput(p interval.Plan) planOutput {
	return planOutput{
		Granularity: p.Granularity,
		BarInterval: p.BarInterval,
		DaysDiff:    p.DaysDiff,
		Axis:        p.Axis.Kind,
		AxisFormat:  p.Axis.Format,
		AxisTitle:   p.Axis.Title,
		Breaks:      p.Breaks,
	}
}

// overlays names the styles of the price line, its moving averages and volume.
func overlays(windows []int) map[string]palette.Style {
	out := map[string]palette.Style{"price": palette.Price, "volume": palette.Volume}
	if len(windows) > 0 {
		out[fmt.Sprintf("ma_%d", windows[0])] = palette.ShortMA
	}
	if len(windows) > 1 {
		out[fmt.Sprintf("ma_%d", windows[1])] = palette.LongMA
	}
	return out
}

// sectorsOutput is the JSON shape of a sectors run.
type sectorsOutput struct {
	*model.SectorBundle
	Theme     palette.Theme `json:"theme"`
	DailyBars []barOutput   `json:"daily_bars"`
}

type barOutput struct {
	Sector   string  `json:"sector"`
	Ticker   string  `json:"ticker"`
	DailyPct float64 `json:"daily_pct"`
	Color    string  `json:"color"`
}

// runSymbols analyzes the configured symbols, renders them and records the run.
func (a *app) runSymbols(ctx context.Context, runID string) error {
	if runID == "" {
		runID = uuid.NewString()
	}
	start, end, err := a.cfg.Dates(time.Now())
	if err != nil {
		return err
	}

	run := &recorder.Run{ID: runID, Kind: recorder.KindSymbols, StartedAt: time.Now()}
	results, plan, err := a.facade.AnalyzeRange(ctx, a.cfg.SymbolList(), start, end, a.cfg.ExtendedHours, a.cfg.MAWindows())
	run.FinishedAt = time.Now()
	run.Granularity, run.BarInterval = plan.Granularity, plan.BarInterval
	run.Start, run.End = plan.Start, plan.End
	run.Count(results)
	if err != nil {
		run.Err = err.Error()
	}
	if recErr := a.rec.RecordSymbols(run, results); recErr != nil {
		log.Warn().Err(recErr).Str("run_id", runID).Msg("record run failed")
	}
	if results == nil {
		return err
	}

	if a.opts.format == "json" {
		out := symbolsOutput{
			RunID:    runID,
			Start:    plan.Start.Format(time.DateOnly),
			End:      plan.End.Format(time.DateOnly),
			Plan:     newPlanOutput(plan),
			Theme:    a.theme,
			Overlays: overlays(a.cfg.MAWindows()),
		}
		for i, r := range results {
			ro := resultOutput{AnalyticsResult: r, Style: palette.For(i)}
			if r.Performance != nil {
				ro.DailyColor = a.theme.Color(palette.Performance(r.Performance.DailyPct))
			}
			out.Results = append(out.Results, ro)
			if r.Err != nil {
				if out.Errors == nil {
					out.Errors = make(map[string]string)
				}
				out.Errors[r.Symbol] = r.Err.Error()
			}
		}
		if jerr := a.writeJSON(out); jerr != nil {
			return jerr
		}
	} else {
		report.Plan(a.out, plan)
		if rerr := report.Results(a.out, results, report.Options{Color: a.opts.color, Theme: a.theme, MAWindows: a.cfg.MAWindows()}); rerr != nil {
			return rerr
		}
		for _, r := range results {
			if r.Profile != nil {
				if perr := report.Profile(a.out, r.Profile, r.LastClose); perr != nil {
					return perr
				}
			}
		}
	}

	if xerr := a.exportDoc(export.FromResults(results)); xerr != nil {
		return xerr
	}
	return err
}

// runSectors analyzes the configured sector proxies, renders them and records the run.
func (a *app) runSectors(ctx context.Context, runID string) error {
	if runID == "" {
		runID = uuid.NewString()
	}
	now := time.Now()
	run := &recorder.Run{
		ID:          runID,
		Kind:        recorder.KindSectors,
		StartedAt:   now,
		Granularity: model.Daily,
		BarInterval: "1d",
		Start:       now.AddDate(-1, 0, -7),
		End:         now,
	}
	bundle, err := a.facade.AnalyzeSectors(ctx, a.cfg.Sectors)
	run.FinishedAt = time.Now()
	if bundle != nil {
		for _, s := range bundle.Sectors {
			if s.Err != nil {
				run.Failed++
			} else {
				run.Succeeded++
			}
		}
	}
	if err != nil {
		run.Err = err.Error()
	}
	if recErr := a.rec.RecordSectors(run, bundle); recErr != nil {
		log.Warn().Err(recErr).Str("run_id", runID).Msg("record run failed")
	}
	if bundle == nil {
		return err
	}

	if a.opts.format == "json" {
		out := sectorsOutput{SectorBundle: bundle, Theme: a.theme}
		for _, r := range report.Ranked(bundle.Summary, func(r model.SummaryRow) float64 { return r.DailyPct }) {
			out.DailyBars = append(out.DailyBars, barOutput{r.Sector, r.Ticker, r.DailyPct, a.theme.Bar(r.DailyPct)})
		}
		if jerr := a.writeJSON(out); jerr != nil {
			return jerr
		}
	} else if rerr := report.Sectors(a.out, bundle, report.Options{Color: a.opts.color, Theme: a.theme}); rerr != nil {
		return rerr
	}

	if xerr := a.exportDoc(export.FromBundle(bundle)); xerr != nil {
		return xerr
	}
	return err
}
