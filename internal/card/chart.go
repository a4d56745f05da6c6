package card

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mofucat/chatrank/internal/database/types"
	"github.com/wcharczuk/go-chart/v2"
)

// ErrNotEnoughHistory indicates fewer than two aggregation runs exist, which
// is not enough to plot a trend.
var ErrNotEnoughHistory = errors.New("not enough history to chart")

// RenderTrend plots total counted messages per aggregation run. Records are
// expected newest first, as returned by the history store.
func (r *Renderer) RenderTrend(records []*types.AggregateHistory) ([]byte, error) {
	if len(records) < 2 {
		return nil, ErrNotEnoughHistory
	}

	xValues := make([]float64, 0, len(records))
	yValues := make([]float64, 0, len(records))

	// Oldest first for a left-to-right timeline.
	for i := len(records) - 1; i >= 0; i-- {
		record := records[i]

		var total uint64
		for _, entry := range record.Rankings {
			total += entry.Count
		}

		xValues = append(xValues, float64(len(xValues)))
		yValues = append(yValues, float64(total))
	}

	graph := chart.Chart{
		Title:  "Activity per aggregation",
		Width:  900,
		Height: 420,
		XAxis: chart.XAxis{
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					idx := len(records) - 1 - int(f)
					if idx >= 0 && idx < len(records) {
						return records[idx].AggregatedAt.Format("01-02")
					}
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					FillColor:   chart.ColorBlue.WithAlpha(60),
				},
				XValues: xValues,
				YValues: yValues,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render trend chart: %w", err)
	}

	return buf.Bytes(), nil
}
