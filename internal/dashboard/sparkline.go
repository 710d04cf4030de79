package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Eight vertical levels, lowest to highest.
var sparklineBlocks = []rune("▁▂▃▄▅▆▇█")

// RenderSparkline draws the most recent width values scaled between their
// min and max. Percentage series are colored by the last value's
// threshold; others use the graph color.
func RenderSparkline(data []float64, width int, percent bool) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if percent {
		minVal, maxVal = 0, 100
	}

	var sb strings.Builder
	sb.Grow(len(data) * 3)

	levels := len(sparklineBlocks)
	valueRange := maxVal - minVal
	for _, v := range data {
		level := levels / 2
		if valueRange != 0 {
			level = int((v - minVal) / valueRange * float64(levels-1))
			level = max(0, min(level, levels-1))
		}
		sb.WriteRune(sparklineBlocks[level])
	}

	color := ColorGraph
	if percent {
		color = MetricColor(data[len(data)-1])
	}
	return lipgloss.NewStyle().Foreground(color).Render(sb.String())
}
