package plotter

import (
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/popdyn-xyz/go-popdyn/solver"
)

// AsciiTrajectory renders selected compartments as terminal line charts,
// one chart per compartment. Useful for quick looks without leaving the
// shell.
func AsciiTrajectory(tr *solver.Trajectory, labels []string, width, height int) string {
	if labels == nil {
		labels = tr.Labels
	}
	if width <= 0 {
		width = 70
	}
	if height <= 0 {
		height = 10
	}

	_, states := tr.Sample(width)

	var sb strings.Builder
	for _, label := range labels {
		idx := tr.Index(label)
		if idx < 0 {
			continue
		}
		series := make([]float64, len(states))
		for i, u := range states {
			series[i] = u[idx]
		}
		chart := asciigraph.Plot(series,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(label))
		sb.WriteString(chart)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
