package plotter

import (
	"strings"
	"testing"

	"github.com/popdyn-xyz/go-popdyn/model"
	"github.com/popdyn-xyz/go-popdyn/solver"
)

func TestNewSVGPlotter(t *testing.T) {
	plotter := NewSVGPlotter(800, 600)

	if plotter.Width != 800 {
		t.Errorf("Expected width 800, got %f", plotter.Width)
	}
	if plotter.Height != 600 {
		t.Errorf("Expected height 600, got %f", plotter.Height)
	}
	if plotter.XLabel != "Time" {
		t.Errorf("Expected default XLabel 'Time', got '%s'", plotter.XLabel)
	}
	if plotter.YLabel != "Value" {
		t.Errorf("Expected default YLabel 'Value', got '%s'", plotter.YLabel)
	}
	if plotter.Series != nil {
		t.Error("Expected Series to be nil initially")
	}
}

func TestSetTitle(t *testing.T) {
	plotter := NewSVGPlotter(800, 600)
	plotter.SetTitle("Test Plot")

	if plotter.Title != "Test Plot" {
		t.Errorf("Expected title 'Test Plot', got '%s'", plotter.Title)
	}

	// Test chaining
	result := plotter.SetTitle("Another Title")
	if result != plotter {
		t.Error("SetTitle should return the plotter for chaining")
	}
}

func TestSetLabels(t *testing.T) {
	plotter := NewSVGPlotter(800, 600)
	plotter.SetXLabel("X Axis").SetYLabel("Y Axis")

	if plotter.XLabel != "X Axis" {
		t.Errorf("Expected XLabel 'X Axis', got '%s'", plotter.XLabel)
	}
	if plotter.YLabel != "Y Axis" {
		t.Errorf("Expected YLabel 'Y Axis', got '%s'", plotter.YLabel)
	}
}

func TestAddSeries(t *testing.T) {
	plotter := NewSVGPlotter(800, 600)
	x := []float64{0, 1, 2, 3}
	y := []float64{0, 1, 4, 9}

	plotter.AddSeries(x, y, "quadratic", "#ff0000")
	if len(plotter.Series) != 1 {
		t.Fatalf("Expected 1 series, got %d", len(plotter.Series))
	}
	if plotter.Series[0].Label != "quadratic" {
		t.Errorf("Expected label 'quadratic', got '%s'", plotter.Series[0].Label)
	}

	// Empty color falls back to the palette.
	plotter.AddSeries(x, y, "second", "")
	if plotter.Series[1].Color == "" {
		t.Error("Expected a palette color for an empty color")
	}
}

func TestRender(t *testing.T) {
	plotter := NewSVGPlotter(800, 600).SetTitle("Growth")
	plotter.AddSeries([]float64{0, 1, 2}, []float64{1, 2, 4}, "P", "#1f77b4")

	svg := plotter.Render()
	if !strings.HasPrefix(svg, "<svg") {
		t.Error("Expected SVG output to start with <svg")
	}
	if !strings.Contains(svg, "</svg>") {
		t.Error("Expected closing </svg> tag")
	}
	if !strings.Contains(svg, "Growth") {
		t.Error("Expected the title in the output")
	}
	if !strings.Contains(svg, "<path") {
		t.Error("Expected a path element for the series")
	}
}

func TestRenderEscapesLabels(t *testing.T) {
	plotter := NewSVGPlotter(400, 300).SetTitle("a < b & c")
	plotter.AddSeries([]float64{0, 1}, []float64{0, 1}, "x", "")

	svg := plotter.Render()
	if strings.Contains(svg, "a < b & c") {
		t.Error("Title should be XML-escaped")
	}
	if !strings.Contains(svg, "a &lt; b &amp; c") {
		t.Error("Expected escaped title text")
	}
}

func solveSIR(t *testing.T) *solver.Trajectory {
	t.Helper()
	m, _ := model.ByName("sir")
	prob := solver.NewProblem(m, nil, nil, [2]float64{0, 100})
	tr, err := solver.Solve(prob, solver.Tsit5(), solver.DefaultOptions())
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	return tr
}

func TestPlotTrajectory(t *testing.T) {
	tr := solveSIR(t)

	svg, data := PlotTrajectory(tr, []string{"S", "I", "R"}, 800, 500, "SIR")
	if !strings.Contains(svg, "<svg") {
		t.Error("Expected SVG output")
	}
	if len(data.Series) != 3 {
		t.Fatalf("Expected 3 series, got %d", len(data.Series))
	}
	for _, s := range data.Series {
		if len(s.X) != len(s.Y) {
			t.Errorf("%s: x and y lengths differ", s.Label)
		}
		if len(s.X) == 0 {
			t.Errorf("%s: empty series", s.Label)
		}
	}
}

func TestPlotPhase(t *testing.T) {
	tr := solveSIR(t)

	svg, data := PlotPhase(tr, "S", "I", 600, 600, "phase")
	if !strings.Contains(svg, "<svg") {
		t.Error("Expected SVG output")
	}
	if len(data.Series) != 1 {
		t.Fatalf("Expected 1 series, got %d", len(data.Series))
	}
	// Phase plots parametrize by time: x carries S values, not times.
	if data.Series[0].X[0] != 0.99 {
		t.Errorf("Expected x to start at S(0)=0.99, got %f", data.Series[0].X[0])
	}
}

func TestPlotRate(t *testing.T) {
	tr := solveSIR(t)

	svg, data := PlotRate(tr, "I", 800, 500, "dI/dt")
	if !strings.Contains(svg, "<svg") {
		t.Error("Expected SVG output")
	}
	if len(data.Series) != 1 {
		t.Fatalf("Expected 1 series, got %d", len(data.Series))
	}
}

func TestAsciiTrajectory(t *testing.T) {
	tr := solveSIR(t)

	chart := AsciiTrajectory(tr, []string{"I"}, 60, 10)
	if chart == "" {
		t.Fatal("Expected a non-empty chart")
	}
	if !strings.Contains(chart, "\n") {
		t.Error("Expected a multi-line chart")
	}
}
