package exporter

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/filipkrasniqi/networkcovid/internal/config"
	"github.com/filipkrasniqi/networkcovid/internal/errors"
	"github.com/filipkrasniqi/networkcovid/internal/kpi"
)

const (
	dayLabelLayout = "2006-01-02"
	fontSize       = 14
	boxWidth       = 24
)

var (
	averageColor = color.RGBA{B: 255, A: 255}
	medianColor  = color.RGBA{R: 255, A: 255}
	dashes       = []vg.Length{vg.Points(6), vg.Points(4)}
)

// ChartData carries everything the three variants draw for one cell and KPI.
// Each variant reads only its own field.
type ChartData struct {
	KPI    string
	CellID string
	Daily  []kpi.DailyStat
	Hourly []kpi.Sample
	Boxes  []kpi.DayBox
}

// ChartRenderer draws report charts with shared cosmetic settings.
type ChartRenderer struct {
	paths  *config.Paths
	unit   string
	width  vg.Length
	height vg.Length
	logger *slog.Logger
}

// NewChartRenderer creates a renderer that saves into paths.OutputDir.
func NewChartRenderer(paths *config.Paths, cfg config.ChartsConfig, logger *slog.Logger) *ChartRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	width, height := cfg.WidthInches, cfg.HeightInches
	if width <= 0 {
		width = config.DefaultChartWidth
	}
	if height <= 0 {
		height = config.DefaultChartHeight
	}
	unit := cfg.Unit
	if unit == "" {
		unit = config.DefaultChartUnit
	}
	return &ChartRenderer{
		paths:  paths,
		unit:   unit,
		width:  vg.Length(width) * vg.Inch,
		height: vg.Length(height) * vg.Inch,
		logger: logger,
	}
}

// Build draws the requested variant. Data without any plottable value is an
// empty-result error.
func (r *ChartRenderer) Build(v Variant, data ChartData) (*plot.Plot, error) {
	switch v {
	case VariantDaily:
		return r.daily(data)
	case VariantHourly:
		return r.hourly(data)
	case VariantBox:
		return r.box(data)
	}
	_, err := ParseVariant(string(v))
	return nil, err
}

// Save renders a variant to its PNG file in the output directory and
// returns the path. An existing file is overwritten.
func (r *ChartRenderer) Save(v Variant, data ChartData) (string, error) {
	if r.paths == nil {
		return "", errors.NewConfigError("chart output directory not configured", nil)
	}

	p, err := r.Build(v, data)
	if err != nil {
		return "", err
	}

	path := r.paths.GetOutputPath(FileName(v, data.KPI, data.CellID))
	if err := p.Save(r.width, r.height, path); err != nil {
		return "", errors.NewStorageError("failed to save chart", err).WithContext("path", path)
	}

	r.logger.Info("Chart saved",
		slog.String("variant", string(v)),
		slog.String("path", path))
	return path, nil
}

// Write renders a variant as PNG into w. Nothing is written on failure.
func (r *ChartRenderer) Write(w io.Writer, v Variant, data ChartData) error {
	p, err := r.Build(v, data)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(r.width, r.height, "png")
	if err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

func (r *ChartRenderer) newPlot(v Variant, data ChartData) *plot.Plot {
	p := plot.New()
	p.Title.Text = Title(v, data.KPI, data.CellID)
	p.Title.TextStyle.Font.Size = vg.Points(fontSize)
	p.Y.Label.Text = r.unit
	p.Y.Label.TextStyle.Font.Size = vg.Points(fontSize)
	p.X.Label.TextStyle.Font.Size = vg.Points(fontSize)

	for _, axis := range []*plot.Axis{&p.X, &p.Y} {
		axis.Tick.Label.Color = color.Black
		axis.Tick.Label.Font.Size = vg.Points(fontSize)
	}
	p.Legend.TextStyle.Font.Size = vg.Points(fontSize)

	p.Add(plotter.NewGrid())
	return p
}

func rotateX(p *plot.Plot, degrees float64) {
	p.X.Tick.Label.Rotation = degrees * math.Pi / 180
	p.X.Tick.Label.XAlign = text.XRight
	if degrees < 0 {
		p.X.Tick.Label.XAlign = text.XLeft
	}
	p.X.Tick.Label.YAlign = text.YTop
}

func (r *ChartRenderer) daily(data ChartData) (*plot.Plot, error) {
	if len(data.Daily) == 0 {
		return nil, errors.NewEmptyResultError("daily chart")
	}

	var means, medians plotter.XYs
	ticks := make([]plot.Tick, 0, len(data.Daily))
	for i, d := range data.Daily {
		x := float64(i + 1)
		ticks = append(ticks, plot.Tick{Value: x, Label: d.Day.Format(dayLabelLayout)})
		if !math.IsNaN(d.Mean) {
			means = append(means, plotter.XY{X: x, Y: d.Mean})
		}
		if !math.IsNaN(d.Median) {
			medians = append(medians, plotter.XY{X: x, Y: d.Median})
		}
	}
	if len(means) == 0 && len(medians) == 0 {
		return nil, errors.NewEmptyResultError("daily chart").WithContext("reason", "no values")
	}

	p := r.newPlot(VariantDaily, data)
	p.X.Label.Text = "Day of 2nd Week"
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	rotateX(p, 45)
	p.Legend.Top = false
	p.Legend.Left = false

	series := []struct {
		name   string
		points plotter.XYs
		color  color.Color
	}{
		{"Average Trace", means, averageColor},
		{"Median Trace", medians, medianColor},
	}
	for _, s := range series {
		if len(s.points) == 0 {
			continue
		}
		line, err := plotter.NewLine(s.points)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s line: %w", s.name, err)
		}
		line.Color = s.color
		line.Width = vg.Points(2)
		line.Dashes = dashes
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	return p, nil
}

func (r *ChartRenderer) hourly(data ChartData) (*plot.Plot, error) {
	var points plotter.XYs
	for i, s := range data.Hourly {
		if !math.IsNaN(s.Value) {
			points = append(points, plotter.XY{X: float64(i), Y: s.Value})
		}
	}
	if len(points) == 0 {
		return nil, errors.NewEmptyResultError("hourly chart")
	}

	p := r.newPlot(VariantHourly, data)
	p.X.Label.Text = "Day of 1st Week"

	marks := kpi.HourlyTicks(data.Hourly)
	ticks := make([]plot.Tick, len(marks))
	for i, m := range marks {
		ticks[i] = plot.Tick{Value: float64(m.Index), Label: m.Label}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	rotateX(p, -45)

	line, err := plotter.NewLine(points)
	if err != nil {
		return nil, fmt.Errorf("failed to create hourly line: %w", err)
	}
	line.Color = averageColor
	line.Width = vg.Points(2)
	line.Dashes = dashes
	p.Add(line)
	return p, nil
}

func (r *ChartRenderer) box(data ChartData) (*plot.Plot, error) {
	if len(data.Boxes) == 0 {
		return nil, errors.NewEmptyResultError("box chart")
	}

	p := r.newPlot(VariantBox, data)
	p.X.Label.Text = "Day of Week"

	labels := make([]string, 0, len(data.Boxes))
	for i, day := range data.Boxes {
		b, err := plotter.NewBoxPlot(vg.Points(boxWidth), float64(i), plotter.Values(day.Values))
		if err != nil {
			return nil, errors.NewEmptyResultError("box chart").
				WithContext("day", day.Day.Format(dayLabelLayout)).
				WithContext("cause", err.Error())
		}
		p.Add(b)
		labels = append(labels, day.Day.Format(dayLabelLayout))
	}
	p.NominalX(labels...)
	rotateX(p, -45)
	return p, nil
}
