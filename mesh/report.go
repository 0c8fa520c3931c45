package mesh

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/svg"
)

// ReportRenderer renders a comparison report as vector graphics: one
// histogram of per-sample distances per pair, with the reported distance and
// (for bounded methods) the error bracket drawn as vertical markers.
type ReportRenderer struct {
	Results   []*ComparisonResult
	Distances map[string][]float64 // per-pair sample distances, optional

	Width   float64 // canvas width in mm
	RowH    float64 // height per pair row in mm
	Padding float64 // outer padding in mm
	Bins    int
}

// NewReportRenderer creates a report renderer with default layout settings.
func NewReportRenderer(results []*ComparisonResult) *ReportRenderer {
	return &ReportRenderer{
		Results:   results,
		Distances: make(map[string][]float64),
		Width:     240,
		RowH:      60,
		Padding:   10,
		Bins:      32,
	}
}

// RenderToSVG writes the report as an SVG to the provided writer.
func (r *ReportRenderer) RenderToSVG(w io.Writer) error {
	if len(r.Results) == 0 {
		return fmt.Errorf("rendering report: no results")
	}

	height := float64(len(r.Results))*r.RowH + 2*r.Padding
	svgRenderer := svg.New(w, r.Width, height, nil)

	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	svgRenderer.RenderPath(canvas.Rectangle(r.Width, height), bgStyle, canvas.Identity)

	for i, res := range r.Results {
		// SVG y grows downward in the renderer's coordinate flip; rows stack
		// from the top of the canvas.
		rowBottom := height - r.Padding - float64(i+1)*r.RowH
		r.renderRow(svgRenderer, res, rowBottom)
	}

	return svgRenderer.Close()
}

func (r *ReportRenderer) renderRow(renderer *svg.SVG, res *ComparisonResult, rowBottom float64) {
	plotX := r.Padding
	plotW := r.Width - 2*r.Padding
	plotH := r.RowH * 0.8

	axisStyle := canvas.DefaultStyle
	axisStyle.Fill = canvas.Paint{}
	axisStyle.Stroke = canvas.Paint{Color: canvas.Black}
	axisStyle.StrokeWidth = 0.4

	axis := &canvas.Path{}
	axis.MoveTo(plotX, rowBottom)
	axis.LineTo(plotX+plotW, rowBottom)
	renderer.RenderPath(axis, axisStyle, canvas.Identity)

	samples := r.Distances[res.Pair]
	scaleMax := res.Distance
	if res.Bound > 0 {
		scaleMax += res.Bound
	}
	for _, d := range samples {
		if d > scaleMax {
			scaleMax = d
		}
	}
	if scaleMax <= 0 {
		scaleMax = 1
	}

	if len(samples) > 0 {
		r.renderHistogram(renderer, samples, scaleMax, plotX, rowBottom, plotW, plotH)
	}

	// Reported distance marker.
	r.renderMarker(renderer, res.Distance/scaleMax, color.RGBA{R: 200, A: 255},
		plotX, rowBottom, plotW, plotH)

	// Error bracket for bounded methods.
	if res.Bound > 0 {
		lo := math.Max(0, res.Distance-res.Bound)
		hi := res.Distance + res.Bound
		bracketColor := color.RGBA{R: 200, G: 120, A: 255}
		r.renderMarker(renderer, lo/scaleMax, bracketColor, plotX, rowBottom, plotW, plotH*0.6)
		r.renderMarker(renderer, hi/scaleMax, bracketColor, plotX, rowBottom, plotW, plotH*0.6)
	}
}

func (r *ReportRenderer) renderHistogram(renderer *svg.SVG, samples []float64, scaleMax float64, plotX, rowBottom, plotW, plotH float64) {
	bins := make([]int, r.Bins)
	maxCount := 0
	for _, d := range samples {
		b := int(d / scaleMax * float64(r.Bins))
		if b >= r.Bins {
			b = r.Bins - 1
		}
		bins[b]++
		if bins[b] > maxCount {
			maxCount = bins[b]
		}
	}

	barStyle := canvas.DefaultStyle
	barStyle.Fill = canvas.Paint{Color: color.RGBA{R: 100, G: 140, B: 200, A: 255}}

	binW := plotW / float64(r.Bins)
	for b, count := range bins {
		if count == 0 {
			continue
		}
		h := plotH * float64(count) / float64(maxCount)
		bar := canvas.Rectangle(binW*0.9, h).Translate(plotX+float64(b)*binW, rowBottom)
		renderer.RenderPath(bar, barStyle, canvas.Identity)
	}
}

func (r *ReportRenderer) renderMarker(renderer *svg.SVG, frac float64, c color.RGBA, plotX, rowBottom, plotW, markH float64) {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	style := canvas.DefaultStyle
	style.Fill = canvas.Paint{}
	style.Stroke = canvas.Paint{Color: c}
	style.StrokeWidth = 0.6

	x := plotX + frac*plotW
	line := &canvas.Path{}
	line.MoveTo(x, rowBottom)
	line.LineTo(x, rowBottom+markH)
	renderer.RenderPath(line, style, canvas.Identity)
}
