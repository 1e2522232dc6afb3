// Package render draws embedded graphs. Renderers only read positions: they
// project them to the plane, fit them into a viewport and emit SVG, PNG, JSON
// or a terminal scatter plot.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/dd0wney/graphem/pkg/graph"
)

// ErrEmptyScene is returned when there is nothing to draw.
var ErrEmptyScene = errors.New("empty scene")

// Options are the display options passed through DisplayLayout.
type Options struct {
	EdgeWidth float64 `json:"edge_width" yaml:"edge_width"`
	NodeSize  float64 `json:"node_size" yaml:"node_size"`
	// NodeSizes overrides NodeSize per vertex when non-empty
	NodeSizes []float64 `json:"node_sizes,omitempty" yaml:"node_sizes"`
	// NodeColors are CSS/graphviz color names per vertex
	NodeColors []string `json:"node_colors,omitempty" yaml:"node_colors"`
	Title      string   `json:"title,omitempty" yaml:"title"`
	Width      float64  `json:"width" yaml:"width"`
	Height     float64  `json:"height" yaml:"height"`
	Padding    float64  `json:"padding" yaml:"padding"`
}

// DefaultOptions returns sensible options for an 800x800 canvas.
func DefaultOptions() Options {
	return Options{EdgeWidth: 1, NodeSize: 6, Width: 800, Height: 800, Padding: 50}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.EdgeWidth <= 0 {
		o.EdgeWidth = d.EdgeWidth
	}
	if o.NodeSize <= 0 {
		o.NodeSize = d.NodeSize
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Padding < 0 || o.Padding*2 >= math.Min(o.Width, o.Height) {
		o.Padding = d.Padding
	}
	return o
}

// nodeSize returns the size of vertex v.
func (o Options) nodeSize(v int) float64 {
	if v < len(o.NodeSizes) && o.NodeSizes[v] > 0 {
		return o.NodeSizes[v]
	}
	return o.NodeSize
}

func (o Options) nodeColor(v int, shades []string) string {
	if v < len(o.NodeColors) && o.NodeColors[v] != "" {
		return o.NodeColors[v]
	}
	if v < len(shades) {
		return shades[v]
	}
	return "steelblue"
}

// RadiusShades colours vertices by distance from the centroid, dark red at
// the centre fading to pale blue at the rim.
func RadiusShades(positions [][]float64) []string {
	n := len(positions)
	if n == 0 {
		return nil
	}
	dim := len(positions[0])
	center := make([]float64, dim)
	for _, row := range positions {
		for d, x := range row {
			center[d] += x / float64(n)
		}
	}

	radii := make([]float64, n)
	maxR := 0.0
	for v, row := range positions {
		sum := 0.0
		for d, x := range row {
			sum += (x - center[d]) * (x - center[d])
		}
		radii[v] = math.Sqrt(sum)
		maxR = math.Max(maxR, radii[v])
	}

	out := make([]string, n)
	for v, r := range radii {
		t := 0.0
		if maxR > 0 {
			t = r / maxR
		}
		red := uint8(180 - 120*t)
		green := uint8(30 + 170*t)
		blue := uint8(40 + 200*t)
		out[v] = fmt.Sprintf("#%02x%02x%02x", red, green, blue)
	}
	return out
}

// Scene is everything a renderer needs.
type Scene struct {
	Positions [][]float64
	Edges     []graph.Edge
	Options   Options
}

// Renderer draws a scene to w.
type Renderer interface {
	Render(ctx context.Context, w io.Writer, s Scene) error
}

// Point is a projected 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Project keeps the first two coordinates of every position. One-dimensional
// embeddings are laid out on the x axis.
func Project(positions [][]float64) []Point {
	out := make([]Point, len(positions))
	for i, row := range positions {
		if len(row) > 0 {
			out[i].X = row[0]
		}
		if len(row) > 1 {
			out[i].Y = row[1]
		}
	}
	return out
}

// Fit scales points to fit within width x height with padding on every side.
func Fit(points []Point, width, height, padding float64) []Point {
	if len(points) == 0 {
		return points
	}

	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	minY, maxY := math.MaxFloat64, -math.MaxFloat64
	for _, p := range points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	// Keep the aspect ratio so distances stay comparable on both axes.
	span := math.Max(rangeX, rangeY)
	if span < 1e-9 {
		span = 1
	}

	targetWidth := width - 2*padding
	targetHeight := height - 2*padding
	scale := math.Min(targetWidth, targetHeight) / span
	offX := padding + (targetWidth-rangeX*scale)/2
	offY := padding + (targetHeight-rangeY*scale)/2

	fitted := make([]Point, len(points))
	for i, p := range points {
		fitted[i] = Point{
			X: offX + (p.X-minX)*scale,
			Y: offY + (p.Y-minY)*scale,
		}
	}
	return fitted
}

func validate(s Scene) error {
	if len(s.Positions) == 0 {
		return ErrEmptyScene
	}
	for _, e := range s.Edges {
		if e.U < 0 || e.V < 0 || e.U >= len(s.Positions) || e.V >= len(s.Positions) {
			return fmt.Errorf("edge (%d,%d) outside %d positions", e.U, e.V, len(s.Positions))
		}
	}
	return nil
}

// New returns the renderer registered under format.
func New(format string) (Renderer, error) {
	switch format {
	case "svg", "":
		return SVGRenderer{}, nil
	case "dot":
		return DOTRenderer{}, nil
	case "png":
		return PNGRenderer{}, nil
	case "json":
		return JSONRenderer{}, nil
	case "terminal", "text":
		return TerminalRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown render format %q", format)
	}
}
