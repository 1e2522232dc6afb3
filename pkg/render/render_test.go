package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/dd0wney/graphem/pkg/graph"
)

func square() Scene {
	return Scene{
		Positions: [][]float64{{0, 0, 5}, {10, 0, 5}, {10, 10, 5}, {0, 10, 5}},
		Edges:     []graph.Edge{{U: 0, V: 1}, {U: 1, V: 2}, {U: 2, V: 3}, {U: 3, V: 0}},
		Options:   Options{Title: "square", NodeSizes: []float64{12}},
	}
}

func TestProject(t *testing.T) {
	pts := Project([][]float64{{1}, {2, 3}, {4, 5, 6}})
	want := []Point{{1, 0}, {2, 3}, {4, 5}}
	for i := range want {
		if pts[i] != want[i] {
			t.Errorf("Project[%d] = %v, want %v", i, pts[i], want[i])
		}
	}
}

func TestFit(t *testing.T) {
	pts := Fit([]Point{{-5, 0}, {5, 0}, {0, 2}}, 200, 100, 10)
	for _, p := range pts {
		if p.X < 10-1e-9 || p.X > 190+1e-9 || p.Y < 10-1e-9 || p.Y > 90+1e-9 {
			t.Errorf("point %v outside padded viewport", p)
		}
	}
	// aspect ratio is kept: x spans 10 units, y spans 2
	gotRatio := (pts[1].X - pts[0].X) / (pts[2].Y - pts[0].Y)
	if math.Abs(gotRatio-5) > 1e-9 {
		t.Errorf("aspect ratio = %v, want 5", gotRatio)
	}

	single := Fit([]Point{{3, 3}}, 100, 100, 0)
	if math.IsNaN(single[0].X) || math.IsNaN(single[0].Y) {
		t.Errorf("single point fitted to %v", single[0])
	}
	if len(Fit(nil, 1, 1, 0)) != 0 {
		t.Error("empty input should stay empty")
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(square())
	for _, want := range []string{"graph G {", `label="square"`, "0 -- 1;", "3 -- 0;", `pos="`, "!\""} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Count(dot, "--") != 4 {
		t.Errorf("expected 4 edges in DOT")
	}
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONRenderer{}).Render(context.Background(), &buf, square()); err != nil {
		t.Fatal(err)
	}

	var got struct {
		Title string `json:"title"`
		Nodes []struct {
			ID     int       `json:"id"`
			Coords []float64 `json:"coords"`
			Size   float64   `json:"size"`
		} `json:"nodes"`
		Edges []struct{ From, To int } `json:"edges"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Title != "square" || len(got.Nodes) != 4 || len(got.Edges) != 4 {
		t.Errorf("decoded = %+v", got)
	}
	if len(got.Nodes[2].Coords) != 3 {
		t.Errorf("full coordinates not exported: %v", got.Nodes[2].Coords)
	}
	if got.Nodes[0].Size != 12 || got.Nodes[1].Size != DefaultOptions().NodeSize {
		t.Errorf("sizes = %v, %v", got.Nodes[0].Size, got.Nodes[1].Size)
	}
}

func TestGrid(t *testing.T) {
	s := square()
	s.Options.NodeSize = 6
	grid := Grid(s, 21, 11)

	if len(grid) != 11 || len(grid[0]) != 21 {
		t.Fatalf("grid is %dx%d", len(grid), len(grid[0]))
	}
	nodes, big, edges := 0, 0, 0
	for _, row := range grid {
		for _, g := range row {
			switch g {
			case glyphNode:
				nodes++
			case glyphBig:
				big++
			case glyphEdge:
				edges++
			}
		}
	}
	if nodes != 3 || big != 1 {
		t.Errorf("nodes=%d big=%d, want 3 and 1", nodes, big)
	}
	if edges == 0 {
		t.Error("no edges drawn")
	}
}

func TestTerminalRenderer(t *testing.T) {
	var buf bytes.Buffer
	s := square()
	s.Options.Width, s.Options.Height = 30, 10
	if err := (TerminalRenderer{}).Render(context.Background(), &buf, s); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "square") {
		t.Errorf("title missing:\n%s", buf.String())
	}
}

func TestRender_EmptyScene(t *testing.T) {
	for _, r := range []Renderer{SVGRenderer{}, DOTRenderer{}, JSONRenderer{}, TerminalRenderer{}, PNGRenderer{}} {
		if err := r.Render(context.Background(), &bytes.Buffer{}, Scene{}); !errors.Is(err, ErrEmptyScene) {
			t.Errorf("%T: err = %v, want ErrEmptyScene", r, err)
		}
	}
}

func TestRender_BadEdge(t *testing.T) {
	s := square()
	s.Edges = append(s.Edges, graph.Edge{U: 0, V: 9})
	if err := (DOTRenderer{}).Render(context.Background(), &bytes.Buffer{}, s); err == nil {
		t.Error("edge outside positions accepted")
	}
}

func TestNew(t *testing.T) {
	for _, f := range []string{"svg", "dot", "json", "terminal", "png"} {
		if _, err := New(f); err != nil {
			t.Errorf("New(%q): %v", f, err)
		}
	}
	if _, err := New("pdf"); err == nil {
		t.Error("New(pdf) should fail")
	}
}

func TestSVGRenderer(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz wasm start-up is slow")
	}
	var buf bytes.Buffer
	if err := (SVGRenderer{}).Render(context.Background(), &buf, square()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Errorf("output is not SVG: %.200s", buf.String())
	}
}

func TestRadiusShades(t *testing.T) {
	shades := RadiusShades([][]float64{{0, 0}, {-1, 0}, {1, 0}, {0, 4}, {0, -4}})
	if len(shades) != 5 {
		t.Fatalf("len = %d", len(shades))
	}
	if shades[0] != "#b41e28" {
		t.Errorf("centre shade = %s, want #b41e28", shades[0])
	}
	if shades[3] != shades[4] || shades[3] != "#3cc8f0" {
		t.Errorf("rim shades = %s %s, want #3cc8f0", shades[3], shades[4])
	}
	if RadiusShades(nil) != nil {
		t.Error("empty input should give nil")
	}
}

func TestPNGRenderer(t *testing.T) {
	var buf bytes.Buffer
	s := square()
	s.Options.Width, s.Options.Height = 200, 120
	s.Options.NodeColors = []string{"red", "#00ff00"}
	if err := (PNGRenderer{}).Render(context.Background(), &buf, s); err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 120 {
		t.Errorf("bounds = %v, want 200x120", b)
	}
}

func TestHexOr(t *testing.T) {
	tests := map[string]string{
		"#abc":      "#abc",
		"#a1b2c3":   "#a1b2c3",
		"steelblue": "#fff",
		"#12345":    "#fff",
	}
	for in, want := range tests {
		if got := hexOr(in, "#fff"); got != want {
			t.Errorf("hexOr(%q) = %q, want %q", in, got, want)
		}
	}
}
