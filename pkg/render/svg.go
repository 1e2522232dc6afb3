package render

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-graphviz"
)

// ToDOT writes the scene as an undirected graphviz graph with every node
// pinned at its fitted position, in points.
func ToDOT(s Scene) string {
	o := s.Options.withDefaults()
	pts := Fit(Project(s.Positions), o.Width, o.Height, o.Padding)
	shades := RadiusShades(s.Positions)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	if o.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", o.Title)
	}
	buf.WriteString("  bgcolor=\"white\";\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  node [shape=circle, style=filled, label=\"\", fixedsize=true, color=\"#333333\"];\n")
	fmt.Fprintf(&buf, "  edge [color=\"#999999\", penwidth=%.2f];\n\n", o.EdgeWidth)

	for v, p := range pts {
		// graphviz sizes are inches
		size := o.nodeSize(v) / 72
		fmt.Fprintf(&buf, "  %d [pos=\"%.2f,%.2f!\", width=%.3f, fillcolor=%q];\n",
			v, p.X, o.Height-p.Y, size, o.nodeColor(v, shades))
	}
	buf.WriteString("\n")
	for _, e := range s.Edges {
		if e.U == e.V {
			continue
		}
		fmt.Fprintf(&buf, "  %d -- %d;\n", e.U, e.V)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// DOTRenderer emits the DOT source without running graphviz.
type DOTRenderer struct{}

func (DOTRenderer) Render(_ context.Context, w io.Writer, s Scene) error {
	if err := validate(s); err != nil {
		return err
	}
	_, err := io.WriteString(w, ToDOT(s))
	return err
}

// SVGRenderer lays the pinned DOT graph out with neato and renders SVG.
type SVGRenderer struct{}

func (SVGRenderer) Render(ctx context.Context, w io.Writer, s Scene) error {
	if err := validate(s); err != nil {
		return err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(ToDOT(s)))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if err := gv.Render(ctx, g, graphviz.SVG, w); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}
