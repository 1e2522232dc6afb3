package render

import (
	"context"
	"io"
	"strings"

	"github.com/fogleman/gg"
)

// PNGRenderer rasterizes the scene with gg. Colours must be hex; anything
// else is drawn in the default node colour.
type PNGRenderer struct{}

const defaultNodeHex = "#4682b4"

func hexOr(c, fallback string) string {
	if strings.HasPrefix(c, "#") && (len(c) == 4 || len(c) == 7 || len(c) == 9) {
		return c
	}
	return fallback
}

func (PNGRenderer) Render(ctx context.Context, w io.Writer, s Scene) error {
	if err := validate(s); err != nil {
		return err
	}
	o := s.Options.withDefaults()
	pts := Fit(Project(s.Positions), o.Width, o.Height, o.Padding)
	shades := RadiusShades(s.Positions)

	dc := gg.NewContext(int(o.Width), int(o.Height))
	dc.SetHexColor("#ffffff")
	dc.Clear()

	dc.SetHexColor("#999999")
	dc.SetLineWidth(o.EdgeWidth)
	for i, e := range s.Edges {
		if e.U == e.V {
			continue
		}
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		a, b := pts[e.U], pts[e.V]
		dc.DrawLine(a.X, a.Y, b.X, b.Y)
		dc.Stroke()
	}

	dc.SetLineWidth(0.5)
	for v, p := range pts {
		dc.DrawCircle(p.X, p.Y, o.nodeSize(v)/2)
		dc.SetHexColor(hexOr(o.nodeColor(v, shades), defaultNodeHex))
		dc.FillPreserve()
		dc.SetHexColor("#333333")
		dc.Stroke()
	}

	if o.Title != "" {
		dc.SetHexColor("#000000")
		dc.DrawStringAnchored(o.Title, o.Width/2, o.Padding/2, 0.5, 0.5)
	}
	return dc.EncodePNG(w)
}
