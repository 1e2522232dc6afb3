package render

import (
	"context"
	"encoding/json"
	"io"
)

// JSONRenderer exports the scene for web front ends. Nodes carry both the
// full coordinates and the fitted 2D position.
type JSONRenderer struct{}

type jsonNode struct {
	ID     int       `json:"id"`
	Coords []float64 `json:"coords"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Size   float64   `json:"size"`
	Color  string    `json:"color"`
}

type jsonEdge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type jsonScene struct {
	Title string     `json:"title,omitempty"`
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

func (JSONRenderer) Render(_ context.Context, w io.Writer, s Scene) error {
	if err := validate(s); err != nil {
		return err
	}
	o := s.Options.withDefaults()
	pts := Fit(Project(s.Positions), o.Width, o.Height, o.Padding)
	shades := RadiusShades(s.Positions)

	data := jsonScene{
		Title: o.Title,
		Nodes: make([]jsonNode, len(pts)),
		Edges: make([]jsonEdge, len(s.Edges)),
	}
	for v, p := range pts {
		data.Nodes[v] = jsonNode{
			ID:     v,
			Coords: s.Positions[v],
			X:      p.X,
			Y:      p.Y,
			Size:   o.nodeSize(v),
			Color:  o.nodeColor(v, shades),
		}
	}
	for i, e := range s.Edges {
		data.Edges[i] = jsonEdge{From: e.U, To: e.V}
	}
	return json.NewEncoder(w).Encode(data)
}
