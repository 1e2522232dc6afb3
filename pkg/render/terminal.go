package render

import (
	"context"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	edgeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	nodeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	bigStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
)

// TerminalRenderer draws a character-cell scatter plot. Width and Height of
// the options are read as columns and rows.
type TerminalRenderer struct{}

const (
	glyphEmpty = ' '
	glyphEdge  = '·'
	glyphNode  = 'o'
	glyphBig   = '@'
)

// Grid rasterizes the scene into rows of glyphs.
func Grid(s Scene, cols, rows int) [][]rune {
	grid := make([][]rune, rows)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(string(glyphEmpty), cols))
	}
	if len(s.Positions) == 0 || cols < 1 || rows < 1 {
		return grid
	}

	pts := Fit(Project(s.Positions), float64(cols-1), float64(rows-1), 0)
	cell := func(p Point) (int, int) {
		return int(math.Round(p.X)), rows - 1 - int(math.Round(p.Y))
	}

	for _, e := range s.Edges {
		if e.U == e.V {
			continue
		}
		x0, y0 := cell(pts[e.U])
		x1, y1 := cell(pts[e.V])
		line(x0, y0, x1, y1, func(x, y int) {
			if grid[y][x] == glyphEmpty {
				grid[y][x] = glyphEdge
			}
		})
	}

	// Vertices bigger than the base size are drawn with a heavier glyph.
	base := s.Options.NodeSize
	for v, p := range pts {
		x, y := cell(p)
		g := glyphNode
		if size := s.Options.nodeSize(v); base > 0 && size > base {
			g = glyphBig
		}
		if grid[y][x] != glyphBig {
			grid[y][x] = g
		}
	}
	return grid
}

// line walks the cells between two points (Bresenham).
func line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (TerminalRenderer) Render(_ context.Context, w io.Writer, s Scene) error {
	if err := validate(s); err != nil {
		return err
	}
	cols, rows := int(s.Options.Width), int(s.Options.Height)
	if cols <= 0 || cols > 400 {
		cols = 72
	}
	if rows <= 0 || rows > 200 {
		rows = 24
	}

	var b strings.Builder
	for i, row := range Grid(s, cols, rows) {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, g := range row {
			switch g {
			case glyphEdge:
				b.WriteString(edgeStyle.Render(string(g)))
			case glyphNode:
				b.WriteString(nodeStyle.Render(string(g)))
			case glyphBig:
				b.WriteString(bigStyle.Render(string(g)))
			default:
				b.WriteRune(g)
			}
		}
	}

	out := frameStyle.Render(b.String())
	if s.Options.Title != "" {
		out = lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(s.Options.Title), out)
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}
