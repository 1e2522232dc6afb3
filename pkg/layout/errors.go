package layout

import (
	"errors"

	"github.com/dd0wney/graphem/pkg/graph"
)

var (
	// ErrInvalidGraph is returned by New when an edge references a vertex
	// outside [0, n).
	ErrInvalidGraph = graph.ErrInvalidGraph
	// ErrInvalidParameter is returned for non-positive sizes, negative counts
	// and non-finite coefficients.
	ErrInvalidParameter = graph.ErrInvalidParameter
	// ErrClosed is returned by RunLayout after Close.
	ErrClosed = errors.New("layout engine closed")
	// ErrBusy is returned by TryRunLayout while another run is in progress.
	ErrBusy = errors.New("layout run already in progress")
)
