package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// ErrUnknownDataset is returned for a name missing from the registry.
var ErrUnknownDataset = errors.New("dataset: unknown dataset")

// Info describes a published dataset.
type Info struct {
	Name        string `json:"name" yaml:"name"`
	Source      string `json:"source" yaml:"source"`
	Description string `json:"description" yaml:"description"`
	// File is the edge list name inside the data directory
	File  string `json:"file" yaml:"file"`
	URL   string `json:"url" yaml:"url"`
	Nodes int    `json:"nodes" yaml:"nodes"`
	Edges int    `json:"edges" yaml:"edges"`
}

var builtin = []Info{
	{
		Name: "snap-facebook_combined", Source: "SNAP",
		Description: "Facebook ego networks",
		File:        "facebook_combined.txt",
		URL:         "https://snap.stanford.edu/data/facebook_combined.txt.gz",
		Nodes:       4039, Edges: 88234,
	},
	{
		Name: "snap-ca-GrQc", Source: "SNAP",
		Description: "General Relativity collaboration network",
		File:        "CA-GrQc.txt",
		URL:         "https://snap.stanford.edu/data/ca-GrQc.txt.gz",
		Nodes:       5242, Edges: 14496,
	},
	{
		Name: "snap-ca-HepTh", Source: "SNAP",
		Description: "High Energy Physics Theory collaboration network",
		File:        "CA-HepTh.txt",
		URL:         "https://snap.stanford.edu/data/ca-HepTh.txt.gz",
		Nodes:       9877, Edges: 25998,
	},
	{
		Name: "snap-ca-HepPh", Source: "SNAP",
		Description: "High Energy Physics Phenomenology collaboration network",
		File:        "CA-HepPh.txt",
		URL:         "https://snap.stanford.edu/data/ca-HepPh.txt.gz",
		Nodes:       12008, Edges: 118521,
	},
	{
		Name: "snap-email-Enron", Source: "SNAP",
		Description: "Enron email communication network",
		File:        "Email-Enron.txt",
		URL:         "https://snap.stanford.edu/data/email-Enron.txt.gz",
		Nodes:       36692, Edges: 183831,
	},
	{
		Name: "snap-loc-brightkite_edges", Source: "SNAP",
		Description: "Brightkite location-based friendship network",
		File:        "loc-brightkite_edges.txt",
		URL:         "https://snap.stanford.edu/data/loc-brightkite_edges.txt.gz",
		Nodes:       58228, Edges: 214078,
	},
}

// Registry resolves dataset names to files under a data directory.
type Registry struct {
	dir      string
	datasets map[string]Info
}

// NewRegistry returns a registry of the built-in datasets rooted at dir.
func NewRegistry(dir string) *Registry {
	r := &Registry{dir: dir, datasets: make(map[string]Info, len(builtin))}
	for _, info := range builtin {
		r.datasets[info.Name] = info
	}
	return r
}

// Register adds or replaces a dataset.
func (r *Registry) Register(info Info) {
	r.datasets[info.Name] = info
}

// List returns every dataset sorted by name.
func (r *Registry) List() []Info {
	out := make([]Info, 0, len(r.datasets))
	for _, info := range r.datasets {
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b Info) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}

// Lookup returns the description of name.
func (r *Registry) Lookup(name string) (Info, error) {
	info, ok := r.datasets[name]
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	return info, nil
}

// Path returns where the edge list of name is expected on disk.
func (r *Registry) Path(name string) (string, error) {
	info, err := r.Lookup(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.dir, info.File), nil
}

// Load reads the named dataset. A missing file reports the URL it can be
// downloaded from.
func (r *Registry) Load(name string, opts LoadOptions) (*Loaded, error) {
	path, err := r.Path(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		info, _ := r.Lookup(name)
		return nil, fmt.Errorf("dataset %s not found at %s (download from %s): %w", name, path, info.URL, err)
	}
	return LoadEdgeList(path, opts)
}
