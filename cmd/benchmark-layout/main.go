package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dd0wney/graphem/pkg/generators"
	"github.com/dd0wney/graphem/pkg/layout"
	"github.com/dd0wney/graphem/pkg/seeds"
	"github.com/dd0wney/graphem/pkg/spatial"
)

func main() {
	sizes := flag.String("sizes", "1000,5000,20000", "Comma-separated vertex counts")
	m := flag.Int("m", 3, "Edges per new vertex (Barabasi-Albert)")
	iterations := flag.Int("iterations", 20, "Layout iterations per run")
	indexes := flag.String("indexes", strings.Join(spatial.Kinds(), ","), "Spatial indexes to compare")
	workers := flag.Int("workers", 0, "Parallel force lanes (0 for sequential)")
	seed := flag.Uint64("seed", 1, "Random seed")
	flag.Parse()

	ns, err := parseSizes(*sizes)
	if err != nil {
		log.Fatalf("Invalid -sizes: %v", err)
	}

	fmt.Printf("🔥 graphem Layout Benchmark\n")
	fmt.Printf("===========================\n\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Sizes: %s\n", *sizes)
	fmt.Printf("  Iterations: %d\n", *iterations)
	fmt.Printf("  Indexes: %s\n", *indexes)
	fmt.Printf("  Workers: %d\n\n", *workers)

	for _, n := range ns {
		fmt.Printf("\n📝 Barabasi-Albert graph, %s vertices\n", humanize.Comma(int64(n)))
		start := time.Now()
		g, err := generators.BarabasiAlbert(rand.New(rand.NewPCG(*seed, uint64(n))), n, *m)
		if err != nil {
			log.Fatalf("Failed to generate graph: %v", err)
		}
		fmt.Printf("  ✅ Generated %s edges in %v\n", humanize.Comma(int64(g.M())), time.Since(start))

		for _, kind := range strings.Split(*indexes, ",") {
			kind = strings.TrimSpace(kind)
			if kind == spatial.KindBrute && n > 5000 {
				fmt.Printf("  ⏭️  %s: skipped above 5,000 vertices\n", kind)
				continue
			}

			opts := []layout.Option{layout.WithSeed(*seed), layout.WithIndexKind(kind)}
			if *workers > 1 {
				opts = append(opts, layout.WithWorkers(*workers))
			}
			e, err := layout.New(g, layout.DefaultParams(), opts...)
			if err != nil {
				log.Fatalf("Failed to create engine: %v", err)
			}

			start = time.Now()
			if err := e.RunLayout(*iterations); err != nil {
				log.Fatalf("Layout failed: %v", err)
			}
			duration := time.Since(start)
			top := seeds.SelectFromEngine(e, 1)
			e.Close()

			perIter := duration / time.Duration(*iterations)
			fmt.Printf("  ⚡ %-6s %v total, %v per iteration\n", kind, duration.Round(time.Millisecond), perIter.Round(time.Microsecond))
			fmt.Printf("  🚀 %-6s %s vertex updates/sec, most central vertex %d (degree %d)\n",
				kind, humanize.CommafWithDigits(float64(n)*float64(*iterations)/duration.Seconds(), 0), top[0], g.Degree(top[0]))
		}
	}

	fmt.Printf("\n✅ Done\n")
}

func parseSizes(s string) ([]int, error) {
	var ns []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if n < 2 {
			return nil, fmt.Errorf("size %d is below 2", n)
		}
		ns = append(ns, n)
	}
	return ns, nil
}
