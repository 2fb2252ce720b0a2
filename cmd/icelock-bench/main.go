// icelock-bench measures construction, cascade and access costs of guarded
// views over a generated document tree.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/phroun/icelock"
	"github.com/phroun/icelock/internal/document"
)

var (
	depth      int
	width      int
	iterations int
	rewrap     bool
)

type BenchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
	Extra    string
}

func (r BenchResult) String() string {
	if r.Ops > 0 {
		opsPerSec := float64(r.Ops) / r.Duration.Seconds()
		if r.Extra != "" {
			return fmt.Sprintf("%-36s %12v  (%d ops, %.2f ops/sec) %s", r.Name, r.Duration.Round(time.Microsecond), r.Ops, opsPerSec, r.Extra)
		}
		return fmt.Sprintf("%-36s %12v  (%d ops, %.2f ops/sec)", r.Name, r.Duration.Round(time.Microsecond), r.Ops, opsPerSec)
	}
	if r.Extra != "" {
		return fmt.Sprintf("%-36s %12v  %s", r.Name, r.Duration.Round(time.Microsecond), r.Extra)
	}
	return fmt.Sprintf("%-36s %12v", r.Name, r.Duration.Round(time.Microsecond))
}

var rootCmd = &cobra.Command{
	Use:          "icelock-bench",
	Short:        "Benchmark guarded views",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if depth < 0 || width < 1 || iterations < 1 {
			return errors.New("depth must be >= 0, width and iterations >= 1")
		}
		return run()
	},
}

func init() {
	rootCmd.Flags().IntVar(&depth, "depth", 4, "nesting depth of the generated document")
	rootCmd.Flags().IntVar(&width, "width", 4, "records, list elements and set members per level")
	rootCmd.Flags().IntVarP(&iterations, "iterations", "n", 100, "repetitions per benchmark")
	rootCmd.Flags().BoolVar(&rewrap, "rewrap", false, "guard composites inserted while thawed")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	fmt.Println("icelock Benchmark")
	fmt.Println("=================")
	fmt.Printf("Document: depth %d, width %d\n", depth, width)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
	fmt.Println()

	doc := generateDocument(depth, width)
	opts := icelock.Options{RewrapInserted: rewrap}

	h, err := icelock.LockWithOptions(doc, opts)
	if err != nil {
		return fmt.Errorf("failed to guard document: %w", err)
	}
	fmt.Printf("Document ready: %d handles\n\n", h.Census().Nodes)

	var results []BenchResult
	runBench := func(name string, fn func() BenchResult) {
		fmt.Printf("  %-36s ", name+"...")
		result := fn()
		fmt.Printf("%v\n", result.Duration.Round(time.Microsecond))
		results = append(results, result)
	}

	fmt.Println("Construction:")
	runBench("Construct", func() BenchResult { return benchConstruct(doc, opts) })
	runBench("Clone", func() BenchResult { return benchClone(h) })
	runBench("Encode as YAML", func() BenchResult { return benchEncode(h) })

	fmt.Println("\nLocking:")
	runBench("Freeze/unfreeze cascade", func() BenchResult { return benchCascade(h) })
	runBench("Census", func() BenchResult { return benchCensus(h) })

	fmt.Println("\nAccess:")
	runBench("Read every element", func() BenchResult { return benchReads(h) })
	runBench("Rejected mutations", func() BenchResult { return benchRejected(h) })
	runBench("Thawed push/pop", func() BenchResult { return benchPushPop(h) })

	fmt.Println("\n" + "=")
	fmt.Println("SUMMARY")
	fmt.Println("=")
	for _, r := range results {
		fmt.Println(r)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Println()
	fmt.Printf("Peak heap allocation: %d KB\n", m.HeapSys/1024)
	fmt.Printf("Total allocations: %d KB\n", m.TotalAlloc/1024)
	return nil
}

// generateDocument builds a record holding width nested records down to
// depth, plus a list and a tag set at every level.
func generateDocument(depth, width int) icelock.Fields {
	fields := make(icelock.Fields, 0, width+3)
	if depth > 0 {
		for i := 0; i < width; i++ {
			fields = append(fields, icelock.Field{Key: fmt.Sprintf("child%d", i), Value: generateDocument(depth-1, width)})
		}
	}

	list := make([]any, width)
	tags := make(icelock.Members, width)
	index := make(icelock.Pairs, width)
	for i := 0; i < width; i++ {
		list[i] = i
		tags[i] = fmt.Sprintf("tag%d", i)
		index[i] = icelock.Pair{Key: i, Value: fmt.Sprintf("entry%d", i)}
	}
	return append(fields,
		icelock.Field{Key: "list", Value: list},
		icelock.Field{Key: "tags", Value: tags},
		icelock.Field{Key: "index", Value: index},
	)
}

func benchConstruct(doc any, opts icelock.Options) BenchResult {
	start := time.Now()
	var nodes int
	for i := 0; i < iterations; i++ {
		h, err := icelock.LockWithOptions(doc, opts)
		if err != nil {
			return BenchResult{Name: "Construct", Duration: time.Since(start), Extra: fmt.Sprintf("ERROR: %v", err)}
		}
		nodes = h.Census().Nodes
	}
	return BenchResult{
		Name:     "Construct",
		Duration: time.Since(start),
		Ops:      iterations,
		Extra:    fmt.Sprintf("%d handles each", nodes),
	}
}

func benchClone(h *icelock.Handle) BenchResult {
	start := time.Now()
	for i := 0; i < iterations; i++ {
		if _, err := icelock.Clone(h.View()); err != nil {
			return BenchResult{Name: "Clone", Duration: time.Since(start), Extra: fmt.Sprintf("ERROR: %v", err)}
		}
	}
	return BenchResult{Name: "Clone", Duration: time.Since(start), Ops: iterations}
}

func benchEncode(h *icelock.Handle) BenchResult {
	start := time.Now()
	var size int
	for i := 0; i < iterations; i++ {
		out, err := document.Encode(h.View())
		if err != nil {
			return BenchResult{Name: "Encode as YAML", Duration: time.Since(start), Extra: fmt.Sprintf("ERROR: %v", err)}
		}
		size = len(out)
	}
	return BenchResult{
		Name:     "Encode as YAML",
		Duration: time.Since(start),
		Ops:      iterations,
		Extra:    fmt.Sprintf("%d bytes", size),
	}
}

func benchCascade(h *icelock.Handle) BenchResult {
	start := time.Now()
	for i := 0; i < iterations; i++ {
		h.Unfreeze()
		h.Freeze()
	}
	return BenchResult{
		Name:     "Freeze/unfreeze cascade",
		Duration: time.Since(start),
		Ops:      iterations * 2,
	}
}

func benchCensus(h *icelock.Handle) BenchResult {
	start := time.Now()
	for i := 0; i < iterations; i++ {
		h.Census()
	}
	return BenchResult{Name: "Census", Duration: time.Since(start), Ops: iterations}
}

func benchReads(h *icelock.Handle) BenchResult {
	start := time.Now()
	reads := 0
	for i := 0; i < iterations; i++ {
		h.Walk(func(_ int, n *icelock.Handle) bool {
			switch v := n.View().(type) {
			case *icelock.Record:
				for range v.All() {
					reads++
				}
			case *icelock.Sequence:
				for range v.All() {
					reads++
				}
			case *icelock.Map:
				for range v.All() {
					reads++
				}
			case *icelock.Set:
				for range v.All() {
					reads++
				}
			}
			return true
		})
	}
	return BenchResult{Name: "Read every element", Duration: time.Since(start), Ops: reads}
}

func benchRejected(h *icelock.Handle) BenchResult {
	h.Freeze()
	rec := h.Record()
	list, _ := rec.Get("list")
	seq := list.(*icelock.Sequence)

	start := time.Now()
	rejected := 0
	for i := 0; i < iterations; i++ {
		if err := rec.Set("extra", i); errors.Is(err, icelock.ErrFrozen) {
			rejected++
		}
		if _, err := seq.Push(i); errors.Is(err, icelock.ErrFrozen) {
			rejected++
		}
	}
	return BenchResult{
		Name:     "Rejected mutations",
		Duration: time.Since(start),
		Ops:      iterations * 2,
		Extra:    fmt.Sprintf("%d rejected", rejected),
	}
}

func benchPushPop(h *icelock.Handle) BenchResult {
	list, _ := h.Record().Get("list")
	seq := list.(*icelock.Sequence)
	h.Unfreeze()
	defer h.Freeze()

	start := time.Now()
	for i := 0; i < iterations; i++ {
		if _, err := seq.Push(icelock.Fields{{Key: "i", Value: i}}); err != nil {
			return BenchResult{Name: "Thawed push/pop", Duration: time.Since(start), Extra: fmt.Sprintf("ERROR: %v", err)}
		}
	}
	for i := 0; i < iterations; i++ {
		if _, err := seq.Pop(); err != nil {
			return BenchResult{Name: "Thawed push/pop", Duration: time.Since(start), Extra: fmt.Sprintf("ERROR: %v", err)}
		}
	}
	return BenchResult{
		Name:     "Thawed push/pop",
		Duration: time.Since(start),
		Ops:      iterations * 2,
		Extra:    fmt.Sprintf("%d handles after", h.Census().Nodes),
	}
}
