// Command validate checks the artifacts in a data directory: every raster
// matches the axes, values stay in their physical ranges, the difference
// raster agrees with its inputs and every file matches its manifest digest.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data/mock
package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/noonmap/internal/adapter/store"
	"github.com/couchcryptid/noonmap/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// valueRange bounds the cells of one raster. Cells equal to sentinel are
// accepted when allowSentinel is set.
type valueRange struct {
	name          string
	lo, hi        float64
	allowSentinel bool
}

var ranges = []valueRange{
	{name: domain.ElevationFile, lo: 0, hi: 9000},
	{name: domain.NoonFile, lo: 0, hi: 25},
	{name: domain.SunsetFile, lo: 0, hi: 25, allowSentinel: true},
	{name: domain.SunriseFile, lo: 0, hi: 25, allowSentinel: true},
	{name: domain.TimeZoneFile, lo: 0, hi: 24},
	{name: domain.TimeZoneDiffFile, lo: -12, hi: 12},
}

func main() {
	dataDir := flag.String("data-dir", ".", "directory holding the artifacts")
	flag.Parse()

	os.Exit(run(*dataDir))
}

func run(dataDir string) int {
	fmt.Println("=== Raster Artifact Validation ===")
	fmt.Println()

	st, err := store.New(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open data dir: %v\n", err)
		return 1
	}
	g, err := st.ReadGrid()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load axes: %v\n", err)
		return 1
	}

	rasters, shapes := loadRasters(st, g)
	phases := []*phase{
		shapes,
		validateRanges(rasters),
		validateDifference(g, rasters),
		validateManifest(st),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Grid: %d x %d cells, %d rasters present\n", len(g.Lat), len(g.Lon), len(rasters))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// loadRasters reads every raster that exists. Missing rasters are skipped;
// unreadable or misshapen ones fail the shape phase.
func loadRasters(st *store.Store, g domain.Grid) (map[string]domain.Raster, *phase) {
	p := &phase{name: "Raster shape matches axes"}
	out := make(map[string]domain.Raster)
	for _, r := range ranges {
		raster, err := st.ReadRaster(r.name, g)
		switch {
		case errors.Is(err, store.ErrNotFound):
			fmt.Printf("  skip %s (not present)\n", r.name)
		case err != nil:
			p.errorf("%s: %v", r.name, err)
		default:
			out[r.name] = raster
		}
	}
	return out, p
}

func validateRanges(rasters map[string]domain.Raster) *phase {
	p := &phase{name: "Values within physical ranges"}
	for _, vr := range ranges {
		r, ok := rasters[vr.name]
		if !ok {
			continue
		}
		bad := 0
		for _, v := range r.Data {
			if vr.allowSentinel && v == domain.NoEvent {
				continue
			}
			if math.IsNaN(v) || v < vr.lo || v > vr.hi {
				if bad < 3 {
					p.errorf("%s: value %g outside [%g, %g]", vr.name, v, vr.lo, vr.hi)
				}
				bad++
			}
		}
		if bad > 3 {
			p.errorf("%s: %d more values out of range", vr.name, bad-3)
		}
	}
	return p
}

func validateDifference(g domain.Grid, rasters map[string]domain.Raster) *phase {
	p := &phase{name: "Difference consistent with inputs"}
	noon, okNoon := rasters[domain.NoonFile]
	tz, okTZ := rasters[domain.TimeZoneFile]
	diff, okDiff := rasters[domain.TimeZoneDiffFile]
	if !okNoon || !okTZ || !okDiff {
		return p
	}
	want, err := domain.Difference(g, noon, tz)
	if err != nil {
		p.errorf("recompute difference: %v", err)
		return p
	}
	for i := range want.Data {
		if !floatEq(want.Data[i], diff.Data[i]) {
			p.errorf("cell %d: stored %g, recomputed %g", i, diff.Data[i], want.Data[i])
			if len(p.errors) >= 5 {
				break
			}
		}
	}
	return p
}

func validateManifest(st *store.Store) *phase {
	p := &phase{name: "Artifacts match manifest digests"}
	for name := range st.Snapshot() {
		if err := st.Verify(name); err != nil {
			p.errorf("%v", err)
		}
	}
	return p
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
