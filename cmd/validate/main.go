// Command validate checks a flood report written by the pipeline (JSON or
// GeoJSON) against the output contract: non-negative depths, projection
// years drawn from the report's decades, ascending years per location,
// locations inside the study region, and a consistent at-risk count.
// With -expected it also compares the records against a reference report.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -report out/flood_report.json \
//	  -expected data/expected_report.json
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/couchcryptid/sea-level-risk/internal/adapter/geojson"
	"github.com/couchcryptid/sea-level-risk/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
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

func main() {
	reportPath := flag.String("report", "", "path to the flood report (.json or .geojson)")
	expectedPath := flag.String("expected", "", "optional reference report to compare records against")
	tolerance := flag.Float64("tolerance", 1e-6, "absolute depth tolerance for -expected")
	flag.Parse()

	if *reportPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*reportPath, *expectedPath, *tolerance))
}

func run(reportPath, expectedPath string, tolerance float64) int {
	fmt.Println("=== Flood Report Validation ===")
	fmt.Println()

	report, err := geojson.ReadReport(reportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load report: %v\n", err)
		return 1
	}

	phases := []*phase{
		checkDepths(report),
		checkYears(report),
		checkRegion(report),
		checkCounts(report),
	}

	if expectedPath != "" {
		expected, err := geojson.ReadReport(expectedPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load expected report: %v\n", err)
			return 1
		}
		phases = append(phases, compareRecords(report, expected, tolerance))
	}

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
	fmt.Printf("Records: %d, points at risk: %d, samples assessed: %d\n",
		len(report.Records), report.PointsAtRisk, report.SamplesAssessed)

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

// ── Phase 1: Depths ──

func checkDepths(report *domain.FloodReport) *phase {
	p := &phase{name: "Phase 1: Depths (finite, >= 0)"}
	for i, r := range report.Records {
		if math.IsNaN(r.Depth) || math.IsInf(r.Depth, 0) {
			p.errorf("record %d (%g,%g %d): depth is %g", i, r.Lat, r.Lon, r.Year, r.Depth)
		} else if r.Depth < 0 {
			p.errorf("record %d (%g,%g %d): negative depth %g", i, r.Lat, r.Lon, r.Year, r.Depth)
		}
	}
	return p
}

// ── Phase 2: Years ──
// Every year is one of the report's decades, and the records of one location
// are contiguous with strictly ascending years.

func checkYears(report *domain.FloodReport) *phase {
	p := &phase{name: "Phase 2: Years (decades, ascending)"}

	if len(report.Decades) > 0 {
		for i, r := range report.Records {
			if !slices.Contains(report.Decades, r.Year) {
				p.errorf("record %d: year %d not in decades %v", i, r.Year, report.Decades)
			}
		}
	}

	type point struct{ lat, lon float64 }
	finished := map[point]bool{}
	var current point
	lastYear := math.MinInt
	for i, r := range report.Records {
		pt := point{r.Lat, r.Lon}
		if i == 0 || pt != current {
			if finished[pt] {
				p.errorf("record %d: location %g,%g appears in more than one run of records", i, r.Lat, r.Lon)
			}
			if i > 0 {
				finished[current] = true
			}
			current = pt
			lastYear = math.MinInt
		}
		if r.Year <= lastYear {
			p.errorf("record %d: year %d at %g,%g does not follow %d", i, r.Year, r.Lat, r.Lon, lastYear)
		}
		lastYear = r.Year
	}
	return p
}

// ── Phase 3: Region ──

func checkRegion(report *domain.FloodReport) *phase {
	p := &phase{name: "Phase 3: Region (points inside bounds)"}
	if err := report.Region.Validate(); err != nil {
		p.errorf("report region: %v", err)
		return p
	}
	for i, r := range report.Records {
		if !report.Region.Contains(r.Lat, r.Lon) {
			p.errorf("record %d: %g,%g outside region %+v", i, r.Lat, r.Lon, report.Region)
		}
	}
	return p
}

// ── Phase 4: Counts ──

func checkCounts(report *domain.FloodReport) *phase {
	p := &phase{name: "Phase 4: Counts (points at risk)"}
	points := map[[2]float64]struct{}{}
	for _, r := range report.Records {
		points[[2]float64{r.Lat, r.Lon}] = struct{}{}
	}
	if len(points) != report.PointsAtRisk {
		p.errorf("points_at_risk is %d but records cover %d locations", report.PointsAtRisk, len(points))
	}
	if report.SamplesAssessed > 0 && report.PointsAtRisk > report.SamplesAssessed {
		p.errorf("points_at_risk %d exceeds samples_assessed %d", report.PointsAtRisk, report.SamplesAssessed)
	}
	if n := len(report.Decades); n > 0 && len(report.Records) > report.PointsAtRisk*n {
		p.errorf("%d records exceed %d points x %d decades", len(report.Records), report.PointsAtRisk, n)
	}
	return p
}

// ── Phase 5: Reference ──

func compareRecords(got, want *domain.FloodReport, tolerance float64) *phase {
	p := &phase{name: "Phase 5: Reference (records match)"}
	if diff := cmp.Diff(want.Records, got.Records, cmpopts.EquateApprox(0, tolerance), cmpopts.EquateEmpty()); diff != "" {
		p.errorf("records differ (-expected +report):\n%s", diff)
	}
	return p
}
