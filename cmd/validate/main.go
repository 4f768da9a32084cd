// Command validate checks a predictions JSON file (as written by fbpcalc or
// captured from the sink topic) against its source observation CSV and the
// fire behaviour model's invariants. It verifies record counts, recomputes
// every prediction through the domain package, and checks field ranges and
// enumerations.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -observations data/observations.csv \
//	  -predictions predictions.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/fire-behavior-service/internal/domain"
	"github.com/couchcryptid/fire-behavior-service/internal/fbp"
)

// tolerance for recomputed and derived values.
const tolerance = 1e-6

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
	obsCSV := flag.String("observations", "", "path to the source observations CSV")
	predJSON := flag.String("predictions", "", "path to the predictions JSON")
	fmc := flag.Float64("fmc", 100, "default foliar moisture content used to produce the predictions")
	hours := flag.Float64("hours", 1, "default elapsed hours used to produce the predictions")
	flag.Parse()

	if *obsCSV == "" || *predJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*obsCSV, *predJSON, domain.StandardDefaults(*fmc, *hours)); code != 0 {
		os.Exit(code)
	}
}

func run(obsPath, predPath string, defaults domain.Defaults) int {
	fmt.Println("=== Fire Behaviour Prediction Validation ===")
	fmt.Println()

	rows, err := loadCSV(obsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load observations: %v\n", err)
		return 1
	}

	predictions, err := loadJSON[domain.FirePrediction](predPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load predictions: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSourceParity(rows, predictions),
		validateInvariants(predictions),
		validateRecomputation(rows, predictions, defaults),
		validateSchema(predictions),
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
	fmt.Printf("Records: %d observations, %d predictions\n", len(rows), len(predictions))

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

// ── Data loading ──

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

func loadCSV(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("no data rows in %s", path)
	}

	header := all[0]
	rows := make([]csvRow, 0, len(all)-1)
	for i, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[strings.TrimSpace(h)] = strings.TrimSpace(row[j])
			}
		}
		rows = append(rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return rows, nil
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// toObservation parses a CSV row through the same path as a Kafka message.
func toObservation(row csvRow) (domain.Observation, error) {
	rec := domain.ObservationRecord{
		StationID:  row.fields["station_id"],
		ObservedAt: row.fields["observed_at"],
		FuelType:   row.fields["fuel_type"],
	}
	for col, dst := range map[string]**float64{
		"isi": &rec.ISI, "bui": &rec.BUI, "ffmc": &rec.FFMC, "fmc": &rec.FMC,
		"sfc": &rec.SFC, "pc": &rec.PC, "pdf": &rec.PDF, "cc": &rec.CC,
		"gfl": &rec.GFL, "cbh": &rec.CBH, "cfl": &rec.CFL, "hours": &rec.Hours,
	} {
		s := row.fields[col]
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.Observation{}, fmt.Errorf("column %s: %w", col, err)
		}
		*dst = &v
	}
	rec.Lat, _ = strconv.ParseFloat(row.fields["lat"], 64)
	rec.Lon, _ = strconv.ParseFloat(row.fields["lon"], 64)

	value, err := json.Marshal(rec)
	if err != nil {
		return domain.Observation{}, err
	}
	return domain.ParseObservation(domain.RawEvent{Value: value, Timestamp: time.Now().UTC()})
}

// ── Phase 1: source parity ──

func validateSourceParity(rows []csvRow, predictions []domain.FirePrediction) *phase {
	p := &phase{name: "Phase 1: Source ↔ Prediction Parity"}
	fmt.Println("Phase 1: Checking every observation has one prediction...")

	if len(rows) != len(predictions) {
		p.errorf("count mismatch: %d observations, %d predictions", len(rows), len(predictions))
	}

	byID := make(map[string]int, len(predictions))
	for _, pred := range predictions {
		byID[pred.ID]++
	}
	for id, n := range byID {
		if n > 1 {
			p.errorf("prediction %s appears %d times", id, n)
		}
	}

	for _, row := range rows {
		obs, err := toObservation(row)
		if err != nil {
			p.errorf("line %d: %v", row.lineNum, err)
			continue
		}
		if byID[obs.ID] == 0 {
			p.errorf("line %d: no prediction for %s %s (%s)", row.lineNum, obs.StationID, obs.FuelType, obs.ID)
		}
	}
	return p
}

// ── Phase 2: model invariants ──

func validateInvariants(predictions []domain.FirePrediction) *phase {
	p := &phase{name: "Phase 2: Model Invariants"}
	fmt.Println("Phase 2: Checking fire behaviour invariants...")

	for i := range predictions {
		checkInvariants(p.errorf, &predictions[i])
	}
	return p
}

func checkInvariants(pf func(string, ...any), e *domain.FirePrediction) {
	if e.ROS < fbp.MinRateOfSpread {
		pf("%s: ros %g below floor %g", e.ID, e.ROS, fbp.MinRateOfSpread)
	}
	if e.CFB < 0 || e.CFB > 1 {
		pf("%s: cfb %g outside [0,1]", e.ID, e.CFB)
	}
	if e.ROSt > e.ROS+tolerance {
		pf("%s: ros_t %g exceeds equilibrium ros %g", e.ID, e.ROSt, e.ROS)
	}
	if !floatEq(e.TFC, e.SFC+e.CFC) {
		pf("%s: tfc %g != sfc %g + cfc %g", e.ID, e.TFC, e.SFC, e.CFC)
	}
	if !relEq(e.HFI, fbp.FireIntensity(e.TFC, e.ROS)) {
		pf("%s: hfi %g != 300·tfc·ros", e.ID, e.HFI)
	}
	if !relEq(e.SFI, fbp.FireIntensity(e.SFC, e.ROS)) {
		pf("%s: sfi %g != 300·sfc·ros", e.ID, e.SFI)
	}
	if want := string(fbp.ClassifyFireType(e.CFB)); e.FireType != want {
		pf("%s: fire_type %q, cfb %g implies %q", e.ID, e.FireType, e.CFB, want)
	}
	if e.Hours < 0 {
		pf("%s: negative elapsed hours %g", e.ID, e.Hours)
	}
}

// ── Phase 3: recomputation ──

func validateRecomputation(rows []csvRow, predictions []domain.FirePrediction, defaults domain.Defaults) *phase {
	p := &phase{name: "Phase 3: Recomputation"}
	fmt.Println("Phase 3: Recomputing predictions from observations...")

	obs := make([]domain.Observation, 0, len(rows))
	for _, row := range rows {
		o, err := toObservation(row)
		if err != nil {
			continue // reported in phase 1
		}
		obs = append(obs, o)
	}

	want, err := domain.PredictBatch(obs, defaults)
	if err != nil {
		p.errorf("predict batch: %v", err)
		return p
	}

	byID := make(map[string]*domain.FirePrediction, len(predictions))
	for i := range predictions {
		byID[predictions[i].ID] = &predictions[i]
	}
	for i := range want {
		got, ok := byID[want[i].ID]
		if !ok {
			continue // reported in phase 1
		}
		comparePredictions(p, &want[i], got)
	}
	return p
}

func comparePredictions(p *phase, want, got *domain.FirePrediction) {
	fields := []struct {
		name      string
		want, got float64
	}{
		{"ros", want.ROS, got.ROS},
		{"ros_t", want.ROSt, got.ROSt},
		{"cfb", want.CFB, got.CFB},
		{"csi", want.CSI, got.CSI},
		{"rso", want.RSO, got.RSO},
		{"sfc", want.SFC, got.SFC},
		{"cfc", want.CFC, got.CFC},
		{"tfc", want.TFC, got.TFC},
		{"hfi", want.HFI, got.HFI},
		{"hours", want.Hours, got.Hours},
	}
	for _, f := range fields {
		if !relEq(f.want, f.got) {
			p.errorf("%s: %s want %g got %g", want.ID, f.name, f.want, f.got)
		}
	}
	if want.FireType != got.FireType {
		p.errorf("%s: fire_type want %q got %q", want.ID, want.FireType, got.FireType)
	}
	if want.StationID != got.StationID || want.FuelType != got.FuelType {
		p.errorf("%s: identity want %s/%s got %s/%s", want.ID, want.StationID, want.FuelType, got.StationID, got.FuelType)
	}
}

// ── Phase 4: schema ──

func validateSchema(predictions []domain.FirePrediction) *phase {
	p := &phase{name: "Phase 4: Schema Alignment"}
	fmt.Println("Phase 4: Checking required fields and enumerations...")

	fireTypes := map[string]bool{
		string(fbp.SurfaceFire):           true,
		string(fbp.IntermittentCrownFire): true,
		string(fbp.CrownFire):             true,
	}
	for i := range predictions {
		e := &predictions[i]
		label := fmt.Sprintf("[%d] %s", i, e.ID)
		if e.ID == "" {
			p.errorf("[%d]: missing id", i)
		}
		if e.StationID == "" {
			p.errorf("%s: missing station_id", label)
		}
		if _, err := fbp.ParseFuelType(e.FuelType); err != nil {
			p.errorf("%s: %v", label, err)
		}
		if !fireTypes[e.FireType] {
			p.errorf("%s: invalid fire_type %q", label, e.FireType)
		}
		if e.ObservedAt.IsZero() {
			p.errorf("%s: zero observed_at", label)
		}
		if e.ProcessedAt.IsZero() {
			p.errorf("%s: zero processed_at", label)
		}
	}
	return p
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

// relEq compares with a tolerance relative to the larger magnitude, for
// intensities in the tens of thousands of kW/m.
func relEq(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tolerance*scale
}
