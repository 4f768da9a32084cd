// Command fbpcalc runs the FBP engine over a CSV table of fire weather
// observations and writes the predictions as JSON. It goes through the same
// domain parsing and batch prediction as the service, so its output matches
// what the pipeline publishes.
//
// The CSV header names the columns; station_id, fuel_type, isi and bui are
// required, every other input column is optional:
//
//	station_id,observed_at,fuel_type,isi,bui,ffmc,fmc,sfc,pc,pdf,cc,gfl,cbh,cfl,hours,lat,lon
//
// Usage:
//
//	go run ./cmd/fbpcalc -in data/observations.csv -out predictions.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/fire-behavior-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "input CSV of observations")
	out := flag.String("out", "", "output path for predictions JSON (stdout if empty)")
	fmc := flag.Float64("fmc", 100, "default foliar moisture content (%)")
	hours := flag.Float64("hours", 1, "default elapsed hours since ignition")
	at := flag.String("processed-at", "", "fixed RFC 3339 processed_at for reproducible output")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		return errors.New("missing required flag: -in")
	}

	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("parse -processed-at: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(t.UTC()))
		defer domain.SetClock(nil)
	}

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	obs, err := readObservations(f, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reading %s: %w", *in, err)
	}
	log.Printf("observations: %d", len(obs))

	predictions, err := domain.PredictBatch(obs, domain.StandardDefaults(*fmc, *hours))
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}

	if *out == "" {
		if err := encode(os.Stdout, predictions); err != nil {
			return err
		}
	} else {
		if err := writeJSON(*out, predictions); err != nil {
			return fmt.Errorf("writing predictions: %w", err)
		}
		log.Printf("wrote predictions: %s", *out)
	}

	printStats(os.Stderr, predictions)
	return nil
}

// readObservations converts each CSV row into an observation record and
// parses it with domain.ParseObservation. now stands in for the message
// timestamp when a row has no observed_at.
func readObservations(r io.Reader, now time.Time) ([]domain.Observation, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, errors.New("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{"station_id", "fuel_type", "isi", "bui"} {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	obs := make([]domain.Observation, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		rec, err := recordFromRow(row, colIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		value, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: marshal record: %w", line, err)
		}
		o, err := domain.ParseObservation(domain.RawEvent{Value: value, Timestamp: now})
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		obs = append(obs, o)
	}
	return obs, nil
}

func recordFromRow(row []string, idx map[string]int) (domain.ObservationRecord, error) {
	rec := domain.ObservationRecord{
		StationID:  get(row, idx, "station_id"),
		ObservedAt: get(row, idx, "observed_at"),
		FuelType:   get(row, idx, "fuel_type"),
	}

	optional := []struct {
		col string
		dst **float64
	}{
		{"isi", &rec.ISI}, {"bui", &rec.BUI}, {"ffmc", &rec.FFMC}, {"fmc", &rec.FMC},
		{"sfc", &rec.SFC}, {"pc", &rec.PC}, {"pdf", &rec.PDF}, {"cc", &rec.CC},
		{"gfl", &rec.GFL}, {"cbh", &rec.CBH}, {"cfl", &rec.CFL}, {"hours", &rec.Hours},
	}
	for _, o := range optional {
		v, err := parseFloat(get(row, idx, o.col))
		if err != nil {
			return rec, fmt.Errorf("column %s: %w", o.col, err)
		}
		*o.dst = v
	}

	for _, c := range []struct {
		col string
		dst *float64
	}{{"lat", &rec.Lat}, {"lon", &rec.Lon}} {
		v, err := parseFloat(get(row, idx, c.col))
		if err != nil {
			return rec, fmt.Errorf("column %s: %w", c.col, err)
		}
		if v != nil {
			*c.dst = *v
		}
	}
	return rec, nil
}

// parseFloat returns nil for an empty cell.
func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil //nolint:nilnil // empty cell means the input is absent
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

type fuelCount struct {
	fuel  string
	count int
}

func printStats(w io.Writer, predictions []domain.FirePrediction) {
	fireTypes := map[string]int{}
	fuels := map[string]int{}
	var maxROS, maxHFI float64
	var maxID string
	for i := range predictions {
		p := &predictions[i]
		fireTypes[p.FireType]++
		fuels[p.FuelType]++
		if p.ROS > maxROS {
			maxROS, maxID = p.ROS, p.ID
		}
		if p.HFI > maxHFI {
			maxHFI = p.HFI
		}
	}

	fmt.Fprintln(w, "\n=== Prediction summary ===")
	fmt.Fprintf(w, "Total: %d\n", len(predictions))
	fmt.Fprintf(w, "By fire type: surface=%d, intermittent_crown=%d, crown=%d\n",
		fireTypes["surface"], fireTypes["intermittent_crown"], fireTypes["crown"])

	fc := make([]fuelCount, 0, len(fuels))
	for f, c := range fuels {
		fc = append(fc, fuelCount{f, c})
	}
	sort.Slice(fc, func(i, j int) bool {
		if fc[i].count != fc[j].count {
			return fc[i].count > fc[j].count
		}
		return fc[i].fuel < fc[j].fuel
	})
	fmt.Fprintf(w, "Fuel types (%d): ", len(fc))
	for _, f := range fc {
		fmt.Fprintf(w, "%s=%d ", f.fuel, f.count)
	}
	fmt.Fprintln(w)

	if maxID != "" {
		fmt.Fprintf(w, "Max ROS: %.3f m/min (%s)\n", maxROS, maxID)
		fmt.Fprintf(w, "Max HFI: %.0f kW/m\n", maxHFI)
	}
}
