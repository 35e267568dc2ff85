// Package lightcurve reads and writes plain-text light curves: one sample per
// line with time (days) and flux columns separated by commas or whitespace.
package lightcurve

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/RMahshie/runningls/pkg/periodogram"
)

// ErrNoData is returned when a file holds no numeric rows.
var ErrNoData = errors.New("light curve has no data rows")

// Options selects the columns to read. Columns are zero based.
type Options struct {
	TimeColumn int
	FluxColumn int
}

// DefaultOptions reads time from the first column and flux from the second.
func DefaultOptions() Options {
	return Options{TimeColumn: 0, FluxColumn: 1}
}

// ReadFile reads the light curve stored at path.
func ReadFile(path string, opts Options) (periodogram.LightCurve, error) {
	f, err := os.Open(path)
	if err != nil {
		return periodogram.LightCurve{}, fmt.Errorf("failed to open light curve: %w", err)
	}
	defer f.Close()
	return Read(f, opts)
}

// Read parses a light curve. Blank lines and lines starting with '#' are
// skipped, as is a single non-numeric header before the first data row. NaN
// values are kept; periodogram.Compute drops them.
func Read(r io.Reader, opts Options) (periodogram.LightCurve, error) {
	var lc periodogram.LightCurve
	if opts.TimeColumn < 0 || opts.FluxColumn < 0 {
		return lc, fmt.Errorf("column indices must be non-negative, got %d and %d", opts.TimeColumn, opts.FluxColumn)
	}
	need := max(opts.TimeColumn, opts.FluxColumn) + 1

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	headerSeen := false
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := splitFields(line)
		if len(fields) < need {
			return lc, fmt.Errorf("line %d: want at least %d columns, got %d", lineNo, need, len(fields))
		}
		t, terr := strconv.ParseFloat(fields[opts.TimeColumn], 64)
		f, ferr := strconv.ParseFloat(fields[opts.FluxColumn], 64)
		if terr != nil || ferr != nil {
			if lc.Len() == 0 && !headerSeen {
				headerSeen = true
				continue
			}
			return lc, fmt.Errorf("line %d: non-numeric value in %q", lineNo, line)
		}
		lc.Time = append(lc.Time, t)
		lc.Flux = append(lc.Flux, f)
	}
	if err := sc.Err(); err != nil {
		return lc, fmt.Errorf("failed to read light curve: %w", err)
	}
	if lc.Len() == 0 {
		return lc, ErrNoData
	}
	return lc, nil
}

func splitFields(line string) []string {
	if strings.Contains(line, ",") {
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		return fields
	}
	return strings.Fields(line)
}

// Write emits lc as two-column CSV with a "time,flux" header.
func Write(w io.Writer, lc periodogram.LightCurve) error {
	if len(lc.Time) != len(lc.Flux) {
		return fmt.Errorf("light curve has %d times but %d fluxes", len(lc.Time), len(lc.Flux))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "flux"}); err != nil {
		return err
	}
	for i := range lc.Time {
		rec := []string{
			strconv.FormatFloat(lc.Time[i], 'g', -1, 64),
			strconv.FormatFloat(lc.Flux[i], 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
