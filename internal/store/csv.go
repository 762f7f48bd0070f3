package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// csvHeader is the fixed export schema. The trailing three columns
// repeat the filter configuration selected at export time on every
// row, even for rows whose filtered values were captured under an
// earlier configuration. Downstream tooling depends on this layout.
var csvHeader = []string{
	"elapsed_s",
	"telem_ms",
	"T0_C_raw",
	"T1_C_raw",
	"P_kPa_raw",
	"heater_pct",
	"valve_pct",
	"T0_C_filt",
	"T1_C_filt",
	"P_kPa_filt",
	"filter_mode",
	"alpha",
	"window_n",
}

// utf8BOM keeps the export readable in spreadsheet tools that sniff
// encoding from the first bytes.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DefaultCSVName returns a timestamped export file name.
func (s *Store) DefaultCSVName() string {
	return fmt.Sprintf("h2_telem_%s.csv", time.Now().Format("20060102_150405"))
}

// WriteCSV writes the recorded history to w, stamped with the current
// filter configuration.
func (s *Store) WriteCSV(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("store: write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("store: write header: %w", err)
	}

	cfg := s.engine.Config()
	mode := string(cfg.Mode)
	alpha := formatFloat(cfg.Alpha)
	windowN := strconv.Itoa(cfg.WindowN)

	for i := range s.rec.timeS {
		row := []string{
			formatFloat(s.rec.timeS[i]),
			strconv.FormatUint(s.rec.telemMs[i], 10),
			formatFloat(s.rec.t0Raw[i]),
			formatFloat(s.rec.t1Raw[i]),
			formatFloat(s.rec.pRaw[i]),
			formatFloat(s.rec.heaterPct[i]),
			formatFloat(s.rec.valvePct[i]),
			formatFloat(s.rec.t0F[i]),
			formatFloat(s.rec.t1F[i]),
			formatFloat(s.rec.pF[i]),
			mode,
			alpha,
			windowN,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("store: write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("store: flush csv: %w", err)
	}
	return nil
}

// ExportCSV writes the recorded history to filename, creating parent
// directories as needed.
func (s *Store) ExportCSV(filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: create export dir: %w", err)
		}
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("store: create export file: %w", err)
	}
	if err := s.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("store: close export file: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
