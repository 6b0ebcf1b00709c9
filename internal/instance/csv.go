// Package instance loads the surgery pool from an instance CSV file and
// writes a solution CSV, the two external I/O contracts of spec.md §6. It
// is deliberately thin: all scheduling logic lives in internal/schedule and
// internal/aco.
package instance

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/antsurgery/scheduler/internal/aco"
	"github.com/antsurgery/scheduler/internal/surgery"
)

// columnCount is the number of columns in an instance row: Cirurgia,
// Prioridade, Dias_espera, Especialidade, Cirurgião, Duração.
const columnCount = 6

// detectDelimiter sniffs whether path's header line uses ';' or ',' as the
// field separator, per spec.md §6 ("semicolon or comma separated").
func detectDelimiter(path string) (rune, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("InstanceLoad: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, fmt.Errorf("InstanceLoad: %s is empty", path)
	}
	header := scanner.Text()
	if strings.Contains(header, ";") {
		return ';', nil
	}
	return ',', nil
}

// Load reads an instance CSV (spec.md §6 columns: Cirurgia, Prioridade,
// Dias_espera, Especialidade, Cirurgião, Duração) and returns the pool of
// surgeries to schedule. Every malformed row is collected — not just the
// first — into one aggregated InstanceLoad error reported with each row's
// number, so a caller sees every defect in the file in one pass instead of
// fixing and re-running one row at a time.
func Load(path string) ([]surgery.Surgery, error) {
	delim, err := detectDelimiter(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("InstanceLoad: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = delim
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("InstanceLoad: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("InstanceLoad: %s has no header row", path)
	}

	surgeries := make([]surgery.Surgery, 0, len(rows)-1)
	var rowErr error
	for i, row := range rows[1:] {
		rowNum := i + 2 // header is row 1, data starts at row 2
		s, err := parseRow(row)
		if err != nil {
			rowErr = multierr.Append(rowErr, fmt.Errorf("row %d: %w", rowNum, err))
			continue
		}
		if err := s.Validate(); err != nil {
			rowErr = multierr.Append(rowErr, fmt.Errorf("row %d: %w", rowNum, err))
			continue
		}
		surgeries = append(surgeries, s)
	}
	if rowErr != nil {
		return nil, fmt.Errorf("InstanceLoad: %w", rowErr)
	}
	if len(surgeries) == 0 {
		return nil, fmt.Errorf("EmptyBin: %s has a header but no surgeries", path)
	}
	return surgeries, nil
}

func parseRow(row []string) (surgery.Surgery, error) {
	if len(row) < columnCount {
		return surgery.Surgery{}, fmt.Errorf("expected %d columns, got %d", columnCount, len(row))
	}

	id, err := strconv.ParseUint(strings.TrimSpace(row[0]), 10, 64)
	if err != nil {
		return surgery.Surgery{}, fmt.Errorf("surgery id: %w", err)
	}
	priority, err := strconv.ParseUint(strings.TrimSpace(row[1]), 10, 8)
	if err != nil {
		return surgery.Surgery{}, fmt.Errorf("priority: %w", err)
	}
	daysWaiting, err := strconv.ParseUint(strings.TrimSpace(row[2]), 10, 32)
	if err != nil {
		return surgery.Surgery{}, fmt.Errorf("days_waiting: %w", err)
	}
	speciality, err := strconv.ParseUint(strings.TrimSpace(row[3]), 10, 32)
	if err != nil {
		return surgery.Surgery{}, fmt.Errorf("speciality: %w", err)
	}
	surgeon, err := strconv.ParseUint(strings.TrimSpace(row[4]), 10, 64)
	if err != nil {
		return surgery.Surgery{}, fmt.Errorf("surgeon id: %w", err)
	}
	duration, err := strconv.ParseUint(strings.TrimSpace(row[5]), 10, 8)
	if err != nil {
		return surgery.Surgery{}, fmt.Errorf("duration: %w", err)
	}

	return surgery.Surgery{
		ID:          surgery.ID(id),
		Priority:    surgery.Priority(priority),
		DaysWaiting: uint32(daysWaiting),
		Speciality:  uint32(speciality),
		SurgeonID:   surgery.SurgeonID(surgeon),
		Duration:    uint8(duration),
	}, nil
}

// WriteSolution writes the solution CSV of spec.md §6 (Cirurgia, Sala, Dia,
// Horário), rows sorted ascending by surgery id.
func WriteSolution(path string, weeks []aco.WeekResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("solution write: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'
	defer w.Flush()

	if err := w.Write([]string{"Cirurgia (c)", "Sala (r)", "Dia (d)", "Horário (t)"}); err != nil {
		return fmt.Errorf("solution write: %w", err)
	}

	for _, row := range aco.Flatten(weeks) {
		record := []string{
			strconv.FormatUint(uint64(row.SurgeryID), 10),
			strconv.Itoa(row.Room),
			strconv.Itoa(row.Day),
			strconv.Itoa(int(row.Start)),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("solution write: %w", err)
		}
	}
	return w.Error()
}
