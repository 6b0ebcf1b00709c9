package instance

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/antsurgery/scheduler/internal/aco"
	"github.com/antsurgery/scheduler/internal/schedule"
	"github.com/antsurgery/scheduler/internal/surgery"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp CSV: %v", err)
	}
	return path
}

func TestLoadParsesSemicolonDelimitedInstance(t *testing.T) {
	content := "Cirurgia;Prioridade;Dias_espera;Especialidade;Cirurgião;Duração\n" +
		"1;1;0;1;10;5\n" +
		"2;4;2;1;11;4\n"
	path := writeTempCSV(t, "instance.csv", content)

	surgeries, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(surgeries) != 2 {
		t.Fatalf("len(surgeries) = %d, want 2", len(surgeries))
	}
	if surgeries[0].ID != 1 || surgeries[0].Priority != surgery.PriorityUrgent {
		t.Fatalf("first surgery = %+v, unexpected", surgeries[0])
	}
}

func TestLoadParsesCommaDelimitedInstance(t *testing.T) {
	content := "Cirurgia,Prioridade,Dias_espera,Especialidade,Cirurgião,Duração\n" +
		"1,2,3,1,10,5\n"
	path := writeTempCSV(t, "instance.csv", content)

	surgeries, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(surgeries) != 1 {
		t.Fatalf("len(surgeries) = %d, want 1", len(surgeries))
	}
}

func TestLoadRejectsEmptyBin(t *testing.T) {
	content := "Cirurgia;Prioridade;Dias_espera;Especialidade;Cirurgião;Duração\n"
	path := writeTempCSV(t, "instance.csv", content)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected EmptyBin error for a header-only file")
	}
}

func TestLoadRejectsMalformedRow(t *testing.T) {
	content := "Cirurgia;Prioridade;Dias_espera;Especialidade;Cirurgião;Duração\n" +
		"1;not-a-number;0;1;10;5\n"
	path := writeTempCSV(t, "instance.csv", content)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected a parse error for a malformed priority column")
	}
}

func TestLoadRejectsInvalidSurgery(t *testing.T) {
	content := "Cirurgia;Prioridade;Dias_espera;Especialidade;Cirurgião;Duração\n" +
		"1;9;0;1;10;5\n"
	path := writeTempCSV(t, "instance.csv", content)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected a validation error for priority 9")
	}
}

func TestLoadAggregatesEveryMalformedRow(t *testing.T) {
	content := "Cirurgia;Prioridade;Dias_espera;Especialidade;Cirurgião;Duração\n" +
		"1;not-a-number;0;1;10;5\n" +
		"2;9;0;1;10;5\n" +
		"3;1;0;1;10;5\n"
	path := writeTempCSV(t, "instance.csv", content)

	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected an error aggregating the two bad rows")
	}
	msg := err.Error()
	if !strings.Contains(msg, "row 2:") || !strings.Contains(msg, "row 3:") {
		t.Fatalf("expected both bad rows' numbers in the aggregated error, got: %s", msg)
	}
}

func TestWriteSolutionSortsBySurgeryID(t *testing.T) {
	w := schedule.NewWeek(1)
	w.Schedule(surgery.Surgery{ID: 2, Duration: 4, Speciality: 1, SurgeonID: 11})
	w.Schedule(surgery.Surgery{ID: 1, Duration: 5, Speciality: 1, SurgeonID: 10})

	dir := t.TempDir()
	path := filepath.Join(dir, "solution.csv")
	weeks := []aco.WeekResult{{Week: w, Objective: 0}}

	if err := WriteSolution(path, weeks); err != nil {
		t.Fatalf("WriteSolution: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written solution: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty solution file")
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "1;") || !strings.HasPrefix(lines[2], "2;") {
		t.Fatalf("expected a header then rows for surgeries 1 and 2 in that order, got:\n%s", data)
	}
}
