package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintRunJSON(&buf, "extract", "run-1", map[string]int{"succeeded": 2}); err != nil {
		t.Fatal(err)
	}

	var res JSONResult
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Command != "extract" || res.RunID != "run-1" {
		t.Errorf("unexpected envelope %+v", res)
	}
	if res.Version == "" {
		t.Error("expected version in envelope")
	}
}

func TestPrintJSONError(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSONError(&buf, "convert", errors.New("no office"), ExitSystemError); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"ok": false`) || !strings.Contains(out, `"code": 2`) {
		t.Errorf("unexpected output %s", out)
	}
}

func TestConsoleHelpers(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	Header(&buf, "=== %s ===", "DONE")
	Success(&buf, "%d files", 3)
	Warn(&buf, "nothing processed")
	Fail(&buf, "bad.xls")
	Field(&buf, "Output", "OUTPUT")

	want := "=== DONE ===\n✓ 3 files\n⚠ nothing processed\n✗ bad.xls\n  Output:    OUTPUT\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
