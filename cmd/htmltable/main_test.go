package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const statsPage = `<html><body>
<p>Road statistics</p>
<table>
  <thead><tr><th>Place</th><th>Count</th></tr></thead>
  <tbody>
    <tr><td>Urban</td><td>12</td></tr>
    <tr><td>Rural</td><td>7</td></tr>
  </tbody>
</table>
<table id="second">
  <tr><th>Year</th><th>Total</th></tr>
  <tr><td>2005</td><td>19</td></tr>
</table>
</body></html>`

func writePage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stats.html")
	if err := os.WriteFile(path, []byte(statsPage), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunExtractsFromFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-path", writePage(t)}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr=%q", code, stderr.String())
	}
	want := "Place,Count\nUrban,12\nRural,7\n"
	if stdout.String() != want {
		t.Errorf("stdout = %q, want %q", stdout.String(), want)
	}
}

func TestRunSelectsByIndex(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-path", writePage(t), "-index", "1"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr=%q", code, stderr.String())
	}
	want := "Year,Total\n2005,19\n"
	if stdout.String() != want {
		t.Errorf("stdout = %q, want %q", stdout.String(), want)
	}
}

func TestRunFetchesURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(statsPage))
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := run([]string{"-url", srv.URL}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr=%q", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "Place,Count\n") {
		t.Errorf("stdout = %q, want the CSV header first", stdout.String())
	}
}

func TestRunWritesOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "stats.csv")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-path", writePage(t), "-o", out}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr=%q", code, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty when -o is set", stdout.String())
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if want := "Place,Count\nUrban,12\nRural,7\n"; string(got) != want {
		t.Errorf("output file = %q, want %q", got, want)
	}
}

func TestRunJSONFormat(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-path", writePage(t), "-format", "json"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr=%q", code, stderr.String())
	}
	var rows []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &rows); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout.String())
	}
	if len(rows) != 2 || rows[0]["Place"] != "Urban" {
		t.Errorf("rows = %v, want Urban and Rural", rows)
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-path", "ignored.html", "-format", "yaml"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if stderr.Len() == 0 {
		t.Error("stderr is empty, want the format error")
	}
}

func TestRunNoTableMatched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.html")
	if err := os.WriteFile(path, []byte("<html><body><p>nothing</p></body></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"-path", path}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "no table matched") {
		t.Errorf("stderr = %q, want the selector error", stderr.String())
	}
}
