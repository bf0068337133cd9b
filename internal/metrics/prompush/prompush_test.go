package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"crashprep/internal/metrics"
)

type pushRecorder struct {
	mu       sync.Mutex
	paths    []string
	types    []string
	bodies   []string
	status   int
	respBody string
}

func (pr *pushRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		pr.mu.Lock()
		pr.paths = append(pr.paths, r.URL.EscapedPath())
		pr.types = append(pr.types, r.Header.Get("Content-Type"))
		pr.bodies = append(pr.bodies, string(body))
		status, respBody := pr.status, pr.respBody
		pr.mu.Unlock()

		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}
}

func (pr *pushRecorder) count() int {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return len(pr.bodies)
}

func (pr *pushRecorder) last() (path, contentType, body string) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	n := len(pr.bodies)
	if n == 0 {
		return "", "", ""
	}
	return pr.paths[n-1], pr.types[n-1], pr.bodies[n-1]
}

func TestNewBackendValidatesURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "empty", url: "", wantErr: true},
		{name: "no_scheme", url: "localhost:9091/path", wantErr: true},
		{name: "scheme_only", url: "http://", wantErr: true},
		{name: "valid", url: "http://localhost:9091", wantErr: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBackend("job", tc.url)
			if (err != nil) != tc.wantErr {
				t.Fatalf("NewBackend(%q) err=%v, wantErr=%v", tc.url, err, tc.wantErr)
			}
		})
	}
}

func TestNewBackendBuildsEscapedPushURL(t *testing.T) {
	b, err := NewBackend("nightly prep", "http://localhost:9091/")
	if err != nil {
		t.Fatalf("NewBackend() err=%v", err)
	}
	want := "http://localhost:9091/metrics/job/nightly%20prep"
	if b.pushURL != want {
		t.Fatalf("pushURL=%q, want %q", b.pushURL, want)
	}
}

func TestNewBackendDefaultsJobName(t *testing.T) {
	b, err := NewBackend("", "http://localhost:9091")
	if err != nil {
		t.Fatalf("NewBackend() err=%v", err)
	}
	if !strings.HasSuffix(b.pushURL, "/metrics/job/crashprep") {
		t.Fatalf("pushURL=%q, want job crashprep", b.pushURL)
	}
}

func TestFlushPostsSortedBodyAndResets(t *testing.T) {
	rec := &pushRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	b, err := NewBackend("nightly", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend() err=%v", err)
	}

	b.IncCounter("prep_step_total", 2, metrics.Labels{"step": "explode", "status": "ok"})
	b.IncCounter("prep_step_total", 1, metrics.Labels{"step": "explode", "status": "ok"})
	b.IncCounter("prep_runs_total", 1, nil)
	b.ObserveHistogram("prep_step_duration_seconds", 0.5, metrics.Labels{"step": "explode", "status": "ok"})
	b.ObserveHistogram("prep_step_duration_seconds", 1.5, metrics.Labels{"step": "explode", "status": "ok"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() err=%v, want nil", err)
	}
	if rec.count() != 1 {
		t.Fatalf("push count=%d, want 1", rec.count())
	}

	path, contentType, body := rec.last()
	if path != "/metrics/job/nightly" {
		t.Fatalf("path=%q, want /metrics/job/nightly", path)
	}
	if contentType != "text/plain; version=0.0.4" {
		t.Fatalf("content type=%q", contentType)
	}

	want := strings.Join([]string{
		`prep_runs_total 1`,
		`prep_step_duration_seconds_count{status="ok",step="explode"} 2`,
		`prep_step_duration_seconds_sum{status="ok",step="explode"} 2`,
		`prep_step_total{status="ok",step="explode"} 3`,
	}, "\n") + "\n"
	if body != want {
		t.Fatalf("body=\n%s\nwant=\n%s", body, want)
	}

	// Buffers were reset, so a second Flush has nothing to push.
	if err := b.Flush(); err != nil {
		t.Fatalf("second Flush() err=%v, want nil", err)
	}
	if rec.count() != 1 {
		t.Fatalf("push count after empty flush=%d, want 1", rec.count())
	}
}

func TestFlushEmptyMakesNoRequest(t *testing.T) {
	rec := &pushRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	b, err := NewBackend("nightly", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend() err=%v", err)
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() err=%v, want nil", err)
	}
	if rec.count() != 0 {
		t.Fatalf("push count=%d, want 0", rec.count())
	}
}

func TestFlushReportsServerErrors(t *testing.T) {
	rec := &pushRecorder{status: http.StatusInternalServerError, respBody: "malformed metric"}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	b, err := NewBackend("nightly", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend() err=%v", err)
	}
	b.IncCounter("prep_runs_total", 1, nil)

	err = b.Flush()
	if err == nil {
		t.Fatalf("Flush() err=nil, want push status error")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "malformed metric") {
		t.Fatalf("Flush() err=%q, want status and body in message", err)
	}
}

func TestBufferedSamplesDropBadInput(t *testing.T) {
	rec := &pushRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	b, err := NewBackend("nightly", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend() err=%v", err)
	}

	b.IncCounter("prep_runs_total", 0, nil)
	b.IncCounter("prep_runs_total", -1, nil)
	b.IncCounter("", 1, nil)
	b.ObserveHistogram("prep_step_duration_seconds", -0.1, nil)
	b.ObserveHistogram("", 1, nil)

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() err=%v, want nil", err)
	}
	if rec.count() != 0 {
		t.Fatalf("push count=%d, want 0 (all samples invalid)", rec.count())
	}
}

func TestRenderLabelsSortsAndEscapes(t *testing.T) {
	tests := []struct {
		name   string
		labels metrics.Labels
		want   string
	}{
		{name: "nil", labels: nil, want: ""},
		{name: "empty", labels: metrics.Labels{}, want: ""},
		{name: "sorted_keys", labels: metrics.Labels{"step": "explode", "status": "ok"}, want: `{status="ok",step="explode"}`},
		{name: "escaped_value", labels: metrics.Labels{"query": "a\"b\\c\nd"}, want: `{query="a\"b\\c\nd"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := renderLabels(tc.labels); got != tc.want {
				t.Fatalf("renderLabels(%v)=%q, want %q", tc.labels, got, tc.want)
			}
		})
	}
}

func TestBackendConcurrentAccess(t *testing.T) {
	rec := &pushRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	b, err := NewBackend("nightly", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend() err=%v", err)
	}

	const workers = 8
	const iters = 500

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				b.IncCounter("prep_rows_total", 1, metrics.Labels{"kind": "output"})
				b.ObserveHistogram("prep_step_duration_seconds", 0.001, metrics.Labels{"step": "explode", "status": "ok"})
			}
		}()
	}
	wg.Wait()

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() err=%v, want nil", err)
	}
	_, _, body := rec.last()
	if !strings.Contains(body, `prep_rows_total{kind="output"} 4000`) {
		t.Fatalf("body missing aggregated counter:\n%s", body)
	}
	if !strings.Contains(body, `prep_step_duration_seconds_count{status="ok",step="explode"} 4000`) {
		t.Fatalf("body missing aggregated histogram count:\n%s", body)
	}
}
