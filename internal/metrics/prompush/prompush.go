// Package prompush implements a Prometheus Pushgateway backend for the
// internal/metrics package.
//
// The backend buffers counters and histogram samples in memory and pushes
// them in the Prometheus text exposition format on Flush. It speaks the
// protocol directly over net/http: the text format is a handful of
// name{labels} value lines, which does not warrant a client library
// dependency.
//
// Unlike the Datadog backend there is no flush loop; batch runs push once at
// exit via the deferred metrics.Flush in main.
package prompush

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"crashprep/internal/metrics"
)

// series identifies one buffered time series: a metric name plus its
// rendered label set. Labels are pre-rendered to a canonical string so the
// struct stays comparable and usable as a map key.
type series struct {
	name   string
	labels string
}

// Backend implements metrics.Backend against a Pushgateway.
type Backend struct {
	pushURL string
	client  *http.Client

	mu        sync.Mutex
	counts    map[series]float64
	histSum   map[series]float64
	histCount map[series]float64
}

var _ metrics.Backend = (*Backend)(nil)

// NewBackend builds a Pushgateway backend. gatewayURL is the base URL of the
// Pushgateway (e.g. http://localhost:9091); jobName becomes the job grouping
// label on the push path. An empty jobName defaults to "crashprep".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if jobName == "" {
		jobName = "crashprep"
	}

	u, err := url.Parse(gatewayURL)
	if err != nil {
		return nil, fmt.Errorf("prompush: parse gateway url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("prompush: gateway url %q needs a scheme and host", gatewayURL)
	}

	return &Backend{
		pushURL: strings.TrimRight(gatewayURL, "/") + "/metrics/job/" + url.PathEscape(jobName),
		client:  &http.Client{Timeout: 10 * time.Second},

		counts:    make(map[series]float64),
		histSum:   make(map[series]float64),
		histCount: make(map[series]float64),
	}, nil
}

// IncCounter implements metrics.Backend. Unlike the Datadog backend it
// accepts any metric name; the Pushgateway stores whatever series it is
// given.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if name == "" || delta <= 0 {
		return
	}
	k := series{name: name, labels: renderLabels(labels)}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.counts[k] += delta
}

// ObserveHistogram implements metrics.Backend. Samples are buffered as a
// running sum and count and pushed as <name>_sum and <name>_count series.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name == "" || value < 0 {
		return
	}
	k := series{name: name, labels: renderLabels(labels)}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.histSum[k] += value
	b.histCount[k]++
}

// Flush pushes buffered series to the Pushgateway and resets the buffers.
// Nothing buffered means no request and a nil return. Buffers reset even when
// the push fails, matching the Datadog backend's drop-on-error contract.
func (b *Backend) Flush() error {
	counts, histSum, histCount := b.snapshotAndReset()
	if len(counts) == 0 && len(histSum) == 0 {
		return nil
	}

	body := renderBody(counts, histSum, histCount)

	resp, err := b.client.Post(b.pushURL, "text/plain; version=0.0.4", strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("prompush: push status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}

func (b *Backend) snapshotAndReset() (counts, histSum, histCount map[series]float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts, histSum, histCount = b.counts, b.histSum, b.histCount
	b.counts = make(map[series]float64)
	b.histSum = make(map[series]float64)
	b.histCount = make(map[series]float64)
	return counts, histSum, histCount
}

// renderBody builds the text exposition payload. Lines are sorted so pushes
// are deterministic and diffable in tests. The Pushgateway rejects client
// timestamps, so none are written.
func renderBody(counts, histSum, histCount map[series]float64) string {
	lines := make([]string, 0, len(counts)+2*len(histSum))

	for k, v := range counts {
		lines = append(lines, k.name+k.labels+" "+formatValue(v))
	}
	for k, v := range histSum {
		lines = append(lines, k.name+"_sum"+k.labels+" "+formatValue(v))
		lines = append(lines, k.name+"_count"+k.labels+" "+formatValue(histCount[k]))
	}

	sort.Strings(lines)
	return strings.Join(lines, "\n") + "\n"
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var labelValueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// renderLabels renders a label set as {k="v",...} with keys sorted, or the
// empty string for no labels.
func renderLabels(labels metrics.Labels) string {
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(labelValueEscaper.Replace(labels[k]))
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}
