// SPDX-License-Identifier: AGPL-3.0-or-later
package metrics

import (
	"bufio"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Invocation outcomes recorded by RecordInvocation.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid_args"
	OutcomeUnknown  = "unknown_command"
	OutcomeError    = "error"
)

var invocationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Registry collects counters and histograms for Prometheus exposition.
type Registry struct {
	mu sync.Mutex

	httpRequests       *httpHistogram
	buildInfoLabels    map[string]string
	invocations        map[[2]string]uint64
	invocationDuration map[string]*simpleHistogram
}

// NewRegistry constructs a metrics registry with default buckets.
func NewRegistry() *Registry {
	return &Registry{
		httpRequests: newHTTPHistogram(),
		buildInfoLabels: map[string]string{
			"version": "dev",
		},
		invocations:        make(map[[2]string]uint64),
		invocationDuration: make(map[string]*simpleHistogram),
	}
}

// Default global registry used by the server.
var Default = NewRegistry()

// SetBuildInfo configures the build info labels exposed by sigdesk_build_info.
func (r *Registry) SetBuildInfo(labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range labels {
		r.buildInfoLabels[k] = v
	}
}

// RecordHTTP records an HTTP request metric.
func (r *Registry) RecordHTTP(route, method string, status int, duration time.Duration) {
	if r == nil || route == "" || method == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.httpRequests.observe(route, method, status, duration)
}

// RecordInvocation counts a bridge command invocation and observes its latency.
// Unknown commands are folded into a single label to bound cardinality.
func (r *Registry) RecordInvocation(command, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	if outcome == "" {
		outcome = OutcomeOK
	}
	if outcome == OutcomeUnknown {
		command = "unknown"
	}
	if command == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invocations[[2]string{command, outcome}]++
	hist, ok := r.invocationDuration[command]
	if !ok {
		hist = newSimpleHistogram(invocationBuckets)
		r.invocationDuration[command] = hist
	}
	hist.observe(duration)
}

// InvocationTotal returns the invocation count for command and outcome.
func (r *Registry) InvocationTotal(command, outcome string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invocations[[2]string{command, normalizeLabel(outcome)}]
}

// Handler returns an http.Handler that writes Prometheus text exposition.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		r.writeAll(w)
	})
}

func (r *Registry) writeAll(w http.ResponseWriter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf := bufio.NewWriter(w)
	defer buf.Flush()

	writeMetricHeader(buf, "http_requests_total", "Total HTTP requests", "counter")
	for _, key := range r.httpRequests.sortedKeys() {
		route, method, code := key[0], key[1], key[2]
		fmt.Fprintf(buf, "http_requests_total{method=%q,route=%q,code=%q} %.0f\n", method, route, code, r.httpRequests.total(route, method, code))
	}
	buf.WriteByte('\n')

	writeMetricHeader(buf, "http_request_duration_seconds", "HTTP request latency in seconds", "histogram")
	r.httpRequests.writeHistograms(buf)
	buf.WriteByte('\n')

	writeMetricHeader(buf, "sigdesk_build_info", "Build info", "gauge")
	buf.WriteString("sigdesk_build_info")
	buf.WriteString(labelsToString(r.buildInfoLabels))
	buf.WriteString(" 1\n\n")

	writeMetricHeader(buf, "sigdesk_invocations_total", "Bridge command invocations by outcome", "counter")
	keys := make([][2]string, 0, len(r.invocations))
	for key := range r.invocations {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return a[1] < b[1]
	})
	for _, key := range keys {
		fmt.Fprintf(buf, "sigdesk_invocations_total{command=%q,outcome=%q} %d\n", key[0], key[1], r.invocations[key])
	}
	buf.WriteByte('\n')

	writeMetricHeader(buf, "sigdesk_invocation_duration_seconds", "Bridge command latency in seconds", "histogram")
	commands := make([]string, 0, len(r.invocationDuration))
	for command := range r.invocationDuration {
		commands = append(commands, command)
	}
	sort.Strings(commands)
	for _, command := range commands {
		r.invocationDuration[command].writeWithLabels(buf, "sigdesk_invocation_duration_seconds", map[string]string{
			"command": command,
		})
	}
}

func writeMetricHeader(buf *bufio.Writer, name, help, metricType string) {
	if help != "" {
		fmt.Fprintf(buf, "# HELP %s %s\n", name, escapeHelp(help))
	}
	if metricType != "" {
		fmt.Fprintf(buf, "# TYPE %s %s\n", name, metricType)
	}
}

func escapeHelp(help string) string {
	return strings.ReplaceAll(help, "\\", "\\\\")
}

type httpHistogram struct {
	// key: route|method|code
	counts map[[3]string]uint64
	hist   map[string]*simpleHistogram
}

func newHTTPHistogram() *httpHistogram {
	return &httpHistogram{
		counts: make(map[[3]string]uint64),
		hist:   make(map[string]*simpleHistogram),
	}
}

func (h *httpHistogram) observe(route, method string, status int, duration time.Duration) {
	key := [3]string{route, method, strconv.Itoa(status)}
	h.counts[key]++
	label := route + "|" + method + "|" + strconv.Itoa(status)
	b, ok := h.hist[label]
	if !ok {
		b = newSimpleHistogram([]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10})
		h.hist[label] = b
	}
	b.observe(duration)
}

func (h *httpHistogram) total(route, method, code string) float64 {
	return float64(h.counts[[3]string{route, method, code}])
}

func (h *httpHistogram) sortedKeys() [][3]string {
	keys := make([][3]string, 0, len(h.counts))
	for k := range h.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})
	return keys
}

func (h *httpHistogram) writeHistograms(buf *bufio.Writer) {
	keys := make([]string, 0, len(h.hist))
	for k := range h.hist {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, label := range keys {
		parts := strings.Split(label, "|")
		if len(parts) != 3 {
			continue
		}
		h.hist[label].writeWithLabels(buf, "http_request_duration_seconds", map[string]string{
			"route":  parts[0],
			"method": parts[1],
			"code":   parts[2],
		})
	}
}

type simpleHistogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newSimpleHistogram(buckets []float64) *simpleHistogram {
	return &simpleHistogram{
		buckets: append([]float64(nil), buckets...),
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *simpleHistogram) observe(duration time.Duration) {
	if h == nil {
		return
	}
	sec := duration.Seconds()
	for i, upper := range h.buckets {
		if sec <= upper {
			h.counts[i]++
		}
	}
	// +Inf bucket
	h.count++
	h.sum += sec
}

func (h *simpleHistogram) writeWithLabels(buf *bufio.Writer, name string, labels map[string]string) {
	if h == nil {
		return
	}
	for i, upper := range h.buckets {
		fmt.Fprintf(buf, "%s_bucket%s %d\n", name, labelsWithLE(labels, upper), h.counts[i])
	}
	fmt.Fprintf(buf, "%s_bucket%s %d\n", name, labelsWithLE(labels, math.Inf(1)), h.count)
	fmt.Fprintf(buf, "%s_sum%s %g\n", name, labelsToString(labels), h.sum)
	fmt.Fprintf(buf, "%s_count%s %d\n\n", name, labelsToString(labels), h.count)
}

func labelsWithLE(labels map[string]string, le float64) string {
	labelCopy := make(map[string]string, len(labels)+1)
	for k, v := range labels {
		labelCopy[k] = v
	}
	if math.IsInf(le, 1) {
		labelCopy["le"] = "+Inf"
	} else {
		labelCopy["le"] = strconv.FormatFloat(le, 'f', -1, 64)
	}
	return labelsToString(labelCopy)
}

func labelsToString(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(labels))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func normalizeLabel(v string) string {
	return strings.TrimSpace(strings.ToLower(v))
}
