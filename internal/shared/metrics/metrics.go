package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	uploadTotal        atomic.Uint64
	uploadDedupedTotal atomic.Uint64
	uploadFailedTotal  atomic.Uint64
	chatAnswerTotal    atomic.Uint64
	chatFailedTotal    atomic.Uint64
	reconcileTotal     atomic.Uint64

	chatDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncUpload increments the upload counter.
func IncUpload() {
	uploadTotal.Add(1)
}

// IncUploadDeduped increments the deduped-upload counter.
func IncUploadDeduped() {
	uploadDedupedTotal.Add(1)
}

// IncUploadFailed increments the failed-upload counter.
func IncUploadFailed() {
	uploadFailedTotal.Add(1)
}

// IncChatAnswer increments the answered-chat counter.
func IncChatAnswer() {
	chatAnswerTotal.Add(1)
}

// IncChatFailed increments the failed-chat counter.
func IncChatFailed() {
	chatFailedTotal.Add(1)
}

// IncReconcile increments the reconcile-run counter.
func IncReconcile() {
	reconcileTotal.Add(1)
}

// ObserveChatDurationMs records an answer round-trip in milliseconds.
func ObserveChatDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	chatDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "document_upload_total", "Total document uploads accepted", uploadTotal.Load())
	writeCounter(&buf, "document_upload_deduped_total", "Total uploads skipped by fingerprint dedup", uploadDedupedTotal.Load())
	writeCounter(&buf, "document_upload_failed_total", "Total document uploads failed", uploadFailedTotal.Load())
	writeCounter(&buf, "chat_answer_total", "Total chat questions answered", chatAnswerTotal.Load())
	writeCounter(&buf, "chat_failed_total", "Total chat questions failed", chatFailedTotal.Load())
	writeCounter(&buf, "reconcile_total", "Total reconcile runs", reconcileTotal.Load())
	writeHistogram(&buf, "chat_duration_ms", "Chat answer duration in milliseconds", chatDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
