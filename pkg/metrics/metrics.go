// Package metrics is the optional Prometheus collector plumbed through
// the orchestrator.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the surface the orchestrator reports against. A nil
// Metrics is never passed around internally -- NoOp{} fills that role.
type Metrics interface {
	// RecordsIndexed adds n to the count of CDXJ-eligible WARC records seen.
	RecordsIndexed(n int)
	// ShardEmitted records one ZipNum shard of the given gzip-compressed size.
	ShardEmitted(bytes int)
	// BytesWritten adds n to the total bytes streamed into the ZIP sink.
	BytesWritten(n int64)
	// SignOutcome records whether the digest-signing step succeeded.
	SignOutcome(ok bool)
}

// Prometheus is a Metrics implementation backed by client_golang
// collectors, registered on a caller-supplied registry.
type Prometheus struct {
	recordsIndexed prometheus.Counter
	shardsEmitted  prometheus.Counter
	shardBytes     prometheus.Histogram
	bytesWritten   prometheus.Counter
	signOutcomes   *prometheus.CounterVec
}

// NewPrometheus registers the WACZ collectors on reg and returns a
// Metrics backed by them.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	m := &Prometheus{
		recordsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waczpack",
			Name:      "records_indexed_total",
			Help:      "Number of WARC records that produced a CDXJ entry.",
		}),
		shardsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waczpack",
			Name:      "shards_emitted_total",
			Help:      "Number of ZipNum shards written to index.cdx.gz.",
		}),
		shardBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "waczpack",
			Name:      "shard_bytes",
			Help:      "Gzip-compressed size of emitted ZipNum shards.",
			Buckets:   prometheus.ExponentialBuckets(1024, 2, 12),
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waczpack",
			Name:      "bytes_written_total",
			Help:      "Bytes streamed into the output ZIP sink.",
		}),
		signOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waczpack",
			Name:      "sign_outcomes_total",
			Help:      "Digest signing attempts, partitioned by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.recordsIndexed, m.shardsEmitted, m.shardBytes, m.bytesWritten, m.signOutcomes)

	return m
}

func (m *Prometheus) RecordsIndexed(n int) { m.recordsIndexed.Add(float64(n)) }

func (m *Prometheus) ShardEmitted(bytes int) {
	m.shardsEmitted.Inc()
	m.shardBytes.Observe(float64(bytes))
}

func (m *Prometheus) BytesWritten(n int64) { m.bytesWritten.Add(float64(n)) }

func (m *Prometheus) SignOutcome(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}

	m.signOutcomes.WithLabelValues(outcome).Inc()
}

// NoOp is the zero-cost Metrics used when the caller configures none.
type NoOp struct{}

func (NoOp) RecordsIndexed(int) {}
func (NoOp) ShardEmitted(int) {}
func (NoOp) BytesWritten(int64) {}
func (NoOp) SignOutcome(bool) {}

var _ Metrics = (*Prometheus)(nil)

var _ Metrics = NoOp{}
