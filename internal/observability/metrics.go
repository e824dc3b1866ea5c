package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesExtracted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nestwire",
			Subsystem: "stream",
			Name:      "frames_extracted_total",
			Help:      "Complete frames sliced out of the observe byte stream.",
		},
	)
	frameDecodeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nestwire",
			Subsystem: "stream",
			Name:      "frame_decode_failures_total",
			Help:      "Frames that failed StreamBody decode and were dropped.",
		},
	)
	traitsDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nestwire",
			Subsystem: "stream",
			Name:      "traits_decoded_total",
			Help:      "Trait payloads decoded into records.",
		},
		[]string{"trait"},
	)
	traitsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nestwire",
			Subsystem: "stream",
			Name:      "traits_dropped_total",
			Help:      "Get operations dropped without producing a record.",
		},
		[]string{"reason"},
	)
	bufferHighWater = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nestwire",
			Subsystem: "stream",
			Name:      "buffer_highwater_total",
			Help:      "Times the reassembly buffer grew past the catalog threshold.",
		},
	)
	reconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nestwire",
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Transport-level failures that triggered a reconnect.",
		},
	)
)

// Drop reasons for RecordTraitDropped.
const (
	DropReasonUnclassified = "unclassified"
	DropReasonNoPayload    = "no_payload"
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			framesExtracted,
			frameDecodeFailures,
			traitsDecoded,
			traitsDropped,
			bufferHighWater,
			reconnects,
		)
	})
}

func RecordFrameExtracted() {
	RegisterMetrics()
	framesExtracted.Inc()
}

func RecordFrameDecodeFailure() {
	RegisterMetrics()
	frameDecodeFailures.Inc()
}

func RecordTraitDecoded(trait string) {
	RegisterMetrics()
	traitsDecoded.WithLabelValues(trait).Inc()
}

func RecordTraitDropped(reason string) {
	RegisterMetrics()
	traitsDropped.WithLabelValues(reason).Inc()
}

func RecordBufferHighWater() {
	RegisterMetrics()
	bufferHighWater.Inc()
}

func RecordReconnect() {
	RegisterMetrics()
	reconnects.Inc()
}
