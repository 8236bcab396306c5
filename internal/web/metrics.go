package web

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/BennyTheCop-HazeTaze/familjekalender/internal/ics"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "familjekalender_fetch_total",
		Help: "Feed fetch attempts by result.",
	}, []string{"result"})

	eventsEmitted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "familjekalender_events_emitted",
		Help: "Events in the most recent merged calendar.",
	})

	mergeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "familjekalender_merge_duration_seconds",
		Help:    "Wall time of a full fetch+merge+write cycle.",
		Buckets: prometheus.DefBuckets,
	})

	lastMerge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "familjekalender_last_merge_timestamp_seconds",
		Help: "Unix time of the most recent successful merge.",
	})
)

// RecordMerge updates the metrics after a merge cycle. fetched and
// failed count the sources that produced a document and those that
// were skipped.
func RecordMerge(rep ics.Report, duration time.Duration, fetched, failed int) {
	fetchTotal.WithLabelValues("ok").Add(float64(fetched))
	fetchTotal.WithLabelValues("error").Add(float64(failed))
	eventsEmitted.Set(float64(rep.EventsEmitted))
	mergeDuration.Observe(duration.Seconds())
	lastMerge.SetToCurrentTime()
}
