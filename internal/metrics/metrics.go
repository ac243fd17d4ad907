// Package metrics provides Prometheus metrics for import runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import stages, used as the "stage" label on ImportErrors.
const (
	StageParse       = "parse"
	StageTree        = "tree"
	StageMaterialize = "materialize"
	StageDerive      = "derive"
)

// Import holds the collectors for one importer. A nil *Import is valid and
// records nothing.
type Import struct {
	TopicsCreated       prometheus.Counter
	TopicsSkipped       prometheus.Counter
	AssociationsCreated *prometheus.CounterVec
	AssociationsSkipped prometheus.Counter
	ImportDuration      prometheus.Histogram
	ImportErrors        *prometheus.CounterVec
}

// NewImport creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewImport(reg prometheus.Registerer) *Import {
	factory := promauto.With(reg)
	return &Import{
		TopicsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "topicmap_topics_created_total",
			Help: "Topics created by the importer",
		}),
		TopicsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "topicmap_topics_skipped_total",
			Help: "Topics left untouched because they already existed",
		}),
		AssociationsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "topicmap_associations_created_total",
			Help: "Associations created by the importer",
		}, []string{"instance_of"}),
		AssociationsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "topicmap_associations_skipped_total",
			Help: "Associations not written because the same edge already existed",
		}),
		ImportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "topicmap_import_duration_seconds",
			Help:    "Wall time of complete import runs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		ImportErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "topicmap_import_errors_total",
			Help: "Import runs aborted, by stage",
		}, []string{"stage"}),
	}
}

func (m *Import) TopicCreated() {
	if m != nil {
		m.TopicsCreated.Inc()
	}
}

func (m *Import) TopicSkipped() {
	if m != nil {
		m.TopicsSkipped.Inc()
	}
}

func (m *Import) AssociationCreated(instanceOf string) {
	if m != nil {
		m.AssociationsCreated.WithLabelValues(instanceOf).Inc()
	}
}

func (m *Import) AssociationSkipped() {
	if m != nil {
		m.AssociationsSkipped.Inc()
	}
}

func (m *Import) ObserveImport(d time.Duration) {
	if m != nil {
		m.ImportDuration.Observe(d.Seconds())
	}
}

func (m *Import) Failed(stage string) {
	if m != nil {
		m.ImportErrors.WithLabelValues(stage).Inc()
	}
}

// WriteTextfile writes everything gathered from g to path in the Prometheus
// text format (node_exporter textfile collector layout).
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
