// Package metrics exports assessment scores as Prometheus gauges, written
// to a node_exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/user/hecvat-adk/pkg/engine"
)

const namespace = "hecvat"

// Collector holds a registry scoped to one run.
type Collector struct {
	registry *prometheus.Registry

	score        *prometheus.GaugeVec
	category     *prometheus.GaugeVec
	gaps         *prometheus.GaugeVec
	tasks        prometheus.Gauge
	dedupRatio   prometheus.Gauge
	orgGaps      prometheus.Gauge
	transitions  *prometheus.GaugeVec
	lastRunEpoch prometheus.Gauge
}

// NewCollector registers the assessment gauges on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		score: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "score",
			Help:      "Assessment score by tier and kind (raw and confidence_adjusted are fractions, weighted is a percentage).",
		}, []string{"tier", "kind"}),
		category: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "category_compliance_percent",
			Help:      "Per-category compliance percentage by tier.",
		}, []string{"tier", "category"}),
		gaps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gaps",
			Help:      "Current gaps by fix type.",
		}, []string{"fix_type"}),
		tasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "tasks",
			Help:      "Remediation tasks in the plan.",
		}),
		dedupRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "deduplication_ratio",
			Help:      "Questions resolved per task.",
		}),
		orgGaps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "org_attestation_gaps",
			Help:      "Gaps that need organizational attestation.",
		}),
		transitions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "delta",
			Name:      "questions",
			Help:      "Questions by transition since the previous run.",
		}, []string{"transition"}),
		lastRunEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Assessment time of the current snapshot.",
		}),
	}
	c.registry.MustRegister(c.score, c.category, c.gaps, c.tasks, c.dedupRatio, c.orgGaps, c.transitions, c.lastRunEpoch)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe records every gauge derivable from an assessment.
func (c *Collector) Observe(a *engine.Assessment) {
	for _, t := range engine.Tiers {
		sc := a.Scores[t]
		if sc == nil {
			continue
		}
		tier := string(t)
		c.score.WithLabelValues(tier, "raw").Set(sc.RawScore)
		c.score.WithLabelValues(tier, "weighted").Set(sc.WeightedScore)
		c.score.WithLabelValues(tier, "confidence_adjusted").Set(sc.ConfidenceAdjustedScore)
		for _, cs := range sc.Categories {
			c.category.WithLabelValues(tier, cs.Category).Set(cs.Percent())
		}
	}

	if sc := a.Scores[engine.TierCurrent]; sc != nil {
		for _, ft := range engine.AllFixTypes {
			c.gaps.WithLabelValues(string(ft)).Set(float64(sc.GapsByFixType[ft]))
		}
	}
	if a.Plan != nil {
		c.tasks.Set(float64(a.Plan.Metadata.TotalTasks))
		c.dedupRatio.Set(a.Plan.Metadata.DeduplicationRatio)
		c.orgGaps.Set(float64(a.Plan.OrgAttestationGaps.Total))
	}
	if d := a.Delta; d != nil {
		c.transitions.WithLabelValues(string(engine.Improved)).Set(float64(len(d.Improved)))
		c.transitions.WithLabelValues(string(engine.Regressed)).Set(float64(len(d.Regressed)))
		c.transitions.WithLabelValues(string(engine.NewlyAssessed)).Set(float64(len(d.NewlyAssessed)))
		c.transitions.WithLabelValues(string(engine.NewlyUnassessed)).Set(float64(len(d.NewlyUnassessed)))
		c.transitions.WithLabelValues(string(engine.Unchanged)).Set(float64(d.Unchanged()))
	}
	if a.Current != nil {
		c.lastRunEpoch.Set(float64(a.Current.AssessmentDate.Unix()))
	}
}

// WriteTextfile writes the registry in the text exposition format. The
// file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics: create dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
