// Package metrics accumulates in-process cleaning and scoring statistics.
// The aggregator is observational only: nothing it records feeds back into
// pipeline behavior.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/pagesift/pagesift"
)

// Ensure Aggregator implements pagesift.MetricsRecorder at compile time.
var _ pagesift.MetricsRecorder = (*Aggregator)(nil)

// HostStats holds accumulated statistics for one hostname.
type HostStats struct {
	Hostname      string        `json:"hostname"`
	Cleanings     int           `json:"cleanings"`
	Scorings      int           `json:"scorings"`
	Errors        int           `json:"errors"`
	AvgReduction  float64       `json:"avgReduction"`
	AvgScore      float64       `json:"avgScore"`
	AvgCleanTime  time.Duration `json:"avgCleanTime"`
	ErrorRate     float64       `json:"errorRate"`
	LastRecording time.Time     `json:"lastRecording"`
}

// RuleStats holds accumulated statistics for one cleaning rule set.
type RuleStats struct {
	Rule         string  `json:"rule"`
	Applications int     `json:"applications"`
	AvgReduction float64 `json:"avgReduction"`
}

// Summary is a process-wide rollup of everything recorded so far.
type Summary struct {
	Hosts        int           `json:"hosts"`
	Cleanings    int           `json:"cleanings"`
	Scorings     int           `json:"scorings"`
	Errors       int           `json:"errors"`
	AvgReduction float64       `json:"avgReduction"`
	AvgScore     float64       `json:"avgScore"`
	AvgCleanTime time.Duration `json:"avgCleanTime"`
}

// Export is a full snapshot of aggregator state.
type Export struct {
	Summary Summary      `json:"summary"`
	Hosts   []*HostStats `json:"hosts"`
	Rules   []*RuleStats `json:"rules"`
}

type hostAccum struct {
	cleanings      int
	scorings       int
	errors         int
	reductionSum   float64
	scoreSum       float64
	cleanDurations time.Duration
	last           time.Time
}

type ruleAccum struct {
	applications int
	reductionSum float64
}

// Aggregator accumulates per-hostname and per-rule statistics. Safe for
// concurrent use.
type Aggregator struct {
	mu    sync.Mutex
	hosts map[string]*hostAccum
	rules map[string]*ruleAccum
	now   func() time.Time
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		hosts: make(map[string]*hostAccum),
		rules: make(map[string]*ruleAccum),
		now:   time.Now,
	}
}

// RecordCleaning records one rule-engine invocation against a hostname.
// A non-nil err counts toward the host's error rate; the report may be nil
// in that case.
func (a *Aggregator) RecordCleaning(hostname string, report *pagesift.CleaningReport, d time.Duration, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := a.host(hostname)
	h.cleanings++
	h.cleanDurations += d
	h.last = a.now()
	if err != nil {
		h.errors++
	}
	if report == nil {
		return
	}

	h.reductionSum += report.ReductionPercent

	// Attribute the report's reduction evenly across the rules that fired.
	share := report.ReductionPercent
	if n := len(report.AppliedRules); n > 1 {
		share = report.ReductionPercent / float64(n)
	}
	for _, rule := range report.AppliedRules {
		r := a.rules[rule]
		if r == nil {
			r = &ruleAccum{}
			a.rules[rule] = r
		}
		r.applications++
		r.reductionSum += share
	}
}

// RecordScore records one scorer invocation against a hostname.
func (a *Aggregator) RecordScore(hostname string, score *pagesift.QualityScore, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := a.host(hostname)
	h.scorings++
	h.last = a.now()
	if score != nil {
		h.scoreSum += score.Overall
	}
}

func (a *Aggregator) host(hostname string) *hostAccum {
	h := a.hosts[hostname]
	if h == nil {
		h = &hostAccum{}
		a.hosts[hostname] = h
	}
	return h
}

// Summary returns the process-wide rollup.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	var s Summary
	var reductionSum, scoreSum float64
	var durations time.Duration
	for _, h := range a.hosts {
		s.Hosts++
		s.Cleanings += h.cleanings
		s.Scorings += h.scorings
		s.Errors += h.errors
		reductionSum += h.reductionSum
		scoreSum += h.scoreSum
		durations += h.cleanDurations
	}
	if s.Cleanings > 0 {
		s.AvgReduction = reductionSum / float64(s.Cleanings)
		s.AvgCleanTime = durations / time.Duration(s.Cleanings)
	}
	if s.Scorings > 0 {
		s.AvgScore = scoreSum / float64(s.Scorings)
	}
	return s
}

// HostDetail returns the accumulated stats for one hostname, or nil if the
// hostname has never been recorded.
func (a *Aggregator) HostDetail(hostname string) *HostStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := a.hosts[hostname]
	if h == nil {
		return nil
	}
	return snapshotHost(hostname, h)
}

// ProblemHosts returns up to limit hostnames ranked by error rate, with
// low average reduction as the tie-breaker. Hosts with no errors and a
// healthy reduction are excluded.
func (a *Aggregator) ProblemHosts(limit int) []*HostStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []*HostStats
	for name, h := range a.hosts {
		s := snapshotHost(name, h)
		if s.Errors == 0 && s.AvgReduction >= 5 {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ErrorRate != out[j].ErrorRate {
			return out[i].ErrorRate > out[j].ErrorRate
		}
		if out[i].AvgReduction != out[j].AvgReduction {
			return out[i].AvgReduction < out[j].AvgReduction
		}
		return out[i].Hostname < out[j].Hostname
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopRules returns up to limit rule sets ranked by average attributed
// reduction.
func (a *Aggregator) TopRules(limit int) []*RuleStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*RuleStats, 0, len(a.rules))
	for name, r := range a.rules {
		out = append(out, snapshotRule(name, r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgReduction != out[j].AvgReduction {
			return out[i].AvgReduction > out[j].AvgReduction
		}
		return out[i].Rule < out[j].Rule
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Export returns a full snapshot of aggregator state, hosts and rules
// sorted by name.
func (a *Aggregator) Export() *Export {
	exp := &Export{Summary: a.Summary()}

	a.mu.Lock()
	defer a.mu.Unlock()

	for name, h := range a.hosts {
		exp.Hosts = append(exp.Hosts, snapshotHost(name, h))
	}
	sort.Slice(exp.Hosts, func(i, j int) bool { return exp.Hosts[i].Hostname < exp.Hosts[j].Hostname })

	for name, r := range a.rules {
		exp.Rules = append(exp.Rules, snapshotRule(name, r))
	}
	sort.Slice(exp.Rules, func(i, j int) bool { return exp.Rules[i].Rule < exp.Rules[j].Rule })

	return exp
}

func snapshotHost(name string, h *hostAccum) *HostStats {
	s := &HostStats{
		Hostname:      name,
		Cleanings:     h.cleanings,
		Scorings:      h.scorings,
		Errors:        h.errors,
		LastRecording: h.last,
	}
	if h.cleanings > 0 {
		s.AvgReduction = h.reductionSum / float64(h.cleanings)
		s.AvgCleanTime = h.cleanDurations / time.Duration(h.cleanings)
		s.ErrorRate = float64(h.errors) / float64(h.cleanings)
	}
	if h.scorings > 0 {
		s.AvgScore = h.scoreSum / float64(h.scorings)
	}
	return s
}

func snapshotRule(name string, r *ruleAccum) *RuleStats {
	s := &RuleStats{Rule: name, Applications: r.applications}
	if r.applications > 0 {
		s.AvgReduction = r.reductionSum / float64(r.applications)
	}
	return s
}
