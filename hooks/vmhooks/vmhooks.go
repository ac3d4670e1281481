// Package vmhooks exports castore events as VictoriaMetrics counters.
//
// Counters are registered in the default metrics set unless Set is given;
// expose them with metrics.WritePrometheus.
package vmhooks

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/unkn0wn-root/castore"
)

// Hooks counts events per entity. Keys are not used as labels.
type Hooks struct {
	set    *metrics.Set
	entity string

	setRejected *metrics.Counter
	contended   *metrics.Counter
	timeouts    *metrics.Counter
	relFailed   *metrics.Counter
	lockLost    *metrics.Counter
	snapErrs    *metrics.Counter
	bumpErrs    *metrics.Counter
	waitSeconds *metrics.Histogram
}

var _ castore.Hooks = (*Hooks)(nil)

// New registers counters labelled entity=<entity>. Pass a nil set to use the
// default one.
func New(set *metrics.Set, entity string) *Hooks {
	h := &Hooks{set: set, entity: entity}
	h.setRejected = h.counter("castore_provider_set_rejected_total", "")
	h.contended = h.counter("castore_lock_contended_total", "")
	h.timeouts = h.counter("castore_lock_timeouts_total", "")
	h.relFailed = h.counter("castore_lock_release_failed_total", `,reason="error"`)
	h.lockLost = h.counter("castore_lock_release_failed_total", `,reason="lost"`)
	h.snapErrs = h.counter("castore_gen_errors_total", `,op="snapshot"`)
	h.bumpErrs = h.counter("castore_gen_errors_total", `,op="bump"`)
	h.waitSeconds = h.histogram("castore_lock_timeout_wait_seconds")
	return h
}

func (h *Hooks) name(metric, extra string) string {
	return fmt.Sprintf(`%s{entity=%q%s}`, metric, h.entity, extra)
}

func (h *Hooks) counter(metric, extra string) *metrics.Counter {
	if h.set != nil {
		return h.set.GetOrCreateCounter(h.name(metric, extra))
	}
	return metrics.GetOrCreateCounter(h.name(metric, extra))
}

func (h *Hooks) histogram(metric string) *metrics.Histogram {
	if h.set != nil {
		return h.set.GetOrCreateHistogram(h.name(metric, ""))
	}
	return metrics.GetOrCreateHistogram(h.name(metric, ""))
}

// SelfHeal is labelled by reason, a small fixed set.
func (h *Hooks) SelfHeal(_ string, reason string) {
	h.counter("castore_self_heal_total", fmt.Sprintf(`,reason=%q`, reason)).Inc()
}

func (h *Hooks) ProviderSetRejected(string)     { h.setRejected.Inc() }
func (h *Hooks) LockContended(string, int)      { h.contended.Inc() }
func (h *Hooks) GenSnapshotError(string, error) { h.snapErrs.Inc() }
func (h *Hooks) GenBumpError(string, error)     { h.bumpErrs.Inc() }

func (h *Hooks) LockTimeout(_ string, waited time.Duration) {
	h.timeouts.Inc()
	h.waitSeconds.Update(waited.Seconds())
}

func (h *Hooks) LockReleaseFailed(_ string, err error) {
	if err == nil {
		h.lockLost.Inc()
		return
	}
	h.relFailed.Inc()
}
