// Package sloghooks reports castore events through log/slog, sampling the
// noisy ones and redacting keys.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/castore"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery  uint64
	ContendedEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr  atomic.Uint64
	contendedCtr atomic.Uint64
}

var _ castore.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("castore.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("castore.provider_set_rejected", "key", h.redact(storageKey))
}

func (h *Hooks) LockContended(lockKey string, attempt int) {
	if h.l == nil || !sample(h.opts.ContendedEvery, &h.contendedCtr) {
		return
	}
	h.l.Debug("castore.lock_contended",
		"key", h.redact(lockKey),
		"attempt", attempt)
}

func (h *Hooks) LockTimeout(lockKey string, waited time.Duration) {
	if h.l == nil {
		return
	}
	h.l.Warn("castore.lock_timeout",
		"key", h.redact(lockKey),
		"waited", waited)
}

// LockReleaseFailed logs err=nil as a lost lease: the lock expired while
// held, so LockTTL is shorter than the critical section.
func (h *Hooks) LockReleaseFailed(lockKey string, err error) {
	if h.l == nil {
		return
	}
	if err == nil {
		h.l.Warn("castore.lock_lost", "key", h.redact(lockKey))
		return
	}
	h.l.Error("castore.lock_release_failed",
		"key", h.redact(lockKey),
		"err", err)
}

func (h *Hooks) GenSnapshotError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("castore.gen_snapshot_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) GenBumpError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("castore.gen_bump_error",
		"key", h.redact(storageKey),
		"err", err)
}
