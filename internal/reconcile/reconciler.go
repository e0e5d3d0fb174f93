package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"heating_scheduler/internal/ledger"
	"heating_scheduler/internal/logger"
	"heating_scheduler/internal/models"
)

// ModeSetter applies a mode to one device.
type ModeSetter interface {
	SetMode(ctx context.Context, device, mode string) error
}

// Result is the outcome of one family pass.
type Result struct {
	// Ledger holds the new values for the family's devices only.
	Ledger    ledger.Entry
	Decisions []Decision
}

// Reconciler drives one device family toward its merged target.
type Reconciler struct {
	policy   Policy
	setter   ModeSetter
	cooldown time.Duration
	dryRun   bool
	log      *logger.Logger
}

func New(policy Policy, setter ModeSetter, cooldown time.Duration, dryRun bool, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Nop()
	}
	return &Reconciler{
		policy:   policy,
		setter:   setter,
		cooldown: cooldown,
		dryRun:   dryRun,
		log:      log.With("family", policy.Family),
	}
}

// Reconcile decides, and if needed applies, the mode of every target device
// of the policy's family. prior is read only; devices are visited in name order.
func (r *Reconciler) Reconcile(ctx context.Context, now time.Time, live map[string]models.LiveStatus, target models.MergedTarget, prior ledger.Entry) Result {
	names := make([]string, 0, len(target))
	for name, t := range target {
		if t.Type == r.policy.Family {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	res := Result{Ledger: ledger.Entry{}}
	for _, name := range names {
		d, v := r.decide(ctx, now, name, target[name].Mode, live, prior)
		if v.IsValid() {
			res.Ledger[name] = v
		}
		res.Decisions = append(res.Decisions, d)
		r.logDecision(d, v)
	}
	return res
}

// decide returns the decision for one device and the ledger value to record.
// An invalid value means the device is left out of the new ledger.
func (r *Reconciler) decide(ctx context.Context, now time.Time, name, mode string, live map[string]models.LiveStatus, prior ledger.Entry) (Decision, ledger.Value) {
	d := Decision{Device: name, Family: r.policy.Family, Mode: mode}
	priorValue, hasPrior := prior.Get(name)

	st, ok := live[name]
	if !ok {
		d.Action = ActionNotFound
		return d, ledger.Canonical(models.StatusNotFound)
	}
	d.Status = st.Status
	if !st.Online {
		d.Action = ActionOffline
		return d, ledger.Canonical(models.StatusOffline)
	}
	if r.policy.intermediate(st.Status) {
		d.Action = ActionIntermediate
		return d, priorValue
	}
	if r.policy.matches(mode, st.Status) {
		d.Action = ActionInSync
		return d, ledger.Canonical(mode)
	}

	if hasPrior && !r.priorMatches(priorValue, st.Status) {
		if !priorValue.IsPending() {
			d.Action = ActionFlagged
			return d, ledger.PendingSince(now)
		}
		if priorValue.Elapsed(now) < int64(r.cooldown/time.Second) {
			d.Action = ActionDebounced
			return d, priorValue
		}
	}

	if o, ok := r.policy.override(mode); ok {
		d.Mode, d.Overridden = o, true
		if r.policy.matches(o, st.Status) {
			d.Action = ActionInSync
			return d, ledger.Canonical(o)
		}
	}
	if !r.policy.known(d.Mode) {
		d.Action = ActionUnknownMode
		d.Err = fmt.Errorf("%w: %q for %s", ErrUnknownMode, d.Mode, r.policy.Family)
		return d, priorValue
	}
	if r.dryRun {
		d.Action = ActionDryRun
		return d, ledger.Canonical(d.Mode)
	}
	if err := r.setter.SetMode(ctx, name, d.Mode); err != nil {
		d.Action = ActionFailed
		d.Err = fmt.Errorf("set %s to %s: %w", name, d.Mode, err)
		return d, priorValue
	}
	d.Action = ActionApplied
	return d, ledger.Canonical(d.Mode)
}

// priorMatches reports whether the live status still agrees with the ledger.
// A pending marker never agrees.
func (r *Reconciler) priorMatches(v ledger.Value, status string) bool {
	mode, ok := v.Mode()
	if !ok {
		return false
	}
	return r.policy.matches(mode, status)
}

func (r *Reconciler) logDecision(d Decision, v ledger.Value) {
	kv := []interface{}{"device", d.Device, "action", d.Action, "mode", d.Mode, "status", d.Status, "ledger", v.String()}
	switch d.Action {
	case ActionFailed, ActionUnknownMode:
		r.log.Errorw("device_reconcile_failed", append(kv, "err", d.Err)...)
	case ActionIntermediate, ActionFlagged, ActionNotFound, ActionOffline:
		r.log.Warnw("device_reconcile_skipped", kv...)
	case ActionApplied, ActionDryRun:
		r.log.Infow("device_mode_applied", append(kv, "dry_run", r.dryRun, "overridden", d.Overridden)...)
	default:
		r.log.Debugw("device_reconciled", kv...)
	}
}
