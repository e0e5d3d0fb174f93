package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"heating_scheduler/internal/ledger"
	"heating_scheduler/internal/logger"
	"heating_scheduler/internal/metrics"
	"heating_scheduler/internal/models"
	"heating_scheduler/internal/notify"
	"heating_scheduler/internal/provider"
	"heating_scheduler/internal/reconcile"
	"heating_scheduler/internal/repository"
	"heating_scheduler/internal/schedule"
)

// ErrRunInProgress is returned when a heater run is triggered while another one is active.
var ErrRunInProgress = errors.New("a heater run is already in progress")

type RunOptions struct {
	DryRun bool
}

// RunReport describes one heater run.
type RunReport struct {
	RunID          string               `json:"run_id"`
	StartedAt      time.Time            `json:"started_at"`
	DryRun         bool                 `json:"dry_run"`
	TariffRed      bool                 `json:"tariff_red"`
	Ledger         map[string]string    `json:"ledger"`
	Counts         map[string]int       `json:"counts"`
	FailedFamilies []string             `json:"failed_families,omitempty"`
	Decisions      []reconcile.Decision `json:"-"`
}

// HeaterService drives every configured family toward the merged schedule.
type HeaterService struct {
	mu sync.Mutex

	settings  Settings
	store     ledger.Store
	families  []Family
	tariff    TariffSource
	eventRepo repository.EventRepo
	publisher notify.Publisher
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time
}

func NewHeaterService(eventRepo repository.EventRepo, d Deps) *HeaterService {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &HeaterService{
		settings:  d.Settings,
		store:     d.Ledger,
		families:  d.Families,
		tariff:    d.Tariff,
		eventRepo: eventRepo,
		publisher: d.Publisher,
		metrics:   d.Metrics,
		log:       d.Log,
		now:       d.Now,
	}
}

// Ledger returns the persisted ledger.
func (s *HeaterService) Ledger(ctx context.Context) (ledger.Entry, error) {
	return s.store.Load(ctx)
}

// Run performs one reconciliation. Input errors (schedule files, ledger) abort
// the run; a family that cannot be reached keeps its previous ledger entries.
// A dry run persists, records and publishes nothing.
func (s *HeaterService) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	started := s.now()
	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: started,
		DryRun:    opts.DryRun,
		Counts:    map[string]int{},
	}
	log := s.log.With("run_id", report.RunID)
	log.Infow("heater_run_started", "dry_run", opts.DryRun)

	err := s.run(ctx, log, started, opts, report)
	took := s.now().Sub(started)
	s.metrics.ObserveRun(s.now(), took, err)
	if err != nil {
		log.Errorw("heater_run_failed", "err", err)
		return nil, err
	}
	log.Infow("heater_run_finished", "devices", len(report.Ledger), "counts", report.Counts,
		"failed_families", report.FailedFamilies, "took", took)
	return report, nil
}

func (s *HeaterService) run(ctx context.Context, log *logger.Logger, now time.Time, opts RunOptions, report *RunReport) error {
	defs, err := schedule.LoadDefinitions(s.settings.ModesPath)
	if err != nil {
		return err
	}
	bookings, err := schedule.LoadBookings(s.settings.BookingsPath)
	if err != nil {
		return err
	}
	prior, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	applicable, err := schedule.Applicable(defs, bookings, now, s.settings.Location, log)
	if err != nil {
		return err
	}
	titles := make([]string, 0, len(applicable))
	for _, d := range applicable {
		titles = append(titles, d.Title)
	}
	log.Infow("schedules_applicable", "titles", titles)
	target := schedule.Merge(applicable)

	if s.tariff != nil {
		report.TariffRed = s.tariff.Signal(ctx, now).Red
	}
	s.metrics.SetTariffRed(report.TariffRed)

	parts := make([]ledger.Entry, 0, len(s.families))
	for _, fam := range s.families {
		res, err := s.reconcileFamily(ctx, log, fam, now, target, prior, opts.DryRun, report.TariffRed)
		if err != nil {
			log.Errorw("family_failed", "family", fam.Name, "err", err)
			s.metrics.FamilyFailed(string(fam.Name))
			report.FailedFamilies = append(report.FailedFamilies, string(fam.Name))
			parts = append(parts, carryOver(fam.Name, target, prior))
			continue
		}
		parts = append(parts, res.Ledger)
		report.Decisions = append(report.Decisions, res.Decisions...)
	}

	next := ledger.Merge(parts...)
	report.Ledger = next.Strings()
	for _, d := range report.Decisions {
		report.Counts[string(d.Action)]++
		s.metrics.ObserveDecision(string(d.Family), string(d.Action))
	}

	if opts.DryRun {
		log.Infow("dry_run_ledger", "ledger", report.Ledger)
		return nil
	}
	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	s.recordEvents(ctx, log, report, now)
	s.publish(log, report, now)
	return nil
}

func (s *HeaterService) reconcileFamily(ctx context.Context, log *logger.Logger, fam Family, now time.Time,
	target models.MergedTarget, prior ledger.Entry, dryRun, tariffRed bool) (reconcile.Result, error) {
	p, err := fam.Open(ctx)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("open %s: %w", fam.Name, err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Warnw("provider_close_failed", "family", fam.Name, "err", err)
		}
	}()

	live, err := provider.CollectStatus(ctx, p, log)
	if err != nil {
		return reconcile.Result{}, err
	}
	r := reconcile.New(fam.Policy(tariffRed), p, s.settings.Cooldown, dryRun, log)
	return r.Reconcile(ctx, now, live, target, prior), nil
}

// carryOver keeps the prior values of a family's target devices when the family is unreachable.
func carryOver(family models.Family, target models.MergedTarget, prior ledger.Entry) ledger.Entry {
	out := ledger.Entry{}
	for device, t := range target {
		if t.Type != family {
			continue
		}
		if v, ok := prior.Get(device); ok {
			out[device] = v
		}
	}
	return out
}

func (s *HeaterService) recordEvents(ctx context.Context, log *logger.Logger, report *RunReport, now time.Time) {
	if s.eventRepo == nil || len(report.Decisions) == 0 {
		return
	}
	events := make([]models.ReconcileEvent, 0, len(report.Decisions))
	for _, d := range report.Decisions {
		events = append(events, models.ReconcileEvent{
			EventID:    uuid.NewString(),
			OccurredAt: now,
			RunID:      report.RunID,
			Device:     d.Device,
			Family:     d.Family,
			Action:     string(d.Action),
			Mode:       d.Mode,
			Message:    d.Message(),
		})
	}
	if err := s.eventRepo.Append(ctx, events...); err != nil {
		log.Errorw("events_append_failed", "count", len(events), "err", err)
	}
}

func (s *HeaterService) publish(log *logger.Logger, report *RunReport, now time.Time) {
	if s.publisher == nil {
		return
	}
	for device, value := range report.Ledger {
		if err := s.publisher.PublishDevice(device, value); err != nil {
			log.Warnw("mqtt_publish_failed", "device", device, "err", err)
		}
	}
	summary := notify.RunSummary{
		ID:        report.RunID,
		At:        now,
		TariffRed: report.TariffRed,
		Counts:    report.Counts,
		Failed:    report.FailedFamilies,
	}
	if err := s.publisher.PublishRun(summary); err != nil {
		log.Warnw("mqtt_publish_failed", "topic", "runs", "err", err)
	}
}
