package service

import (
	"context"
	"fmt"
	"time"

	"heating_scheduler/internal/config"
	"heating_scheduler/internal/logger"
	"heating_scheduler/internal/models"
	"heating_scheduler/internal/provider"
	"heating_scheduler/internal/provider/heatzy"
	"heating_scheduler/internal/provider/stove"
	"heating_scheduler/internal/reconcile"
	"heating_scheduler/internal/tariff"
)

// Family couples a provider constructor with its reconcile policy.
type Family struct {
	Name models.Family
	// Open builds a logged-in provider for one run.
	Open func(ctx context.Context) (provider.Provider, error)
	// Policy returns the reconcile policy under the current tariff signal.
	Policy func(tariffRed bool) reconcile.Policy
}

// TariffSource reports whether the tariff currently forces frost mode.
type TariffSource interface {
	Signal(ctx context.Context, now time.Time) tariff.Signal
}

// BuildFamilies creates one Family per configured provider block, heatzy first.
// Credentials are resolved here so an invalid source fails before any run.
func BuildFamilies(cfg *config.Config, log *logger.Logger) ([]Family, error) {
	var out []Family
	p := cfg.SetHeaters.Providers

	if hc := p.Heatzy; hc != nil {
		raw, err := config.ReadCredentials(hc.Credentials)
		if err != nil {
			return nil, fmt.Errorf("heatzy: %w", err)
		}
		creds, err := heatzy.ParseCredentials(raw)
		if err != nil {
			return nil, err
		}
		baseURL := hc.BaseURL
		out = append(out, Family{
			Name: models.FamilyHeatzy,
			Open: func(ctx context.Context) (provider.Provider, error) {
				c := heatzy.New(baseURL, creds, log)
				if err := c.Login(ctx); err != nil {
					return nil, err
				}
				return c, nil
			},
			Policy: heatzy.Policy,
		})
	}

	if sc := p.Stove; sc != nil {
		raw, err := config.ReadCredentials(sc.Credentials)
		if err != nil {
			return nil, fmt.Errorf("stove: %w", err)
		}
		creds, err := stove.ParseCredentials(raw)
		if err != nil {
			return nil, err
		}
		temps := stove.NormalizeTemperatures(sc.Temperatures)
		opts := stove.Options{
			BaseURL:      sc.BaseURL,
			CustomerCode: sc.CustomerCode,
			BrandID:      sc.BrandID,
			Temperatures: temps,
			Registers: stove.Registers{
				Status:      sc.Registers.Status,
				Power:       sc.Registers.Power,
				Temperature: sc.Registers.Temperature,
			},
		}
		out = append(out, Family{
			Name: models.FamilyStove,
			Open: func(ctx context.Context) (provider.Provider, error) {
				c := stove.New(opts, creds, log)
				if err := c.Login(ctx); err != nil {
					return nil, err
				}
				return c, nil
			},
			// the stove has no tariff override
			Policy: func(bool) reconcile.Policy { return stove.Policy(temps) },
		})
	}
	return out, nil
}

// BuildTariff returns the Tempo signal source, or nil when disabled.
func BuildTariff(cfg *config.Config, log *logger.Logger) TariffSource {
	tc := cfg.SetHeaters.Providers.Tempo
	if tc == nil || !tc.Enabled {
		return nil
	}
	windows := make([]tariff.Window, 0, len(tc.Schedules))
	for _, s := range tc.Schedules {
		windows = append(windows, tariff.Window{StartHour: s.RedHourStart, StopHour: s.RedHourStop})
	}
	return tariff.NewTempo(tc.BaseURL, tc.RedHourMargin, windows, cfg.Location(), log)
}
