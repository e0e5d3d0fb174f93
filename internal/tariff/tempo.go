package tariff

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"heating_scheduler/internal/logger"
)

const (
	DefaultBaseURL = "https://www.api-couleur-tempo.fr/api/jourTempo"

	// ColourRed is the Tempo day code for a red (peak) day.
	ColourRed = 3

	// windowSlack widens every red window on both sides.
	windowSlack    = 5 * time.Minute
	defaultTimeout = 10 * time.Second
)

// Window is a red period in whole hours, shifted by the configured minute margin.
type Window struct {
	StartHour int
	StopHour  int
}

// Signal is the tariff state for one run.
type Signal struct {
	Red      bool
	RedDay   bool
	InWindow bool
	Colour   int
}

// Tempo reads the EDF Tempo day colour and combines it with the red windows.
type Tempo struct {
	baseURL    string
	margin     int
	windows    []Window
	loc        *time.Location
	httpClient *http.Client
	log        *logger.Logger
}

func NewTempo(baseURL string, marginMinutes int, windows []Window, loc *time.Location, log *logger.Logger) *Tempo {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Tempo{
		baseURL:    baseURL,
		margin:     marginMinutes,
		windows:    windows,
		loc:        loc,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log,
	}
}

// Signal computes the tariff state at now. A colour lookup failure is logged
// and treated as a non-red day.
func (t *Tempo) Signal(ctx context.Context, now time.Time) Signal {
	now = now.In(t.loc)
	s := Signal{InWindow: t.inWindow(now)}

	colour, err := t.colour(ctx, now)
	if err != nil {
		t.log.Errorw("tariff_colour_failed", "date", now.Format("2006-01-02"), "err", err)
		return s
	}
	s.Colour = colour
	s.RedDay = colour == ColourRed
	s.Red = s.RedDay && s.InWindow
	t.log.Infow("tariff_signal", "colour", colour, "in_window", s.InWindow, "red", s.Red)
	return s
}

func (t *Tempo) inWindow(now time.Time) bool {
	for _, w := range t.windows {
		start, stop := w.bounds(now, t.margin)
		var in bool
		if stop.Before(start) {
			in = !now.Before(start) || !now.After(stop)
		} else {
			in = !now.Before(start) && !now.After(stop)
		}
		if in {
			return true
		}
	}
	return false
}

// bounds returns the widened window on now's calendar day.
func (w Window) bounds(now time.Time, margin int) (time.Time, time.Time) {
	y, m, d := now.Date()
	start := time.Date(y, m, d, w.StartHour, margin, 0, 0, now.Location()).Add(-windowSlack)
	stop := time.Date(y, m, d, w.StopHour, margin, 0, 0, now.Location()).Add(windowSlack)
	return start, stop
}

func (t *Tempo) colour(ctx context.Context, now time.Time) (int, error) {
	url := fmt.Sprintf("%s/%s", t.baseURL, now.Format("2006-01-02"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("tempo API error %d: %s", resp.StatusCode, body)
	}
	var day struct {
		CodeJour int `json:"codeJour"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&day); err != nil {
		return 0, fmt.Errorf("could not parse tempo day: %w", err)
	}
	return day.CodeJour, nil
}
