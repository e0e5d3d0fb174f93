package reconcile

import "heating_scheduler/internal/models"

// Policy carries everything family-specific the reconciler needs.
type Policy struct {
	Family models.Family
	// Modes is the vocabulary accepted by the family's mode setter.
	Modes []string
	// Matches reports whether a live status satisfies a mode. Nil means equality.
	Matches func(mode, status string) bool
	// Intermediate reports transitional statuses that must never be treated as a change. Nil means none.
	Intermediate func(status string) bool
	// Override replaces the target mode just before applying it (tariff). Nil means none.
	Override func(mode string) (string, bool)
}

func (p Policy) matches(mode, status string) bool {
	if p.Matches == nil {
		return mode == status
	}
	return p.Matches(mode, status)
}

func (p Policy) intermediate(status string) bool {
	return p.Intermediate != nil && p.Intermediate(status)
}

func (p Policy) known(mode string) bool {
	for _, m := range p.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

func (p Policy) override(mode string) (string, bool) {
	if p.Override == nil {
		return mode, false
	}
	return p.Override(mode)
}
