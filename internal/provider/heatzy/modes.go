package heatzy

import (
	"heating_scheduler/internal/models"
	"heating_scheduler/internal/reconcile"
)

// Mode names accepted by the Heatzy family.
const (
	ModeComfort = "COMFORT"
	ModeEco     = "ECO"
	ModeFrost   = "HGEL"
	ModeOff     = "OFF"
	ModeLow1    = "LOW_1"
	ModeLow2    = "LOW_2"
)

var modeCodes = map[string]int{
	ModeComfort: 0,
	ModeEco:     1,
	ModeFrost:   2,
	ModeOff:     3,
	ModeLow1:    4,
	ModeLow2:    5,
}

var vendorModes = map[string]string{
	"cft":  ModeComfort,
	"eco":  ModeEco,
	"fro":  ModeFrost,
	"stop": ModeOff,
	"off":  ModeOff,
}

// Modes is the family vocabulary in control-code order.
var Modes = []string{ModeComfort, ModeEco, ModeFrost, ModeOff, ModeLow1, ModeLow2}

// StatusFromVendor converts a devdata mode attribute to a mode name.
// Unknown attributes are returned unchanged so they show up as a divergence.
func StatusFromVendor(attr string) string {
	if m, ok := vendorModes[attr]; ok {
		return m
	}
	return attr
}

// Policy returns the reconcile policy for Heatzy devices. While the tariff is
// in a red window every target is replaced by frost mode.
func Policy(tariffRed bool) reconcile.Policy {
	p := reconcile.Policy{
		Family: models.FamilyHeatzy,
		Modes:  Modes,
	}
	if tariffRed {
		p.Override = func(string) (string, bool) { return ModeFrost, true }
	}
	return p
}
