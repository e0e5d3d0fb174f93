package models

// LiveStatus is a provider snapshot of a device, normalized to the family's status vocabulary.
type LiveStatus struct {
	Status string `json:"status"` // canonical mode (heatzy) or ON | OFF | transitional name (stove)
	Online bool   `json:"online"`
}

// Status values written to the ledger when a device cannot be reconciled.
const (
	StatusOffline  = "OFFLINE"
	StatusNotFound = "not_found"
)
