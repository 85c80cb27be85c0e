package entity

import "time"

// LoadPhase is one step of a per-asset loading track.
type LoadPhase string

const (
	PhaseIdle    LoadPhase = "idle"
	PhaseLoading LoadPhase = "loading"
	PhaseSuccess LoadPhase = "success"
	PhaseError   LoadPhase = "error"
)

// AssetLoadingState tracks the two independent loading tracks of one asset, so
// a balance can render before its price resolves. Entries exist only while the
// asset is present in the current list.
type AssetLoadingState struct {
	BalancePhase     LoadPhase `json:"balancePhase"`
	PricePhase       LoadPhase `json:"pricePhase"`
	LastError        string    `json:"lastError,omitempty"`
	BalanceUpdatedAt time.Time `json:"balanceUpdatedAt,omitempty"`
	PriceUpdatedAt   time.Time `json:"priceUpdatedAt,omitempty"`
}

// FullyLoaded reports whether both tracks have reached success.
func (s AssetLoadingState) FullyLoaded() bool {
	return s.BalancePhase == PhaseSuccess && s.PricePhase == PhaseSuccess
}
