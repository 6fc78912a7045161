package models

import (
	"math"
	"time"
)

// ReagentStatus is the derived badge shown for a reagent lot. It is computed
// on demand, never stored. Precedence: expired beats depleted beats low_stock
// beats active.
type ReagentStatus string

const (
	ReagentStatusActive   ReagentStatus = "active"
	ReagentStatusLowStock ReagentStatus = "low_stock"
	ReagentStatusDepleted ReagentStatus = "depleted"
	ReagentStatusExpired  ReagentStatus = "expired"
)

// ParseReagentStatus normalises a client-supplied status filter.
func ParseReagentStatus(raw string) (ReagentStatus, bool) {
	switch ReagentStatus(raw) {
	case ReagentStatusActive, ReagentStatusLowStock, ReagentStatusDepleted, ReagentStatusExpired:
		return ReagentStatus(raw), true
	}
	return "", false
}

// ReagentLot is a purchased batch of testing reagent. RemainingTests is
// decremented only by the result submission transaction and never goes
// negative.
type ReagentLot struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Country        string    `db:"country" json:"country"`
	ExpiryDate     time.Time `db:"expiry_date" json:"expiry_date"`
	TotalTests     int       `db:"total_tests" json:"total_tests"`
	RemainingTests int       `db:"remaining_tests" json:"remaining_tests"`
	TotalPrice     int64     `db:"total_price" json:"total_price"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PricePerTest returns the per-test cost, recomputed on demand to avoid drift
// when price or capacity is corrected after intake.
func (l ReagentLot) PricePerTest() int64 {
	if l.TotalTests <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(l.TotalPrice) / float64(l.TotalTests)))
}

// ReagentView is a lot enriched with the derived ledger fields. The combined
// Status badge overloads count and expiry the way the inventory screens
// expect, so the two underlying warnings are also exposed separately.
type ReagentView struct {
	ReagentLot
	Status       ReagentStatus `json:"status"`
	PricePerTest int64         `json:"price_per_test"`
	LowOnStock   bool          `json:"low_on_stock"`
	ExpiringSoon bool          `json:"expiring_soon"`
}

// ReagentUsage is one append-only ledger row recording a single test consumed
// from a lot.
type ReagentUsage struct {
	ID         string    `db:"id" json:"id"`
	ReagentID  string    `db:"reagent_id" json:"reagent_id"`
	ResultID   string    `db:"result_id" json:"result_id"`
	OrderID    string    `db:"order_id" json:"order_id"`
	PatientID  string    `db:"patient_id" json:"patient_id"`
	UsedBy     string    `db:"used_by" json:"used_by"`
	TestsTaken int       `db:"tests_taken" json:"tests_taken"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
