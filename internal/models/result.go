package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ResultEntry is one recorded parameter value together with the reference
// metadata it was measured against. Unit and normal range always come from
// the schema registry, never from the client. IsNormal is left for clinician
// review downstream and is not computed here.
type ResultEntry struct {
	ParameterName string `json:"parameter_name"`
	Value         string `json:"value"`
	Unit          string `json:"unit,omitempty"`
	NormalRange   string `json:"normal_range,omitempty"`
	IsNormal      *bool  `json:"is_normal,omitempty"`
}

// ResultEntries is the ordered entry list persisted as a JSONB column.
type ResultEntries []ResultEntry

// Value implements driver.Valuer for JSONB storage.
func (e ResultEntries) Value() (driver.Value, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(e)
}

// Scan implements sql.Scanner for JSONB storage.
func (e *ResultEntries) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*e = nil
		return nil
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	default:
		return fmt.Errorf("unsupported result entries type %T", src)
	}
}

// LabResult holds the structured outcome of a lab order. Exactly one result
// exists per order; it is created atomically with the order transition and
// the reagent decrement.
type LabResult struct {
	ID         string        `db:"id" json:"id"`
	OrderID    string        `db:"order_id" json:"order_id"`
	Entries    ResultEntries `db:"entries" json:"entries"`
	FreeText   string        `db:"free_text" json:"free_text,omitempty"`
	Notes      string        `db:"notes" json:"notes,omitempty"`
	ReagentID  string        `db:"reagent_id" json:"reagent_id"`
	CreatedBy  string        `db:"created_by" json:"created_by"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	ApprovedAt *time.Time    `db:"approved_at" json:"approved_at,omitempty"`
}

// PatientHistoryRow aggregates completed results for one patient.
type PatientHistoryRow struct {
	PatientID    string     `db:"patient_id" json:"patient_id"`
	TestCount    int        `db:"test_count" json:"test_count"`
	LastResultAt *time.Time `db:"last_result_at" json:"last_result_at,omitempty"`
}

// PatientResultRow is one line of the per-patient result listing.
type PatientResultRow struct {
	OrderID     string        `db:"order_id" json:"order_id"`
	OrderNumber string        `db:"order_number" json:"order_number"`
	TestName    string        `db:"test_name" json:"test_name"`
	Status      OrderStatus   `db:"status" json:"status"`
	Entries     ResultEntries `db:"entries" json:"entries"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}
