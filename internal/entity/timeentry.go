package entity

import "time"

// TimeEntry rows are append-only: there is no update or delete path anywhere
// in the service, corrections are new entries.
type TimeEntry struct {
	ID         uint64    `json:"id"`
	EmployeeID uint64    `json:"employee_id"`
	EntryDate  time.Time `json:"entry_date"`
	Hours      float64   `json:"hours"`
	Project    string    `json:"project"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}
