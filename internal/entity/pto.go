package entity

import "time"

const (
	PTOTypeVacation = "vacation"
	PTOTypeSick     = "sick"
	PTOTypePersonal = "personal"
)

const (
	PTOStatusPending  = "pending"
	PTOStatusApproved = "approved"
	PTOStatusDenied   = "denied"
)

func IsPTOType(t string) bool {
	switch t {
	case PTOTypeVacation, PTOTypeSick, PTOTypePersonal:
		return true
	default:
		return false
	}
}

// ptoTransitions is the full transition table. Approved and denied are
// terminal, so they have no entries.
var ptoTransitions = map[string][]string{
	PTOStatusPending: {PTOStatusApproved, PTOStatusDenied},
}

func CanTransitionPTO(from, to string) bool {
	for _, next := range ptoTransitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

type PTORequest struct {
	ID         uint64     `json:"id"`
	EmployeeID uint64     `json:"employee_id"`
	Type       string     `json:"type"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	Status     string     `json:"status"`
	Reason     string     `json:"reason"`
	ApprovedBy *uint64    `json:"approved_by"`
	DecidedAt  *time.Time `json:"decided_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (r *PTORequest) Terminal() bool {
	return r.Status == PTOStatusApproved || r.Status == PTOStatusDenied
}

// Days counts the requested span inclusively, so 2025-07-01..2025-07-07 is 7.
func (r *PTORequest) Days() int {
	return int(r.EndDate.Sub(r.StartDate).Hours()/24) + 1
}

type ListPTORequestsParams struct {
	EmployeeID *uint64
	Status     *string
}
