package entity

import "time"

type PayrollLine struct {
	Headcount     int     `json:"headcount"`
	TotalSalary   float64 `json:"total_salary"`
	AverageSalary float64 `json:"average_salary"`
}

// OrgNode is one employee in the org chart forest. Reports holds direct
// active reports only.
type OrgNode struct {
	ID         uint64     `json:"id"`
	Name       string     `json:"name"`
	Title      string     `json:"title"`
	Department string     `json:"department"`
	Reports    []*OrgNode `json:"reports"`
}

type TenureEntry struct {
	EmployeeID      uint64     `json:"employee_id"`
	Name            string     `json:"name"`
	Department      string     `json:"department"`
	Title           string     `json:"title"`
	HireDate        time.Time  `json:"hire_date"`
	TerminationDate *time.Time `json:"termination_date"`
	DaysEmployed    int        `json:"days_employed"`
}
