package controllers

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/blackroad/hr-service/internal/entity"
	"github.com/jackc/pgx/v5"
)

// AnalyticsController only reads. Every projection is computed from current
// rows at call time.
type AnalyticsController struct {
	deps *Dependens
}

func NewAnalyticsController(deps *Dependens) *AnalyticsController {
	return &AnalyticsController{
		deps: deps,
	}
}

func (c *AnalyticsController) PayrollSummary(ctx context.Context) (map[string]entity.PayrollLine, error) {
	query := `SELECT department, COUNT(*), SUM(salary), AVG(salary)
              FROM employees WHERE status = $1 GROUP BY department`

	rows, err := c.deps.DB.Query(ctx, query, entity.StatusActive)
	if err != nil {
		c.deps.Logger.Error("Error querying payroll summary", slog.String("error", err.Error()))
		return nil, err
	}
	defer rows.Close()

	summary := make(map[string]entity.PayrollLine)
	for rows.Next() {
		var department string
		var headcount int
		var total, average float64
		if err := rows.Scan(&department, &headcount, &total, &average); err != nil {
			c.deps.Logger.Error("Error scanning row", slog.String("error", err.Error()))
			return nil, err
		}

		summary[department] = entity.PayrollLine{
			Headcount:     headcount,
			TotalSalary:   total,
			AverageSalary: average,
		}
	}

	if err := rows.Err(); err != nil {
		c.deps.Logger.Error("Error reading rows", slog.String("error", err.Error()))
		return nil, err
	}

	return summary, nil
}

// OrgChart builds the forest of active employees. An employee whose manager
// is unset, terminated or unknown becomes a root. Traversal keeps a visited
// set so a corrupt manager chain cannot loop it.
func (c *AnalyticsController) OrgChart(ctx context.Context) ([]*entity.OrgNode, error) {
	status := entity.StatusActive
	employees, err := c.activeEmployees(ctx, status)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint64]*entity.Employee, len(employees))
	for i := range employees {
		byID[employees[i].ID] = &employees[i]
	}

	reports := make(map[uint64][]uint64)
	var rootIDs []uint64
	for i := range employees {
		emp := &employees[i]
		if emp.ManagerID != nil && byID[*emp.ManagerID] != nil {
			reports[*emp.ManagerID] = append(reports[*emp.ManagerID], emp.ID)
		} else {
			rootIDs = append(rootIDs, emp.ID)
		}
	}

	visited := make(map[uint64]bool, len(employees))

	var build func(id uint64) *entity.OrgNode
	build = func(id uint64) *entity.OrgNode {
		emp := byID[id]
		visited[id] = true
		node := &entity.OrgNode{
			ID:         emp.ID,
			Name:       emp.Name,
			Title:      emp.Title,
			Department: emp.Department,
			Reports:    []*entity.OrgNode{},
		}

		for _, reportID := range reports[id] {
			if visited[reportID] {
				continue
			}
			node.Reports = append(node.Reports, build(reportID))
		}

		return node
	}

	forest := []*entity.OrgNode{}
	for _, id := range rootIDs {
		forest = append(forest, build(id))
	}

	// Nodes a cycle would strand off every root are promoted instead of
	// dropped, the visited set keeps the result finite.
	for i := range employees {
		if !visited[employees[i].ID] {
			forest = append(forest, build(employees[i].ID))
		}
	}

	return forest, nil
}

// TenureReport covers terminated employees too, their tenure is frozen at
// the termination date.
func (c *AnalyticsController) TenureReport(ctx context.Context) ([]entity.TenureEntry, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY id ASC`

	rows, err := c.deps.DB.Query(ctx, query)
	if err != nil {
		c.deps.Logger.Error("Error querying employees", slog.String("error", err.Error()))
		return nil, err
	}
	defer rows.Close()

	employees, err := pgx.CollectRows(rows, pgx.RowToStructByName[entity.Employee])
	if err != nil {
		c.deps.Logger.Error("Error collecting rows", slog.String("error", err.Error()))
		return nil, err
	}

	report := make([]entity.TenureEntry, 0, len(employees))
	now := today()
	for i := range employees {
		emp := &employees[i]

		until := now
		if emp.TerminationDate != nil {
			until = dateOnly(*emp.TerminationDate)
		}

		days := int(until.Sub(dateOnly(emp.HireDate)) / (24 * time.Hour))
		if days < 0 {
			days = 0
		}

		report = append(report, entity.TenureEntry{
			EmployeeID:      emp.ID,
			Name:            emp.Name,
			Department:      emp.Department,
			Title:           emp.Title,
			HireDate:        emp.HireDate,
			TerminationDate: emp.TerminationDate,
			DaysEmployed:    days,
		})
	}

	sort.SliceStable(report, func(i, j int) bool {
		return report[i].DaysEmployed > report[j].DaysEmployed
	})

	return report, nil
}

func (c *AnalyticsController) HeadcountByDepartment(ctx context.Context) (map[string]int, error) {
	query := `SELECT department, COUNT(*) FROM employees WHERE status = $1 GROUP BY department`

	rows, err := c.deps.DB.Query(ctx, query, entity.StatusActive)
	if err != nil {
		c.deps.Logger.Error("Error querying headcount", slog.String("error", err.Error()))
		return nil, err
	}
	defer rows.Close()

	headcount := make(map[string]int)
	for rows.Next() {
		var department string
		var count int
		if err := rows.Scan(&department, &count); err != nil {
			c.deps.Logger.Error("Error scanning row", slog.String("error", err.Error()))
			return nil, err
		}
		headcount[department] = count
	}

	if err := rows.Err(); err != nil {
		c.deps.Logger.Error("Error reading rows", slog.String("error", err.Error()))
		return nil, err
	}

	return headcount, nil
}

func (c *AnalyticsController) activeEmployees(ctx context.Context, status string) ([]entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE status = $1 ORDER BY id ASC`

	rows, err := c.deps.DB.Query(ctx, query, status)
	if err != nil {
		c.deps.Logger.Error("Error querying employees", slog.String("error", err.Error()))
		return nil, err
	}
	defer rows.Close()

	employees, err := pgx.CollectRows(rows, pgx.RowToStructByName[entity.Employee])
	if err != nil {
		c.deps.Logger.Error("Error collecting rows", slog.String("error", err.Error()))
		return nil, err
	}

	return employees, nil
}
