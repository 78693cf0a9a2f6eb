package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blackroad/hr-service/internal/apperror"
	"github.com/blackroad/hr-service/internal/entity"
	"github.com/jackc/pgx/v5"
)

const timeEntryColumns = "id, employee_id, entry_date, hours, project, notes, created_at"

const maxHoursPerEntry = 24

type TimesheetController struct {
	deps *Dependens
}

func NewTimesheetController(deps *Dependens) *TimesheetController {
	return &TimesheetController{
		deps: deps,
	}
}

type LogTimeInput struct {
	EmployeeID uint64
	Hours      float64
	Project    string
	Date       *time.Time
	Notes      string
}

// LogTime appends one entry to the ledger. Entries are never updated or
// deleted afterwards.
func (c *TimesheetController) LogTime(ctx context.Context, in LogTimeInput) (*entity.TimeEntry, error) {
	if in.Hours <= 0 || in.Hours > maxHoursPerEntry {
		return nil, apperror.Newf(apperror.CodeValidation, "hours must be between 0 and %d, got %v", maxHoursPerEntry, in.Hours)
	}

	if strings.TrimSpace(in.Project) == "" {
		return nil, apperror.New(apperror.CodeValidation, "project is required")
	}

	tx, err := c.deps.DB.Begin(ctx)
	if err != nil {
		c.deps.Logger.Error("Error starting transaction", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	emp, err := getEmployee(ctx, tx, c.deps, in.EmployeeID)
	if err != nil {
		return nil, err
	}

	if !emp.IsActive() {
		return nil, apperror.Newf(apperror.CodeState, "employee %d is terminated", in.EmployeeID)
	}

	entryDate := today()
	if in.Date != nil {
		entryDate = dateOnly(*in.Date)
	}

	query := `INSERT INTO time_entries (employee_id, entry_date, hours, project, notes, created_at)
              VALUES ($1, $2, $3, $4, $5, $6)
              RETURNING ` + timeEntryColumns

	rows, err := tx.Query(ctx, query, in.EmployeeID, entryDate, in.Hours, strings.TrimSpace(in.Project), in.Notes, time.Now())
	if err != nil {
		c.deps.Logger.Error("Error inserting time entry", slog.String("error", err.Error()))
		return nil, err
	}

	entry, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[entity.TimeEntry])
	rows.Close()
	if err != nil {
		c.deps.Logger.Error("Error collecting row", slog.String("error", err.Error()))
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		c.deps.Logger.Error("Error committing transaction", slog.String("error", err.Error()))
		return nil, err
	}

	return &entry, nil
}

func (c *TimesheetController) EntriesFor(ctx context.Context, employeeID uint64) ([]entity.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE employee_id = $1 ORDER BY entry_date ASC, id ASC`

	rows, err := c.deps.DB.Query(ctx, query, employeeID)
	if err != nil {
		c.deps.Logger.Error("Error querying time entries", slog.String("error", err.Error()))
		return nil, err
	}
	defer rows.Close()

	entries, err := pgx.CollectRows(rows, pgx.RowToStructByName[entity.TimeEntry])
	if err != nil {
		c.deps.Logger.Error("Error collecting rows", slog.String("error", err.Error()))
		return nil, err
	}

	return entries, nil
}

func (c *TimesheetController) HoursFor(ctx context.Context, employeeID uint64, start, end *time.Time) (float64, error) {
	query := `SELECT COALESCE(SUM(hours), 0) FROM time_entries WHERE employee_id = $1`
	args := []any{employeeID}
	argIdx := 2

	if start != nil {
		query += fmt.Sprintf(" AND entry_date >= $%d", argIdx)
		args = append(args, dateOnly(*start))
		argIdx++
	}

	if end != nil {
		query += fmt.Sprintf(" AND entry_date <= $%d", argIdx)
		args = append(args, dateOnly(*end))
	}

	var total float64
	if err := c.deps.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		c.deps.Logger.Error("Error summing hours", slog.String("error", err.Error()))
		return 0, err
	}

	return total, nil
}

func (c *TimesheetController) HoursByProject(ctx context.Context, employeeID uint64) (map[string]float64, error) {
	query := `SELECT project, SUM(hours) FROM time_entries WHERE employee_id = $1 GROUP BY project`

	rows, err := c.deps.DB.Query(ctx, query, employeeID)
	if err != nil {
		c.deps.Logger.Error("Error querying project hours", slog.String("error", err.Error()))
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var project string
		var hours float64
		if err := rows.Scan(&project, &hours); err != nil {
			c.deps.Logger.Error("Error scanning row", slog.String("error", err.Error()))
			return nil, err
		}
		totals[project] = hours
	}

	if err := rows.Err(); err != nil {
		c.deps.Logger.Error("Error reading rows", slog.String("error", err.Error()))
		return nil, err
	}

	return totals, nil
}
