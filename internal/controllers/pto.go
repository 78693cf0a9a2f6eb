package controllers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blackroad/hr-service/internal/apperror"
	"github.com/blackroad/hr-service/internal/entity"
	"github.com/jackc/pgx/v5"
)

const ptoColumns = "id, employee_id, type, start_date, end_date, status, reason, approved_by, decided_at, created_at"

type PTOController struct {
	deps *Dependens
}

func NewPTOController(deps *Dependens) *PTOController {
	return &PTOController{
		deps: deps,
	}
}

type RequestPTOInput struct {
	EmployeeID uint64
	Type       string
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}

// RequestPTO creates a request in pending state. Overlapping pending requests
// for the same employee are allowed, the approver adjudicates them.
func (c *PTOController) RequestPTO(ctx context.Context, in RequestPTOInput) (*entity.PTORequest, error) {
	if !entity.IsPTOType(in.Type) {
		return nil, apperror.Newf(apperror.CodeValidation, "unknown PTO type %q", in.Type)
	}

	start := dateOnly(in.StartDate)
	end := dateOnly(in.EndDate)
	if end.Before(start) {
		return nil, apperror.Newf(apperror.CodeValidation, "end date %s is before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
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

	query := `INSERT INTO pto_requests (employee_id, type, start_date, end_date, status, reason, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              RETURNING ` + ptoColumns

	rows, err := tx.Query(ctx, query, in.EmployeeID, in.Type, start, end, entity.PTOStatusPending, in.Reason, time.Now())
	if err != nil {
		c.deps.Logger.Error("Error inserting PTO request", slog.String("error", err.Error()))
		return nil, err
	}

	req, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[entity.PTORequest])
	rows.Close()
	if err != nil {
		c.deps.Logger.Error("Error collecting row", slog.String("error", err.Error()))
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		c.deps.Logger.Error("Error committing transaction", slog.String("error", err.Error()))
		return nil, err
	}

	return &req, nil
}

func (c *PTOController) ApprovePTO(ctx context.Context, requestID uint64, approverID *uint64) (*entity.PTORequest, error) {
	return c.decide(ctx, requestID, entity.PTOStatusApproved, approverID)
}

func (c *PTOController) DenyPTO(ctx context.Context, requestID uint64) (*entity.PTORequest, error) {
	return c.decide(ctx, requestID, entity.PTOStatusDenied, nil)
}

// decide moves a pending request into a terminal state. Any other transition
// is rejected by the table in entity, never special-cased per caller.
func (c *PTOController) decide(ctx context.Context, requestID uint64, to string, approverID *uint64) (*entity.PTORequest, error) {
	tx, err := c.deps.DB.Begin(ctx)
	if err != nil {
		c.deps.Logger.Error("Error starting transaction", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	req, err := getPTORequest(ctx, tx, c.deps, requestID)
	if err != nil {
		return nil, err
	}

	if !entity.CanTransitionPTO(req.Status, to) {
		c.deps.Logger.Warn("Invalid PTO transition",
			slog.Any("request_id", requestID), slog.String("from", req.Status), slog.String("to", to))
		return nil, apperror.Newf(apperror.CodeState, "PTO request %d is already %s", requestID, req.Status)
	}

	query := `UPDATE pto_requests SET status = $1, approved_by = $2, decided_at = $3 WHERE id = $4
              RETURNING ` + ptoColumns

	rows, err := tx.Query(ctx, query, to, approverID, time.Now(), requestID)
	if err != nil {
		c.deps.Logger.Error("Error updating PTO request", slog.String("error", err.Error()))
		return nil, err
	}

	updated, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[entity.PTORequest])
	rows.Close()
	if err != nil {
		c.deps.Logger.Error("Error collecting row", slog.String("error", err.Error()))
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		c.deps.Logger.Error("Error committing transaction", slog.String("error", err.Error()))
		return nil, err
	}

	return &updated, nil
}

func (c *PTOController) GetPTORequestByID(ctx context.Context, requestID uint64) (*entity.PTORequest, error) {
	return getPTORequest(ctx, c.deps.DB, c.deps, requestID)
}

func (c *PTOController) PendingFor(ctx context.Context, employeeID uint64) ([]entity.PTORequest, error) {
	status := entity.PTOStatusPending
	return c.ListPTORequests(ctx, &entity.ListPTORequestsParams{
		EmployeeID: &employeeID,
		Status:     &status,
	})
}

func (c *PTOController) ListPTORequests(ctx context.Context, params *entity.ListPTORequestsParams) ([]entity.PTORequest, error) {
	query := `SELECT ` + ptoColumns + ` FROM pto_requests WHERE 1=1`
	args := []any{}
	argIdx := 1

	if params != nil {
		if params.EmployeeID != nil {
			query += fmt.Sprintf(" AND employee_id = $%d", argIdx)
			args = append(args, *params.EmployeeID)
			argIdx++
		}

		if params.Status != nil {
			query += fmt.Sprintf(" AND status = $%d", argIdx)
			args = append(args, *params.Status)
		}
	}

	query += " ORDER BY id ASC"

	rows, err := c.deps.DB.Query(ctx, query, args...)
	if err != nil {
		c.deps.Logger.Error("Error querying PTO requests", slog.String("error", err.Error()))
		return nil, err
	}
	defer rows.Close()

	requests, err := pgx.CollectRows(rows, pgx.RowToStructByName[entity.PTORequest])
	if err != nil {
		c.deps.Logger.Error("Error collecting rows", slog.String("error", err.Error()))
		return nil, err
	}

	return requests, nil
}

// Balance recomputes the remaining allotment from approved rows on every
// call. Approved spans are clamped to the current calendar year and counted
// inclusively.
func (c *PTOController) Balance(ctx context.Context, employeeID uint64, ptoType string) (int, error) {
	if !entity.IsPTOType(ptoType) {
		return 0, apperror.Newf(apperror.CodeValidation, "unknown PTO type %q", ptoType)
	}

	if _, err := getEmployee(ctx, c.deps.DB, c.deps, employeeID); err != nil {
		return 0, err
	}

	year := time.Now().UTC().Year()
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	query := `SELECT start_date, end_date FROM pto_requests
              WHERE employee_id = $1 AND type = $2 AND status = $3 AND start_date <= $4 AND end_date >= $5`

	rows, err := c.deps.DB.Query(ctx, query, employeeID, ptoType, entity.PTOStatusApproved, yearEnd, yearStart)
	if err != nil {
		c.deps.Logger.Error("Error querying approved PTO", slog.String("error", err.Error()))
		return 0, err
	}
	defer rows.Close()

	used := 0
	for rows.Next() {
		var start, end time.Time
		if err := rows.Scan(&start, &end); err != nil {
			c.deps.Logger.Error("Error scanning row", slog.String("error", err.Error()))
			return 0, err
		}

		if start.Before(yearStart) {
			start = yearStart
		}
		if end.After(yearEnd) {
			end = yearEnd
		}

		used += int(end.Sub(start).Hours()/24) + 1
	}

	if err := rows.Err(); err != nil {
		c.deps.Logger.Error("Error reading rows", slog.String("error", err.Error()))
		return 0, err
	}

	return c.deps.Config.PTOAllotment(ptoType) - used, nil
}

func getPTORequest(ctx context.Context, q Queryer, deps *Dependens, id uint64) (*entity.PTORequest, error) {
	query := `SELECT ` + ptoColumns + ` FROM pto_requests WHERE id = $1`

	rows, err := q.Query(ctx, query, id)
	if err != nil {
		deps.Logger.Error("Error querying PTO request", slog.String("error", err.Error()))
		return nil, err
	}
	defer rows.Close()

	req, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[entity.PTORequest])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.Newf(apperror.CodeNotFound, "PTO request %d not found", id)
		}

		deps.Logger.Error("Error collecting row", slog.String("error", err.Error()))
		return nil, err
	}

	return &req, nil
}
