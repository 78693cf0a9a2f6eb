package controllers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/blackroad/hr-service/internal/apperror"
	"github.com/blackroad/hr-service/internal/entity"
	"github.com/jackc/pgx/v5"
)

const departmentColumns = "id, name, budget, created_at, updated_at"

type DepartmentController struct {
	deps *Dependens
}

func NewDepartmentController(deps *Dependens) *DepartmentController {
	return &DepartmentController{
		deps: deps,
	}
}

// EnsureDepartment looks a department up by name and creates it with budget 0
// when it does not exist yet. Names match case-insensitively, the stored
// casing is whichever spelling arrived first.
func (c *DepartmentController) EnsureDepartment(ctx context.Context, name string) (*entity.Department, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperror.New(apperror.CodeValidation, "department name is required")
	}

	tx, err := c.deps.DB.Begin(ctx)
	if err != nil {
		c.deps.Logger.Error("Error starting transaction", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	dept, err := ensureDepartment(ctx, tx, c.deps, name)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		c.deps.Logger.Error("Error committing transaction", slog.String("error", err.Error()))
		return nil, err
	}

	return dept, nil
}

func (c *DepartmentController) SetBudget(ctx context.Context, name string, amount float64) error {
	if strings.TrimSpace(name) == "" {
		return apperror.New(apperror.CodeValidation, "department name is required")
	}

	if amount < 0 {
		return apperror.Newf(apperror.CodeValidation, "budget must not be negative, got %v", amount)
	}

	tx, err := c.deps.DB.Begin(ctx)
	if err != nil {
		c.deps.Logger.Error("Error starting transaction", slog.String("error", err.Error()))
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `UPDATE departments SET budget = $1, updated_at = $2 WHERE LOWER(name) = LOWER($3)`

	result, err := tx.Exec(ctx, query, amount, time.Now(), strings.TrimSpace(name))
	if err != nil {
		c.deps.Logger.Error("Error updating budget", slog.String("error", err.Error()))
		return err
	}

	if result.RowsAffected() == 0 {
		c.deps.Logger.Warn("Department not found", slog.String("name", name))
		return apperror.Newf(apperror.CodeNotFound, "department %q not found", name)
	}

	if err := tx.Commit(ctx); err != nil {
		c.deps.Logger.Error("Error committing transaction", slog.String("error", err.Error()))
		return err
	}

	return nil
}

// Headcount is recomputed from employee rows on every call, it is never a
// stored counter.
func (c *DepartmentController) Headcount(ctx context.Context, name string) (int, error) {
	if _, err := findDepartment(ctx, c.deps.DB, c.deps, name); err != nil {
		return 0, err
	}

	query := `SELECT COUNT(*) FROM employees WHERE LOWER(department) = LOWER($1) AND status = $2`

	var count int
	if err := c.deps.DB.QueryRow(ctx, query, strings.TrimSpace(name), entity.StatusActive).Scan(&count); err != nil {
		c.deps.Logger.Error("Error counting employees", slog.String("error", err.Error()))
		return 0, err
	}

	return count, nil
}

func (c *DepartmentController) GetDepartments(ctx context.Context) ([]entity.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments ORDER BY name`

	rows, err := c.deps.DB.Query(ctx, query)
	if err != nil {
		c.deps.Logger.Error("Error querying departments", slog.String("error", err.Error()))
		return nil, err
	}
	defer rows.Close()

	departments, err := pgx.CollectRows(rows, pgx.RowToStructByName[entity.Department])
	if err != nil {
		c.deps.Logger.Error("Error collecting rows", slog.String("error", err.Error()))
		return nil, err
	}

	return departments, nil
}

func findDepartment(ctx context.Context, q Queryer, deps *Dependens, name string) (*entity.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE LOWER(name) = LOWER($1)`

	rows, err := q.Query(ctx, query, strings.TrimSpace(name))
	if err != nil {
		deps.Logger.Error("Error querying department", slog.String("error", err.Error()))
		return nil, err
	}
	defer rows.Close()

	dept, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[entity.Department])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.Newf(apperror.CodeNotFound, "department %q not found", name)
		}

		deps.Logger.Error("Error collecting row", slog.String("error", err.Error()))
		return nil, err
	}

	return &dept, nil
}

func ensureDepartment(ctx context.Context, q Queryer, deps *Dependens, name string) (*entity.Department, error) {
	dept, err := findDepartment(ctx, q, deps, name)
	if err == nil {
		return dept, nil
	}

	if apperror.GetCode(err) != apperror.CodeNotFound {
		return nil, err
	}

	now := time.Now()
	query := `INSERT INTO departments (name, budget, created_at, updated_at)
              VALUES ($1, 0, $2, $3)
              RETURNING ` + departmentColumns

	rows, qErr := q.Query(ctx, query, strings.TrimSpace(name), now, now)
	if qErr != nil {
		deps.Logger.Error("Error inserting department", slog.String("error", qErr.Error()))
		return nil, qErr
	}
	defer rows.Close()

	created, qErr := pgx.CollectOneRow(rows, pgx.RowToStructByName[entity.Department])
	if qErr != nil {
		deps.Logger.Error("Error collecting row", slog.String("error", qErr.Error()))
		return nil, qErr
	}

	deps.Logger.Info("Department created", slog.String("name", created.Name))

	return &created, nil
}
