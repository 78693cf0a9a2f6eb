package controllers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blackroad/hr-service/internal/apperror"
	"github.com/blackroad/hr-service/internal/entity"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const employeeColumns = "id, name, email, department, title, salary, manager_id, hire_date, status, termination_date, phone, password_hash, created_at, updated_at"

type EmployeeController struct {
	deps *Dependens
}

func NewEmployeeController(deps *Dependens) *EmployeeController {
	return &EmployeeController{
		deps: deps,
	}
}

type HireInput struct {
	Name       string
	Email      string
	Department string
	Title      string
	Salary     float64
	ManagerID  *uint64
	Phone      string
	Password   string
	HireDate   *time.Time
}

// Hire onboards a new employee, auto-creating the department when needed.
// The department lookup, the optional creation and the employee insert commit
// or roll back together.
func (c *EmployeeController) Hire(ctx context.Context, in HireInput) (*entity.Employee, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Department) == "" {
		return nil, apperror.New(apperror.CodeValidation, "name, email and department are required")
	}

	if in.Salary < 0 {
		return nil, apperror.Newf(apperror.CodeValidation, "salary must not be negative, got %v", in.Salary)
	}

	if in.Password == "" {
		in.Password = "default123"
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		c.deps.Logger.Error("Error hashing password", slog.String("error", err.Error()))
		return nil, err
	}

	tx, err := c.deps.DB.Begin(ctx)
	if err != nil {
		c.deps.Logger.Error("Error starting transaction", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists int
	if err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE email = $1`, in.Email).Scan(&exists); err != nil {
		c.deps.Logger.Error("Error checking uniqueness", slog.String("error", err.Error()))
		return nil, err
	}

	if exists > 0 {
		c.deps.Logger.Warn("Email already in use", slog.String("email", in.Email))
		return nil, apperror.Newf(apperror.CodeConflict, "email %q already in use", in.Email)
	}

	if in.ManagerID != nil {
		manager, mgrErr := getEmployee(ctx, tx, c.deps, *in.ManagerID)
		if mgrErr != nil {
			if apperror.GetCode(mgrErr) == apperror.CodeNotFound {
				return nil, apperror.Newf(apperror.CodeNotFound, "manager %d not found", *in.ManagerID)
			}
			return nil, mgrErr
		}

		if !manager.IsActive() {
			return nil, apperror.Newf(apperror.CodeState, "manager %d is terminated", *in.ManagerID)
		}
	}

	dept, err := ensureDepartment(ctx, tx, c.deps, in.Department)
	if err != nil {
		return nil, err
	}

	hireDate := today()
	if in.HireDate != nil {
		hireDate = dateOnly(*in.HireDate)
	}

	now := time.Now()
	query := `INSERT INTO employees (name, email, department, title, salary, manager_id, hire_date, status, phone, password_hash, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
              RETURNING ` + employeeColumns

	rows, err := tx.Query(ctx, query,
		strings.TrimSpace(in.Name), in.Email, dept.Name, in.Title, in.Salary,
		in.ManagerID, hireDate, entity.StatusActive, in.Phone, string(passwordHash), now, now,
	)
	if err != nil {
		c.deps.Logger.Error("Error inserting employee", slog.String("error", err.Error()))
		return nil, err
	}

	emp, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[entity.Employee])
	rows.Close()
	if err != nil {
		c.deps.Logger.Error("Error collecting row", slog.String("error", err.Error()))
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		c.deps.Logger.Error("Error committing transaction", slog.String("error", err.Error()))
		return nil, err
	}

	c.deps.Logger.Info("Employee hired", slog.Any("id", emp.ID), slog.String("department", emp.Department))

	return &emp, nil
}

// Transfer moves an active employee to another department, auto-creating the
// target. Manager and salary are left untouched.
func (c *EmployeeController) Transfer(ctx context.Context, employeeID uint64, newDepartment string, newTitle *string) (*entity.Employee, error) {
	if strings.TrimSpace(newDepartment) == "" {
		return nil, apperror.New(apperror.CodeValidation, "department name is required")
	}

	tx, err := c.deps.DB.Begin(ctx)
	if err != nil {
		c.deps.Logger.Error("Error starting transaction", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	emp, err := getEmployee(ctx, tx, c.deps, employeeID)
	if err != nil {
		return nil, err
	}

	if !emp.IsActive() {
		return nil, apperror.Newf(apperror.CodeState, "employee %d is terminated", employeeID)
	}

	dept, err := ensureDepartment(ctx, tx, c.deps, newDepartment)
	if err != nil {
		return nil, err
	}

	query := `UPDATE employees SET department = $1, title = COALESCE($2, title), updated_at = $3 WHERE id = $4
              RETURNING ` + employeeColumns

	updated, err := c.collectEmployee(tx.Query(ctx, query, dept.Name, newTitle, time.Now(), employeeID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		c.deps.Logger.Error("Error committing transaction", slog.String("error", err.Error()))
		return nil, err
	}

	return updated, nil
}

func (c *EmployeeController) ChangeSalary(ctx context.Context, employeeID uint64, newSalary float64) (*entity.Employee, error) {
	if newSalary < 0 {
		return nil, apperror.Newf(apperror.CodeValidation, "salary must not be negative, got %v", newSalary)
	}

	tx, err := c.deps.DB.Begin(ctx)
	if err != nil {
		c.deps.Logger.Error("Error starting transaction", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	emp, err := getEmployee(ctx, tx, c.deps, employeeID)
	if err != nil {
		return nil, err
	}

	if !emp.IsActive() {
		return nil, apperror.Newf(apperror.CodeState, "employee %d is terminated", employeeID)
	}

	query := `UPDATE employees SET salary = $1, updated_at = $2 WHERE id = $3
              RETURNING ` + employeeColumns

	updated, err := c.collectEmployee(tx.Query(ctx, query, newSalary, time.Now(), employeeID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		c.deps.Logger.Error("Error committing transaction", slog.String("error", err.Error()))
		return nil, err
	}

	return updated, nil
}

// SetManager assigns a manager after walking the manager chain upward from
// the candidate. The walk is bounded by the visited set, so a bad chain in
// storage cannot loop it.
func (c *EmployeeController) SetManager(ctx context.Context, employeeID, managerID uint64) (*entity.Employee, error) {
	if employeeID == managerID {
		return nil, apperror.Newf(apperror.CodeCycle, "employee %d cannot manage itself", employeeID)
	}

	tx, err := c.deps.DB.Begin(ctx)
	if err != nil {
		c.deps.Logger.Error("Error starting transaction", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = getEmployee(ctx, tx, c.deps, employeeID); err != nil {
		return nil, err
	}

	manager, err := getEmployee(ctx, tx, c.deps, managerID)
	if err != nil {
		if apperror.GetCode(err) == apperror.CodeNotFound {
			return nil, apperror.Newf(apperror.CodeNotFound, "manager %d not found", managerID)
		}
		return nil, err
	}

	if !manager.IsActive() {
		return nil, apperror.Newf(apperror.CodeState, "manager %d is terminated", managerID)
	}

	cycle, err := c.wouldCreateCycle(ctx, tx, employeeID, manager)
	if err != nil {
		return nil, err
	}

	if cycle {
		c.deps.Logger.Warn("Manager cycle rejected", slog.Any("employee_id", employeeID), slog.Any("manager_id", managerID))
		return nil, apperror.Newf(apperror.CodeCycle, "assigning manager %d to employee %d would create a cycle", managerID, employeeID)
	}

	query := `UPDATE employees SET manager_id = $1, updated_at = $2 WHERE id = $3
              RETURNING ` + employeeColumns

	updated, err := c.collectEmployee(tx.Query(ctx, query, managerID, time.Now(), employeeID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		c.deps.Logger.Error("Error committing transaction", slog.String("error", err.Error()))
		return nil, err
	}

	return updated, nil
}

// Terminate is one-way: it flips the status tag and records the date, the row
// is never deleted. Direct reports keep their manager link as historical
// fact.
func (c *EmployeeController) Terminate(ctx context.Context, employeeID uint64, terminationDate *time.Time) (*entity.Employee, error) {
	tx, err := c.deps.DB.Begin(ctx)
	if err != nil {
		c.deps.Logger.Error("Error starting transaction", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	emp, err := getEmployee(ctx, tx, c.deps, employeeID)
	if err != nil {
		return nil, err
	}

	if !emp.IsActive() {
		return nil, apperror.Newf(apperror.CodeState, "employee %d is already terminated", employeeID)
	}

	termDate := today()
	if terminationDate != nil {
		termDate = dateOnly(*terminationDate)
	}

	query := `UPDATE employees SET status = $1, termination_date = $2, updated_at = $3 WHERE id = $4
              RETURNING ` + employeeColumns

	updated, err := c.collectEmployee(tx.Query(ctx, query, entity.StatusTerminated, termDate, time.Now(), employeeID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		c.deps.Logger.Error("Error committing transaction", slog.String("error", err.Error()))
		return nil, err
	}

	c.deps.Logger.Info("Employee terminated", slog.Any("id", employeeID))

	return updated, nil
}

func (c *EmployeeController) GetEmployeeByID(ctx context.Context, id uint64) (*entity.Employee, error) {
	return getEmployee(ctx, c.deps.DB, c.deps, id)
}

func (c *EmployeeController) GetEmployeeByEmail(ctx context.Context, email string) (*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE email = $1`

	rows, err := c.deps.DB.Query(ctx, query, email)
	if err != nil {
		c.deps.Logger.Error("Error querying employee", slog.String("error", err.Error()))
		return nil, err
	}
	defer rows.Close()

	emp, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[entity.Employee])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.Newf(apperror.CodeNotFound, "employee with email %q not found", email)
		}

		c.deps.Logger.Error("Error collecting row", slog.String("error", err.Error()))
		return nil, err
	}

	return &emp, nil
}

func (c *EmployeeController) GetEmployees(ctx context.Context, params *entity.GetEmployeesParams) ([]entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE 1=1`
	args := []any{}
	argIdx := 1

	if params != nil {
		if params.Department != nil {
			query += fmt.Sprintf(" AND LOWER(department) = LOWER($%d)", argIdx)
			args = append(args, *params.Department)
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

func (c *EmployeeController) wouldCreateCycle(ctx context.Context, q Queryer, employeeID uint64, manager *entity.Employee) (bool, error) {
	seen := map[uint64]bool{}
	current := manager.ManagerID

	if manager.ID == employeeID {
		return true, nil
	}
	seen[manager.ID] = true

	for current != nil {
		if *current == employeeID {
			return true, nil
		}

		if seen[*current] {
			return false, nil
		}
		seen[*current] = true

		var next *uint64
		if err := q.QueryRow(ctx, `SELECT manager_id FROM employees WHERE id = $1`, *current).Scan(&next); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, nil
			}

			c.deps.Logger.Error("Error walking manager chain", slog.String("error", err.Error()))
			return false, err
		}

		current = next
	}

	return false, nil
}

func (c *EmployeeController) collectEmployee(rows pgx.Rows, err error) (*entity.Employee, error) {
	if err != nil {
		c.deps.Logger.Error("Error querying employee", slog.String("error", err.Error()))
		return nil, err
	}
	defer rows.Close()

	emp, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[entity.Employee])
	if err != nil {
		c.deps.Logger.Error("Error collecting row", slog.String("error", err.Error()))
		return nil, err
	}

	return &emp, nil
}

func getEmployee(ctx context.Context, q Queryer, deps *Dependens, id uint64) (*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	rows, err := q.Query(ctx, query, id)
	if err != nil {
		deps.Logger.Error("Error querying employee", slog.String("error", err.Error()))
		return nil, err
	}
	defer rows.Close()

	emp, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[entity.Employee])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.Newf(apperror.CodeNotFound, "employee %d not found", id)
		}

		deps.Logger.Error("Error collecting row", slog.String("error", err.Error()))
		return nil, err
	}

	return &emp, nil
}
