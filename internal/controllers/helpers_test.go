package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/blackroad/hr-service/internal/config"
	"github.com/blackroad/hr-service/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// DBInterface defines the interface for database operations.
type DBInterface interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
	Ping(ctx context.Context) error
}

// RedisInterface defines the interface for Redis operations.
type RedisInterface interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// MockDB represents a mock database connection.
type MockDB struct {
	mock.Mock
}

func (m *MockDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	mockArgs := append([]interface{}{ctx, sql}, args...)
	callArgs := m.Called(mockArgs...)
	return callArgs.Get(0).(pgx.Rows), callArgs.Error(1)
}

func (m *MockDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	mockArgs := append([]interface{}{ctx, sql}, args...)
	callArgs := m.Called(mockArgs...)
	return callArgs.Get(0).(pgx.Row)
}

func (m *MockDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	mockArgs := append([]interface{}{ctx, sql}, args...)
	callArgs := m.Called(mockArgs...)
	return callArgs.Get(0).(pgconn.CommandTag), callArgs.Error(1)
}

func (m *MockDB) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockDB) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDB) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockTx is a pgx.Tx that forwards queries to the MockDB that opened it, so
// expectations are declared in one place whether or not the query runs inside
// a transaction. Commit and Rollback are no-ops.
type MockTx struct {
	db *MockDB
}

func NewMockTx(db *MockDB) *MockTx {
	return &MockTx{db: db}
}

func (t *MockTx) Begin(_ context.Context) (pgx.Tx, error) {
	return t, nil
}

func (t *MockTx) Commit(_ context.Context) error {
	return nil
}

func (t *MockTx) Rollback(_ context.Context) error {
	return nil
}

func (t *MockTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *MockTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults {
	return nil
}

func (t *MockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (t *MockTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *MockTx) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, arguments...)
}

func (t *MockTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return t.db.Query(ctx, sql, args...)
}

func (t *MockTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return t.db.QueryRow(ctx, sql, args...)
}

func (t *MockTx) Conn() *pgx.Conn {
	return nil
}

// Field descriptions per table, in column order.
func EmployeeFieldDescs() []pgconn.FieldDescription {
	return []pgconn.FieldDescription{
		{Name: "id", DataTypeOID: 20},
		{Name: "name", DataTypeOID: 25},
		{Name: "email", DataTypeOID: 25},
		{Name: "department", DataTypeOID: 25},
		{Name: "title", DataTypeOID: 25},
		{Name: "salary", DataTypeOID: 701},
		{Name: "manager_id", DataTypeOID: 20},
		{Name: "hire_date", DataTypeOID: 1114},
		{Name: "status", DataTypeOID: 25},
		{Name: "termination_date", DataTypeOID: 1114},
		{Name: "phone", DataTypeOID: 25},
		{Name: "password_hash", DataTypeOID: 25},
		{Name: "created_at", DataTypeOID: 1114},
		{Name: "updated_at", DataTypeOID: 1114},
	}
}

func DepartmentFieldDescs() []pgconn.FieldDescription {
	return []pgconn.FieldDescription{
		{Name: "id", DataTypeOID: 20},
		{Name: "name", DataTypeOID: 25},
		{Name: "budget", DataTypeOID: 701},
		{Name: "created_at", DataTypeOID: 1114},
		{Name: "updated_at", DataTypeOID: 1114},
	}
}

func TimeEntryFieldDescs() []pgconn.FieldDescription {
	return []pgconn.FieldDescription{
		{Name: "id", DataTypeOID: 20},
		{Name: "employee_id", DataTypeOID: 20},
		{Name: "entry_date", DataTypeOID: 1114},
		{Name: "hours", DataTypeOID: 701},
		{Name: "project", DataTypeOID: 25},
		{Name: "notes", DataTypeOID: 25},
		{Name: "created_at", DataTypeOID: 1114},
	}
}

func PTOFieldDescs() []pgconn.FieldDescription {
	return []pgconn.FieldDescription{
		{Name: "id", DataTypeOID: 20},
		{Name: "employee_id", DataTypeOID: 20},
		{Name: "type", DataTypeOID: 25},
		{Name: "start_date", DataTypeOID: 1114},
		{Name: "end_date", DataTypeOID: 1114},
		{Name: "status", DataTypeOID: 25},
		{Name: "reason", DataTypeOID: 25},
		{Name: "approved_by", DataTypeOID: 20},
		{Name: "decided_at", DataTypeOID: 1114},
		{Name: "created_at", DataTypeOID: 1114},
	}
}

// MockRow represents a mock database row.
type MockRow struct {
	mock.Mock
	data []interface{}
	err  error
}

func NewMockRow(data []interface{}, err error) *MockRow {
	return &MockRow{
		data: data,
		err:  err,
	}
}

// Scan scans the row data into the provided destinations.
func (m *MockRow) Scan(dest ...interface{}) error {
	if m.err != nil {
		return m.err
	}

	return scanInto(m.data, dest)
}

// MockRows represents mock database rows.
type MockRows struct {
	mock.Mock
	rows       [][]interface{}
	pos        int
	err        error
	fieldDescs []pgconn.FieldDescription
}

func NewMockRows(rows [][]interface{}, err error, fieldDescs []pgconn.FieldDescription) *MockRows {
	if fieldDescs == nil {
		fieldDescs = EmployeeFieldDescs()
	}
	return &MockRows{
		rows:       rows,
		pos:        -1,
		err:        err,
		fieldDescs: fieldDescs,
	}
}

func (m *MockRows) FieldDescriptions() []pgconn.FieldDescription {
	return m.fieldDescs
}

func (m *MockRows) Next() bool {
	m.pos++
	return m.pos < len(m.rows)
}

func (m *MockRows) Close() {}

func (m *MockRows) Scan(dest ...interface{}) error {
	if m.err != nil {
		return m.err
	}
	if m.pos < 0 || m.pos >= len(m.rows) {
		return nil
	}

	return scanInto(m.rows[m.pos], dest)
}

func (m *MockRows) Err() error {
	return m.err
}

func (m *MockRows) CommandTag() pgconn.CommandTag {
	return pgconn.NewCommandTag("")
}

func (m *MockRows) Values() ([]interface{}, error) {
	if m.pos >= len(m.rows) {
		return nil, nil
	}
	return m.rows[m.pos], nil
}

func (m *MockRows) RawValues() [][]byte {
	return nil
}

func (m *MockRows) Conn() *pgx.Conn {
	return nil
}

//nolint:gocyclo // plain type dispatch
func scanInto(row []interface{}, dest []interface{}) error {
	for i, val := range row {
		if i >= len(dest) {
			break
		}

		switch d := dest[i].(type) {
		case *uint64:
			if v, ok := val.(uint64); ok {
				*d = v
			}
		case *int64:
			if v, ok := val.(int64); ok {
				*d = v
			}
		case *int:
			if v, ok := val.(int); ok {
				*d = v
			}
		case *float64:
			if v, ok := val.(float64); ok {
				*d = v
			}
		case *string:
			if v, ok := val.(string); ok {
				*d = v
			}
		case *time.Time:
			if v, ok := val.(time.Time); ok {
				*d = v
			}
		case **uint64:
			if val == nil {
				*d = nil
			} else if v, ok := val.(*uint64); ok {
				*d = v
			}
		case **string:
			if val == nil {
				*d = nil
			} else if v, ok := val.(*string); ok {
				*d = v
			}
		case **time.Time:
			if val == nil {
				*d = nil
			} else if v, ok := val.(*time.Time); ok {
				*d = v
			}
		case *interface{}:
			*d = val
		}
	}
	return nil
}

// MockRedis represents a mock Redis client.
type MockRedis struct {
	mock.Mock
}

func (m *MockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)

	if statusCmd, ok := args.Get(0).(*redis.StatusCmd); ok {
		return statusCmd
	}

	cmd := redis.NewStatusCmd(ctx)

	if len(args) > 0 && args.Get(0) != nil {
		if err, ok := args.Get(0).(error); ok && err != nil {
			cmd.SetErr(err)
			return cmd
		}
	}

	cmd.SetVal("OK")

	return cmd
}

func (m *MockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)

	if stringCmd, ok := args.Get(0).(*redis.StringCmd); ok {
		return stringCmd
	}

	cmd := redis.NewStringCmd(ctx)

	if len(args) > 0 && args.Get(0) != nil {
		if err, ok := args.Get(0).(error); ok {
			cmd.SetErr(err)
		} else if len(args) > 1 {
			if val, ok := args.Get(1).(string); ok && val != "" {
				cmd.SetVal(val)
			}
		}
	}

	return cmd
}

func (m *MockRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)

	if intCmd, ok := args.Get(0).(*redis.IntCmd); ok {
		return intCmd
	}

	cmd := redis.NewIntCmd(ctx)

	if len(args) > 0 && args.Get(0) != nil {
		if err, ok := args.Get(0).(error); ok && err != nil {
			cmd.SetErr(err)
			return cmd
		}
	}

	cmd.SetVal(1)

	return cmd
}

func (m *MockRedis) Close() error {
	args := m.Called()
	return args.Error(0)
}

func NewMockCommandTag(rowsAffected int64) pgconn.CommandTag {
	tag := fmt.Sprintf("UPDATE %d", rowsAffected)
	return pgconn.NewCommandTag(tag)
}

// Test helper functions.
func CreateTestDependencies(mockDB DBInterface, mockRedis RedisInterface) *Dependens {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	cfg := &config.Config{}
	cfg.Server.JWTSecret = "test-secret-key"
	cfg.Redis.AccessTokenTTL = time.Hour
	cfg.Redis.RefreshTokenTTL = time.Hour * 24
	cfg.HR.VacationDaysPerYear = 25
	cfg.HR.SickDaysPerYear = 10
	cfg.HR.PersonalDaysPerYear = 5

	return &Dependens{
		DB:     mockDB,
		Redis:  mockRedis,
		Logger: logger,
		Config: cfg,
	}
}

// Test data helpers.
func CreateTestEmployee() entity.Employee {
	now := time.Now()

	return entity.Employee{
		ID:         1,
		Name:       "John Doe",
		Email:      "john@example.com",
		Department: "Engineering",
		Title:      "Developer",
		Salary:     85000,
		HireDate:   time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC),
		Status:     entity.StatusActive,
		Phone:      "555-0101",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func CreateTestDepartment() entity.Department {
	now := time.Now()

	return entity.Department{
		ID:        1,
		Name:      "Engineering",
		Budget:    500000,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func CreateTestPTORequest() entity.PTORequest {
	now := time.Now()

	return entity.PTORequest{
		ID:         1,
		EmployeeID: 1,
		Type:       entity.PTOTypeVacation,
		StartDate:  time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC),
		Status:     entity.PTOStatusPending,
		Reason:     "summer trip",
		CreatedAt:  now,
	}
}

// EmployeeRow flattens an employee into scan order.
func EmployeeRow(emp entity.Employee) []interface{} {
	return []interface{}{
		emp.ID, emp.Name, emp.Email, emp.Department, emp.Title, emp.Salary,
		emp.ManagerID, emp.HireDate, emp.Status, emp.TerminationDate,
		emp.Phone, emp.PasswordHash, emp.CreatedAt, emp.UpdatedAt,
	}
}

func DepartmentRow(dept entity.Department) []interface{} {
	return []interface{}{dept.ID, dept.Name, dept.Budget, dept.CreatedAt, dept.UpdatedAt}
}

func TimeEntryRow(e entity.TimeEntry) []interface{} {
	return []interface{}{e.ID, e.EmployeeID, e.EntryDate, e.Hours, e.Project, e.Notes, e.CreatedAt}
}

func PTORow(req entity.PTORequest) []interface{} {
	return []interface{}{
		req.ID, req.EmployeeID, req.Type, req.StartDate, req.EndDate,
		req.Status, req.Reason, req.ApprovedBy, req.DecidedAt, req.CreatedAt,
	}
}

func StringPtr(s string) *string {
	return &s
}

func Uint64Ptr(u uint64) *uint64 {
	return &u
}

func Float64Ptr(f float64) *float64 {
	return &f
}

func TimePtr(t time.Time) *time.Time {
	return &t
}
