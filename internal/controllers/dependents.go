package controllers

import (
	"context"
	"log/slog"
	"time"

	"github.com/blackroad/hr-service/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

type Controllers struct {
	AuthController       *AuthController
	DepartmentController *DepartmentController
	EmployeeController   *EmployeeController
	TimesheetController  *TimesheetController
	PTOController        *PTOController
	AnalyticsController  *AnalyticsController
}

func NewControllers(deps *Dependens) *Controllers {
	return &Controllers{
		AuthController:       NewAuthController(deps),
		DepartmentController: NewDepartmentController(deps),
		EmployeeController:   NewEmployeeController(deps),
		TimesheetController:  NewTimesheetController(deps),
		PTOController:        NewPTOController(deps),
		AnalyticsController:  NewAnalyticsController(deps),
	}
}

// Queryer is satisfied by both the connection in Dependens.DB and pgx.Tx, so
// the same query helpers run inside and outside transactions.
type Queryer interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type Dependens struct {
	DB interface {
		Queryer
		Begin(ctx context.Context) (pgx.Tx, error)
	}
	Redis interface {
		Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
		Get(ctx context.Context, key string) *redis.StringCmd
		Del(ctx context.Context, keys ...string) *redis.IntCmd
	}
	Logger *slog.Logger
	Config *config.Config
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func today() time.Time {
	return dateOnly(time.Now().UTC())
}
