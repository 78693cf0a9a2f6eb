package entity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	StatusActive     = "active"
	StatusTerminated = "terminated"
)

type Employee struct {
	ID              uint64     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Department      string     `json:"department"`
	Title           string     `json:"title"`
	Salary          float64    `json:"salary"`
	ManagerID       *uint64    `json:"manager_id"`
	HireDate        time.Time  `json:"hire_date"`
	Status          string     `json:"status"`
	TerminationDate *time.Time `json:"termination_date"`
	Phone           string     `json:"phone"`
	PasswordHash    *string    `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (e *Employee) IsActive() bool {
	return e.Status == StatusActive
}

type GetEmployeesParams struct {
	Department *string
	Status     *string
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Claims struct {
	jwt.RegisteredClaims

	ID      uint64 `json:"id"`
	Email   string `json:"email"`
	TokenID string `json:"token_id"`
}
