package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/blackroad/hr-service/internal/apperror"
	"github.com/blackroad/hr-service/internal/controllers"
	"github.com/blackroad/hr-service/internal/entity"
	"github.com/go-chi/chi/v5"
)

type Server struct {
	deps        *controllers.Dependens
	Controllers *controllers.Controllers
}

func NewServer(deps *controllers.Dependens) *Server {
	return &Server{
		deps:        deps,
		Controllers: controllers.NewControllers(deps),
	}
}

// Routes mounts every handler under the given router. Everything except
// login requires a valid access token.
func (s *Server) Routes(r chi.Router) {
	r.Post("/auth/login", s.AuthLogin)
	r.Post("/auth/logout", s.AuthLogout)

	r.Get("/departments", s.GetDepartments)
	r.Post("/departments", s.CreateDepartment)
	r.Put("/departments/{name}/budget", s.SetDepartmentBudget)
	r.Get("/departments/{name}/headcount", s.GetDepartmentHeadcount)

	r.Get("/employees", s.GetEmployees)
	r.Post("/employees", s.CreateEmployee)
	r.Get("/employees/{id}", s.GetEmployeeByID)
	r.Post("/employees/{id}/transfer", s.TransferEmployee)
	r.Post("/employees/{id}/salary", s.ChangeEmployeeSalary)
	r.Post("/employees/{id}/manager", s.SetEmployeeManager)
	r.Post("/employees/{id}/terminate", s.TerminateEmployee)

	r.Post("/employees/{id}/time", s.LogTime)
	r.Get("/employees/{id}/time", s.GetTimeEntries)
	r.Get("/employees/{id}/hours", s.GetHours)
	r.Get("/employees/{id}/projects", s.GetHoursByProject)

	r.Post("/employees/{id}/pto", s.RequestPTO)
	r.Get("/employees/{id}/pto/pending", s.GetPendingPTO)
	r.Get("/employees/{id}/pto/balance", s.GetPTOBalance)
	r.Get("/pto", s.GetPTORequests)
	r.Post("/pto/{id}/approve", s.ApprovePTO)
	r.Post("/pto/{id}/deny", s.DenyPTO)

	r.Get("/analytics/payroll", s.GetPayrollSummary)
	r.Get("/analytics/org-chart", s.GetOrgChart)
	r.Get("/analytics/tenure", s.GetTenureReport)
	r.Get("/analytics/headcount", s.GetHeadcountByDepartment)
}

// AuthLogin authenticates an employee and returns a JWT token pair.
func (s *Server) AuthLogin(w http.ResponseWriter, r *http.Request) {
	var req entity.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.deps.Logger.Error("Error decoding request body", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"}, "error")
		return
	}

	accessToken, refreshToken, err := s.Controllers.AuthController.AuthLogin(&req)
	if err != nil {
		s.deps.Logger.Error("Error logging in", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusUnauthorized, map[string]string{"error": err.Error()}, "error")
		return
	}

	s.httpResponse(w, http.StatusOK, entity.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, "success")
}

// AuthLogout revokes the caller's access token.
func (s *Server) AuthLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.Controllers.AuthController.AuthLogout(r.Header.Get("Authorization")); err != nil {
		s.deps.Logger.Error("Error logging out", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusInternalServerError, map[string]string{"error": "Failed to logout"}, "error")
		return
	}

	s.httpResponse(w, http.StatusOK, map[string]string{"message": "Logged out successfully"}, "success")
}

func (s *Server) GetDepartments(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	departments, err := s.Controllers.DepartmentController.GetDepartments(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, departments, "success")
}

// CreateDepartment is idempotent: posting an existing name returns the
// existing row.
func (s *Server) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.deps.Logger.Error("Error decoding request body", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"}, "error")
		return
	}

	department, err := s.Controllers.DepartmentController.EnsureDepartment(r.Context(), req.Name)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusCreated, department, "success")
}

func (s *Server) SetDepartmentBudget(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.deps.Logger.Error("Error decoding request body", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"}, "error")
		return
	}

	name := chi.URLParam(r, "name")
	if err := s.Controllers.DepartmentController.SetBudget(r.Context(), name, req.Amount); err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, map[string]any{"name": name, "budget": req.Amount}, "success")
}

func (s *Server) GetDepartmentHeadcount(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	name := chi.URLParam(r, "name")
	count, err := s.Controllers.DepartmentController.Headcount(r.Context(), name)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, map[string]any{"name": name, "headcount": count}, "success")
}

// GetEmployees lists employees, optionally filtered by department and status.
// An email filter short-circuits into a single-row lookup.
func (s *Server) GetEmployees(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	if email := r.URL.Query().Get("email"); email != "" {
		employee, err := s.Controllers.EmployeeController.GetEmployeeByEmail(r.Context(), email)
		if err != nil {
			s.errorResponse(w, err)
			return
		}

		s.httpResponse(w, http.StatusOK, employee, "success")
		return
	}

	params := entity.GetEmployeesParams{}
	if department := r.URL.Query().Get("department"); department != "" {
		params.Department = &department
	}
	if status := r.URL.Query().Get("status"); status != "" {
		params.Status = &status
	}

	employees, err := s.Controllers.EmployeeController.GetEmployees(r.Context(), &params)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, employees, "success")
}

func (s *Server) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	var req struct {
		Name       string  `json:"name"`
		Email      string  `json:"email"`
		Department string  `json:"department"`
		Title      string  `json:"title"`
		Salary     float64 `json:"salary"`
		ManagerID  *uint64 `json:"manager_id"`
		Phone      string  `json:"phone"`
		Password   string  `json:"password"`
		HireDate   *string `json:"hire_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.deps.Logger.Error("Error decoding request body", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"}, "error")
		return
	}

	hireDate, ok := s.parseDate(w, req.HireDate)
	if !ok {
		return
	}

	employee, err := s.Controllers.EmployeeController.Hire(r.Context(), controllers.HireInput{
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
		Title:      req.Title,
		Salary:     req.Salary,
		ManagerID:  req.ManagerID,
		Phone:      req.Phone,
		Password:   req.Password,
		HireDate:   hireDate,
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusCreated, employee, "success")
}

func (s *Server) GetEmployeeByID(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	employee, err := s.Controllers.EmployeeController.GetEmployeeByID(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, employee, "success")
}

func (s *Server) TransferEmployee(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Department string  `json:"department"`
		Title      *string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.deps.Logger.Error("Error decoding request body", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"}, "error")
		return
	}

	employee, err := s.Controllers.EmployeeController.Transfer(r.Context(), id, req.Department, req.Title)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, employee, "success")
}

func (s *Server) ChangeEmployeeSalary(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Salary float64 `json:"salary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.deps.Logger.Error("Error decoding request body", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"}, "error")
		return
	}

	employee, err := s.Controllers.EmployeeController.ChangeSalary(r.Context(), id, req.Salary)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, employee, "success")
}

func (s *Server) SetEmployeeManager(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		ManagerID uint64 `json:"manager_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.deps.Logger.Error("Error decoding request body", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"}, "error")
		return
	}

	employee, err := s.Controllers.EmployeeController.SetManager(r.Context(), id, req.ManagerID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, employee, "success")
}

func (s *Server) TerminateEmployee(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		TerminationDate *string `json:"termination_date"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.deps.Logger.Error("Error decoding request body", slog.String("error", err.Error()))
			s.httpResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"}, "error")
			return
		}
	}

	terminationDate, ok := s.parseDate(w, req.TerminationDate)
	if !ok {
		return
	}

	employee, err := s.Controllers.EmployeeController.Terminate(r.Context(), id, terminationDate)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, employee, "success")
}

func (s *Server) LogTime(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Hours   float64 `json:"hours"`
		Project string  `json:"project"`
		Date    *string `json:"date"`
		Notes   string  `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.deps.Logger.Error("Error decoding request body", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"}, "error")
		return
	}

	date, ok := s.parseDate(w, req.Date)
	if !ok {
		return
	}

	entry, err := s.Controllers.TimesheetController.LogTime(r.Context(), controllers.LogTimeInput{
		EmployeeID: id,
		Hours:      req.Hours,
		Project:    req.Project,
		Date:       date,
		Notes:      req.Notes,
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusCreated, entry, "success")
}

func (s *Server) GetTimeEntries(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	entries, err := s.Controllers.TimesheetController.EntriesFor(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, entries, "success")
}

func (s *Server) GetHours(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var start, end *string
	if v := r.URL.Query().Get("start"); v != "" {
		start = &v
	}
	if v := r.URL.Query().Get("end"); v != "" {
		end = &v
	}

	startDate, ok := s.parseDate(w, start)
	if !ok {
		return
	}

	endDate, ok := s.parseDate(w, end)
	if !ok {
		return
	}

	total, err := s.Controllers.TimesheetController.HoursFor(r.Context(), id, startDate, endDate)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, map[string]any{"employee_id": id, "hours": total}, "success")
}

func (s *Server) GetHoursByProject(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	totals, err := s.Controllers.TimesheetController.HoursByProject(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, totals, "success")
}

func (s *Server) RequestPTO(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Type      string `json:"type"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		Reason    string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.deps.Logger.Error("Error decoding request body", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"}, "error")
		return
	}

	startDate, ok := s.parseDate(w, &req.StartDate)
	if !ok {
		return
	}

	endDate, ok := s.parseDate(w, &req.EndDate)
	if !ok {
		return
	}

	if startDate == nil || endDate == nil {
		s.httpResponse(w, http.StatusBadRequest, map[string]string{"error": "start_date and end_date are required"}, "error")
		return
	}

	request, err := s.Controllers.PTOController.RequestPTO(r.Context(), controllers.RequestPTOInput{
		EmployeeID: id,
		Type:       req.Type,
		StartDate:  *startDate,
		EndDate:    *endDate,
		Reason:     req.Reason,
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusCreated, request, "success")
}

func (s *Server) GetPendingPTO(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	requests, err := s.Controllers.PTOController.PendingFor(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, requests, "success")
}

func (s *Server) GetPTOBalance(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	ptoType := r.URL.Query().Get("type")
	balance, err := s.Controllers.PTOController.Balance(r.Context(), id, ptoType)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, map[string]any{"employee_id": id, "type": ptoType, "balance": balance}, "success")
}

func (s *Server) GetPTORequests(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	params := entity.ListPTORequestsParams{}
	if v := r.URL.Query().Get("employee_id"); v != "" {
		employeeID, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			s.httpResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid employee_id"}, "error")
			return
		}
		params.EmployeeID = &employeeID
	}
	if v := r.URL.Query().Get("status"); v != "" {
		params.Status = &v
	}

	requests, err := s.Controllers.PTOController.ListPTORequests(r.Context(), &params)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, requests, "success")
}

// ApprovePTO records the caller as approver.
func (s *Server) ApprovePTO(w http.ResponseWriter, r *http.Request) {
	claims, authOK := s.authUser(w, r)
	if !authOK {
		return
	}

	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	approverID := claims.ID
	request, err := s.Controllers.PTOController.ApprovePTO(r.Context(), id, &approverID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, request, "success")
}

func (s *Server) DenyPTO(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	request, err := s.Controllers.PTOController.DenyPTO(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, request, "success")
}

func (s *Server) GetPayrollSummary(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	summary, err := s.Controllers.AnalyticsController.PayrollSummary(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, summary, "success")
}

func (s *Server) GetOrgChart(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	forest, err := s.Controllers.AnalyticsController.OrgChart(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, forest, "success")
}

func (s *Server) GetTenureReport(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	report, err := s.Controllers.AnalyticsController.TenureReport(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, report, "success")
}

func (s *Server) GetHeadcountByDepartment(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuthUser(w, r) {
		return
	}

	headcount, err := s.Controllers.AnalyticsController.HeadcountByDepartment(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.httpResponse(w, http.StatusOK, headcount, "success")
}

func (s *Server) authUser(w http.ResponseWriter, r *http.Request) (*entity.Claims, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		s.deps.Logger.Error("Authorization header missing")
		s.httpResponse(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"}, "error")
		return nil, false
	}

	claims, err := s.Controllers.AuthController.CheckUserToken(authHeader)
	if err != nil {
		s.deps.Logger.Error("Error checking token", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"}, "error")
		return nil, false
	}

	return claims, true
}

func (s *Server) checkAuthUser(w http.ResponseWriter, r *http.Request) bool {
	_, ok := s.authUser(w, r)
	return ok
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil {
		s.deps.Logger.Error("Invalid path parameter", slog.String("param", name), slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid " + name}, "error")
		return 0, false
	}

	return id, true
}

// parseDate accepts YYYY-MM-DD. A nil input stays nil, which the controllers
// read as "today".
func (s *Server) parseDate(w http.ResponseWriter, value *string) (*time.Time, bool) {
	if value == nil || *value == "" {
		return nil, true
	}

	t, err := time.Parse("2006-01-02", *value)
	if err != nil {
		s.deps.Logger.Error("Invalid date", slog.String("value", *value), slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid date, expected YYYY-MM-DD"}, "error")
		return nil, false
	}

	return &t, true
}

func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		s.httpResponse(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"}, "error")
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case apperror.CodeValidation:
		status = http.StatusBadRequest
	case apperror.CodeNotFound:
		status = http.StatusNotFound
	case apperror.CodeConflict:
		status = http.StatusConflict
	case apperror.CodeState, apperror.CodeCycle:
		status = http.StatusUnprocessableEntity
	case apperror.CodeInternal:
		status = http.StatusInternalServerError
	}

	s.httpResponse(w, status, map[string]string{"error": appErr.Message}, "error")
}

func (s *Server) httpResponse(w http.ResponseWriter, status int, data any, respType string) {
	resp := map[string]any{
		"status": status,
		"type":   respType,
		"data":   data,
	}

	respData, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		s.deps.Logger.Error("Error marshaling response", slog.String("error", marshalErr.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(respData); err != nil {
		s.deps.Logger.Error("Error writing response", slog.String("error", err.Error()))
	}
}
