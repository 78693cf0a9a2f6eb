package controllers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/blackroad/hr-service/internal/apperror"
	"github.com/blackroad/hr-service/internal/entity"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestTimesheetController_LogTime(t *testing.T) {
	tests := []struct {
		name         string
		input        LogTimeInput
		setupMocks   func(*MockDB)
		expectError  bool
		expectedCode apperror.Code
	}{
		{
			name: "successful entry",
			input: LogTimeInput{
				EmployeeID: 1,
				Hours:      7.5,
				Project:    "apollo",
				Notes:      "sprint work",
			},
			setupMocks: func(mockDB *MockDB) {
				mockDB.On("Begin", mock.Anything).Return(NewMockTx(mockDB), nil)

				emp := NewMockRows([][]interface{}{EmployeeRow(CreateTestEmployee())}, nil, EmployeeFieldDescs())
				mockDB.On("Query", mock.Anything, mock.MatchedBy(func(query string) bool {
					return strings.Contains(query, "FROM employees WHERE id")
				}), uint64(1)).Return(emp, nil)

				now := time.Now()
				inserted := NewMockRows([][]interface{}{
					{uint64(10), uint64(1), today(), 7.5, "apollo", "sprint work", now},
				}, nil, TimeEntryFieldDescs())
				mockDB.On("Query", mock.Anything, mock.MatchedBy(func(query string) bool {
					return strings.Contains(query, "INSERT INTO time_entries")
				}), uint64(1), mock.AnythingOfType("time.Time"), 7.5, "apollo", "sprint work",
					mock.AnythingOfType("time.Time")).Return(inserted, nil)
			},
			expectError: false,
		},
		{
			name: "zero hours rejected",
			input: LogTimeInput{
				EmployeeID: 1,
				Hours:      0,
				Project:    "apollo",
			},
			setupMocks:   func(mockDB *MockDB) {},
			expectError:  true,
			expectedCode: apperror.CodeValidation,
		},
		{
			name: "more than a day rejected",
			input: LogTimeInput{
				EmployeeID: 1,
				Hours:      25,
				Project:    "apollo",
			},
			setupMocks:   func(mockDB *MockDB) {},
			expectError:  true,
			expectedCode: apperror.CodeValidation,
		},
		{
			name: "blank project rejected",
			input: LogTimeInput{
				EmployeeID: 1,
				Hours:      8,
				Project:    "  ",
			},
			setupMocks:   func(mockDB *MockDB) {},
			expectError:  true,
			expectedCode: apperror.CodeValidation,
		},
		{
			name: "terminated employee rejected",
			input: LogTimeInput{
				EmployeeID: 1,
				Hours:      8,
				Project:    "apollo",
			},
			setupMocks: func(mockDB *MockDB) {
				mockDB.On("Begin", mock.Anything).Return(NewMockTx(mockDB), nil)

				gone := CreateTestEmployee()
				gone.Status = entity.StatusTerminated
				rows := NewMockRows([][]interface{}{EmployeeRow(gone)}, nil, EmployeeFieldDescs())
				mockDB.On("Query", mock.Anything, mock.MatchedBy(func(query string) bool {
					return strings.Contains(query, "FROM employees WHERE id")
				}), uint64(1)).Return(rows, nil)
			},
			expectError:  true,
			expectedCode: apperror.CodeState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := &MockDB{}
			deps := CreateTestDependencies(mockDB, &MockRedis{})

			tt.setupMocks(mockDB)

			controller := NewTimesheetController(deps)
			entry, err := controller.LogTime(context.Background(), tt.input)

			if tt.expectError {
				assert.Error(t, err)
				if tt.expectedCode != "" {
					assert.Equal(t, tt.expectedCode, apperror.GetCode(err))
				}
				assert.Nil(t, entry)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, entry)
				assert.Equal(t, tt.input.Hours, entry.Hours)
				assert.Equal(t, tt.input.Project, entry.Project)
			}

			mockDB.AssertExpectations(t)
		})
	}
}

func TestTimesheetController_EntriesFor(t *testing.T) {
	mockDB := &MockDB{}
	deps := CreateTestDependencies(mockDB, &MockRedis{})

	now := time.Now()
	rows := NewMockRows([][]interface{}{
		{uint64(1), uint64(1), time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC), 8.0, "apollo", "", now},
		{uint64(2), uint64(1), time.Date(2026, time.May, 2, 0, 0, 0, 0, time.UTC), 6.0, "zephyr", "", now},
	}, nil, TimeEntryFieldDescs())
	mockDB.On("Query", mock.Anything, mock.MatchedBy(func(query string) bool {
		return strings.Contains(query, "ORDER BY entry_date ASC")
	}), uint64(1)).Return(rows, nil)

	controller := NewTimesheetController(deps)
	entries, err := controller.EntriesFor(context.Background(), 1)

	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "apollo", entries[0].Project)

	mockDB.AssertExpectations(t)
}

func TestTimesheetController_HoursFor(t *testing.T) {
	t.Run("no range", func(t *testing.T) {
		mockDB := &MockDB{}
		deps := CreateTestDependencies(mockDB, &MockRedis{})

		sum := NewMockRow([]interface{}{14.5}, nil)
		mockDB.On("QueryRow", mock.Anything, mock.MatchedBy(func(query string) bool {
			return strings.Contains(query, "COALESCE(SUM(hours), 0)")
		}), uint64(1)).Return(sum)

		controller := NewTimesheetController(deps)
		total, err := controller.HoursFor(context.Background(), 1, nil, nil)

		assert.NoError(t, err)
		assert.Equal(t, 14.5, total)

		mockDB.AssertExpectations(t)
	})

	t.Run("bounded range", func(t *testing.T) {
		mockDB := &MockDB{}
		deps := CreateTestDependencies(mockDB, &MockRedis{})

		sum := NewMockRow([]interface{}{8.0}, nil)
		mockDB.On("QueryRow", mock.Anything, mock.MatchedBy(func(query string) bool {
			return strings.Contains(query, "entry_date >=") && strings.Contains(query, "entry_date <=")
		}), uint64(1), mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).Return(sum)

		start := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, time.May, 7, 0, 0, 0, 0, time.UTC)

		controller := NewTimesheetController(deps)
		total, err := controller.HoursFor(context.Background(), 1, &start, &end)

		assert.NoError(t, err)
		assert.Equal(t, 8.0, total)

		mockDB.AssertExpectations(t)
	})
}

func TestTimesheetController_HoursByProject(t *testing.T) {
	mockDB := &MockDB{}
	deps := CreateTestDependencies(mockDB, &MockRedis{})

	rows := NewMockRows([][]interface{}{
		{"apollo", 12.0},
		{"zephyr", 4.5},
	}, nil, []pgconn.FieldDescription{
		{Name: "project", DataTypeOID: 25},
		{Name: "sum", DataTypeOID: 701},
	})
	mockDB.On("Query", mock.Anything, mock.MatchedBy(func(query string) bool {
		return strings.Contains(query, "GROUP BY project")
	}), uint64(1)).Return(rows, nil)

	controller := NewTimesheetController(deps)
	totals, err := controller.HoursByProject(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, map[string]float64{"apollo": 12.0, "zephyr": 4.5}, totals)

	mockDB.AssertExpectations(t)
}
