package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCounter struct{ mock.Mock }

func (m *MockCounter) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockTaskRepo struct{ mock.Mock }

func (m *MockTaskRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func TestHandler_GetStats_Table(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(b, d, p, e *MockCounter, tr *MockTaskRepo)
		wantStatus int
		wantError  bool
		checkBody  func(*testing.T, map[string]interface{})
	}{
		{
			name: "Success",
			setupMocks: func(b, d, p, e *MockCounter, tr *MockTaskRepo) {
				b.On("Count", mock.Anything).Return(3, nil)
				d.On("Count", mock.Anything).Return(12, nil)
				p.On("Count", mock.Anything).Return(40, nil)
				e.On("Count", mock.Anything).Return(500, nil)
				tr.On("CountByStatus", mock.Anything).Return(map[string]int{"completed": 9, "failed": 1}, nil)
			},
			wantStatus: http.StatusOK,
			wantError:  false,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				data := body["data"].(map[string]interface{})
				assert.EqualValues(t, 3, data["businesses"])
				assert.EqualValues(t, 12, data["documents"])
				assert.EqualValues(t, 40, data["products"])
				assert.EqualValues(t, 500, data["embeddings"])
				tasks := data["tasks"].(map[string]interface{})
				assert.EqualValues(t, 9, tasks["completed"])
				assert.EqualValues(t, 1, tasks["failed"])
			},
		},
		{
			name: "BusinessRepo Error",
			setupMocks: func(b, d, p, e *MockCounter, tr *MockTaskRepo) {
				b.On("Count", mock.Anything).Return(0, errors.New("db error"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  true,
		},
		{
			name: "EmbeddingRepo Error",
			setupMocks: func(b, d, p, e *MockCounter, tr *MockTaskRepo) {
				b.On("Count", mock.Anything).Return(3, nil)
				d.On("Count", mock.Anything).Return(12, nil)
				p.On("Count", mock.Anything).Return(40, nil)
				e.On("Count", mock.Anything).Return(0, errors.New("db error"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  true,
		},
		{
			name: "TaskRepo Error",
			setupMocks: func(b, d, p, e *MockCounter, tr *MockTaskRepo) {
				b.On("Count", mock.Anything).Return(3, nil)
				d.On("Count", mock.Anything).Return(12, nil)
				p.On("Count", mock.Anything).Return(40, nil)
				e.On("Count", mock.Anything).Return(500, nil)
				tr.On("CountByStatus", mock.Anything).Return(nil, errors.New("db error"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := new(MockCounter)
			d := new(MockCounter)
			p := new(MockCounter)
			e := new(MockCounter)
			tr := new(MockTaskRepo)
			tt.setupMocks(b, d, p, e, tr)

			h := NewHandler(b, d, p, e, tr)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
			rec := httptest.NewRecorder()
			h.GetStats(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantError {
				assert.Contains(t, body, "error")
			} else if tt.checkBody != nil {
				tt.checkBody(t, body)
			}
		})
	}
}
