package leave_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"leavedesk/internal/leave"
	leaveerrors "leavedesk/internal/leave/errors"
	"leavedesk/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	apperror.Init()
	os.Exit(m.Run())
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeLeaveService struct {
	createFn      func(ctx context.Context, actorID string, req leave.CreateLeaveRequest) (leave.LeaveResponse, error)
	listOwnFn     func(ctx context.Context, userID string) ([]leave.LeaveResponse, error)
	listManagerFn func(ctx context.Context, managerID string) ([]leave.LeaveResponse, error)
	listPendingFn func(ctx context.Context, managerID string) ([]leave.PendingLeaveResponse, error)
	listAllFn     func(ctx context.Context, filter leave.ListAllFilter) ([]leave.LeaveResponse, error)
	approveFn     func(ctx context.Context, id, actorID string, privileged bool, comment string) (leave.LeaveResponse, error)
	rejectFn      func(ctx context.Context, id, actorID string, privileged bool, comment string) (leave.LeaveResponse, error)
	statsFn       func(ctx context.Context, userID string, year int) (leave.LeaveStatsResponse, error)
}

func (f *fakeLeaveService) Create(ctx context.Context, actorID string, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
	return f.createFn(ctx, actorID, req)
}
func (f *fakeLeaveService) ListOwn(ctx context.Context, userID string) ([]leave.LeaveResponse, error) {
	return f.listOwnFn(ctx, userID)
}
func (f *fakeLeaveService) ListForManager(ctx context.Context, managerID string) ([]leave.LeaveResponse, error) {
	return f.listManagerFn(ctx, managerID)
}
func (f *fakeLeaveService) ListPending(ctx context.Context, managerID string) ([]leave.PendingLeaveResponse, error) {
	return f.listPendingFn(ctx, managerID)
}
func (f *fakeLeaveService) ListAll(ctx context.Context, filter leave.ListAllFilter) ([]leave.LeaveResponse, error) {
	return f.listAllFn(ctx, filter)
}
func (f *fakeLeaveService) Approve(ctx context.Context, id, actorID string, privileged bool, comment string) (leave.LeaveResponse, error) {
	return f.approveFn(ctx, id, actorID, privileged, comment)
}
func (f *fakeLeaveService) Reject(ctx context.Context, id, actorID string, privileged bool, comment string) (leave.LeaveResponse, error) {
	return f.rejectFn(ctx, id, actorID, privileged, comment)
}
func (f *fakeLeaveService) Stats(ctx context.Context, userID string, year int) (leave.LeaveStatsResponse, error) {
	return f.statsFn(ctx, userID, year)
}

func testContext(w *httptest.ResponseRecorder, method, target, body string) (*gin.Context, *gin.Engine) {
	c, r := gin.CreateTestContext(w)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, r
}

func TestLeaveHandler_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeLeaveService{
			createFn: func(ctx context.Context, actorID string, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
				assert.Equal(t, "EMP_001", actorID)
				assert.Equal(t, "ANNUAL", req.LeaveType)
				return leave.LeaveResponse{
					LeaveID:   "LV_001",
					UserID:    actorID,
					LeaveType: req.LeaveType,
					StartDate: req.StartDate,
					EndDate:   req.EndDate,
					Days:      2,
					Reason:    req.Reason,
					Status:    leave.StatusPending,
				}, nil
			},
		}

		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		body := `{"startDate":"2026-03-10","endDate":"2026-03-11","leaveType":"ANNUAL","reason":"family trip"}`
		c, _ := testContext(w, http.MethodPost, "/leaves", body)
		c.Set("user_id", "EMP_001")

		h.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Success)

		var got leave.LeaveResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "LV_001", got.LeaveID)
		assert.Equal(t, 2, got.Days)
		assert.Equal(t, leave.StatusPending, got.Status)
	})

	t.Run("missing fields -> validation error", func(t *testing.T) {
		h := leave.NewHandler(&fakeLeaveService{})
		w := httptest.NewRecorder()
		c, _ := testContext(w, http.MethodPost, "/leaves", `{}`)
		c.Set("user_id", "EMP_001")

		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Success)
		assert.NotEmpty(t, env.Message)
	})

	t.Run("unknown leave type -> validation error", func(t *testing.T) {
		h := leave.NewHandler(&fakeLeaveService{})
		w := httptest.NewRecorder()
		body := `{"startDate":"2026-03-10","endDate":"2026-03-11","leaveType":"SABBATICAL","reason":"x"}`
		c, _ := testContext(w, http.MethodPost, "/leaves", body)
		c.Set("user_id", "EMP_001")

		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid range from service -> bad request", func(t *testing.T) {
		svc := &fakeLeaveService{
			createFn: func(ctx context.Context, actorID string, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrInvalidDateRange
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		body := `{"startDate":"2026-03-11","endDate":"2026-03-10","leaveType":"ANNUAL","reason":"x"}`
		c, _ := testContext(w, http.MethodPost, "/leaves", body)
		c.Set("user_id", "EMP_001")

		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Success)
		assert.Contains(t, env.Message, "startDate")
	})
}

func TestLeaveHandler_ListPending(t *testing.T) {
	t.Run("manager sees own scope", func(t *testing.T) {
		var gotManagerID string
		svc := &fakeLeaveService{
			listPendingFn: func(ctx context.Context, managerID string) ([]leave.PendingLeaveResponse, error) {
				gotManagerID = managerID
				return []leave.PendingLeaveResponse{}, nil
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := testContext(w, http.MethodGet, "/leaves/pending", "")
		c.Set("user_id", "EMP_010")
		c.Set("role", "manager")

		h.ListPending(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "EMP_010", gotManagerID)
	})

	t.Run("hr sees the org-wide queue", func(t *testing.T) {
		var gotManagerID string
		svc := &fakeLeaveService{
			listPendingFn: func(ctx context.Context, managerID string) ([]leave.PendingLeaveResponse, error) {
				gotManagerID = managerID
				return []leave.PendingLeaveResponse{
					{LeaveResponse: leave.LeaveResponse{LeaveID: "LV_001"}, RemainingDays: 15},
				}, nil
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := testContext(w, http.MethodGet, "/leaves/pending", "")
		c.Set("user_id", "HR_001")
		c.Set("role", "hr")

		h.ListPending(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, gotManagerID)

		env := decodeEnvelope(t, w.Body.Bytes())
		var got []leave.PendingLeaveResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Len(t, got, 1)
		assert.Equal(t, 15, got[0].RemainingDays)
	})
}

func TestLeaveHandler_ListAll(t *testing.T) {
	var gotFilter leave.ListAllFilter
	svc := &fakeLeaveService{
		listAllFn: func(ctx context.Context, filter leave.ListAllFilter) ([]leave.LeaveResponse, error) {
			gotFilter = filter
			return []leave.LeaveResponse{}, nil
		},
	}
	h := leave.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := testContext(w, http.MethodGet, "/leaves/all?status=APPROVED&leaveType=SICK", "")
	c.Set("user_id", "HR_001")

	h.ListAll(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "APPROVED", gotFilter.Status)
	assert.Equal(t, "SICK", gotFilter.LeaveType)
}

func TestLeaveHandler_Decide(t *testing.T) {
	t.Run("approve without a body passes an empty comment", func(t *testing.T) {
		svc := &fakeLeaveService{
			approveFn: func(ctx context.Context, id, actorID string, privileged bool, comment string) (leave.LeaveResponse, error) {
				assert.Equal(t, "LV_007", id)
				assert.Equal(t, "EMP_010", actorID)
				assert.False(t, privileged)
				assert.Empty(t, comment)
				return leave.LeaveResponse{LeaveID: id, Status: leave.StatusApproved}, nil
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := testContext(w, http.MethodPut, "/leaves/LV_007/approve", "")
		c.Params = gin.Params{{Key: "id", Value: "LV_007"}}
		c.Set("user_id", "EMP_010")
		c.Set("role", "manager")

		h.Approve(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("hr rejects as privileged with a comment", func(t *testing.T) {
		svc := &fakeLeaveService{
			rejectFn: func(ctx context.Context, id, actorID string, privileged bool, comment string) (leave.LeaveResponse, error) {
				assert.True(t, privileged)
				assert.Equal(t, "policy window closed", comment)
				return leave.LeaveResponse{LeaveID: id, Status: leave.StatusRejected}, nil
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := testContext(w, http.MethodPut, "/leaves/LV_007/reject", `{"comment":"policy window closed"}`)
		c.Params = gin.Params{{Key: "id", Value: "LV_007"}}
		c.Set("user_id", "HR_001")
		c.Set("role", "hr")

		h.Reject(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("already decided -> conflict", func(t *testing.T) {
		svc := &fakeLeaveService{
			approveFn: func(ctx context.Context, id, actorID string, privileged bool, comment string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrAlreadyDecided
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := testContext(w, http.MethodPut, "/leaves/LV_007/approve", "")
		c.Params = gin.Params{{Key: "id", Value: "LV_007"}}
		c.Set("user_id", "HR_001")
		c.Set("role", "admin")

		h.Approve(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Success)
	})

	t.Run("unknown id -> not found", func(t *testing.T) {
		svc := &fakeLeaveService{
			rejectFn: func(ctx context.Context, id, actorID string, privileged bool, comment string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrLeaveNotFound
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := testContext(w, http.MethodPut, "/leaves/LV_404/reject", "")
		c.Params = gin.Params{{Key: "id", Value: "LV_404"}}
		c.Set("user_id", "HR_001")
		c.Set("role", "hr")

		h.Reject(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLeaveHandler_Stats(t *testing.T) {
	t.Run("explicit year forwarded", func(t *testing.T) {
		svc := &fakeLeaveService{
			statsFn: func(ctx context.Context, userID string, year int) (leave.LeaveStatsResponse, error) {
				assert.Equal(t, "EMP_001", userID)
				assert.Equal(t, 2025, year)
				return leave.LeaveStatsResponse{
					Year:             year,
					AnnualLeaveLimit: 20,
					UsedDays:         7,
					RemainingDays:    13,
				}, nil
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := testContext(w, http.MethodGet, "/leaves/stats?year=2025", "")
		c.Set("user_id", "EMP_001")

		h.Stats(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		var got leave.LeaveStatsResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, 13, got.RemainingDays)
	})

	t.Run("non-numeric year -> bad request", func(t *testing.T) {
		h := leave.NewHandler(&fakeLeaveService{})
		w := httptest.NewRecorder()
		c, _ := testContext(w, http.MethodGet, "/leaves/stats?year=twenty", "")
		c.Set("user_id", "EMP_001")

		h.Stats(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
