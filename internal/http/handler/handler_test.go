package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woodcraft-crm/leadflow-api/internal/auth"
	"github.com/woodcraft-crm/leadflow-api/internal/cache"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/http/handler"
	"github.com/woodcraft-crm/leadflow-api/internal/http/middleware"
	"github.com/woodcraft-crm/leadflow-api/internal/repository"
	"github.com/woodcraft-crm/leadflow-api/internal/service"
	"github.com/woodcraft-crm/leadflow-api/internal/storage"
	"github.com/woodcraft-crm/leadflow-api/internal/testutil"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	store    *cache.MemoryStore
	router   http.Handler
	vendorID uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	db := testutil.SetupTestDB(t)
	store := cache.NewMemoryStore()

	files, err := storage.NewLocalStorage(t.TempDir(), logger)
	require.NoError(t, err)

	numbers := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), logger)
	leads := service.NewLeadService(
		repository.NewLeadRepository(db),
		repository.NewLeadHistoryRepository(db),
		numbers,
		store,
		time.Minute,
		logger,
	)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), logger)
	readiness := service.NewReadinessService(
		repository.NewReadinessFactRepository(db),
		leads,
		nil,
		files,
		store,
		service.ReadinessOptions{Timeout: 5 * time.Second, CacheTTL: time.Minute, Locale: "en"},
		logger,
	)
	documents := service.NewDocumentService(repository.NewDocumentRepository(db), leads, files, store, logger)
	audits := service.NewAuditLogService(repository.NewAuditLogRepository(db), leads, logger)
	dashboards := service.NewDashboardService(repository.NewLeadRepository(db), store, time.Minute, logger)
	orch := workflow.NewOrchestrator(workflow.Dependencies{
		Leads:     leads,
		Facts:     readiness,
		Stages:    leads,
		Statuses:  leads,
		Notifier:  notifications,
		Navigator: middleware.Navigator{},
		Cache:     store,
	}, workflow.Options{ConfirmTTL: time.Minute}, logger)

	leadH := handler.NewLeadHandler(leads, logger)
	transitionH := handler.NewTransitionHandler(orch, leads, logger)
	readinessH := handler.NewReadinessHandler(readiness, logger)
	documentH := handler.NewDocumentHandler(documents, 1, logger)
	dashboardH := handler.NewDashboardHandler(dashboards, logger)
	notificationH := handler.NewNotificationHandler(notifications, logger)
	stageH := handler.NewStageHandler(logger)
	healthH := handler.NewHealthHandler(db, store, nil, logger)
	auditH := handler.NewAuditHandler(audits, logger)

	r := chi.NewRouter()
	r.Use(middleware.Navigation)
	r.Get("/health/ready", healthH.Ready)
	r.Get("/health/db", healthH.Database)
	r.Group(func(r chi.Router) {
		r.Use(actorFromHeaders)
		r.Use(middleware.NewAuditMiddleware(audits, nil, logger).Audit)
		r.Get("/stages", stageH.List)
		r.Get("/stages/{stage}", stageH.Get)
		r.Post("/leads", leadH.Create)
		r.Get("/leads", leadH.List)
		r.Get("/leads/stats", leadH.Stats)
		r.Get("/leads/{id}", leadH.GetByID)
		r.Put("/leads/{id}", leadH.Update)
		r.Delete("/leads/{id}", leadH.Delete)
		r.Get("/leads/{id}/history", leadH.History)
		r.Get("/leads/{id}/audit", auditH.ListForLead)
		r.Get("/leads/{id}/readiness", readinessH.Check)
		r.Put("/leads/{id}/readiness/{stage}", readinessH.PutFacts)
		r.Get("/leads/{id}/flow", transitionH.Flow)
		r.Post("/leads/{id}/stage-transitions", transitionH.BeginStage)
		r.Post("/leads/{id}/status-transitions", transitionH.BeginStatus)
		r.Post("/intents/{intentId}/confirm", transitionH.Confirm)
		r.Delete("/intents/{intentId}", transitionH.Cancel)
		r.Post("/leads/{id}/documents", documentH.Upload)
		r.Get("/leads/{id}/documents", documentH.List)
		r.Get("/dashboard/{department}", dashboardH.Department)
		r.Get("/notifications", notificationH.List)
		r.Get("/notifications/count", notificationH.GetUnreadCount)
		r.Put("/notifications/read-all", notificationH.MarkAllAsRead)
	})

	return &testEnv{db: db, store: store, router: r, vendorID: uuid.New()}
}

// actorFromHeaders stands in for auth.Middleware. Each role maps to one stable user per vendor.
func actorFromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := uuid.Parse(r.Header.Get("X-Vendor-ID"))
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		role := r.Header.Get("X-Test-Role")
		actor := workflow.ActorContext{
			VendorID: vendorID,
			UserID:   uuid.NewSHA1(vendorID, []byte(role)),
			Role:     workflow.Role(role),
			Name:     "Tester",
		}
		next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
	})
}

func (e *testEnv) do(t *testing.T, role workflow.Role, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	e.authorize(req, role)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) authorize(req *http.Request, role workflow.Role) {
	req.Header.Set("X-Vendor-ID", e.vendorID.String())
	req.Header.Set("X-Test-Role", string(role))
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestLeadHandler_Create(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		role       workflow.Role
		body       interface{}
		wantStatus int
		wantType   string
	}{
		{"sales executive creates", workflow.RoleSalesExecutive, domain.CreateLeadRequest{CustomerName: "Meera Rao", City: "Pune"}, http.StatusCreated, ""},
		{"missing customer name", workflow.RoleSalesExecutive, domain.CreateLeadRequest{City: "Pune"}, http.StatusBadRequest, domain.ErrorTypeValidation},
		{"invalid email", workflow.RoleSalesExecutive, domain.CreateLeadRequest{CustomerName: "A", Email: "nope"}, http.StatusBadRequest, domain.ErrorTypeValidation},
		{"production may not create", workflow.RoleProduction, domain.CreateLeadRequest{CustomerName: "Meera Rao"}, http.StatusForbidden, domain.ErrorTypeForbidden},
		{"malformed body", workflow.RoleSalesExecutive, "not an object", http.StatusBadRequest, domain.ErrorTypeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.role, http.MethodPost, "/leads", tt.body)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantType != "" {
				apiErr := decode[domain.APIError](t, rr)
				assert.Equal(t, tt.wantType, apiErr.Type)
				return
			}
			lead := decode[domain.LeadDTO](t, rr)
			assert.Equal(t, workflow.StageOpen, lead.Stage)
			assert.Equal(t, workflow.StatusActive, lead.ActivityStatus)
			assert.Contains(t, rr.Header().Get("Location"), "/api/v1/leads/")
		})
	}
}

func TestLeadHandler_ListAndGet(t *testing.T) {
	env := newTestEnv(t)
	lead := testutil.CreateTestLead(t, env.db, env.vendorID, testutil.WithStage(workflow.StageDispatchPlanning))
	testutil.CreateTestLead(t, env.db, env.vendorID, testutil.WithHoldDue(time.Now().AddDate(0, 0, 3)))
	other := testutil.CreateTestLead(t, env.db, uuid.New())

	t.Run("filter by listing key", func(t *testing.T) {
		rr := env.do(t, workflow.RoleSalesExecutive, http.MethodGet, "/leads?stage=dispatchPlanning", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		page := decode[struct {
			Data  []domain.LeadDTO `json:"data"`
			Total int64            `json:"total"`
		}](t, rr)
		require.Len(t, page.Data, 1)
		assert.Equal(t, lead.ID, page.Data[0].ID)
	})

	t.Run("pending on-hold listing", func(t *testing.T) {
		rr := env.do(t, workflow.RoleSalesExecutive, http.MethodGet, "/leads?status=onHold", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		page := decode[domain.PaginatedResponse](t, rr)
		assert.EqualValues(t, 1, page.Total)
	})

	for _, q := range []string{"stage=warehouse", "status=sleeping", "assignedTo=bob"} {
		t.Run("rejects "+q, func(t *testing.T) {
			rr := env.do(t, workflow.RoleSalesExecutive, http.MethodGet, "/leads?"+q, nil)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}

	t.Run("get by id", func(t *testing.T) {
		rr := env.do(t, workflow.RoleProduction, http.MethodGet, "/leads/"+itoa(lead.ID), nil)
		require.Equal(t, http.StatusOK, rr.Code)
		got := decode[domain.LeadDTO](t, rr)
		assert.Equal(t, "Dispatch Planning", got.StageLabel)
	})

	t.Run("another vendor's lead is not found", func(t *testing.T) {
		rr := env.do(t, workflow.RoleAdmin, http.MethodGet, "/leads/"+itoa(other.ID), nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rr := env.do(t, workflow.RoleAdmin, http.MethodGet, "/leads/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestTransitionHandler_StageMove(t *testing.T) {
	env := newTestEnv(t)
	lead := testutil.CreateTestLead(t, env.db, env.vendorID)
	base := "/leads/" + itoa(lead.ID)

	rr := env.do(t, workflow.RoleSalesExecutive, http.MethodPost, base+"/stage-transitions", nil)
	require.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())
	blocked := decode[domain.APIError](t, rr)
	assert.Equal(t, domain.ErrorTypeReadinessBlocked, blocked.Type)
	assert.Equal(t, "Open prerequisites are not complete", blocked.Detail)

	rr = env.do(t, workflow.RoleService, http.MethodPut, base+"/readiness/open", workflow.Facts{
		Flags: map[string]bool{"leadDetailsComplete": true},
	})
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = env.do(t, workflow.RoleSalesExecutive, http.MethodGet, base+"/readiness", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[domain.ReadinessDTO](t, rr).Decision.Allowed)

	rr = env.do(t, workflow.RoleSalesExecutive, http.MethodPost, base+"/stage-transitions", domain.StageTransitionRequest{
		Payload: map[string]any{"measuredBy": "Kiran"},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	intent := decode[domain.IntentDTO](t, rr)
	assert.Equal(t, workflow.StateConfirmPending, intent.State)
	assert.Equal(t, workflow.StageInitialSiteMeasurement, intent.To)
	assert.NotEmpty(t, intent.Confirmation)

	rr = env.do(t, workflow.RoleSalesExecutive, http.MethodGet, base+"/flow", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	flow := decode[domain.FlowStateDTO](t, rr)
	assert.Equal(t, workflow.StateConfirmPending, flow.State)
	require.NotNil(t, flow.Intent)
	assert.Equal(t, intent.IntentID, flow.Intent.IntentID)

	rr = env.do(t, workflow.RoleSalesExecutive, http.MethodPost, "/intents/"+intent.IntentID.String()+"/confirm", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "/dashboard/site-supervisor/initial-site-measurement/", rr.Header().Get(middleware.NavigateToHeader))
	result := decode[domain.TransitionResultDTO](t, rr)
	assert.Equal(t, workflow.StateSucceeded, result.State)
	require.NotNil(t, result.Lead)
	assert.Equal(t, workflow.StageInitialSiteMeasurement, result.Lead.Stage)
	assert.NotEmpty(t, result.Invalidated)

	t.Run("a confirmed intent cannot be replayed", func(t *testing.T) {
		rr := env.do(t, workflow.RoleSalesExecutive, http.MethodPost, "/intents/"+intent.IntentID.String()+"/confirm", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("history shows the move", func(t *testing.T) {
		rr := env.do(t, workflow.RoleSalesExecutive, http.MethodGet, base+"/history", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		history := decode[domain.LeadHistoryDTO](t, rr)
		require.Len(t, history.Stages, 1)
		assert.Equal(t, "Kiran", history.Stages[0].Payload["measuredBy"])
	})

	t.Run("the actor was notified", func(t *testing.T) {
		rr := env.do(t, workflow.RoleSalesExecutive, http.MethodGet, "/notifications/count", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, decode[map[string]int](t, rr)["count"])
	})
}

func TestTransitionHandler_StatusChange(t *testing.T) {
	env := newTestEnv(t)
	lead := testutil.CreateTestLead(t, env.db, env.vendorID)
	path := "/leads/" + itoa(lead.ID) + "/status-transitions"
	due := time.Now().AddDate(0, 0, 7).Format("2006-01-02")

	tests := []struct {
		name       string
		role       workflow.Role
		body       domain.StatusTransitionRequest
		wantStatus int
		wantField  string
	}{
		{"hold without due date", workflow.RoleSalesExecutive, domain.StatusTransitionRequest{Status: workflow.StatusOnHold, Remark: "Customer travelling"}, http.StatusBadRequest, "dueDate"},
		{"hold without remark", workflow.RoleSalesExecutive, domain.StatusTransitionRequest{Status: workflow.StatusOnHold, DueDate: due}, http.StatusBadRequest, "remark"},
		{"malformed due date", workflow.RoleSalesExecutive, domain.StatusTransitionRequest{Status: workflow.StatusOnHold, Remark: "x", DueDate: "next week"}, http.StatusBadRequest, "dueDate"},
		{"unknown status", workflow.RoleSalesExecutive, domain.StatusTransitionRequest{Status: "paused", Remark: "x"}, http.StatusBadRequest, "status"},
		{"approve lost from active is illegal", workflow.RoleAdmin, domain.StatusTransitionRequest{Status: workflow.StatusLost, Remark: "x"}, http.StatusUnprocessableEntity, ""},
		{"production may not hold", workflow.RoleProduction, domain.StatusTransitionRequest{Status: workflow.StatusOnHold, Remark: "x", DueDate: due}, http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.role, http.MethodPost, path, tt.body)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantField != "" {
				apiErr := decode[domain.APIError](t, rr)
				assert.Contains(t, apiErr.Errors, tt.wantField)
			}
		})
	}

	t.Run("hold then cancel", func(t *testing.T) {
		rr := env.do(t, workflow.RoleSalesExecutive, http.MethodPost, path, domain.StatusTransitionRequest{
			Status: workflow.StatusOnHold, Remark: "Customer travelling", DueDate: due,
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		intent := decode[domain.IntentDTO](t, rr)
		assert.Equal(t, workflow.StatusOnHold, intent.ToStatus)
		assert.Contains(t, intent.Confirmation, due)

		rr = env.do(t, workflow.RoleSalesExecutive, http.MethodDelete, "/intents/"+intent.IntentID.String(), nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = env.do(t, workflow.RoleSalesExecutive, http.MethodGet, "/leads/"+itoa(lead.ID)+"/flow", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, workflow.StateIdle, decode[domain.FlowStateDTO](t, rr).State)
	})

	t.Run("confirming an unknown intent", func(t *testing.T) {
		rr := env.do(t, workflow.RoleSalesExecutive, http.MethodPost, "/intents/"+uuid.NewString()+"/confirm", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = env.do(t, workflow.RoleSalesExecutive, http.MethodPost, "/intents/not-a-uuid/confirm", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestReadinessHandler_PutFacts(t *testing.T) {
	env := newTestEnv(t)
	lead := testutil.CreateTestLead(t, env.db, env.vendorID)
	base := "/leads/" + itoa(lead.ID) + "/readiness/"

	tests := []struct {
		name       string
		role       workflow.Role
		stage      string
		wantStatus int
	}{
		{"wire value", workflow.RoleService, "dispatch-planning", http.StatusNoContent},
		{"listing key", workflow.RoleService, "dispatchPlanning", http.StatusNoContent},
		{"unknown stage", workflow.RoleService, "warehouse", http.StatusBadRequest},
		{"sales may not push facts", workflow.RoleSalesExecutive, "open", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.role, http.MethodPut, base+tt.stage, workflow.Facts{IsReadyForDispatch: true})
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestDocumentHandler_Upload(t *testing.T) {
	env := newTestEnv(t)
	lead := testutil.CreateTestLead(t, env.db, env.vendorID, testutil.WithStage(workflow.StageOrderLogin))
	path := "/leads/" + itoa(lead.ID) + "/documents"

	upload := func(t *testing.T, fields map[string]string, withFile bool) *httptest.ResponseRecorder {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for k, v := range fields {
			require.NoError(t, mw.WriteField(k, v))
		}
		if withFile {
			fw, err := mw.CreateFormFile("file", "cut-list.pdf")
			require.NoError(t, err)
			_, err = fw.Write([]byte("%PDF-1.4 cut list"))
			require.NoError(t, err)
		}
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		env.authorize(req, workflow.RoleProduction)
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("production files", func(t *testing.T) {
		rr := upload(t, map[string]string{"category": "production-files"}, true)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		doc := decode[domain.DocumentDTO](t, rr)
		assert.Equal(t, workflow.StageOrderLogin, doc.Stage)
		assert.Equal(t, "cut-list.pdf", doc.Filename)
	})

	t.Run("missing file", func(t *testing.T) {
		rr := upload(t, map[string]string{"category": "production-files"}, false)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown stage folder", func(t *testing.T) {
		rr := upload(t, map[string]string{"category": "production-files", "stage": "attic"}, true)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("list", func(t *testing.T) {
		rr := env.do(t, workflow.RoleProduction, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decode[[]domain.DocumentDTO](t, rr), 1)
	})
}

func TestDashboardHandler_Department(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateTestLead(t, env.db, env.vendorID, testutil.WithStage(workflow.StageProduction))

	rr := env.do(t, workflow.RoleProduction, http.MethodGet, "/dashboard/production", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	dash := decode[domain.DashboardDTO](t, rr)
	assert.Equal(t, workflow.DepartmentProduction, dash.Department)
	require.NotEmpty(t, dash.Stages)

	rr = env.do(t, workflow.RoleProduction, http.MethodGet, "/dashboard/marketing", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestNotificationHandler_List(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, workflow.RoleSalesExecutive, http.MethodGet, "/notifications?type=hold_reminder", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, workflow.RoleSalesExecutive, http.MethodGet, "/notifications?type=gossip", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, workflow.RoleSalesExecutive, http.MethodPut, "/notifications/read-all", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestStageHandler(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, workflow.RoleSalesExecutive, http.MethodGet, "/stages", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	stages := decode[[]workflow.StageDescriptor](t, rr)
	assert.Len(t, stages, len(workflow.AllStages()))

	rr = env.do(t, workflow.RoleSalesExecutive, http.MethodGet, "/stages/final-handover", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, workflow.RoleSalesExecutive, http.MethodGet, "/stages/attic", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealthHandler(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode[struct {
		Status string                            `json:"status"`
		Checks map[string]map[string]interface{} `json:"checks"`
	}](t, rr)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "disabled", body.Checks["datawarehouse"]["status"])

	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/db", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
