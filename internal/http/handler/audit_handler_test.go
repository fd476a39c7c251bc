package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/testutil"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
)

type auditPage struct {
	Data  []domain.AuditLogDTO `json:"data"`
	Total int64                `json:"total"`
}

func TestAuditTrail(t *testing.T) {
	env := newTestEnv(t)
	lead := testutil.CreateTestLead(t, env.db, env.vendorID, testutil.WithStage(workflow.StageOrderLogin))
	base := "/leads/" + itoa(lead.ID)
	city := "Nashik"

	rr := env.do(t, workflow.RoleSalesExecutive, http.MethodPut, base, domain.UpdateLeadRequest{City: &city})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	badEmail := "nope"
	rr = env.do(t, workflow.RoleSalesExecutive, http.MethodPut, base, domain.UpdateLeadRequest{Email: &badEmail})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, workflow.RoleService, http.MethodPut, base+"/readiness/dispatch-planning", workflow.Facts{IsReadyForDispatch: true})
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("category", "production-files"))
	fw, err := mw.CreateFormFile("file", "cut-list.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4 cut list"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, base+"/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	env.authorize(req, workflow.RoleProduction)
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	doc := decode[domain.DocumentDTO](t, rr)

	rr = env.do(t, workflow.RoleAdmin, http.MethodGet, base+"/audit", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	page := decode[auditPage](t, rr)
	require.EqualValues(t, 3, page.Total)

	byEntity := make(map[string]domain.AuditLogDTO, len(page.Data))
	for _, e := range page.Data {
		require.NotNil(t, e.LeadID)
		assert.Equal(t, lead.ID, *e.LeadID)
		byEntity[e.EntityType] = e
	}

	t.Run("lead edit records the editor and the changed fields", func(t *testing.T) {
		e, ok := byEntity["Lead"]
		require.True(t, ok)
		assert.Equal(t, domain.AuditActionUpdate, e.Action)
		assert.Equal(t, uuid.NewSHA1(env.vendorID, []byte(workflow.RoleSalesExecutive)), e.UserID)
		assert.Equal(t, string(workflow.RoleSalesExecutive), e.Role)
		assert.Equal(t, "Nashik", e.NewValues["city"])
		assert.Equal(t, "PUT /leads/{id}", e.Route)
	})

	t.Run("fact push records the service account", func(t *testing.T) {
		e, ok := byEntity["ReadinessFacts"]
		require.True(t, ok)
		assert.Equal(t, domain.AuditActionUpdate, e.Action)
		assert.Equal(t, "dispatch-planning", e.EntityID)
		assert.Equal(t, string(workflow.RoleService), e.Role)
	})

	t.Run("document upload records the stored document", func(t *testing.T) {
		e, ok := byEntity["LeadDocument"]
		require.True(t, ok)
		assert.Equal(t, domain.AuditActionCreate, e.Action)
		assert.Equal(t, doc.ID.String(), e.EntityID)
		assert.Equal(t, "cut-list.pdf", e.NewValues["filename"])
	})

	t.Run("reads are not audited", func(t *testing.T) {
		rr := env.do(t, workflow.RoleAdmin, http.MethodGet, base+"/audit", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.EqualValues(t, 3, decode[auditPage](t, rr).Total)
	})

	t.Run("trail is admin only", func(t *testing.T) {
		rr := env.do(t, workflow.RoleSalesExecutive, http.MethodGet, base+"/audit", nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("another vendor's lead is not found", func(t *testing.T) {
		other := testutil.CreateTestLead(t, env.db, uuid.New())
		rr := env.do(t, workflow.RoleAdmin, http.MethodGet, "/leads/"+itoa(other.ID)+"/audit", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestAuditTrail_SoftDelete(t *testing.T) {
	env := newTestEnv(t)
	lead := testutil.CreateTestLead(t, env.db, env.vendorID)

	rr := env.do(t, workflow.RoleAdmin, http.MethodDelete, "/leads/"+itoa(lead.ID), nil)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	var logs []domain.AuditLog
	require.NoError(t, env.db.Where("lead_id = ?", lead.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.AuditActionDelete, logs[0].Action)
	assert.Equal(t, "Lead", logs[0].EntityType)
	assert.Equal(t, itoa(lead.ID), logs[0].EntityID)
	assert.Equal(t, env.vendorID, logs[0].VendorID)
	assert.Equal(t, workflow.RoleAdmin, logs[0].Role)
}
