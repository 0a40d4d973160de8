package service_test

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zettahub/internal/dto"
	"zettahub/internal/repo"
)

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	rec, _ := e.do(t, http.MethodPost, "/api/admin/signup", map[string]any{
		"username": "root", "password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, resp := e.do(t, http.MethodPost, "/api/admin/login", map[string]any{
		"username": "root", "password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok dto.TokenResponse
	require.NoError(t, json.Unmarshal(resp.Data, &tok))
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestAdminSignupDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{"username": "root", "password": "hunter22"}
	rec, _ := env.do(t, http.MethodPost, "/api/admin/signup", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp := env.do(t, http.MethodPost, "/api/admin/signup", body, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.UsernameDuplicate, resp.Error.Code)
}

func TestAdminLoginBadPassword(t *testing.T) {
	env := newTestEnv(t)
	env.adminToken(t)

	rec, resp := env.do(t, http.MethodPost, "/api/admin/login", map[string]any{
		"username": "root", "password": "wrong",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.Unauthorized, resp.Error.Code)
}

func TestAdminLoginUnknownUsername(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/admin/login", map[string]any{
		"username": "ghost", "password": "whatever",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/api/admin/dashboard", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/admin/dashboard", nil, bearer("not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.repo.counts = repo.Counts{Events: 3, Registrations: 7, Users: 5}
	env.repo.recent = []repo.RecentRegistration{
		{ID: "R1", UserName: "Ava", EventTitle: "Hack Night", RegisteredAt: time.Now()},
	}
	token := env.adminToken(t)

	rec, resp := env.do(t, http.MethodGet, "/api/admin/dashboard", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dash dto.DashboardResponse
	require.NoError(t, json.Unmarshal(resp.Data, &dash))
	assert.Equal(t, "Welcome, Admin root!", dash.Message)
	assert.Equal(t, 3, dash.Stats.TotalEvents)
	assert.Equal(t, 7, dash.Stats.TotalRegistrations)
	assert.Equal(t, 5, dash.Stats.TotalUsers)
	require.Len(t, dash.RecentRegistrations, 1)
	assert.Equal(t, "Hack Night", dash.RecentRegistrations[0].EventTitle)
}

func TestAdminEventStats(t *testing.T) {
	env := newTestEnv(t)
	env.repo.event = hackNight()
	token := env.adminToken(t)

	env.do(t, http.MethodPost, "/api/register", map[string]any{
		"event_id": "E1", "name": "Ava", "email": "ava@x.com",
	}, nil)

	rec, resp := env.do(t, http.MethodGet, "/api/admin/events/E1/stats", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stats dto.EventStatsResponse
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.Equal(t, "Hack Night", stats.Event.Title)
	assert.Equal(t, 1, stats.Registrations.Total)
	assert.Equal(t, float64(3), stats.Registrations.AvailableSpots)
}

func TestAdminEventStatsUnlimited(t *testing.T) {
	env := newTestEnv(t)
	env.repo.event = hackNight()
	env.repo.event.MaxTeamSize = 0
	token := env.adminToken(t)

	_, resp := env.do(t, http.MethodGet, "/api/admin/events/E1/stats", nil, bearer(token))

	var stats dto.EventStatsResponse
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.Equal(t, "unlimited", stats.Registrations.AvailableSpots)
}

func TestAdminDeleteRegistrationRemovesArtifact(t *testing.T) {
	env := newTestEnv(t)
	env.repo.event = hackNight()
	token := env.adminToken(t)

	_, resp := env.do(t, http.MethodPost, "/api/register", map[string]any{
		"event_id": "E1", "name": "Ava", "email": "ava@x.com",
	}, nil)
	var reg dto.RegistrationResponse
	require.NoError(t, json.Unmarshal(resp.Data, &reg))

	artifact := filepath.Join(env.qrDir, reg.ID+".png")
	_, err := os.Stat(artifact)
	require.NoError(t, err)

	rec, _ := env.do(t, http.MethodDelete, "/api/admin/registrations/"+reg.ID, nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reg.ID, env.repo.deletedRegID)

	_, err = os.Stat(artifact)
	assert.True(t, os.IsNotExist(err))
}

func TestAdminDeleteRegistrationNotFound(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	rec, resp := env.do(t, http.MethodDelete, "/api/admin/registrations/ghost", nil, bearer(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.RegistrationNotFound, resp.Error.Code)
}

func TestAdminCreateEventSetsCreator(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	rec, resp := env.do(t, http.MethodPost, "/api/admin/events", map[string]any{
		"title": "Demo Day",
		"date":  time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	}, bearer(token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var event dto.EventResponse
	require.NoError(t, json.Unmarshal(resp.Data, &event))
	assert.Equal(t, "root", event.CreatedBy)
	assert.NotEmpty(t, event.ID)
}
