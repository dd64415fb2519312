package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/EternisAI/dockpanel/internal/api/http/dto"
	"github.com/EternisAI/dockpanel/internal/apierror"
	"github.com/EternisAI/dockpanel/internal/auth"
	"github.com/EternisAI/dockpanel/internal/containers"
	"github.com/EternisAI/dockpanel/internal/daemon"
	"github.com/EternisAI/dockpanel/internal/daemon/daemontest"
	"github.com/EternisAI/dockpanel/internal/users"
	"github.com/docker/docker/api/types/system"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newGuard(t *testing.T) *auth.Guard {
	t.Helper()
	op, err := users.NewOperator(users.OperatorConfig{Username: "admin", Password: "password"})
	require.NoError(t, err)
	guard, err := auth.NewGuard(op, auth.JWTConfig{Secret: "handler-secret"})
	require.NoError(t, err)
	return guard
}

func newMapper(t *testing.T, mode string) *apierror.Mapper {
	t.Helper()
	m, err := apierror.NewMapper(mode)
	require.NoError(t, err)
	return m
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		buf = bytes.NewBuffer(b)
	} else {
		buf = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	guard := newGuard(t)
	r := gin.New()
	r.POST("/auth/login", NewAuthHandler(guard).Login)

	w := doJSON(r, "POST", "/auth/login", dto.LoginRequest{Username: "admin", Password: "password"})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Login successful", resp.Message)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), time.Unix(resp.ExpiresAt, 0), 5*time.Second)

	claims, err := guard.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username())
}

func TestLoginWrongPassword(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", NewAuthHandler(newGuard(t)).Login)

	w := doJSON(r, "POST", "/auth/login", dto.LoginRequest{Username: "admin", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())

	w = doJSON(r, "POST", "/auth/login", dto.LoginRequest{Username: "root", Password: "password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginMissingFields(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", NewAuthHandler(newGuard(t)).Login)

	for _, body := range []map[string]string{
		{"username": "admin"},
		{"password": "password"},
		{"username": "admin", "password": ""},
		{},
	} {
		w := doJSON(r, "POST", "/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, body)
		assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
	}
}

func TestLoginMalformedBody(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", NewAuthHandler(newGuard(t)).Login)

	for _, raw := range []string{"", "{", "not json", `{"username": 42}`} {
		req, _ := http.NewRequest("POST", "/auth/login", strings.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
		assert.JSONEq(t, `{"error":"invalid request body"}`, w.Body.String())
	}
}

type fakeInfo struct {
	info system.Info
	err  error
}

func (f fakeInfo) Info(context.Context) (system.Info, error) {
	return f.info, f.err
}

func TestHello(t *testing.T) {
	r := gin.New()
	r.GET("/", NewSystemHandler(fakeInfo{}, newMapper(t, apierror.ModeCoarse)).Hello)

	w := doJSON(r, "GET", "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Hello from backend!"}`, w.Body.String())
}

func TestDockerInfo(t *testing.T) {
	provider := fakeInfo{info: system.Info{ID: "HOST:1", Name: "box", ServerVersion: "28.5.1", Containers: 3}}
	r := gin.New()
	r.GET("/docker_info", NewSystemHandler(provider, newMapper(t, apierror.ModeCoarse)).DockerInfo)

	w := doJSON(r, "GET", "/docker_info", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message    string         `json:"message"`
		DockerInfo map[string]any `json:"docker_info"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Docker Info", resp.Message)
	assert.Equal(t, "box", resp.DockerInfo["Name"])
	assert.Equal(t, "28.5.1", resp.DockerInfo["ServerVersion"])
	assert.EqualValues(t, 3, resp.DockerInfo["Containers"])
}

func TestDockerInfoDaemonError(t *testing.T) {
	provider := fakeInfo{err: errors.New("Cannot connect to the Docker daemon at unix:///var/run/docker.sock")}
	r := gin.New()
	r.GET("/docker_info", NewSystemHandler(provider, newMapper(t, apierror.ModeCoarse)).DockerInfo)

	w := doJSON(r, "GET", "/docker_info", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Cannot connect to the Docker daemon at unix:///var/run/docker.sock"}`, w.Body.String())
}

func setupContainersRouter(t *testing.T, fake *daemontest.Server, mode string) *gin.Engine {
	t.Helper()
	h, err := daemon.Connect(daemon.Config{Host: fake.Host()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	ch := NewContainersHandler(containers.NewCatalog(h), containers.NewController(h), newMapper(t, mode))
	r := gin.New()
	r.GET("/containers", ch.ListContainers)
	r.POST("/container/:id/start", ch.StartContainer)
	r.POST("/container/:id/stop", ch.StopContainer)
	r.POST("/container/:id/restart", ch.RestartContainer)
	return r
}

func TestListContainers(t *testing.T) {
	webID := daemontest.ID("web")
	fake := daemontest.NewServer(
		daemontest.Container{ID: webID, Names: []string{"/shop-web-1"}, Image: "nginx", State: daemontest.StateRunning, Created: 200,
			Labels: map[string]string{containers.ProjectLabel: "shop"}},
		daemontest.Container{ID: daemontest.ID("job"), Names: []string{"/job"}, Image: "busybox", State: daemontest.StateExited, Created: 100},
	)
	defer fake.Close()
	r := setupContainersRouter(t, fake, apierror.ModeCoarse)

	w := doJSON(r, "GET", "/containers", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.ContainersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Containers, 2)

	web := resp.Containers[0]
	assert.Equal(t, webID, web.ID)
	assert.Equal(t, webID[:12], web.ShortID)
	assert.Equal(t, "shop", web.Service)
	assert.Equal(t, daemontest.StateRunning, web.State)

	job := resp.Containers[1]
	assert.Equal(t, "Unknown", job.Service)
	assert.Equal(t, daemontest.StateExited, job.State)
}

func TestListContainersEmpty(t *testing.T) {
	fake := daemontest.NewServer()
	defer fake.Close()
	r := setupContainersRouter(t, fake, apierror.ModeCoarse)

	w := doJSON(r, "GET", "/containers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Containers","containers":[]}`, w.Body.String())
}

func TestListContainersDaemonFailure(t *testing.T) {
	fake := daemontest.NewServer()
	defer fake.Close()
	fake.FailWith(http.StatusInternalServerError, "daemon is restarting")
	r := setupContainersRouter(t, fake, apierror.ModeCoarse)

	w := doJSON(r, "GET", "/containers", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "daemon is restarting")
}

func TestLifecycleEndpoints(t *testing.T) {
	id := daemontest.ID("web")
	fake := daemontest.NewServer(daemontest.Container{ID: id, Names: []string{"/web"}, State: daemontest.StateExited})
	defer fake.Close()
	r := setupContainersRouter(t, fake, apierror.ModeCoarse)

	w := doJSON(r, "POST", "/container/"+id+"/start", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Container `+id+` started"}`, w.Body.String())
	assert.Equal(t, daemontest.StateRunning, fake.State(id))

	w = doJSON(r, "POST", "/container/web/restart", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Container web restarted"}`, w.Body.String())

	w = doJSON(r, "POST", "/container/"+id+"/stop", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Container `+id+` stopped"}`, w.Body.String())
	assert.Equal(t, daemontest.StateExited, fake.State(id))
}

func TestLifecycleNotFound(t *testing.T) {
	fake := daemontest.NewServer()
	defer fake.Close()

	r := setupContainersRouter(t, fake, apierror.ModeCoarse)
	w := doJSON(r, "POST", "/container/doesnotexist/start", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "No such container: doesnotexist")
	assert.NotContains(t, resp.Error, "start container")

	r = setupContainersRouter(t, fake, apierror.ModePrecise)
	w = doJSON(r, "POST", "/container/doesnotexist/stop", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLifecycleAlreadyInState(t *testing.T) {
	runningID := daemontest.ID("running")
	stoppedID := daemontest.ID("stopped")

	tests := []struct {
		mode   string
		status int
	}{
		{apierror.ModeCoarse, http.StatusInternalServerError},
		{apierror.ModePrecise, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			fake := daemontest.NewServer(
				daemontest.Container{ID: runningID, Names: []string{"/running"}, State: daemontest.StateRunning},
				daemontest.Container{ID: stoppedID, Names: []string{"/stopped"}, State: daemontest.StateExited},
			)
			defer fake.Close()
			r := setupContainersRouter(t, fake, tt.mode)

			w := doJSON(r, "POST", "/container/"+runningID+"/start", nil)
			assert.Equal(t, tt.status, w.Code)
			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, "is already started")
			assert.Equal(t, daemontest.StateRunning, fake.State(runningID))

			w = doJSON(r, "POST", "/container/"+stoppedID+"/stop", nil)
			assert.Equal(t, tt.status, w.Code)
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, "is already stopped")
			assert.Equal(t, daemontest.StateExited, fake.State(stoppedID))

			assert.Equal(t, []string{
				"POST /containers/" + runningID + "/start",
				"POST /containers/" + stoppedID + "/stop",
			}, fake.Calls())
		})
	}
}

func TestLifecycleRejectsShortID(t *testing.T) {
	id := daemontest.ID("web")
	fake := daemontest.NewServer(daemontest.Container{ID: id, Names: []string{"/web"}, State: daemontest.StateExited})
	defer fake.Close()
	r := setupContainersRouter(t, fake, apierror.ModeCoarse)

	w := doJSON(r, "POST", "/container/"+id[:12]+"/start", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, fake.Calls())
	assert.Equal(t, daemontest.StateExited, fake.State(id))
}
