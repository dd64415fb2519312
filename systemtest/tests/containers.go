package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/EternisAI/dockpanel/internal/api/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystem(t *testing.T, router *gin.Engine) {
	token := login(t, router)

	t.Run("hello", func(t *testing.T) {
		rr := doJSONWithAuth(router, "GET", "/", nil, token)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"Hello from backend!"}`, rr.Body.String())
	})

	t.Run("docker info", func(t *testing.T) {
		rr := doJSONWithAuth(router, "GET", "/docker_info", nil, token)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Message    string         `json:"message"`
			DockerInfo map[string]any `json:"docker_info"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Docker Info", resp.Message)
		assert.NotEmpty(t, resp.DockerInfo["ServerVersion"])
	})
}

func TestContainers(t *testing.T, router *gin.Engine, webID string) {
	token := login(t, router)

	list := func(t *testing.T) []dto.ContainerResponse {
		rr := doJSONWithAuth(router, "GET", "/containers", nil, token)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp dto.ContainersResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.NotNil(t, resp.Containers)
		return resp.Containers
	}

	find := func(t *testing.T, id string) dto.ContainerResponse {
		for _, c := range list(t) {
			if c.ID == id {
				return c
			}
		}
		t.Fatalf("container %s not listed", id)
		return dto.ContainerResponse{}
	}

	t.Run("list is enriched and ordered", func(t *testing.T) {
		items := list(t)
		require.Len(t, items, 2)

		assert.Equal(t, webID, items[0].ID)
		assert.Equal(t, webID[:12], items[0].ShortID)
		assert.Equal(t, "shop", items[0].Service)
		assert.Equal(t, "Unknown", items[1].Service)
		assert.Greater(t, items[0].Created, items[1].Created)
	})

	t.Run("list is idempotent", func(t *testing.T) {
		assert.Equal(t, list(t), list(t))
	})

	t.Run("start then stop round trip", func(t *testing.T) {
		before := find(t, webID)
		require.Equal(t, "exited", before.State)

		rr := doJSONWithAuth(router, "POST", "/container/"+webID+"/start", nil, token)
		require.Equal(t, http.StatusOK, rr.Code)
		started := find(t, webID)
		assert.Equal(t, "running", started.State)
		assert.NotEqual(t, before.Status, started.Status)

		rr = doJSONWithAuth(router, "POST", "/container/"+webID+"/stop", nil, token)
		require.Equal(t, http.StatusOK, rr.Code)
		stopped := find(t, webID)
		assert.Equal(t, "exited", stopped.State)
		assert.Equal(t, before.Status, stopped.Status)
	})

	t.Run("restart", func(t *testing.T) {
		rr := doJSONWithAuth(router, "POST", "/container/shop-web-1/restart", nil, token)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "running", find(t, webID).State)
	})

	t.Run("start on a running container is a daemon error", func(t *testing.T) {
		rr := doJSONWithAuth(router, "POST", "/container/shop-web-1/start", nil, token)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Contains(t, resp.Error, "is already started")
		assert.Equal(t, "running", find(t, webID).State)
	})

	t.Run("unknown container is a daemon error", func(t *testing.T) {
		rr := doJSONWithAuth(router, "POST", "/container/doesnotexist/start", nil, token)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Contains(t, resp.Error, "No such container: doesnotexist")
	})

	t.Run("short id is rejected", func(t *testing.T) {
		rr := doJSONWithAuth(router, "POST", "/container/"+webID[:12]+"/start", nil, token)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
