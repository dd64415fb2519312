package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/EternisAI/dockpanel/internal/api/http/dto"
	"github.com/EternisAI/dockpanel/internal/apierror"
	"github.com/EternisAI/dockpanel/internal/containers"
	"github.com/gin-gonic/gin"
)

type ContainersHandler struct {
	catalog    *containers.Catalog
	controller *containers.Controller
	mapper     *apierror.Mapper
}

func NewContainersHandler(catalog *containers.Catalog, controller *containers.Controller, mapper *apierror.Mapper) *ContainersHandler {
	return &ContainersHandler{
		catalog:    catalog,
		controller: controller,
		mapper:     mapper,
	}
}

// ListContainers returns every container known to the daemon
// GET /containers
func (h *ContainersHandler) ListContainers(c *gin.Context) {
	records, err := h.catalog.List(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list containers", "error", err)
		respondError(c, h.mapper.FromDaemon(err))
		return
	}

	resp := dto.ContainersResponse{
		Message:    "Containers",
		Containers: make([]dto.ContainerResponse, len(records)),
	}
	for i, r := range records {
		resp.Containers[i] = dto.ContainerResponse{
			ID:      r.ID,
			ShortID: r.ShortID,
			Names:   r.Names,
			Image:   r.Image,
			State:   r.State,
			Status:  r.Status,
			Created: r.Created,
			Service: r.Service,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// POST /container/:id/start
func (h *ContainersHandler) StartContainer(c *gin.Context) {
	h.lifecycle(c, containers.ActionStart)
}

// POST /container/:id/stop
func (h *ContainersHandler) StopContainer(c *gin.Context) {
	h.lifecycle(c, containers.ActionStop)
}

// POST /container/:id/restart
func (h *ContainersHandler) RestartContainer(c *gin.Context) {
	h.lifecycle(c, containers.ActionRestart)
}

func (h *ContainersHandler) lifecycle(c *gin.Context, action containers.Action) {
	id := c.Param("id")

	if err := h.controller.Do(c.Request.Context(), action, id); err != nil {
		if errors.Is(err, containers.ErrInvalidID) {
			respondError(c, apierror.BadRequest(err.Error()))
			return
		}
		slog.Error("Container lifecycle command failed",
			"action", action,
			"container_id", id,
			"error", err)
		respondError(c, h.mapper.FromDaemon(err))
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: fmt.Sprintf("Container %s %s", id, action.Past()),
	})
}
