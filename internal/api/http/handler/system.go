package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/EternisAI/dockpanel/internal/api/http/dto"
	"github.com/EternisAI/dockpanel/internal/apierror"
	"github.com/EternisAI/dockpanel/internal/daemon"
	"github.com/docker/docker/api/types/system"
	"github.com/gin-gonic/gin"
)

type InfoProvider interface {
	Info(ctx context.Context) (system.Info, error)
}

type SystemHandler struct {
	info   InfoProvider
	mapper *apierror.Mapper
}

func NewSystemHandler(info InfoProvider, mapper *apierror.Mapper) *SystemHandler {
	return &SystemHandler{info: info, mapper: mapper}
}

// GET /
func (h *SystemHandler) Hello(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Hello from backend!"})
}

// DockerInfo returns the daemon's host information unchanged.
// GET /docker_info
func (h *SystemHandler) DockerInfo(c *gin.Context) {
	info, err := h.info.Info(c.Request.Context())
	if err != nil {
		err = &daemon.Error{Op: "get daemon info", Err: err}
		slog.Error("Failed to get daemon info", "error", err)
		respondError(c, h.mapper.FromDaemon(err))
		return
	}

	c.JSON(http.StatusOK, dto.DockerInfoResponse{
		Message:    "Docker Info",
		DockerInfo: &info,
	})
}
