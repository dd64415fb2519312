package handler

import (
	"github.com/EternisAI/dockpanel/internal/api/http/dto"
	"github.com/EternisAI/dockpanel/internal/apierror"
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, apiErr *apierror.APIError) {
	c.JSON(apiErr.Status, dto.NewErrorResponse(apiErr))
}
