package dto

import (
	"github.com/EternisAI/dockpanel/internal/apierror"
	"github.com/docker/docker/api/types/system"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewErrorResponse(apiErr *apierror.APIError) ErrorResponse {
	return ErrorResponse{Error: apiErr.Description}
}

type DockerInfoResponse struct {
	Message    string       `json:"message"`
	DockerInfo *system.Info `json:"docker_info"`
}

type ContainersResponse struct {
	Message    string              `json:"message"`
	Containers []ContainerResponse `json:"containers"`
}

type ContainerResponse struct {
	ID      string   `json:"id"`
	ShortID string   `json:"short_id"`
	Names   []string `json:"names"`
	Image   string   `json:"image"`
	State   string   `json:"state"`
	Status  string   `json:"status"`
	Created int64    `json:"created"`
	Service string   `json:"service"`
}
