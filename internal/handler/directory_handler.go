package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencivic/civicflow-api/internal/service"
	"github.com/opencivic/civicflow-api/pkg/response"
)

// DirectoryHandler exposes the identity and reference data read surface.
type DirectoryHandler struct {
	directory *service.DirectoryService
}

// NewDirectoryHandler constructs DirectoryHandler.
func NewDirectoryHandler(directory *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// Me godoc
// @Summary Return the resolved acting identity
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me [get]
func (h *DirectoryHandler) Me(c *gin.Context) {
	response.JSON(c, http.StatusOK, actorFromContext(c), nil)
}

// ListAreas godoc
// @Summary List the area register
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /areas [get]
func (h *DirectoryHandler) ListAreas(c *gin.Context) {
	areas, err := h.directory.ListAreas(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, areas, nil)
}

// ListDepartments godoc
// @Summary List the department register
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *DirectoryHandler) ListDepartments(c *gin.Context) {
	departments, err := h.directory.ListDepartments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, nil)
}
