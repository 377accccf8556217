package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencivic/civicflow-api/internal/service"
	"github.com/opencivic/civicflow-api/pkg/response"
)

// ExportHandler streams the department tender register.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// TenderRegister godoc
// @Summary Export a department's tender register
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Department ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /departments/{id}/tenders/export [get]
func (h *ExportHandler) TenderRegister(c *gin.Context) {
	file, err := h.exports.TenderRegister(c.Request.Context(), actorFromContext(c),
		c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
