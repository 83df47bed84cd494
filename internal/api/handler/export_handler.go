package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DEVASANJAY001/qamatrixx/internal/dto"
	"github.com/DEVASANJAY001/qamatrixx/internal/service"
	"github.com/DEVASANJAY001/qamatrixx/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportXLSX 导出当前筛选视图为 Excel
// GET /api/v1/export/concerns.xlsx?<列表查询参数>
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	var req dto.ConcernListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportXLSX(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, contentTypeXLSX, filename, buf.Bytes())
}

// ExportCSV 导出当前筛选视图为 CSV
// GET /api/v1/export/concerns.csv?<列表查询参数>
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	var req dto.ConcernListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportCSV(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, contentTypeCSV, filename, buf.Bytes())
}

// handleExportError 统一处理导出模块业务错误
func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 14001, "生成导出文件失败")
	default:
		response.InternalError(c)
	}
}
