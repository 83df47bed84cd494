package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DEVASANJAY001/qamatrixx/internal/api/middleware"
	"github.com/DEVASANJAY001/qamatrixx/internal/service"
	pkgerrors "github.com/DEVASANJAY001/qamatrixx/pkg/errors"
	"github.com/DEVASANJAY001/qamatrixx/pkg/response"
)

// ImportHandler 导入模块 HTTP 处理器
type ImportHandler struct {
	importSvc service.ImportService
}

// NewImportHandler 创建 ImportHandler
func NewImportHandler(importSvc service.ImportService) *ImportHandler {
	return &ImportHandler{importSvc: importSvc}
}

// ImportConcerns 上传表格追加导入
// POST /api/v1/concerns/import  (multipart, 字段名 file)
func (h *ImportHandler) ImportConcerns(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		response.BadRequest(c, 10001, "请上传文件（字段名 file）")
		return
	}

	format, err := service.FormatFromFilename(fh.Filename)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	callerID, ok := MustGetOperatorID(c)
	if !ok {
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.InternalError(c)
		return
	}
	defer f.Close()

	result, err := h.importSvc.Import(c.Request.Context(), f, format, callerID)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	response.Created(c, result)
}

// ResetToBaseline 重置为基线数据（仅管理员）
// POST /api/v1/concerns/reset
func (h *ImportHandler) ResetToBaseline(c *gin.Context) {
	callerID, ok := MustGetOperatorID(c)
	if !ok {
		return
	}

	result, err := h.importSvc.ResetToBaseline(c.Request.Context(), callerID)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	response.OK(c, result)
}

// handleImportError 统一处理导入模块业务错误
func (h *ImportHandler) handleImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrImportUnsupportedFormat):
		response.BadRequest(c, 13001, "仅支持 .xlsx / .csv 文件")
	case errors.Is(err, service.ErrImportNoData):
		response.BadRequest(c, 13002, "文件中没有可导入的记录")
	case errors.Is(err, service.ErrImportTooManyRows):
		response.ErrorWithDetails(c, http.StatusBadRequest, 13003, "导入行数超过上限", err.Error())
	case errors.Is(err, service.ErrImportParseFail):
		response.ErrorWithDetails(c, http.StatusBadRequest, 13004, "文件解析失败", err.Error())
	case errors.Is(err, service.ErrBaselineUnavailable):
		response.Error(c, http.StatusServiceUnavailable, 13005, "基线文件不可用")
	case errors.Is(err, pkgerrors.ErrDuplicateSNo):
		response.Conflict(c, 12011, "序号已存在，请重试")
	default:
		response.InternalError(c)
	}
}
