package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DEVASANJAY001/qamatrixx/internal/service"
	"github.com/DEVASANJAY001/qamatrixx/pkg/response"
)

// MetricsHandler 指标暴露处理器
type MetricsHandler struct {
	metricsSvc service.MetricsService
}

// NewMetricsHandler 创建 MetricsHandler
func NewMetricsHandler(metricsSvc service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metricsSvc: metricsSvc}
}

// Metrics Prometheus 文本格式指标
// GET /metrics
func (h *MetricsHandler) Metrics(c *gin.Context) {
	body, contentType, err := h.metricsSvc.Exposition(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	c.Data(http.StatusOK, contentType, body)
}
