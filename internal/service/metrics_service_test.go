package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	promdto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"github.com/DEVASANJAY001/qamatrixx/internal/model"
)

func labelValue(m *promdto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestMetricsService_Exposition(t *testing.T) {
	concerns, mocks, _ := setupTestConcernService()
	seedConcern(mocks.concern, 1, model.DefectRating1, func(c *model.QAConcern) {
		c.Trim["T10"] = intPtr(1)
		c.QControlDetail["CVT"] = intPtr(1)
	})
	seedConcern(mocks.concern, 2, model.DefectRating5, nil)
	seedConcern(mocks.concern, 3, model.DefectRating5, nil)

	svc := NewMetricsService(concerns, zap.NewNop())
	body, contentType, err := svc.Exposition(context.Background())
	if err != nil {
		t.Fatalf("Exposition 应成功: %v", err)
	}
	if !strings.HasPrefix(contentType, "text/plain") {
		t.Errorf("Content-Type 不符合预期: %s", contentType)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("输出应为合法的文本格式: %v", err)
	}

	if got := families["qa_concerns_total"].GetMetric()[0].GetGauge().GetValue(); got != 3 {
		t.Errorf("期望 qa_concerns_total=3，实际=%v", got)
	}
	if got := families["qa_concerns_plant_ok"].GetMetric()[0].GetGauge().GetValue(); got != 1 {
		t.Errorf("期望 qa_concerns_plant_ok=1，实际=%v", got)
	}

	for _, m := range families["qa_concerns_ng"].GetMetric() {
		if m.GetGauge().GetValue() != 2 {
			t.Errorf("level=%s 期望 NG=2，实际=%v", labelValue(m, "level"), m.GetGauge().GetValue())
		}
	}

	byRating := families["qa_concerns_by_rating"].GetMetric()
	if len(byRating) != 18 {
		t.Fatalf("期望 3 等级 × 3 层级 × 2 判定 = 18 条，实际=%d", len(byRating))
	}
	for _, m := range byRating {
		if labelValue(m, "rating") == "5" && labelValue(m, "level") == "MFG" && labelValue(m, "status") == "NG" {
			if m.GetGauge().GetValue() != 2 {
				t.Errorf("期望 rating=5 MFG NG=2，实际=%v", m.GetGauge().GetValue())
			}
		}
	}
}
