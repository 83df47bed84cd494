package service

import (
	"bytes"
	"context"
	"strconv"

	promdto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/DEVASANJAY001/qamatrixx/internal/model"
	"github.com/DEVASANJAY001/qamatrixx/internal/qamatrix"
)

// MetricsService 以 Prometheus 文本格式暴露看板统计
type MetricsService interface {
	// Exposition 返回文本内容与对应的 Content-Type
	Exposition(ctx context.Context) ([]byte, string, error)
}

type metricsService struct {
	concerns ConcernService
	logger   *zap.Logger
}

// NewMetricsService 创建 MetricsService 实例
func NewMetricsService(concerns ConcernService, logger *zap.Logger) MetricsService {
	return &metricsService{concerns: concerns, logger: logger}
}

func (s *metricsService) Exposition(ctx context.Context) ([]byte, string, error) {
	summary, err := s.concerns.Summary(ctx)
	if err != nil {
		return nil, "", err
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	buf := new(bytes.Buffer)
	enc := expfmt.NewEncoder(buf, format)
	for _, mf := range summaryFamilies(summary) {
		if err := enc.Encode(mf); err != nil {
			s.logger.Error("编码指标失败", zap.String("metric", mf.GetName()), zap.Error(err))
			return nil, "", err
		}
	}
	return buf.Bytes(), string(format), nil
}

// summaryFamilies 将看板统计转换为指标族（均为 gauge）
func summaryFamilies(s *qamatrix.DashboardSummary) []*promdto.MetricFamily {
	ngByLevel := map[model.Level]int{
		model.LevelWorkstation: s.NGWorkstation,
		model.LevelMFG:         s.NGMFG,
		model.LevelPlant:       s.NGPlant,
	}

	ng := gaugeFamily("qa_concerns_ng", "Concerns whose status is NG at the given control level.")
	for _, level := range model.Levels {
		ng.Metric = append(ng.Metric, gauge(float64(ngByLevel[level]), "level", string(level)))
	}

	byRating := gaugeFamily("qa_concerns_by_rating", "Concerns per defect rating, control level and status.")
	for _, rating := range model.DefectRatings {
		for _, level := range model.Levels {
			for _, status := range []model.Status{model.StatusNG, model.StatusOK} {
				byRating.Metric = append(byRating.Metric, gauge(
					float64(s.Count(rating, level, status)),
					"rating", strconv.Itoa(int(rating)),
					"level", string(level),
					"status", string(status),
				))
			}
		}
	}

	total := gaugeFamily("qa_concerns_total", "Concerns in the matrix.")
	total.Metric = []*promdto.Metric{gauge(float64(s.Total))}

	plantOK := gaugeFamily("qa_concerns_plant_ok", "Concerns whose plant status is OK.")
	plantOK.Metric = []*promdto.Metric{gauge(float64(s.PlantOK))}

	return []*promdto.MetricFamily{total, ng, plantOK, byRating}
}

func gaugeFamily(name, help string) *promdto.MetricFamily {
	return &promdto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: promdto.MetricType_GAUGE.Enum(),
	}
}

// gauge labels 为 name, value 交替排列
func gauge(value float64, labels ...string) *promdto.Metric {
	m := &promdto.Metric{Gauge: &promdto.Gauge{Value: proto.Float64(value)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &promdto.LabelPair{
			Name:  proto.String(labels[i]),
			Value: proto.String(labels[i+1]),
		})
	}
	return m
}
