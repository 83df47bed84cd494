package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/DEVASANJAY001/qamatrixx/config"
	"github.com/DEVASANJAY001/qamatrixx/internal/model"
)

// ── 测试辅助 ──

func setupTestImportService(maxRows int) (ImportService, *testRepos, *config.MatrixConfig) {
	repo, mocks := newTestRepos()
	cfg := &config.MatrixConfig{
		MaxImportRows:   maxRows,
		ExportSheetName: "QA Matrix",
	}
	svc := NewImportService(cfg, repo, newMockCache(), zap.NewNop())
	return svc, mocks, cfg
}

const fuzzyCSV = `Src,Operation Station,Area,Description,Defect Rating (1/3/5),Responsible,MFG Action,Target Date
Warranty,T20,Trim,Loose clip,3,J. Doe,Add torque check,W12
,C40,Chassis,Scratch on panel,4,,,
Audit,F10,Final,,5,,,
Audit,F20,final,Water leak,,QA,,
`

func buildXLSX(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		ref, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow("Sheet1", ref, &r); err != nil {
			t.Fatalf("写入测试表格失败: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("生成测试表格失败: %v", err)
	}
	return buf
}

// ── Parse 测试 ──

func TestImportService_Parse_FuzzyHeadersCSV(t *testing.T) {
	svc, _, _ := setupTestImportService(100)

	records, err := svc.Parse(strings.NewReader(fuzzyCSV), FormatCSV, 10)
	if err != nil {
		t.Fatalf("Parse 应成功: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("描述为空的行应跳过，期望3条，实际=%d", len(records))
	}

	first := records[0]
	if first.SNo != 10 || first.Source != "Warranty" || first.OperationStation != "T20" ||
		first.Designation != "Trim" || first.Concern != "Loose clip" || first.DefectRating != model.DefectRating3 ||
		first.Resp != "J. Doe" || first.MFGAction != "Add torque check" || first.Target != "W12" {
		t.Errorf("第一条记录解析不符合预期: %+v", first)
	}

	second := records[1]
	if second.SNo != 11 {
		t.Errorf("序号应连续，期望11，实际=%d", second.SNo)
	}
	if second.Source != "Import" {
		t.Errorf("来源为空时应记为 Import，实际=%q", second.Source)
	}
	if second.DefectRating != model.DefectRating1 {
		t.Errorf("非法缺陷等级应按 1 处理，实际=%d", second.DefectRating)
	}

	third := records[2]
	if third.SNo != 12 || third.DefectRating != model.DefectRating1 {
		t.Errorf("空缺陷等级应按 1 处理: %+v", third)
	}

	for _, r := range records {
		if r.RecurrenceCountPlusDefect != int(r.DefectRating) {
			t.Errorf("SNo=%d 应已派生 RC+DR", r.SNo)
		}
		if r.MFGStatus != model.StatusNG || r.PlantStatus != model.StatusNG {
			t.Errorf("SNo=%d 无评分时判定应为 NG", r.SNo)
		}
		if len(r.WeeklyRecurrence) != model.WeeklySlots {
			t.Errorf("SNo=%d 周复发应为 6 个槽位", r.SNo)
		}
	}
}

func TestImportService_Parse_XLSX(t *testing.T) {
	svc, _, _ := setupTestImportService(100)

	buf := buildXLSX(t, [][]interface{}{
		{"S.No", "Source", "Station", "Area", "Concern", "DR", "W-1", "trim.T10", "final.ResidualTorque"},
		{1, "Field", "T10", "trim", "Door gap", 3, 2, 3, 1},
		{2, "Field", "T30", "trim", "Seal missing", 5, "", "", ""},
	})

	records, err := svc.Parse(buf, FormatXLSX, 1)
	if err != nil {
		t.Fatalf("Parse 应成功: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("期望2条，实际=%d", len(records))
	}

	r := records[0]
	if r.DefectRating != model.DefectRating3 {
		t.Errorf("期望DR=3，实际=%d", r.DefectRating)
	}
	if r.WeeklyRecurrence[model.WeeklySlots-1] != 2 || r.Recurrence != 2 {
		t.Errorf("W-1 应写入最后一个周槽位: %v", r.WeeklyRecurrence)
	}
	if v := r.Trim["T10"]; v == nil || *v != 3 {
		t.Errorf("期望 trim.T10=3，实际=%v", v)
	}
	if r.ControlRating.MFG != 3 || r.ControlRating.Plant != 1 {
		t.Errorf("期望 MFG=3 Plant=1，实际 %+v", r.ControlRating)
	}
	if r.WorkstationStatus != model.StatusNG || r.MFGStatus != model.StatusOK {
		t.Errorf("有复发时 WS 为 NG、MFG 为 OK，实际 %s/%s", r.WorkstationStatus, r.MFGStatus)
	}

	if records[1].Trim["T10"] != nil {
		t.Error("空单元格应保持为 nil")
	}
}

func TestImportService_Parse_Errors(t *testing.T) {
	svc, _, _ := setupTestImportService(2)

	tests := []struct {
		name   string
		input  string
		format string
		want   error
	}{
		{"仅有表头", "Concern,DR\n", FormatCSV, ErrImportNoData},
		{"所有行描述为空", "Concern,DR\n,3\n,5\n", FormatCSV, ErrImportNoData},
		{"超过行数上限", "Concern\na\nb\nc\n", FormatCSV, ErrImportTooManyRows},
		{"不支持的格式", "Concern\na\n", "xls", ErrImportUnsupportedFormat},
		{"损坏的 xlsx", "not a zip", FormatXLSX, ErrImportParseFail},
		{"来源超长", "Source,Concern\n" + strings.Repeat("a", 101) + ",Leak\n", FormatCSV, ErrImportParseFail},
		{"责任人超长", "Concern,Resp\nLeak," + strings.Repeat("责", 101) + "\n", FormatCSV, ErrImportParseFail},
		{"周复发计数过大", "Concern,W-6\nLeak,999999999999\n", FormatCSV, ErrImportParseFail},
		{"检查项计数过大", "Concern,trim.T10\nLeak,1e12\n", FormatCSV, ErrImportParseFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Parse(strings.NewReader(tt.input), tt.format, 1)
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}
}

func TestImportService_Parse_FieldLimits(t *testing.T) {
	svc, _, _ := setupTestImportService(10)

	// 恰好 100 字符（多字节）仍可导入
	station := strings.Repeat("工", 100)
	records, err := svc.Parse(strings.NewReader("Station,Concern,W-1\n"+station+",Leak,33554431\n"), FormatCSV, 1)
	if err != nil {
		t.Fatalf("边界值应可导入: %v", err)
	}
	if records[0].OperationStation != station || records[0].WeeklyRecurrence[model.WeeklySlots-1] != maxImportCount {
		t.Errorf("边界值解析不符合预期: %+v", records[0])
	}

	_, err = svc.Parse(strings.NewReader("Concern,Target\nok,\nLeak,"+strings.Repeat("x", 101)+"\n"), FormatCSV, 1)
	if !errors.Is(err, ErrImportParseFail) {
		t.Fatalf("期望 ErrImportParseFail，实际 %v", err)
	}
	if !strings.Contains(err.Error(), "第 3 行") || !strings.Contains(err.Error(), "Target") {
		t.Errorf("错误信息应包含行号与列名，实际=%q", err.Error())
	}
}

func TestImportService_Parse_CSVWithBOM(t *testing.T) {
	svc, _, _ := setupTestImportService(10)

	records, err := svc.Parse(strings.NewReader("\ufeffSource,Concern\nAudit,Leak\n"), FormatCSV, 1)
	if err != nil {
		t.Fatalf("Parse 应成功: %v", err)
	}
	if records[0].Source != "Audit" {
		t.Errorf("BOM 不应影响首列表头识别，实际来源=%q", records[0].Source)
	}
}

func TestFormatFromFilename(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"matrix.xlsx", FormatXLSX, false},
		{"MATRIX.XLSX", FormatXLSX, false},
		{"matrix.csv", FormatCSV, false},
		{"matrix.xls", "", true},
		{"matrix", "", true},
	}
	for _, tt := range tests {
		got, err := FormatFromFilename(tt.name)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("FormatFromFilename(%q) = %q, %v", tt.name, got, err)
		}
	}
}

// ── Import 测试 ──

func TestImportService_Import_AppendsAfterMaxSNo(t *testing.T) {
	svc, mocks, _ := setupTestImportService(100)
	seedConcern(mocks.concern, 5, model.DefectRating1, nil)

	resp, err := svc.Import(context.Background(), strings.NewReader(fuzzyCSV), FormatCSV, caller)
	if err != nil {
		t.Fatalf("Import 应成功: %v", err)
	}
	if resp.Imported != 3 || resp.FirstSNo != 6 || resp.LastSNo != 8 {
		t.Errorf("期望导入 3 条（6-8），实际 %+v", resp)
	}
	if len(mocks.concern.concerns) != 4 {
		t.Errorf("期望集合共 4 条，实际=%d", len(mocks.concern.concerns))
	}
	if got := mocks.concern.concerns[6].CreatedBy; got == nil || *got != caller {
		t.Error("导入记录应记录创建人")
	}
	if len(mocks.changeLog.logs) != 1 || mocks.changeLog.logs[0].ChangeType != model.ChangeTypeImport {
		t.Errorf("期望写入 1 条 import 变更日志，实际=%+v", mocks.changeLog.logs)
	}
}

func TestImportService_Import_ParseErrorLeavesCollection(t *testing.T) {
	svc, mocks, _ := setupTestImportService(100)
	seedConcern(mocks.concern, 1, model.DefectRating1, nil)

	_, err := svc.Import(context.Background(), strings.NewReader("Concern\n"), FormatCSV, caller)
	if !errors.Is(err, ErrImportNoData) {
		t.Errorf("期望 ErrImportNoData，实际: %v", err)
	}
	if len(mocks.concern.concerns) != 1 {
		t.Error("解析失败时集合不应变化")
	}
}

// ── ResetToBaseline 测试 ──

func TestImportService_ResetToBaseline(t *testing.T) {
	svc, mocks, cfg := setupTestImportService(100)
	for i := 1; i <= 4; i++ {
		seedConcern(mocks.concern, i, model.DefectRating1, nil)
	}

	buf := buildXLSX(t, [][]interface{}{
		{"Source", "Station", "Area", "Concern", "DR"},
		{"Baseline", "T10", "trim", "A", 1},
		{"Baseline", "C10", "chassis", "B", 3},
	})
	path := filepath.Join(t.TempDir(), "baseline.xlsx")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("写入基线文件失败: %v", err)
	}
	cfg.BaselinePath = path

	resp, err := svc.ResetToBaseline(context.Background(), caller)
	if err != nil {
		t.Fatalf("ResetToBaseline 应成功: %v", err)
	}
	if resp.Imported != 2 || resp.FirstSNo != 1 {
		t.Errorf("期望从 1 开始导入 2 条，实际 %+v", resp)
	}
	if len(mocks.concern.concerns) != 2 {
		t.Errorf("重置后集合应只含基线记录，实际=%d", len(mocks.concern.concerns))
	}
	if c := mocks.concern.concerns[2]; c == nil || c.Concern != "B" || c.DefectRating != model.DefectRating3 {
		t.Errorf("基线记录不符合预期: %+v", c)
	}
}

func TestImportService_ResetToBaseline_MissingFile(t *testing.T) {
	svc, mocks, cfg := setupTestImportService(100)
	seedConcern(mocks.concern, 1, model.DefectRating1, nil)
	cfg.BaselinePath = filepath.Join(t.TempDir(), "missing.xlsx")

	_, err := svc.ResetToBaseline(context.Background(), caller)
	if !errors.Is(err, ErrBaselineUnavailable) {
		t.Errorf("期望 ErrBaselineUnavailable，实际: %v", err)
	}
	if len(mocks.concern.concerns) != 1 {
		t.Error("基线不可用时集合不应变化")
	}
}
