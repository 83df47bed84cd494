package service

import (
	"fmt"
	"strconv"

	"github.com/DEVASANJAY001/qamatrixx/internal/model"
)

// ── 矩阵表格列布局（导出与导入共用） ──

// matrixColumn 导出列：表头 + 取值（nil 表示空单元格）
type matrixColumn struct {
	header string
	value  func(c *model.QAConcern) any
}

// weeklyHeader 第 i 个周槽位的表头，最早的一周为 W-6
func weeklyHeader(i int) string {
	return fmt.Sprintf("W-%d", model.WeeklySlots-i)
}

// checkHeader 检查项列表头，形如 trim.T10
func checkHeader(group model.GroupName, check model.CheckID) string {
	return string(group) + "." + string(check)
}

// matrixColumns 按固定顺序生成全部导出列
func matrixColumns() []matrixColumn {
	cols := []matrixColumn{
		{"S.No", func(c *model.QAConcern) any { return c.SNo }},
		{"Source", func(c *model.QAConcern) any { return c.Source }},
		{"Station", func(c *model.QAConcern) any { return c.OperationStation }},
		{"Area", func(c *model.QAConcern) any { return c.Designation }},
		{"Concern", func(c *model.QAConcern) any { return c.Concern }},
		{"DR", func(c *model.QAConcern) any { return int(c.DefectRating) }},
	}

	for i := 0; i < model.WeeklySlots; i++ {
		idx := i
		cols = append(cols, matrixColumn{weeklyHeader(idx), func(c *model.QAConcern) any {
			if idx < len(c.WeeklyRecurrence) {
				return c.WeeklyRecurrence[idx]
			}
			return 0
		}})
	}
	cols = append(cols, matrixColumn{"RC+DR", func(c *model.QAConcern) any { return c.RecurrenceCountPlusDefect }})

	for _, group := range model.ScoreGroupNames {
		for _, check := range model.ChecksOf(group) {
			g, ch := group, check
			cols = append(cols, matrixColumn{checkHeader(g, ch), func(c *model.QAConcern) any {
				if v := c.Group(g)[ch]; v != nil {
					return *v
				}
				return nil
			}})
		}
	}

	cols = append(cols,
		matrixColumn{"MFG Rating", func(c *model.QAConcern) any { return c.ControlRating.MFG }},
		matrixColumn{"Quality Rating", func(c *model.QAConcern) any { return c.ControlRating.Quality }},
		matrixColumn{"Plant Rating", func(c *model.QAConcern) any { return c.ControlRating.Plant }},
		matrixColumn{"WS Status", func(c *model.QAConcern) any { return string(c.WorkstationStatus) }},
		matrixColumn{"MFG Status", func(c *model.QAConcern) any { return string(c.MFGStatus) }},
		matrixColumn{"Plant Status", func(c *model.QAConcern) any { return string(c.PlantStatus) }},
		matrixColumn{"Resp", func(c *model.QAConcern) any { return c.Resp }},
		matrixColumn{"Action", func(c *model.QAConcern) any { return c.MFGAction }},
		matrixColumn{"Target", func(c *model.QAConcern) any { return c.Target }},
	)
	return cols
}

// cellText 单元格文本（CSV 使用）
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
