package qamatrix

import (
	"github.com/DEVASANJAY001/qamatrixx/internal/model"
)

// Recompute 重新派生记录的复发合计、控制评级与三个判定，返回新记录。
//
//   - Workstation：近 6 周任一周有复发即 NG；否则 MFG 评级 ≥ 缺陷等级为 OK
//   - MFG：MFG 评级 ≥ 缺陷等级为 OK
//   - Plant：Plant 评级 ≥ 缺陷等级为 OK
//
// Quality 评级只计算不参与判定。幂等；入参不被修改。
func Recompute(c *model.QAConcern) *model.QAConcern {
	out := c.Clone()
	dr := int(out.DefectRating)

	recurrence := 0
	hasRecurrence := false
	for _, w := range out.WeeklyRecurrence {
		recurrence += w
		if w > 0 {
			hasRecurrence = true
		}
	}
	out.Recurrence = recurrence
	out.RecurrenceCountPlusDefect = dr + recurrence

	out.ControlRating = ComputeControlRatings(out)

	out.MFGStatus = gate(out.ControlRating.MFG, dr)
	out.PlantStatus = gate(out.ControlRating.Plant, dr)
	if hasRecurrence {
		out.WorkstationStatus = model.StatusNG
	} else {
		out.WorkstationStatus = out.MFGStatus
	}
	return out
}

// RecomputeAll 对一批记录逐条 Recompute，返回新切片
func RecomputeAll(records []model.QAConcern) []model.QAConcern {
	out := make([]model.QAConcern, len(records))
	for i := range records {
		out[i] = *Recompute(&records[i])
	}
	return out
}

func gate(rating, defectRating int) model.Status {
	if rating >= defectRating {
		return model.StatusOK
	}
	return model.StatusNG
}
