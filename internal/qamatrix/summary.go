package qamatrix

import (
	"github.com/DEVASANJAY001/qamatrixx/internal/model"
)

// RatingBreakdown 某一缺陷等级下各控制层级的 NG / OK 计数
type RatingBreakdown struct {
	NGWorkstation int `json:"ng_workstation"`
	NGMFG         int `json:"ng_mfg"`
	NGPlant       int `json:"ng_plant"`
	OKWorkstation int `json:"ok_workstation"`
	OKMFG         int `json:"ok_mfg"`
	OKPlant       int `json:"ok_plant"`
}

// Count 取指定层级、判定的计数
func (b RatingBreakdown) Count(level model.Level, status model.Status) int {
	ng := status == model.StatusNG
	switch level {
	case model.LevelWorkstation:
		if ng {
			return b.NGWorkstation
		}
		return b.OKWorkstation
	case model.LevelMFG:
		if ng {
			return b.NGMFG
		}
		return b.OKMFG
	case model.LevelPlant:
		if ng {
			return b.NGPlant
		}
		return b.OKPlant
	}
	return 0
}

func (b *RatingBreakdown) add(c *model.QAConcern) {
	if c.WorkstationStatus == model.StatusNG {
		b.NGWorkstation++
	} else {
		b.OKWorkstation++
	}
	if c.MFGStatus == model.StatusNG {
		b.NGMFG++
	} else {
		b.OKMFG++
	}
	if c.PlantStatus == model.StatusNG {
		b.NGPlant++
	} else {
		b.OKPlant++
	}
}

// DashboardSummary 看板统计
type DashboardSummary struct {
	Total         int             `json:"total"`
	NGWorkstation int             `json:"ng_workstation"`
	NGMFG         int             `json:"ng_mfg"`
	NGPlant       int             `json:"ng_plant"`
	PlantOK       int             `json:"plant_ok"` // Total - NGPlant
	Rating1       RatingBreakdown `json:"rating1"`
	Rating3       RatingBreakdown `json:"rating3"`
	Rating5       RatingBreakdown `json:"rating5"`
}

// Breakdown 按缺陷等级取分项；非法等级返回 nil
func (s *DashboardSummary) Breakdown(rating model.DefectRating) *RatingBreakdown {
	switch rating {
	case model.DefectRating1:
		return &s.Rating1
	case model.DefectRating3:
		return &s.Rating3
	case model.DefectRating5:
		return &s.Rating5
	}
	return nil
}

// Count 取 等级 × 层级 × 判定 的计数
func (s *DashboardSummary) Count(rating model.DefectRating, level model.Level, status model.Status) int {
	b := s.Breakdown(rating)
	if b == nil {
		return 0
	}
	return b.Count(level, status)
}

// Summarize 将记录集合归约为看板统计。O(n)，不修改入参。
func Summarize(records []model.QAConcern) DashboardSummary {
	var s DashboardSummary
	s.Total = len(records)
	for i := range records {
		c := &records[i]
		if c.WorkstationStatus == model.StatusNG {
			s.NGWorkstation++
		}
		if c.MFGStatus == model.StatusNG {
			s.NGMFG++
		}
		if c.PlantStatus == model.StatusNG {
			s.NGPlant++
		}
		if b := s.Breakdown(c.DefectRating); b != nil {
			b.add(c)
		}
	}
	s.PlantOK = s.Total - s.NGPlant
	return s
}
