package model

// CheckID 检查项标识（各评分组内封闭枚举）
type CheckID string

// GroupName 评分组名称
type GroupName string

const (
	GroupTrim           GroupName = "trim"
	GroupChassis        GroupName = "chassis"
	GroupFinal          GroupName = "final"
	GroupQControl       GroupName = "qControl"
	GroupQControlDetail GroupName = "qControlDetail"
)

// ScoreGroupNames 评分组固定顺序（导出列顺序同此）
var ScoreGroupNames = []GroupName{GroupTrim, GroupChassis, GroupFinal, GroupQControl, GroupQControlDetail}

// CheckResidualTorque 残余扭矩：归入 final 组，但只参与 Plant 评级
const CheckResidualTorque CheckID = "ResidualTorque"

// ── 各组检查项（按工位顺序） ──

var trimChecks = []CheckID{"T10", "T20", "T30", "T40", "T50", "T60", "T70", "T80", "T90", "T100", "TPQG"}

var chassisChecks = []CheckID{
	"C10", "C20", "C30", "C40", "C45", "P10", "P20", "P30",
	"C50", "C60", "C70", "RSub", "TS", "C80", "CPQG",
}

var finalChecks = []CheckID{
	"F10", "F20", "F30", "F40", "F50", "F60", "F70", "F80", "F90", "F100", "FPQG",
	CheckResidualTorque,
}

// Q'Control 1.x 频次/目视/审核/人工，3.x 报警/测量/工具/追踪，5.x 自动/防错/禁止
var qControlChecks = []CheckID{"1.1", "1.2", "1.3", "1.4", "3.1", "3.2", "3.3", "3.4", "5.1", "5.2", "5.3"}

var qControlDetailChecks = []CheckID{"CVT", "SHOWER", "DynamicUB", "CC4"}

var checksByGroup = map[GroupName][]CheckID{
	GroupTrim:           trimChecks,
	GroupChassis:        chassisChecks,
	GroupFinal:          finalChecks,
	GroupQControl:       qControlChecks,
	GroupQControlDetail: qControlDetailChecks,
}

// ChecksOf 返回评分组的检查项列表（副本）；未知组返回 nil
func ChecksOf(group GroupName) []CheckID {
	checks, ok := checksByGroup[group]
	if !ok {
		return nil
	}
	out := make([]CheckID, len(checks))
	copy(out, checks)
	return out
}

// IsKnownGroup 判断评分组名是否合法
func IsKnownGroup(group GroupName) bool {
	_, ok := checksByGroup[group]
	return ok
}

// IsKnownCheck 判断检查项是否属于该评分组
func IsKnownCheck(group GroupName, check CheckID) bool {
	for _, c := range checksByGroup[group] {
		if c == check {
			return true
		}
	}
	return false
}

// NewScoreGroup 创建该组全部检查项均为 nil 的评分组
func NewScoreGroup(group GroupName) ScoreGroup {
	checks := checksByGroup[group]
	g := make(ScoreGroup, len(checks))
	for _, c := range checks {
		g[c] = nil
	}
	return g
}
