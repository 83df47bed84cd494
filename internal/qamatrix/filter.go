package qamatrix

import (
	"sort"
	"strconv"
	"strings"

	"github.com/DEVASANJAY001/qamatrixx/internal/model"
)

// StatusClass 判定类别筛选
type StatusClass string

const (
	StatusClassAny   StatusClass = ""
	StatusClassHasNG StatusClass = "NG" // 至少一个层级为 NG
	StatusClassAllOK StatusClass = "OK" // 三个层级均为 OK
)

// Query 筛选条件；零值字段表示不启用该条件，启用的条件之间为 AND
type Query struct {
	Search       string             // 问题描述 / 工位 / 序号，不区分大小写的子串匹配
	Source       string             // 精确匹配
	Designation  string             // 与区域的大写形式精确匹配
	DefectRating model.DefectRating // 0 表示不筛选
	StatusClass  StatusClass

	// 看板下钻：Level 层级的判定等于 LevelStatus（两者同时给出才生效）
	Level       model.Level
	LevelStatus model.Status
}

// IsZero 是否未设置任何条件
func (q Query) IsZero() bool {
	return q.Search == "" && q.Source == "" && q.Designation == "" && q.DefectRating == 0 &&
		q.StatusClass == StatusClassAny && !q.hasLevel()
}

func (q Query) hasLevel() bool {
	return q.Level != "" && q.LevelStatus != ""
}

// Match 判断单条记录是否满足全部条件
func (q Query) Match(c *model.QAConcern) bool {
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(c.Concern), term) &&
			!strings.Contains(strings.ToLower(c.OperationStation), term) &&
			!strings.Contains(strconv.Itoa(c.SNo), term) {
			return false
		}
	}
	if q.Source != "" && c.Source != q.Source {
		return false
	}
	if q.Designation != "" && strings.ToUpper(c.Designation) != q.Designation {
		return false
	}
	if q.DefectRating != 0 && c.DefectRating != q.DefectRating {
		return false
	}
	switch q.StatusClass {
	case StatusClassHasNG:
		if !hasNG(c) {
			return false
		}
	case StatusClassAllOK:
		if hasNG(c) {
			return false
		}
	}
	if q.hasLevel() && c.StatusOf(q.Level) != q.LevelStatus {
		return false
	}
	return true
}

func hasNG(c *model.QAConcern) bool {
	return c.WorkstationStatus == model.StatusNG || c.MFGStatus == model.StatusNG || c.PlantStatus == model.StatusNG
}

// Filter 稳定筛选：返回满足条件的记录，保持原相对顺序。
// 未设置条件时返回整个集合的副本。
func Filter(records []model.QAConcern, q Query) []model.QAConcern {
	out := make([]model.QAConcern, 0, len(records))
	for i := range records {
		if q.Match(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

// Facets 筛选项
type Facets struct {
	Sources      []string `json:"sources"`
	Designations []string `json:"designations"` // 大写
}

// BuildFacets 收集去重排序后的来源与区域（区域取大写），空值不列入
func BuildFacets(records []model.QAConcern) Facets {
	sources := make(map[string]struct{})
	designations := make(map[string]struct{})
	for i := range records {
		if s := records[i].Source; s != "" {
			sources[s] = struct{}{}
		}
		if d := strings.ToUpper(records[i].Designation); d != "" {
			designations[d] = struct{}{}
		}
	}
	return Facets{
		Sources:      sortedKeys(sources),
		Designations: sortedKeys(designations),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
