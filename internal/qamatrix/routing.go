package qamatrix

import (
	"github.com/DEVASANJAY001/qamatrixx/internal/model"
)

// Rating 控制评级种类
type Rating string

const (
	RatingMFG     Rating = "MFG"
	RatingQuality Rating = "Quality"
	RatingPlant   Rating = "Plant"
)

// Route 路由表的一行：评分组中哪些检查项计入哪些评级。
// Check 为空表示整组（除 Except 外）；否则只匹配该检查项。
type Route struct {
	Group   model.GroupName
	Check   model.CheckID
	Except  []model.CheckID
	Ratings []Rating
}

// matches 判断检查项是否命中该路由
func (r Route) matches(check model.CheckID) bool {
	if r.Check != "" {
		return check == r.Check
	}
	for _, ex := range r.Except {
		if check == ex {
			return false
		}
	}
	return true
}

// routes 评分字段 → 评级的固定路由表。
// 残余扭矩只在工厂终检时检查，因此只计入 Plant，不计入 MFG。
var routes = []Route{
	{Group: model.GroupTrim, Ratings: []Rating{RatingMFG}},
	{Group: model.GroupChassis, Ratings: []Rating{RatingMFG}},
	{Group: model.GroupFinal, Except: []model.CheckID{model.CheckResidualTorque}, Ratings: []Rating{RatingMFG}},
	{Group: model.GroupFinal, Check: model.CheckResidualTorque, Ratings: []Rating{RatingPlant}},
	{Group: model.GroupQControl, Ratings: []Rating{RatingQuality, RatingPlant}},
	{Group: model.GroupQControlDetail, Ratings: []Rating{RatingPlant}},
}

// Routes 返回路由表副本
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// FieldRef 评分字段引用
type FieldRef struct {
	Group model.GroupName `json:"group"`
	Check model.CheckID   `json:"check"`
}

// ContributorsOf 列出计入指定评级的全部已知检查项（按组、组内顺序）
func ContributorsOf(rating Rating) []FieldRef {
	var out []FieldRef
	for _, group := range model.ScoreGroupNames {
		for _, check := range model.ChecksOf(group) {
			if routesTo(group, check, rating) {
				out = append(out, FieldRef{Group: group, Check: check})
			}
		}
	}
	return out
}

// routesTo 判断 group.check 是否计入 rating
func routesTo(group model.GroupName, check model.CheckID, rating Rating) bool {
	for _, r := range routes {
		if r.Group != group || !r.matches(check) {
			continue
		}
		for _, target := range r.Ratings {
			if target == rating {
				return true
			}
		}
	}
	return false
}
