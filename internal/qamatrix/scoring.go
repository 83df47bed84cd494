package qamatrix

import (
	"github.com/DEVASANJAY001/qamatrixx/internal/model"
)

// ComputeControlRatings 按路由表汇总三个控制评级。
// nil 分值按 0 计；缺失的检查项与 nil 等价。不修改入参。
func ComputeControlRatings(c *model.QAConcern) model.ControlRating {
	var cr model.ControlRating
	for _, r := range routes {
		sum := sumNonNull(c.Group(r.Group), r)
		for _, target := range r.Ratings {
			switch target {
			case RatingMFG:
				cr.MFG += sum
			case RatingQuality:
				cr.Quality += sum
			case RatingPlant:
				cr.Plant += sum
			}
		}
	}
	return cr
}

// sumNonNull 对评分组中命中路由的非空分值求和
func sumNonNull(g model.ScoreGroup, r Route) int {
	total := 0
	for check, v := range g {
		if v == nil || !r.matches(check) {
			continue
		}
		total += *v
	}
	return total
}
