// Package qamatrix 质量矩阵计算核心。
//
// 包含四部分，全部为纯函数、无 I/O、不修改入参：
//   - routing.go / scoring.go：按固定路由表把各评分组分值汇总为 MFG / Quality / Plant 三个控制评级
//   - status.go：Recompute 由评级、缺陷等级、周复发计数派生三个 OK/NG 判定
//   - summary.go：Summarize 将记录集合归约为看板统计
//   - filter.go：Filter 按条件组合筛选记录（稳定、保持原顺序），Facets 生成筛选项
//
// 任何修改评分、周复发或缺陷等级的操作都必须在保存前调用 Recompute。
// 调用方负责集合的持久化与写入串行化，本包不持有任何状态。
package qamatrix
