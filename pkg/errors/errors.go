package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("记录已被其他操作修改，请刷新后重试")

// ErrDuplicateSNo 序号冲突：集合中已存在相同序号
var ErrDuplicateSNo = errors.New("序号已存在")
