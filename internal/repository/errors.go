package repository

import "errors"

// ErrHistoryUnavailable 打卡历史查询失败（本次评估放弃，不重试）
var ErrHistoryUnavailable = errors.New("check-in history unavailable")

// ErrSubjectNotFound subject 不存在
var ErrSubjectNotFound = errors.New("subject not found")
