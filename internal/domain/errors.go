package domain

import (
	"errors"
	"fmt"
)

// 错误分类。除 ErrSessionFailure 外均为可恢复错误：跳过当前品种，继续处理下一个。
var (
	ErrNotEnoughData     = errors.New("not enough data")
	ErrSymbolUnavailable = errors.New("symbol unavailable")
	ErrGatewayRejected   = errors.New("gateway rejected order")
	ErrSessionFailure    = errors.New("session failure")
	ErrPriceFetch        = errors.New("price fetch failed")
	ErrSubmitFailed      = errors.New("order submit failed")
)

// NotEnoughDataError 历史数据不足
type NotEnoughDataError struct {
	Symbol string
	Have   int
	Need   int
}

func (e *NotEnoughDataError) Error() string {
	return fmt.Sprintf("%s: not enough data (have %d points, need %d)", e.Symbol, e.Have, e.Need)
}

func (e *NotEnoughDataError) Is(target error) bool { return target == ErrNotEnoughData }

// RejectedError 网关拒单，携带券商诊断码与信息
type RejectedError struct {
	Symbol  string
	Code    int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: order rejected: %s (retcode %d)", e.Symbol, e.Message, e.Code)
}

func (e *RejectedError) Is(target error) bool { return target == ErrGatewayRejected }

// IsFatal 是否需要终止整批处理
func IsFatal(err error) bool {
	return errors.Is(err, ErrSessionFailure)
}
