package code

import (
	"fmt"
	"net/http"
)

type Code struct {
	// 状态码
	code int
	// 状态
	status bool
	// 错误消息
	Lang lang
	// 数据
	data interface{}
	// 是否含有Data
	haveData bool
	// 错误详细信息
	details []string
	// 是否含有详情
	haveDetails bool
}

var codes = map[int]struct{}{}

// NewError 注册一个失败码，重复注册会 panic
func NewError(code int, l lang) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("错误码 %d 已经存在，请更换一个", code))
	}
	codes[code] = struct{}{}
	return &Code{code: code, status: false, Lang: l}
}

// NewSuss 注册一个成功码
func NewSuss(code int, l lang) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("成功码 %d 已经存在，请更换一个", code))
	}
	codes[code] = struct{}{}
	return &Code{code: code, status: true, Lang: l}
}

// Clone 创建一个新的 Code 副本，不携带 data 与 details
func (e *Code) Clone() *Code {
	return &Code{code: e.code, status: e.status, Lang: e.Lang}
}

func (e *Code) Error() string {
	return e.Msg()
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Status() bool {
	return e.status
}

func (e *Code) Msg() string {
	return e.Lang.GetMessage()
}

func (e *Code) Details() []string {
	return e.details
}

func (e *Code) Data() interface{} {
	return e.data
}

func (e *Code) HaveDetails() bool {
	return e.haveDetails
}

func (e *Code) HaveData() bool {
	return e.haveData
}

// Is 按错误码比较，供 errors.Is 使用
func (e *Code) Is(target error) bool {
	t, ok := target.(*Code)
	return ok && t.code == e.code
}

// WithData 返回携带 data 的副本，全局码本身保持不变
func (e *Code) WithData(data interface{}) *Code {
	c := e.copy()
	c.haveData = true
	c.data = data
	return c
}

// WithDetails 返回携带 details 的副本
func (e *Code) WithDetails(details ...string) *Code {
	c := e.copy()
	c.haveDetails = true
	c.details = append([]string{}, details...)
	return c
}

func (e *Code) copy() *Code {
	c := *e
	return &c
}

func (e *Code) StatusCode() int {
	return http.StatusOK
}
