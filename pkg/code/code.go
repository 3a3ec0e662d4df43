package code

import (
	"fmt"
	"net/http"
)

// Code is a business status code carried through handlers and responses
// Code 是贯穿 handler 与响应的业务状态码
type Code struct {
	code   int
	status bool
	// Lang holds the localized message texts
	// Lang 保存本地化消息文本
	Lang        lang
	data        interface{}
	haveData    bool
	details     []string
	haveDetails bool
	context     string
	haveContext bool
}

var codes = map[int]string{}
var sussCodes = map[int]string{}

// NewError registers an error code; duplicate registration is a programming mistake
// NewError 注册错误码；重复注册属于编程错误
func NewError(code int, l lang) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("错误码 %d 已经存在，请更换一个", code))
	}
	codes[code] = l.GetMessage()
	return &Code{code: code, status: false, Lang: l}
}

// NewSuss registers a success code
// NewSuss 注册成功码
func NewSuss(code int, l lang) *Code {
	if _, ok := sussCodes[code]; ok {
		panic(fmt.Sprintf("成功码 %d 已经存在，请更换一个", code))
	}
	sussCodes[code] = l.GetMessage()
	return &Code{code: code, status: true, Lang: l}
}

// Clone creates a copy so a shared registered code is never mutated in place
// Clone 创建副本，避免就地修改共享的注册码
func (e *Code) Clone() *Code {
	return &Code{
		code:   e.code,
		status: e.status,
		Lang:   e.Lang,
	}
}

func (e *Code) Reset() *Code {
	e.data = nil
	e.haveData = false
	e.details = []string{}
	e.haveDetails = false
	e.context = ""
	e.haveContext = false
	return e
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

func (e *Code) Context() string {
	return e.context
}

func (e *Code) HaveDetails() bool {
	return e.haveDetails
}

func (e *Code) HaveData() bool {
	return e.haveData
}

func (e *Code) HaveContext() bool {
	return e.haveContext
}

func (e *Code) WithData(data interface{}) *Code {
	c := e.Clone()
	c.haveData = true
	c.data = data
	c.details = e.details
	c.haveDetails = e.haveDetails
	return c
}

func (e *Code) WithDetails(details ...string) *Code {
	c := e.Clone()
	c.haveDetails = true
	c.details = append([]string{}, details...)
	c.data = e.data
	c.haveData = e.haveData
	return c
}

func (e *Code) WithContext(context string) *Code {
	c := e.Clone()
	c.haveContext = true
	c.context = context
	c.data = e.data
	c.haveData = e.haveData
	return c
}

// StatusCode business codes always answer HTTP 200, the body carries the real code
// StatusCode 业务码统一返回 HTTP 200，真实状态在响应体中
func (e *Code) StatusCode() int {
	return http.StatusOK
}
