package errors

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam       = 400
	CodeUnauthorized       = 401
	CodeForbidden          = 403
	CodeNotFound           = 404
	CodeFailedPrecondition = 412
	CodeServerError        = 500
)

// Error 带业务码的错误，服务层返回，handler层据码选择响应
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New 创建带业务码的错误
func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// ========== 快捷构造 ==========

func InvalidParam(message string) *Error {
	return New(CodeInvalidParam, message)
}

func Unauthorized(message string) *Error {
	return New(CodeUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(CodeForbidden, message)
}

func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

func FailedPrecondition(message string) *Error {
	return New(CodeFailedPrecondition, message)
}

func Internal(message string) *Error {
	return New(CodeServerError, message)
}

// CodeOf 提取错误的业务码；非本包错误一律视为服务器内部错误
func CodeOf(err error) int {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return CodeServerError
}
