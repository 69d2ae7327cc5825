// Package response writes the {code,msg,data} envelope. Failures carry the
// HTTP status mapped from their errcode.
package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/xxxsen/griffin/internal/pkg/errcode"
)

type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return e.code
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

func Error(c *gin.Context, code int, message string) {
	if message == "" {
		message = errcode.Message(code)
	}
	proxyutil.FailJson(c, errcode.HTTPStatus(code), codeErr{code: uint32(code), msg: message})
}

// Abort writes the error and stops the handler chain.
func Abort(c *gin.Context, code int, message string) {
	Error(c, code, message)
	c.Abort()
}
