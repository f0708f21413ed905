package handler

import (
	"github.com/gin-gonic/gin"

	"collabtrack/internal/apperr"
)

// respondError 按错误分类返回统一的错误响应
// code 字段是稳定的机器可读错误码，客户端用 "conflict" 提示
// "先停止当前计时器"而不是笼统的重试
func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{
		"code":  apperr.Code(err),
		"error": err.Error(),
	})
}
