package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MosinFAM/blog-feed/internal/errs"
)

var statusByCode = map[string]int{
	errs.ENOTFOUND:     http.StatusNotFound,
	errs.EUNAUTHORIZED: http.StatusUnauthorized,
	errs.EINVALID:      http.StatusBadRequest,
	errs.ECONFLICT:     http.StatusConflict,
	errs.EINTERNAL:     http.StatusInternalServerError,
}

// ErrorResponse - тело ответа с ошибкой
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorStatusCode переводит код ошибки приложения в HTTP-статус
func ErrorStatusCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// returnError пишет ошибку клиенту. Внутренние ошибки логируются, а
// клиент видит только общее сообщение.
func (s *Server) returnError(c *gin.Context, err error) {
	code := errs.ErrorCode(err)
	if code == errs.EINTERNAL {
		requestLogger(c).Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}
	c.AbortWithStatusJSON(ErrorStatusCode(code), ErrorResponse{
		Code:    code,
		Message: errs.ErrorMessage(err),
	})
}
