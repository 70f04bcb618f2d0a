package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"startloft-api/internal/apperr"
)

const msgInternal = "Внутренняя ошибка сервера"

type errorBody struct {
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindPrecondition:
		return http.StatusBadRequest
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		log.Printf("server: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Detail: msgInternal})
		return
	}
	c.AbortWithStatusJSON(statusFor(e.Kind), errorBody{Detail: e.Message, Field: e.Field})
}
