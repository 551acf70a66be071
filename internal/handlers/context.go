package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kdufoot/kdufoot/internal/middleware"
	"github.com/kdufoot/kdufoot/pkg/errors"
	"github.com/kdufoot/kdufoot/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// requireSubject returns the authenticated subject or writes a 401.
func requireSubject(c *gin.Context) (string, bool) {
	subject := c.GetString(middleware.CtxSubjectKey)
	if subject == "" {
		response.Error(c, errors.ErrUnauthorized)
		return "", false
	}
	return subject, true
}
