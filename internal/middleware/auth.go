package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kdufoot/kdufoot/internal/auditctx"
	iauth "github.com/kdufoot/kdufoot/internal/auth"
	"github.com/kdufoot/kdufoot/pkg/errors"
	"github.com/kdufoot/kdufoot/pkg/logger"
	"github.com/kdufoot/kdufoot/pkg/metrics"
	"github.com/kdufoot/kdufoot/pkg/response"
)

const (
	CtxIdentityKey = "authIdentity"
	CtxSubjectKey  = "authSubject"
)

// Auth enforces bearer token authentication using the supplied verifier.
func Auth(verifier iauth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			metrics.AuthAttempts.WithLabelValues("missing").Inc()
			c.Header("WWW-Authenticate", "Bearer")
			response.Abort(c, errors.ErrUnauthorized)
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(authz[7:]))
		if err != nil {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			logger.WithModule("auth").Debug("bearer token rejected", zap.Error(err))
			// all validation failures are reported as 401
			c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			response.Abort(c, errors.ErrUnauthorized)
			return
		}
		metrics.AuthAttempts.WithLabelValues("success").Inc()

		c.Set(CtxIdentityKey, identity)
		c.Set(CtxSubjectKey, identity.Subject)
		c.Request = c.Request.WithContext(auditctx.WithActor(c.Request.Context(), auditctx.Actor{
			Subject:   identity.Subject,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			RequestID: c.GetString(CtxRequestIDKey),
		}))

		c.Next()
	}
}

// IdentityFromContext returns the identity stored by Auth.
func IdentityFromContext(c *gin.Context) (*iauth.Identity, bool) {
	v, ok := c.Get(CtxIdentityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*iauth.Identity)
	return identity, ok && identity != nil
}
