package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kdufoot/kdufoot/internal/permissions"
	"github.com/kdufoot/kdufoot/internal/services"
	"github.com/kdufoot/kdufoot/pkg/errors"
	"github.com/kdufoot/kdufoot/pkg/response"
)

const (
	CtxTierKey     = "accessTier"
	CtxDecisionKey = "accessDecision"
)

// UpgradeDetails is attached to UPGRADE_REQUIRED responses so the client can render an upgrade prompt.
type UpgradeDetails struct {
	Tier      permissions.Tier  `json:"tier"`
	Missing   permissions.Set   `json:"missing"`
	UpgradeTo *permissions.Tier `json:"upgrade_to,omitempty"`
}

// RequireTier lets the request through only when the caller's subscription tier grants every
// permission in required.
func RequireTier(access *services.AccessService, required ...permissions.Permission) gin.HandlerFunc {
	set := permissions.NewSet(required...)
	return func(c *gin.Context) {
		gateTier(c, access, set)
	}
}

// RequirePermissionParam gates on the permission named by the route parameter param.
// Unregistered identifiers are rejected with 400.
func RequirePermissionParam(access *services.AccessService, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		perm, err := permissions.Parse(c.Param(param))
		if err != nil {
			response.Abort(c, errors.NewBadRequest(err.Error()))
			return
		}
		gateTier(c, access, permissions.NewSet(perm))
	}
}

func gateTier(c *gin.Context, access *services.AccessService, required permissions.Set) {
	subject := c.GetString(CtxSubjectKey)
	if subject == "" {
		response.Abort(c, errors.ErrUnauthorized)
		return
	}

	decision, err := access.Evaluate(c.Request.Context(), subject, required)
	if err != nil {
		response.Abort(c, err)
		return
	}
	if !decision.Granted {
		response.Abort(c, UpgradeRequired(decision))
		return
	}

	c.Set(CtxTierKey, decision.Tier)
	c.Set(CtxDecisionKey, decision)
	c.Next()
}

// UpgradeRequired renders a denied decision as an UPGRADE_REQUIRED error.
func UpgradeRequired(decision *services.AccessDecision) *errors.AppError {
	return errors.ErrUpgradeRequired.WithDetails(UpgradeDetails{
		Tier:      decision.Tier,
		Missing:   decision.Missing,
		UpgradeTo: decision.UpgradeTo,
	})
}

// RequireScope checks that the identity provider granted scope to the bearer token.
// Admin permissions are never part of a tier and arrive this way.
func RequireScope(scope permissions.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			response.Abort(c, errors.ErrUnauthorized)
			return
		}
		if !identity.HasScope(string(scope)) {
			response.Abort(c, errors.ErrForbidden.WithDetails(gin.H{"missing": []permissions.Permission{scope}}))
			return
		}
		c.Next()
	}
}
