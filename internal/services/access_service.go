package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kdufoot/kdufoot/internal/models"
	"github.com/kdufoot/kdufoot/internal/permissions"
	apperrors "github.com/kdufoot/kdufoot/pkg/errors"
	"github.com/kdufoot/kdufoot/pkg/logger"
	"github.com/kdufoot/kdufoot/pkg/metrics"
)

// AccessDecision is the gating answer rendered to the client.
type AccessDecision struct {
	Tier      permissions.Tier  `json:"tier"`
	Granted   bool              `json:"granted"`
	Missing   permissions.Set   `json:"missing"`
	UpgradeTo *permissions.Tier `json:"upgrade_to,omitempty"`
}

// AccessProfile describes everything a user's tier unlocks.
type AccessProfile struct {
	User        *models.User             `json:"user"`
	Tier        permissions.Tier         `json:"tier"`
	Permissions []permissions.Permission `json:"permissions"`
}

// AccessService loads a principal's tier and answers gating questions against the resolver.
type AccessService struct {
	users    *UserService
	resolver *permissions.Resolver
	log      *zap.Logger
}

// NewAccessService constructs an AccessService.
func NewAccessService(users *UserService, resolver *permissions.Resolver) (*AccessService, error) {
	if users == nil {
		return nil, errors.New("access service: user service is required")
	}
	if resolver == nil {
		return nil, errors.New("access service: resolver is required")
	}
	return &AccessService{
		users:    users,
		resolver: resolver,
		log:      logger.WithModule("access"),
	}, nil
}

// Resolver exposes the resolver backing the service.
func (s *AccessService) Resolver() *permissions.Resolver {
	return s.resolver
}

// Tier returns the user behind subject together with its parsed tier.
func (s *AccessService) Tier(ctx context.Context, subject string) (*models.User, permissions.Tier, error) {
	user, err := s.users.GetBySubject(ctx, subject)
	if err != nil {
		return nil, "", err
	}

	tier, err := permissions.ParseTier(user.Subscription)
	if err != nil {
		s.log.Error("stored subscription tier is not recognised",
			zap.String("user_id", user.ID),
			zap.String("subscription", user.Subscription),
			zap.Error(err),
		)
		return nil, "", apperrors.ErrTierMisconfigured.WithInternal(err)
	}
	return user, tier, nil
}

// Evaluate answers whether the tier of subject satisfies required. Denials carry the
// missing permissions and, when one exists, the lowest tier that would satisfy them.
func (s *AccessService) Evaluate(ctx context.Context, subject string, required permissions.Set) (*AccessDecision, error) {
	_, tier, err := s.Tier(ctx, subject)
	if err != nil {
		return nil, err
	}
	return s.Decide(tier, required)
}

// Decide evaluates required against an already resolved tier.
func (s *AccessService) Decide(tier permissions.Tier, required permissions.Set) (*AccessDecision, error) {
	missing, err := s.resolver.MissingPermissions(tier, required)
	if err != nil {
		return nil, s.translate(tier, err)
	}

	decision := &AccessDecision{
		Tier:    tier,
		Granted: missing.Len() == 0,
		Missing: missing,
	}

	if !decision.Granted {
		target, ok, err := s.resolver.UpgradeTarget(tier, required)
		if err != nil {
			return nil, s.translate(tier, err)
		}
		if ok {
			decision.UpgradeTo = &target
		}
	}

	for perm := range required {
		result := "allowed"
		if missing.Has(perm) {
			result = "denied"
		}
		metrics.PermissionChecks.WithLabelValues(string(perm), string(tier), result).Inc()
	}

	return decision, nil
}

// Profile lists every permission the subject's tier grants.
func (s *AccessService) Profile(ctx context.Context, subject string) (*AccessProfile, error) {
	user, tier, err := s.Tier(ctx, subject)
	if err != nil {
		return nil, err
	}

	perms, err := s.resolver.Permissions(tier)
	if err != nil {
		return nil, s.translate(tier, err)
	}

	return &AccessProfile{User: user, Tier: tier, Permissions: perms}, nil
}

func (s *AccessService) translate(tier permissions.Tier, err error) error {
	switch {
	case errors.Is(err, permissions.ErrUnknownPermission):
		return apperrors.NewBadRequest(err.Error()).WithInternal(err)
	case errors.Is(err, permissions.ErrUnknownTier):
		s.log.Error("tier missing from permission matrix", zap.String("tier", string(tier)), zap.Error(err))
		return apperrors.ErrTierMisconfigured.WithInternal(err)
	default:
		return fmt.Errorf("access service: %w", err)
	}
}
