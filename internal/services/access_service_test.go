package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kdufoot/kdufoot/internal/permissions"
	apperrors "github.com/kdufoot/kdufoot/pkg/errors"
)

func newAccessServiceForTest(t *testing.T) (*AccessService, *UserService) {
	t.Helper()

	users, _ := newUserServiceForTest(t)
	access, err := NewAccessService(users, permissions.DefaultResolver())
	require.NoError(t, err)
	return access, users
}

func TestAccessServiceEvaluate(t *testing.T) {
	access, users := newAccessServiceForTest(t)
	ctx := context.Background()

	createUserWithTier(t, users, "auth0|free", "Free")
	createUserWithTier(t, users, "auth0|pro", "Pro")

	required := permissions.NewSet(permissions.ExercisesRead, permissions.ExportPDF)

	decision, err := access.Evaluate(ctx, "auth0|pro", required)
	require.NoError(t, err)
	require.True(t, decision.Granted)
	require.Zero(t, decision.Missing.Len())
	require.Nil(t, decision.UpgradeTo)

	decision, err = access.Evaluate(ctx, "auth0|free", required)
	require.NoError(t, err)
	require.False(t, decision.Granted)
	require.Equal(t, []permissions.Permission{permissions.ExportPDF}, decision.Missing.Sorted())
	require.NotNil(t, decision.UpgradeTo)
	require.Equal(t, permissions.TierPro, *decision.UpgradeTo)

	encoded, err := json.Marshal(decision)
	require.NoError(t, err)
	require.JSONEq(t, `{"tier":"Free","granted":false,"missing":["export:pdf"],"upgrade_to":"Pro"}`, string(encoded))
}

func TestAccessServiceEvaluateWithoutUpgradePath(t *testing.T) {
	access, users := newAccessServiceForTest(t)
	createUserWithTier(t, users, "auth0|ultime", "Ultime")

	decision, err := access.Evaluate(context.Background(), "auth0|ultime", permissions.NewSet(permissions.AdminUsers))
	require.NoError(t, err)
	require.False(t, decision.Granted)
	require.Nil(t, decision.UpgradeTo)
}

func TestAccessServiceMisconfiguredTier(t *testing.T) {
	access, users := newAccessServiceForTest(t)
	createUserWithTier(t, users, "auth0|legacy", "Gold")

	_, err := access.Evaluate(context.Background(), "auth0|legacy", permissions.NewSet(permissions.ReadAPI))
	require.ErrorIs(t, err, permissions.ErrUnknownTier)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "TIER_MISCONFIGURED", appErr.Code)
	require.Equal(t, 500, appErr.StatusCode)
}

func TestAccessServiceUnknownPermissionIsBadRequest(t *testing.T) {
	access, users := newAccessServiceForTest(t)
	createUserWithTier(t, users, "auth0|free", "Free")

	_, err := access.Evaluate(context.Background(), "auth0|free", permissions.NewSet("exercises:burn"))
	require.ErrorIs(t, err, permissions.ErrUnknownPermission)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, 400, appErr.StatusCode)
}

func TestAccessServiceProfile(t *testing.T) {
	access, users := newAccessServiceForTest(t)
	createUserWithTier(t, users, "auth0|pro", "pro")

	profile, err := access.Profile(context.Background(), "auth0|pro")
	require.NoError(t, err)
	require.Equal(t, permissions.TierPro, profile.Tier)
	require.Len(t, profile.Permissions, 16)
	require.Contains(t, profile.Permissions, permissions.ExportPDF)

	_, err = access.Profile(context.Background(), "auth0|ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestNewAccessServiceValidation(t *testing.T) {
	_, err := NewAccessService(nil, permissions.DefaultResolver())
	require.Error(t, err)

	users, _ := newUserServiceForTest(t)
	_, err = NewAccessService(users, nil)
	require.Error(t, err)
}
