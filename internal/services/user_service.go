package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kdufoot/kdufoot/internal/models"
	"github.com/kdufoot/kdufoot/internal/permissions"
	apperrors "github.com/kdufoot/kdufoot/pkg/errors"
	"github.com/kdufoot/kdufoot/pkg/validator"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found. Call sync first.", http.StatusNotFound)
	// ErrClubAlreadyLinked refuses a second club link; only an administrator can undo one.
	ErrClubAlreadyLinked = apperrors.New("CLUB_ALREADY_LINKED", "Account is already linked to a club. This action is irreversible.", http.StatusConflict)
	// ErrSubjectMismatch is returned when a synced profile belongs to another identity.
	ErrSubjectMismatch = apperrors.New("SUBJECT_MISMATCH", "Profile subject does not match the authenticated identity", http.StatusForbidden)
)

const defaultFirstName = "User"

// SyncUserInput is the identity provider profile pushed by the client after login.
type SyncUserInput struct {
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
	Name       string
	Picture    string
}

// UpdateProfileInput enumerates mutable profile attributes. The subscription tier
// is deliberately absent; it only changes through SetSubscription.
type UpdateProfileInput struct {
	FirstName      *string
	LastName       *string
	Location       *string
	Phone          *string
	LicenseID      *string
	Category       *string
	Level          *string
	StadiumAddress *string
	Latitude       *float64
	Longitude      *float64
}

// UserService manages the principals mirrored from the identity provider.
type UserService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, auditService *AuditService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{
		db:           db,
		auditService: auditService,
	}, nil
}

// Sync creates the user on first login with the Free tier. Known users keep their
// stored profile and only have their timestamp refreshed.
func (s *UserService) Sync(ctx context.Context, input SyncUserInput) (*models.User, bool, error) {
	ctx = ensureContext(ctx)

	subject := strings.TrimSpace(input.Subject)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if subject == "" {
		return nil, false, apperrors.NewBadRequest("subject is required")
	}
	if email == "" {
		return nil, false, apperrors.NewBadRequest("email is required")
	}

	existing, err := s.GetBySubject(ctx, subject)
	switch {
	case err == nil:
		if err := s.db.WithContext(ctx).Model(existing).Update("updated_at", time.Now()).Error; err != nil {
			return nil, false, fmt.Errorf("user service: touch user: %w", err)
		}
		return existing, false, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, false, err
	}

	firstName := firstNonEmpty(input.GivenName, input.Name, defaultFirstName)
	user := &models.User{
		Subject:      subject,
		Email:        email,
		FirstName:    firstName,
		LastName:     strings.TrimSpace(input.FamilyName),
		Picture:      strings.TrimSpace(input.Picture),
		Subscription: string(permissions.TierFree),
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			// a concurrent sync for the same subject won the race
			return s.existingAfterRace(ctx, subject)
		}
		return nil, false, fmt.Errorf("user service: create user: %w", err)
	}

	recordAudit(ctx, s.auditService, AuditEntry{
		ActorSubject: subject,
		Action:       AuditActionSync,
		Resource:     user.ID,
		Result:       "created",
		Metadata:     map[string]any{"email": user.Email},
	})

	return user, true, nil
}

func (s *UserService) existingAfterRace(ctx context.Context, subject string) (*models.User, bool, error) {
	user, err := s.GetBySubject(ctx, subject)
	if err != nil {
		return nil, false, err
	}
	return user, false, nil
}

// Get loads a user by identifier.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

// GetBySubject loads a user by identity provider subject.
func (s *UserService) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	return s.findOne(ctx, "auth0_sub = ?", strings.TrimSpace(subject))
}

func (s *UserService) findOne(ctx context.Context, query string, arg string) (*models.User, error) {
	ctx = ensureContext(ctx)

	if arg == "" {
		return nil, ErrUserNotFound
	}

	var user models.User
	err := s.db.WithContext(ctx).Take(&user, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// Update applies profile changes.
func (s *UserService) Update(ctx context.Context, id string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, apperrors.NewBadRequest("firstname cannot be empty")
		}
		updates["firstname"] = name
	}
	if input.LastName != nil {
		updates["lastname"] = strings.TrimSpace(*input.LastName)
	}
	setOptional(updates, "location", input.Location)
	setOptional(updates, "phone", input.Phone)
	setOptional(updates, "license_id", input.LicenseID)
	setOptional(updates, "category", input.Category)
	setOptional(updates, "level", input.Level)
	setOptional(updates, "stadium_address", input.StadiumAddress)
	if input.Latitude != nil {
		updates["latitude"] = *input.Latitude
	}
	if input.Longitude != nil {
		updates["longitude"] = *input.Longitude
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: update user: %w", err)
	}

	return s.Get(ctx, id)
}

// SetSubscription moves a user to tier. It is the billing path and the only way
// the stored tier changes.
func (s *UserService) SetSubscription(ctx context.Context, id string, tier permissions.Tier) (*models.User, error) {
	ctx = ensureContext(ctx)

	if !tier.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown subscription tier %q", tier))
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := user.Subscription
	if previous == string(tier) {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Update("subscription", string(tier)).Error; err != nil {
		recordAudit(ctx, s.auditService, AuditEntry{
			Action:   AuditActionSubscription,
			Resource: user.ID,
			Result:   "failure",
			Metadata: map[string]any{"from": previous, "to": string(tier)},
		})
		return nil, fmt.Errorf("user service: set subscription: %w", err)
	}

	recordAudit(ctx, s.auditService, AuditEntry{
		Action:   AuditActionSubscription,
		Resource: user.ID,
		Result:   "success",
		Metadata: map[string]any{"from": previous, "to": string(tier)},
	})

	user.Subscription = string(tier)
	return user, nil
}

// ClubID derives the club identifier from its SIRET, so every coach of a club shares one ID.
func ClubID(siret string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("siret:"+siret)).String()
}

// LinkClub attaches the club registered under siret to the user. A link is
// permanent for the user; a second call fails with ErrClubAlreadyLinked.
func (s *UserService) LinkClub(ctx context.Context, id string, siret string) (*models.User, error) {
	ctx = ensureContext(ctx)

	siret = strings.TrimSpace(siret)
	if err := validator.ValidateVar(siret, "required,siret"); err != nil {
		return nil, apperrors.NewBadRequest("siret must be a 14 digit SIRET number")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ClubID != nil || user.Siret != nil {
		return nil, ErrClubAlreadyLinked
	}

	clubID := ClubID(siret)
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND club_id IS NULL AND siret IS NULL", user.ID).
		Updates(map[string]any{"club_id": clubID, "siret": siret})
	if result.Error != nil {
		return nil, fmt.Errorf("user service: link club: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// linked concurrently
		return nil, ErrClubAlreadyLinked
	}

	recordAudit(ctx, s.auditService, AuditEntry{
		Action:   AuditActionClub,
		Resource: user.ID,
		Result:   "linked",
		Metadata: map[string]any{"club_id": clubID, "siret": siret},
	})

	return s.Get(ctx, user.ID)
}

// UnlinkClub detaches the user's club along with the location fields copied from it.
// Unlinked users are returned unchanged.
func (s *UserService) UnlinkClub(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ClubID == nil && user.Siret == nil {
		return user, nil
	}

	previous := map[string]any{"club_id": user.ClubID, "siret": user.Siret}
	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"club_id":         nil,
		"siret":           nil,
		"location":        nil,
		"stadium_address": nil,
	}).Error; err != nil {
		return nil, fmt.Errorf("user service: unlink club: %w", err)
	}

	recordAudit(ctx, s.auditService, AuditEntry{
		Action:   AuditActionClub,
		Resource: user.ID,
		Result:   "unlinked",
		Metadata: previous,
	})

	return s.Get(ctx, user.ID)
}

func setOptional(updates map[string]any, column string, value *string) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		updates[column] = nil
		return
	}
	updates[column] = trimmed
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
