package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kdufoot/kdufoot/internal/middleware"
	"github.com/kdufoot/kdufoot/internal/services"
	"github.com/kdufoot/kdufoot/pkg/errors"
	"github.com/kdufoot/kdufoot/pkg/response"
)

var (
	// ErrSubscriptionReadOnly rejects tier changes sent through the profile endpoint.
	ErrSubscriptionReadOnly = errors.New("SUBSCRIPTION_READ_ONLY", "Subscription changes go through billing", http.StatusForbidden)
	// ErrSiretReadOnly rejects SIRET edits; the SIRET is set by linking a club.
	ErrSiretReadOnly = errors.New("SIRET_READ_ONLY", "SIRET is set by linking a club", http.StatusForbidden)
)

type UserHandler struct {
	users *services.UserService
}

type syncUserRequest struct {
	Subject    string `json:"sub"`
	Email      string `json:"email" validate:"omitempty,email"`
	GivenName  string `json:"given_name" validate:"max=100"`
	FamilyName string `json:"family_name" validate:"max=100"`
	Name       string `json:"name" validate:"max=200"`
	Picture    string `json:"picture" validate:"omitempty,url"`
}

type linkClubRequest struct {
	Siret string `json:"siret" validate:"required,siret"`
}

type updateProfileRequest struct {
	FirstName      *string  `json:"firstname" validate:"omitempty,max=100"`
	LastName       *string  `json:"lastname" validate:"omitempty,max=100"`
	Siret          *string  `json:"siret"`
	Location       *string  `json:"location" validate:"omitempty,max=200"`
	Phone          *string  `json:"phone" validate:"omitempty,max=32"`
	LicenseID      *string  `json:"license_id" validate:"omitempty,max=64"`
	Category       *string  `json:"category" validate:"omitempty,max=64"`
	Level          *string  `json:"level" validate:"omitempty,max=64"`
	StadiumAddress *string  `json:"stadium_address" validate:"omitempty,max=255"`
	Latitude       *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude" validate:"omitempty,longitude"`
	Subscription   *string  `json:"subscription"`
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// POST /api/users/sync
func (h *UserHandler) Sync(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body syncUserRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &body) {
		return
	}

	if sub := strings.TrimSpace(body.Subject); sub != "" && sub != identity.Subject {
		response.Error(c, services.ErrSubjectMismatch)
		return
	}

	input := services.SyncUserInput{
		Subject:    identity.Subject,
		Email:      firstNonBlank(body.Email, identity.Email),
		GivenName:  firstNonBlank(body.GivenName, identity.GivenName),
		FamilyName: firstNonBlank(body.FamilyName, identity.FamilyName),
		Name:       firstNonBlank(body.Name, identity.Name),
		Picture:    firstNonBlank(body.Picture, identity.Picture),
	}

	user, created, err := h.users.Sync(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"user": user, "created": created})
}

// GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}

	user, err := h.users.GetBySubject(requestContext(c), subject)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// PUT /api/users/me
func (h *UserHandler) Update(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}

	var body updateProfileRequest
	if !bindAndValidate(c, &body) {
		return
	}
	if body.Subscription != nil {
		response.Error(c, ErrSubscriptionReadOnly)
		return
	}
	if body.Siret != nil {
		response.Error(c, ErrSiretReadOnly)
		return
	}

	ctx := requestContext(c)
	user, err := h.users.GetBySubject(ctx, subject)
	if err != nil {
		response.Error(c, err)
		return
	}

	updated, err := h.users.Update(ctx, user.ID, services.UpdateProfileInput{
		FirstName:      body.FirstName,
		LastName:       body.LastName,
		Location:       body.Location,
		Phone:          body.Phone,
		LicenseID:      body.LicenseID,
		Category:       body.Category,
		Level:          body.Level,
		StadiumAddress: body.StadiumAddress,
		Latitude:       body.Latitude,
		Longitude:      body.Longitude,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

// POST /api/users/link-club
func (h *UserHandler) LinkClub(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}

	var body linkClubRequest
	if !bindAndValidate(c, &body) {
		return
	}

	ctx := requestContext(c)
	user, err := h.users.GetBySubject(ctx, subject)
	if err != nil {
		response.Error(c, err)
		return
	}

	linked, err := h.users.LinkClub(ctx, user.ID, body.Siret)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, linked)
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
