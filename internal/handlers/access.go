package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kdufoot/kdufoot/internal/permissions"
	"github.com/kdufoot/kdufoot/internal/services"
	"github.com/kdufoot/kdufoot/pkg/errors"
	"github.com/kdufoot/kdufoot/pkg/response"
)

// AccessHandler answers feature-gating questions for the signed-in user.
type AccessHandler struct {
	access *services.AccessService
}

type checkAccessRequest struct {
	Permissions []string `json:"permissions" validate:"required,min=1,max=64,dive,required,permission"`
}

func NewAccessHandler(access *services.AccessService) *AccessHandler {
	return &AccessHandler{access: access}
}

// GET /api/access/me
func (h *AccessHandler) Me(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}

	profile, err := h.access.Profile(requestContext(c), subject)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// POST /api/access/check
//
// A denial is still a 200: the client asked a question and gets the missing set back.
func (h *AccessHandler) Check(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}

	var body checkAccessRequest
	if !bindAndValidate(c, &body) {
		return
	}

	required := permissions.NewSet()
	for _, raw := range body.Permissions {
		perm, err := permissions.Parse(raw)
		if err != nil {
			response.Error(c, errors.NewBadRequest(err.Error()))
			return
		}
		required.Add(perm)
	}

	decision, err := h.access.Evaluate(requestContext(c), subject, required)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, decision)
}
