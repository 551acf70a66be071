package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kdufoot/kdufoot/internal/permissions"
	"github.com/kdufoot/kdufoot/internal/quota"
	"github.com/kdufoot/kdufoot/pkg/errors"
	"github.com/kdufoot/kdufoot/pkg/response"
)

// PlanHandler publishes the subscription ladder for the pricing page.
type PlanHandler struct {
	resolver *permissions.Resolver
	rules    []quota.Rule
}

type planPayload struct {
	Tier        permissions.Tier         `json:"tier"`
	Rank        int                      `json:"rank"`
	Permissions []permissions.Permission `json:"permissions"`
	Added       []permissions.Permission `json:"added"`
}

func NewPlanHandler(resolver *permissions.Resolver, rules []quota.Rule) *PlanHandler {
	return &PlanHandler{resolver: resolver, rules: rules}
}

// GET /api/plans
func (h *PlanHandler) List(c *gin.Context) {
	matrix := h.resolver.Matrix()
	tiers := matrix.Tiers()

	plans := make([]planPayload, 0, len(tiers))
	for _, tier := range tiers {
		granted, err := h.resolver.Permissions(tier)
		if err != nil {
			response.Error(c, errors.ErrInternalServer.WithInternal(err))
			return
		}
		added, err := matrix.Added(tier)
		if err != nil {
			response.Error(c, errors.ErrInternalServer.WithInternal(err))
			return
		}
		plans = append(plans, planPayload{
			Tier:        tier,
			Rank:        tier.Rank(),
			Permissions: granted,
			Added:       added.Sorted(),
		})
	}

	rules := h.rules
	if rules == nil {
		rules = []quota.Rule{}
	}
	response.Success(c, http.StatusOK, gin.H{"plans": plans, "quotas": rules})
}
