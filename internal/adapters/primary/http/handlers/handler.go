package handlers

import (
	"artifact-registry-service/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	artifactSvc *services.ArtifactService
	costSvc     *services.CostService
	lineageSvc  *services.LineageService
	licenseSvc  *services.LicenseService
}

func New(
	artifactSvc *services.ArtifactService,
	costSvc *services.CostService,
	lineageSvc *services.LineageService,
	licenseSvc *services.LicenseService,
) *Handler {
	return &Handler{
		artifactSvc: artifactSvc,
		costSvc:     costSvc,
		lineageSvc:  lineageSvc,
		licenseSvc:  licenseSvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Artifacts
	r.GET("/artifacts", h.ListArtifacts)
	r.GET("/artifacts/:id", h.GetArtifact)
	r.GET("/artifact", h.GetArtifactByName)
	r.POST("/artifact/search", h.SearchArtifacts)
	r.POST("/artifacts", h.RegisterArtifact)
	r.PATCH("/artifacts/:id", h.UpdateArtifact)
	r.DELETE("/artifacts/:id", h.DeleteArtifact)

	// Relationship & Cost Engine
	r.GET("/artifacts/:id/cost", h.GetArtifactCost)
	r.GET("/artifacts/:id/lineage", h.GetArtifactLineage)
	r.POST("/artifacts/:id/license-check", h.CheckArtifactLicense)
}
