package handlers

import (
	"net/http"
	"strconv"

	"artifact-registry-service/internal/adapters/primary/http/dto"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) GetArtifactCost(c *gin.Context) {
	id, err := artifactID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}

	includeDeps := true
	if raw := c.Query("include_dependencies"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid include_dependencies value"})
			return
		}
		includeDeps = parsed
	}

	report, err := h.costSvc.ComputeCost(c.Request.Context(), id, includeDeps)
	if err != nil {
		log.WithError(err).Error("cost computation failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCostReportResponse(id, report))
}

func (h *Handler) GetArtifactLineage(c *gin.Context) {
	id, err := artifactID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}

	graph, err := h.lineageSvc.ComputeLineage(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Error("lineage computation failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLineageResponse(id, graph))
}

func (h *Handler) CheckArtifactLicense(c *gin.Context) {
	id, err := artifactID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}

	var req dto.LicenseCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	check, err := h.licenseSvc.CheckLicense(c.Request.Context(), id, req.ConsumerLicense, req.ConsumerRepoURL)
	if err != nil {
		log.WithError(err).Error("license check failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLicenseCheckResponse(check))
}
