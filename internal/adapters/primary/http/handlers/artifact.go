package handlers

import (
	"net/http"
	"strconv"

	"artifact-registry-service/internal/adapters/primary/http/dto"
	"artifact-registry-service/internal/core/domain"
	"artifact-registry-service/internal/core/ports/output"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) ListArtifacts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := ports.ArtifactFilter{
		Kind:   domain.ArtifactKind(c.Query("kind")),
		Name:   c.Query("name"),
		Limit:  limit,
		Offset: offset,
	}

	records, total, err := h.artifactSvc.List(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("list artifacts failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.ArtifactResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.ToArtifactResponse(rec))
	}

	c.JSON(http.StatusOK, dto.ListArtifactsResponse{
		Items:      items,
		Total:      total,
		PageSize:   limit,
		NextOffset: offset + len(items),
	})
}

func (h *Handler) GetArtifact(c *gin.Context) {
	id, err := artifactID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}

	rec, err := h.artifactSvc.Get(c.Request.Context(), id)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToArtifactResponse(rec))
}

func (h *Handler) GetArtifactByName(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "artifact name is required"})
		return
	}

	records, err := h.artifactSvc.GetByName(c.Request.Context(), name)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	items := make([]dto.ArtifactResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.ToArtifactResponse(rec))
	}

	c.JSON(http.StatusOK, dto.ArtifactsByNameResponse{
		Items: items,
		Total: len(items),
	})
}

func (h *Handler) SearchArtifacts(c *gin.Context) {
	var req dto.SearchArtifactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.artifactSvc.Search(c.Request.Context(), req.Pattern)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	items := make([]dto.ArtifactResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.ToArtifactResponse(rec))
	}

	c.JSON(http.StatusOK, dto.SearchArtifactsResponse{
		Items: items,
		Total: len(items),
	})
}

func (h *Handler) RegisterArtifact(c *gin.Context) {
	var req dto.RegisterArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.artifactSvc.Register(c.Request.Context(), req.Kind, req.Reference, req.Name)
	if err != nil {
		log.WithError(err).Error("register artifact failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToArtifactResponse(rec))
}

func (h *Handler) UpdateArtifact(c *gin.Context) {
	id, err := artifactID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}

	var req dto.UpdateArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.License != nil {
		updates["license"] = *req.License
	}
	if req.SizeMB != nil {
		updates["size_mb"] = *req.SizeMB
	}
	if req.Metadata != nil {
		updates["metadata"] = req.Metadata
	}

	rec, err := h.artifactSvc.Update(c.Request.Context(), id, updates)
	if err != nil {
		log.WithError(err).Error("update artifact failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToArtifactResponse(rec))
}

func (h *Handler) DeleteArtifact(c *gin.Context) {
	id, err := artifactID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}

	if err := h.artifactSvc.Delete(c.Request.Context(), id); err != nil {
		log.WithError(err).Error("delete artifact failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// artifactID validates and canonicalizes the :id path parameter.
// Record ids are UUIDs, so anything unparseable is rejected before it
// reaches storage.
func artifactID(c *gin.Context) (string, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
