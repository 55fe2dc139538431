package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"artifact-registry-service/internal/core/domain"
	"artifact-registry-service/internal/core/ports/output"
)

// LicenseService answers "may this consumer use that artifact": it
// gathers the producer license from the record (or the catalog when
// the record is silent) and the consumer license from the request (or
// the source host when only a repo URL is supplied), then runs the
// class-based evaluation.
type LicenseService struct {
	repo       ports.ArtifactRepository
	catalog    ports.MetadataClient
	sourcehost ports.SourceHostClient
}

func NewLicenseService(repo ports.ArtifactRepository, catalog ports.MetadataClient, sourcehost ports.SourceHostClient) *LicenseService {
	return &LicenseService{repo: repo, catalog: catalog, sourcehost: sourcehost}
}

// CheckLicense evaluates compatibility between the model rootID and a
// consumer identified by a raw license string or a source repo URL.
// A producer-side fetch failure degrades to an unknown producer and is
// flagged; a consumer-side fetch failure is surfaced, because without
// the consumer license there is nothing meaningful to evaluate.
func (s *LicenseService) CheckLicense(ctx context.Context, rootID, consumerLicense, consumerRepoURL string) (*domain.LicenseCheck, error) {
	if strings.TrimSpace(rootID) == "" {
		return nil, domain.ErrInvalidArtifactID
	}
	consumerLicense = strings.TrimSpace(consumerLicense)
	consumerRepoURL = strings.TrimSpace(consumerRepoURL)
	if consumerLicense == "" && consumerRepoURL == "" {
		return nil, domain.ErrInvalidConsumer
	}

	root, err := loadArtifact(ctx, s.repo, rootID)
	if err != nil {
		return nil, err
	}
	if root.Kind != domain.KindModel {
		return nil, fmt.Errorf("artifact %s has kind %s, license check requires a model: %w",
			root.ID, root.Kind, domain.ErrInvalidMetadata)
	}

	producerRaw := root.License
	producerUnavailable := false
	if producerRaw == "" && root.Reference != "" {
		lic, found, fetchErr := s.catalog.FetchLicense(ctx, root.Reference)
		switch {
		case fetchErr != nil:
			log.WithError(fetchErr).WithField("artifact_id", root.ID).Warn("producer license fetch failed")
			producerUnavailable = true
		case found:
			producerRaw = lic
		}
	}

	consumerRaw := consumerLicense
	if consumerRaw == "" {
		lic, found, fetchErr := s.sourcehost.FetchRepoLicense(ctx, consumerRepoURL)
		if fetchErr != nil {
			return nil, fmt.Errorf("consumer license for %s: %w", consumerRepoURL, domain.ErrUpstreamUnavailable)
		}
		if found {
			consumerRaw = lic
		}
	}

	producer := domain.NormalizeLicense(producerRaw)
	consumer := domain.NormalizeLicense(consumerRaw)
	return &domain.LicenseCheck{
		Compatible:          domain.EvaluateLicenses(producerRaw, consumerRaw),
		ProducerLicense:     producer,
		ProducerClass:       domain.ClassifyLicense(producer),
		ConsumerLicense:     consumer,
		ConsumerClass:       domain.ClassifyLicense(consumer),
		ProducerUnavailable: producerUnavailable,
	}, nil
}
