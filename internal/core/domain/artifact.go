package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ArtifactKind string

const (
	KindModel   ArtifactKind = "model"
	KindDataset ArtifactKind = "dataset"
	KindCode    ArtifactKind = "code"
)

func ParseArtifactKind(s string) (ArtifactKind, error) {
	switch ArtifactKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindModel:
		return KindModel, nil
	case KindDataset:
		return KindDataset, nil
	case KindCode:
		return KindCode, nil
	default:
		return "", ErrInvalidArtifactKind
	}
}

// RefOrigin records which upstream document supplied a dependency hint.
// Hints recorded directly in the registry carry an empty origin.
type RefOrigin string

const (
	OriginConfig RefOrigin = "config"
	OriginCard   RefOrigin = "card"
)

// RawRef is one dependency hint extracted from upstream metadata: a
// base-model repo path, a dataset tag, a code repository URL.
type RawRef struct {
	Value  string    `json:"value"`
	Field  string    `json:"field"`
	Origin RefOrigin `json:"origin,omitempty"`
}

// ArtifactRecord is one tracked unit in the registry. The engine only
// reads records; all mutation goes through the storage layer.
type ArtifactRecord struct {
	ID        string            `json:"id"`
	Kind      ArtifactKind      `json:"kind"`
	Name      string            `json:"name"`
	Reference string            `json:"reference"`
	License   string            `json:"license,omitempty"`
	SizeMB    float64           `json:"size_mb"`
	SizeKnown bool              `json:"size_known"`
	RawRefs   []RawRef          `json:"raw_refs,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (r *ArtifactRecord) Validate() error {
	if r.ID == "" {
		return ErrInvalidArtifactID
	}
	if _, err := ParseArtifactKind(string(r.Kind)); err != nil {
		return err
	}
	if r.Reference == "" {
		return ErrInvalidReference
	}
	return nil
}

// NewArtifactID derives the stable identifier for (kind, reference).
// Equivalent references always map to the same UUID, so re-registering
// an artifact is detected as a conflict instead of a duplicate row.
func NewArtifactID(kind ArtifactKind, reference string) string {
	name := string(kind) + ":" + CanonicalizeReference(reference)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// CanonicalizeReference folds equivalent upstream URLs to one form:
// trailing slashes and hub revision suffixes (/tree/<rev>, /blob/<rev>)
// are dropped so mirror spellings of the same repo share an identity.
func CanonicalizeReference(reference string) string {
	ref := strings.TrimSpace(reference)
	ref = strings.TrimSuffix(ref, "/")
	for _, marker := range []string{"/tree/", "/blob/"} {
		if i := strings.Index(ref, marker); i > 0 {
			ref = ref[:i]
		}
	}
	return ref
}

// KindForReference guesses the artifact kind a reference points at from
// its URL shape: source-host repos are code, hub dataset paths are
// datasets, anything else on a hub is a model.
func KindForReference(reference string) ArtifactKind {
	ref := strings.ToLower(strings.TrimSpace(reference))
	switch {
	case strings.HasPrefix(ref, "https://github.com/"), strings.HasPrefix(ref, "https://gitlab.com/"):
		return KindCode
	case strings.Contains(ref, "/datasets/"):
		return KindDataset
	default:
		return KindModel
	}
}

// RefName extracts the name a reference resolves under: the repo path
// for hub URLs ("org/model"), the host-stripped path for other URLs,
// and bare paths unchanged.
func RefName(reference string) string {
	ref := CanonicalizeReference(reference)
	for _, prefix := range []string{"https://huggingface.co/datasets/", "https://huggingface.co/"} {
		if strings.HasPrefix(ref, prefix) {
			return strings.TrimPrefix(ref, prefix)
		}
	}
	if i := strings.Index(ref, "://"); i >= 0 {
		rest := ref[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			return rest[j+1:]
		}
		return rest
	}
	return ref
}
