package ports

import "context"

// SourceHostClient resolves the license of a source repository URL
// (github.com-style host). Same found/error split as MetadataClient:
// a repo without a license is (_, false, nil), a failed call is an
// error wrapping domain.ErrUpstreamUnavailable.
type SourceHostClient interface {
	FetchRepoLicense(ctx context.Context, repoURL string) (string, bool, error)
}
