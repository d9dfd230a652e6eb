package mirror

import (
	"context"
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// goGitOps is the production gitOps implementation backed by go-git.
type goGitOps struct{}

// basicAuth builds token auth for GitHub's smart HTTP endpoint. The
// username is ignored by GitHub but must be non-empty.
func basicAuth(token string) *githttp.BasicAuth {
	if token == "" {
		return nil
	}
	return &githttp.BasicAuth{
		Username: "x-access-token",
		Password: token,
	}
}

// Clone creates a full clone with all remote branches; history analysis
// walks every branch, so a single-branch clone would miss most of it.
func (goGitOps) Clone(ctx context.Context, path, url, token string) error {
	_, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
		URL:          url,
		Auth:         basicAuth(token),
		SingleBranch: false,
	})
	if err != nil {
		return fmt.Errorf("cloning %s: %w", url, err)
	}
	return nil
}

// Fetch updates all refs from origin, pruning branches deleted upstream.
func (goGitOps) Fetch(ctx context.Context, path, url, token string) error {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return fmt.Errorf("opening mirror: %w", err)
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		Auth:       basicAuth(token),
		Prune:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetching origin: %w", err)
	}
	return nil
}
