package helm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"helm.sh/helm/v3/pkg/getter"
	"helm.sh/helm/v3/pkg/repo"
)

// RepoOutcome reports what EnsureRepository did.
type RepoOutcome string

// Repository outcomes.
const (
	RepoAdded             RepoOutcome = "added"
	RepoAlreadyRegistered RepoOutcome = "already registered"
)

// ErrRepoConflict is returned when the alias is registered for another URL.
var ErrRepoConflict = errors.New("repository name is registered with a different URL")

// EnsureRepository registers url as name in the Helm repository file and
// downloads its index, the way `helm repo add` does.
func (c *Client) EnsureRepository(name, url string) (RepoOutcome, error) {
	path := c.settings.RepositoryConfig

	f, err := repo.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		f = repo.NewFile()
	} else if err != nil {
		return "", fmt.Errorf("failed to load repository file: %w", err)
	}

	if f.Has(name) {
		if existing := f.Get(name); existing.URL != url {
			return "", fmt.Errorf("%w: %s points at %s", ErrRepoConflict, name, existing.URL)
		}
		return RepoAlreadyRegistered, nil
	}

	entry := &repo.Entry{Name: name, URL: url}
	r, err := repo.NewChartRepository(entry, getter.All(c.settings))
	if err != nil {
		return "", fmt.Errorf("invalid repository %s: %w", url, err)
	}
	r.CachePath = c.settings.RepositoryCache
	if err := os.MkdirAll(r.CachePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create repository cache: %w", err)
	}
	if _, err := r.DownloadIndexFile(); err != nil {
		return "", fmt.Errorf("failed to fetch index of %s: %w", url, err)
	}

	f.Update(entry)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create repository config dir: %w", err)
	}
	if err := f.WriteFile(path, 0o600); err != nil {
		return "", fmt.Errorf("failed to write repository file: %w", err)
	}
	return RepoAdded, nil
}
