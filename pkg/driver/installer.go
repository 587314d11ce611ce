package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/xyproto/env/v2"
)

// ResolveHome returns the include cache root: $SCRUM_HOME when set,
// otherwise ~/.scrum. SCRUM_HOME is read through env, which snapshots the
// process environment on first use; call env.Load after changing it.
func ResolveHome() (string, error) {
	if home := strings.TrimSpace(env.Str("SCRUM_HOME")); home != "" {
		abs, err := filepath.Abs(home)
		if err != nil {
			return "", fmt.Errorf("resolve SCRUM_HOME %q: %w", home, err)
		}
		return abs, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(userHome, ".scrum"), nil
}

// Installer fetches git includes into CacheDir.
type Installer struct {
	CacheDir string
}

// Install clones or refreshes every git include of m and checks out its
// pinned revision. It returns one log line per include.
func (in *Installer) Install(ctx context.Context, m *Manifest) ([]string, error) {
	if in == nil || in.CacheDir == "" {
		return nil, errors.New("installer: cache directory required")
	}
	var logs []string
	for _, spec := range m.GitIncludes() {
		line, err := in.install(ctx, spec)
		if err != nil {
			return logs, fmt.Errorf("include %q: %w", spec.Name, err)
		}
		logs = append(logs, line)
	}
	return logs, nil
}

func (in *Installer) install(ctx context.Context, spec *IncludeSpec) (string, error) {
	dir := checkoutDir(in.CacheDir, spec)
	revision, descriptor := gitRevision(spec)

	repo, err := git.PlainOpen(dir)
	action := "updated"
	switch {
	case err == nil:
		if spec.Branch != "" {
			err := repo.FetchContext(ctx, &git.FetchOptions{Force: true, Tags: git.AllTags})
			if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
				return "", fmt.Errorf("git fetch %s: %w", spec.Git, err)
			}
		}
	case errors.Is(err, git.ErrRepositoryNotExists):
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return "", err
		}
		repo, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: spec.Git, Tags: git.AllTags})
		if err != nil {
			_ = os.RemoveAll(dir)
			return "", fmt.Errorf("git clone %s: %w", spec.Git, err)
		}
		action = "installed"
	default:
		return "", fmt.Errorf("open %s: %w", dir, err)
	}

	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		return "", fmt.Errorf("resolve revision %s: %w", descriptor, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return "", fmt.Errorf("git checkout %s: %w", descriptor, err)
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(spec.File))); err != nil {
		return "", fmt.Errorf("%s not found in %s@%s", spec.File, spec.Git, descriptor)
	}
	return fmt.Sprintf("%s %s (%s@%s)", action, spec.Name, descriptor, shortHash(hash.String())), nil
}

// gitRevision maps the include's pin onto a revision go-git can resolve.
// Branches resolve against the remote-tracking ref so refreshed clones see
// fetched commits.
func gitRevision(spec *IncludeSpec) (plumbing.Revision, string) {
	switch {
	case spec.Rev != "":
		return plumbing.Revision(spec.Rev), spec.Rev
	case spec.Tag != "":
		return plumbing.Revision("refs/tags/" + spec.Tag), spec.Tag
	default:
		return plumbing.Revision("refs/remotes/origin/" + spec.Branch), spec.Branch
	}
}

func checkoutDir(cacheDir string, spec *IncludeSpec) string {
	_, descriptor := gitRevision(spec)
	return filepath.Join(cacheDir, "includes", sanitizePathSegment(spec.Name), sanitizePathSegment(descriptor))
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
