package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/anchorlab/reanchor/internal/domain"
)

// ErrRevisionUnreachable reports that a revision could not be resolved in
// the repository, typically after history was rewritten or pruned.
var ErrRevisionUnreachable = errors.New("revision unreachable")

// Engine provides repository content and revision lookups backed by go-git.
// Working tree diffs shell out to the git binary, which handles uncommitted
// state better than library traversal.
type Engine struct {
	repoDir string
}

// NewEngine constructs an engine for the provided repository directory.
func NewEngine(repoDir string) *Engine {
	return &Engine{repoDir: repoDir}
}

// FileAtRevision returns the file's lines as they were at a revision.
func (e *Engine) FileAtRevision(ctx context.Context, revision, path string) ([]string, error) {
	repo, err := e.openRepo()
	if err != nil {
		return nil, err
	}

	commit, err := resolveCommit(repo, revision)
	if err != nil {
		return nil, err
	}

	file, err := commit.File(path)
	if err != nil {
		return nil, fmt.Errorf("file %s at %s: %w", path, revision, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read %s at %s: %w", path, revision, err)
	}
	return domain.SplitLines(contents), nil
}

// CurrentFile returns the file's lines from the working tree.
func (e *Engine) CurrentFile(ctx context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(e.repoDir, path))
	if err != nil {
		return nil, fmt.Errorf("read working tree file: %w", err)
	}
	return domain.SplitLines(string(data)), nil
}

// Head returns the hash of the checked-out revision.
func (e *Engine) Head(ctx context.Context) (string, error) {
	repo, err := e.openRepo()
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// ResolveRevision normalizes a ref name to a full commit hash.
func (e *Engine) ResolveRevision(ctx context.Context, revision string) (string, error) {
	repo, err := e.openRepo()
	if err != nil {
		return "", err
	}
	commit, err := resolveCommit(repo, revision)
	if err != nil {
		return "", err
	}
	return commit.Hash.String(), nil
}

// DiffText renders the diff between a revision and the working tree for one
// file, with the requested number of context lines.
func (e *Engine) DiffText(ctx context.Context, revision, path string, contextLines int) (string, error) {
	return runGitCommand(ctx, e.repoDir, "diff", fmt.Sprintf("-U%d", contextLines), revision, "--", path)
}

// RemoteURL returns the URL of the origin remote, identifying which
// repository stored threads belong to.
func (e *Engine) RemoteURL(ctx context.Context) (string, error) {
	repo, err := e.openRepo()
	if err != nil {
		return "", err
	}
	remote, err := repo.Remote(goGit.DefaultRemoteName)
	if err != nil {
		return "", fmt.Errorf("remote %s: %w", goGit.DefaultRemoteName, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", goGit.DefaultRemoteName)
	}
	return urls[0], nil
}

func (e *Engine) openRepo() (*goGit.Repository, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	return repo, nil
}

func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		name := plumbing.Revision(candidate)
		hash, err := repo.ResolveRevision(name)
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr == nil {
		lastErr = plumbing.ErrReferenceNotFound
	}
	return nil, fmt.Errorf("resolve %s: %v: %w", ref, lastErr, ErrRevisionUnreachable)
}

func runGitCommand(ctx context.Context, repoDir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoDir}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git %v: %w", args, ctx.Err())
		}
		if stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("git %v: %w", args, err)
	}
	return stdout.String(), nil
}
