// Package gitfetch produces a working checkout of the application source at
// a requested ref, with enough shallow history to compute tag distance.
package gitfetch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Depth is the shallow-clone depth. It must exceed the commit distance since
// the newest release tag or version derivation falls back to an untagged
// string.
const Depth = 300

// localBranch is the branch pointer the requested ref is fetched into.
const localBranch = "winstaller-build"

// FetchError reports a failed clone, fetch, or checkout.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("git %s failed: %v", e.Op, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher clones and checks out the source repository.
type Fetcher struct {
	gitPath string
	logger  hclog.Logger
}

// NewFetcher locates the git client on PATH.
func NewFetcher(logger hclog.Logger) (*Fetcher, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git not found in PATH: %w", err)
	}
	return &Fetcher{gitPath: gitPath, logger: logger}, nil
}

// Checkout shallow-clones url into dir and checks out ref. The clone always
// starts from scratch; dir must not already contain a repository. All tags
// are fetched at the same depth so that tag-distance queries succeed, and the
// history is extended afterwards until ancestor tags are reachable.
func (f *Fetcher) Checkout(ctx context.Context, url, ref, dir string) error {
	f.logger.Info("cloning source repository", "url", url, "ref", ref, "depth", Depth)

	if err := f.run(ctx, "", "clone", fmt.Sprintf("--depth=%d", Depth), url, dir); err != nil {
		return &FetchError{Op: "clone", Err: err}
	}
	refspec := fmt.Sprintf("+%s:%s", ref, localBranch)
	if err := f.run(ctx, dir, "fetch", fmt.Sprintf("--depth=%d", Depth), "origin", refspec); err != nil {
		return &FetchError{Op: "fetch", Err: err}
	}
	if err := f.run(ctx, dir, "fetch", fmt.Sprintf("--depth=%d", Depth), "--tags", "origin"); err != nil {
		return &FetchError{Op: "fetch --tags", Err: err}
	}
	if err := f.run(ctx, dir, "checkout", "--force", localBranch); err != nil {
		return &FetchError{Op: "checkout", Err: err}
	}
	// Shallow boundaries may still cut off the nearest ancestor tag.
	if err := f.run(ctx, dir, "fetch", "--update-shallow", "--tags", "origin"); err != nil {
		return &FetchError{Op: "fetch --update-shallow", Err: err}
	}

	return nil
}

// IsTag reports whether ref resolves to a tag in the checkout at dir.
func (f *Fetcher) IsTag(ctx context.Context, dir, ref string) bool {
	err := f.run(ctx, dir, "rev-parse", "--verify", "--quiet", "refs/tags/"+ref)
	return err == nil
}

// AbbrevHash returns the abbreviated commit hash of HEAD in the checkout.
func (f *Fetcher) AbbrevHash(ctx context.Context, dir string) (string, error) {
	out, err := f.output(ctx, dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", &FetchError{Op: "rev-parse", Err: err}
	}
	return out, nil
}

func (f *Fetcher) run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, f.gitPath, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stdout = os.Stdout
	cmd.Stderr = &stderr
	f.logger.Debug("exec", "cmd", "git "+strings.Join(args, " "), "dir", dir)
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func (f *Fetcher) output(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, f.gitPath, args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
