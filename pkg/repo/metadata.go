// Package repo reads the identity of the assessed repository.
package repo

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/user/hecvat-adk/pkg/engine"
)

// Inspect returns the origin URL, branch and HEAD commit of the git
// repository containing dir. Fields that cannot be determined stay empty.
func Inspect(dir string) (engine.RepoInfo, error) {
	var info engine.RepoInfo
	if dir == "" {
		return info, fmt.Errorf("repository path is not set")
	}

	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return info, fmt.Errorf("failed to open repository %s: %w", dir, err)
	}

	if head, err := r.Head(); err == nil {
		if head.Name().IsBranch() {
			info.Branch = head.Name().Short()
		}
		info.Commit = head.Hash().String()
	}

	if remote, err := r.Remote("origin"); err == nil {
		if cfg := remote.Config(); cfg != nil && len(cfg.URLs) > 0 {
			info.Repository = strings.TrimSuffix(cfg.URLs[0], ".git")
		}
	}
	return info, nil
}
