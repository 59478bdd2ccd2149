package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ctxlens/internal/paths"
)

// fsRepo is a filesystem-backed universe.RepoReader rooted at a directory,
// skipping VCS metadata the way the teacher's project package ignores
// .git when walking a working tree. Every discovered path is run through
// paths.CanonicalizePath so symlinked trees and mixed path separators
// still yield the forward-slash repo-relative paths the rest of the
// pipeline (fragment IDs, diff hunks) assumes.
type fsRepo struct {
	root string
}

func newFsRepo(root string) *fsRepo {
	return &fsRepo{root: root}
}

func (r *fsRepo) ListFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(r.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, canonErr := paths.CanonicalizePath(path, r.root)
		if canonErr != nil {
			return canonErr
		}
		if strings.HasPrefix(rel, ".git/") {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ReadFile rejects any path the universe or diff map handed back that
// escapes the repo root (a ".." canonicalization, a symlink pointing
// out of the tree) before touching the filesystem.
func (r *fsRepo) ReadFile(path string) (string, error) {
	abs := paths.JoinRepoPath(r.root, path)
	if !paths.IsWithinRepo(abs, r.root) {
		return "", fmt.Errorf("refusing to read path outside repo root: %s", path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
