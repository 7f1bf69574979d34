// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_ValidRepo(t *testing.T) {
	dir := initTestRepo(t)

	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "", repo.prefix)
	assert.Equal(t, "apply-edits", repo.cfg.AuthorName)
}

func TestOpen_Subdirectory(t *testing.T) {
	dir := initTestRepo(t)
	sub := filepath.Join(dir, "svc", "api")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	repo, err := Open(Config{WorkDir: sub})
	require.NoError(t, err)
	assert.Equal(t, "svc/api", repo.prefix)
	assert.Equal(t, "svc/api/main.go", repo.repoPath("./main.go"))
}

func TestOpen_NotARepo(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(Config{WorkDir: dir})
	assert.ErrorIs(t, err, ErrNoGit)
}

func TestUnrelatedChanges_CleanRepo(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	unrelated, err := repo.UnrelatedChanges(nil)
	require.NoError(t, err)
	assert.Empty(t, unrelated)
}

func TestUnrelatedChanges_SkipsGivenPaths(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() { /* modified */ }\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.go"), []byte("package main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package main\n"), 0o644))

	unrelated, err := repo.UnrelatedChanges([]string{"main.go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.go", "new.go"}, unrelated)
}

func TestUnrelatedChanges_FromSubdirectory(t *testing.T) {
	dir := initTestRepo(t)
	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "a.go"), []byte("package pkg\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))

	repo, err := Open(Config{WorkDir: sub})
	require.NoError(t, err)

	unrelated, err := repo.UnrelatedChanges([]string{"a.go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, unrelated)
}

func TestIsAppliedCommit(t *testing.T) {
	t.Run("trailer commit", func(t *testing.T) {
		dir := initTestRepo(t)
		addFileAndCommit(t, dir, "test.go", "package main\n", "feat: test\n\n"+Trailer)

		repo, err := Open(Config{WorkDir: dir})
		require.NoError(t, err)

		ok, err := repo.IsAppliedCommit()
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("other commit", func(t *testing.T) {
		dir := initTestRepo(t)

		repo, err := Open(Config{WorkDir: dir})
		require.NoError(t, err)

		ok, err := repo.IsAppliedCommit()
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "fix: exact words", Message("  fix: exact words\n", "ignored", []string{"a.go"}))

	msg := Message("", "Fix the retry loop.", []string{"a.go"})
	assert.Equal(t, "fix: fix the retry loop", firstLineOf(msg))

	msg = Message("", "", []string{"a.go"})
	assert.Equal(t, "chore: apply edits to a.go", firstLineOf(msg))
}

func TestGenerateMessage(t *testing.T) {
	tests := []struct {
		name    string
		summary string
		files   []string
		subject string
	}{
		{"feature", "Add retry support", nil, "feat: add retry support"},
		{"bug fix", "Fix the null check", nil, "fix: fix the null check"},
		{"refactor", "Rename handler types", nil, "refactor: rename handler types"},
		{"docs", "Update the README", nil, "docs: update the README"},
		{"typed summary", "test: cover the parser", nil, "test: cover the parser"},
		{"fallback", "Tweak constants", nil, "feat: tweak constants"},
		{"no summary one file", "", []string{"a.go"}, "chore: apply edits to a.go"},
		{"no summary many files", "", []string{"a.go", "b.go"}, "chore: apply edits to 2 files"},
		{"no summary no files", "", nil, "chore: apply edits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.subject, firstLineOf(GenerateMessage(tt.summary, tt.files)))
		})
	}
}

func TestGenerateMessage_LongSummaryTruncated(t *testing.T) {
	msg := GenerateMessage("Add "+strings.Repeat("very ", 30)+"long summary", nil)
	subject := firstLineOf(msg)
	assert.LessOrEqual(t, len(subject), maxSubjectLength)
	assert.True(t, strings.HasSuffix(subject, "..."))
}

func TestGenerateMessage_IncludesFiles(t *testing.T) {
	msg := GenerateMessage("Add feature", []string{"a.go", "b/c.go"})
	assert.Contains(t, msg, "Modified files:\n- a.go\n- b/c.go")
}

func TestWithTrailer(t *testing.T) {
	assert.Equal(t, "feat: x\n\n"+Trailer+"\n", withTrailer("feat: x\n"))
	assert.Equal(t, "feat: x\n\n"+Trailer+"\n", withTrailer("feat: x\n\n"+Trailer))
}

func TestInferCommitType(t *testing.T) {
	tests := []struct {
		summary string
		want    string
	}{
		{"fix a bug", "fix"},
		{"Refactor the loader", "refactor"},
		{"add tests for coverage", "test"},
		{"prefix matching", "feat"},
		{"clean up imports", "refactor"},
		{"optimize the hot path", "perf"},
		{"bump dependency", "build"},
		{"chore: tidy", "chore"},
	}
	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			assert.Equal(t, tt.want, inferCommitType(tt.summary))
		})
	}
}

func TestContainsWord(t *testing.T) {
	assert.True(t, containsWord("fix the bug", "bug"))
	assert.False(t, containsWord("debugger", "bug"))
	assert.True(t, containsWord("please clean up", "clean up"))
}

// initTestRepo creates a temp dir with a git repo, an initial commit, and
// returns the directory path.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	r, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := r.Worktree()
	require.NoError(t, err)

	mainGo := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(mainGo, []byte("package main\n\nfunc main() {}\n"), 0o644))

	_, err = wt.Add("main.go")
	require.NoError(t, err)

	_, err = wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@test.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return dir
}

// addFileAndCommit adds a file and creates a commit with the given message.
func addFileAndCommit(t *testing.T, dir, name, content, msg string) {
	t.Helper()

	r, err := gogit.PlainOpen(dir)
	require.NoError(t, err)

	wt, err := r.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))

	_, err = wt.Add(name)
	require.NoError(t, err)

	_, err = wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@test.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
}

func firstLineOf(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
