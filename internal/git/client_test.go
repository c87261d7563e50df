package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/csspublisher/internal/config"
	"git.home.luguber.info/inful/csspublisher/internal/workspace"
)

func addCommit(t *testing.T, repo *git.Repository, repoPath, filename, content, msg string) plumbing.Hash {
	t.Helper()
	full := filepath.Join(repoPath, filename)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(filename)
	require.NoError(t, err)
	hash, err := wt.Commit(msg, &git.CommitOptions{Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}})
	require.NoError(t, err)
	return hash
}

func newSourceRepo(t *testing.T) (*git.Repository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source")
	repo, err := git.PlainInit(path, false)
	require.NoError(t, err)
	return repo, path
}

func newClient(t *testing.T) (*Client, *workspace.Manager) {
	t.Helper()
	ws := workspace.NewManager(filepath.Join(t.TempDir(), "scratch", "repo"))
	return NewClient(ws, config.SourceConfig{Auth: &config.AuthConfig{Type: config.AuthTypeNone}}), ws
}

func TestPrepare_ClonesSource(t *testing.T) {
	src, srcPath := newSourceRepo(t)
	hash := addCommit(t, src, srcPath, "scss/main.scss", "a { color: red; }", "initial")

	client, ws := newClient(t)
	tree, err := client.Prepare(context.Background(), srcPath)
	require.NoError(t, err)

	assert.Equal(t, ws.Path(), tree.Root)
	assert.Equal(t, hash.String(), tree.Commit)
	data, err := os.ReadFile(filepath.Join(tree.Root, "scss", "main.scss"))
	require.NoError(t, err)
	assert.Equal(t, "a { color: red; }", string(data))
}

func TestPrepare_ErasesPreviousTree(t *testing.T) {
	src, srcPath := newSourceRepo(t)
	addCommit(t, src, srcPath, "main.scss", "v1", "v1")

	client, _ := newClient(t)
	first, err := client.Prepare(context.Background(), srcPath)
	require.NoError(t, err)

	stale := filepath.Join(first.Root, "stale.css")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))
	second := addCommit(t, src, srcPath, "main.scss", "v2", "v2")

	tree, err := client.Prepare(context.Background(), srcPath)
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.Equal(t, second.String(), tree.Commit)
	data, err := os.ReadFile(filepath.Join(tree.Root, "main.scss"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestPrepare_UnreachableSource(t *testing.T) {
	client, _ := newClient(t)
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	_, err := client.Prepare(context.Background(), missing)
	require.Error(t, err)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, missing, terr.URL)
	assert.Contains(t, err.Error(), missing)
}

func TestPrepare_InvalidCredentials(t *testing.T) {
	ws := workspace.NewManager(filepath.Join(t.TempDir(), "repo"))
	client := NewClient(ws, config.SourceConfig{Auth: &config.AuthConfig{Type: config.AuthTypeToken}})

	_, err := client.Prepare(context.Background(), "https://example.invalid/repo.git")
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, ReasonAuth, terr.Reason)
}

func TestClassifyCloneError(t *testing.T) {
	cases := []struct {
		err  error
		want Reason
	}{
		{transport.ErrAuthenticationRequired, ReasonAuth},
		{transport.ErrAuthorizationFailed, ReasonAuth},
		{transport.ErrRepositoryNotFound, ReasonNotFound},
		{context.Canceled, ReasonCanceled},
		{errors.New("dial tcp: lookup example.invalid: no such host"), ReasonNetwork},
		{errors.New("unsupported scheme \"ftp\""), ReasonProtocol},
		{errors.New("something odd"), ReasonUnknown},
	}
	for _, tc := range cases {
		t.Run(string(tc.want)+"/"+tc.err.Error(), func(t *testing.T) {
			err := classifyCloneError("u", tc.err)
			var terr *TransportError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, tc.want, terr.Reason)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestRemoteHead_TracksLatestCommit(t *testing.T) {
	src, srcPath := newSourceRepo(t)
	first := addCommit(t, src, srcPath, "main.scss", "a { color: red; }", "first")

	client, ws := newClient(t)
	head, err := client.RemoteHead(context.Background(), srcPath)
	require.NoError(t, err)
	assert.Equal(t, first.String(), head)
	_, statErr := os.Stat(ws.Path())
	assert.True(t, os.IsNotExist(statErr), "listing refs must not touch the workspace")

	second := addCommit(t, src, srcPath, "main.scss", "a { color: blue; }", "second")
	head, err = client.RemoteHead(context.Background(), srcPath)
	require.NoError(t, err)
	assert.Equal(t, second.String(), head)
}

func TestRemoteHead_UnreachableSource(t *testing.T) {
	client, _ := newClient(t)
	_, err := client.RemoteHead(context.Background(), filepath.Join(t.TempDir(), "missing"))
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
}
