package git

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

// maxSymrefDepth bounds HEAD -> refs/heads/x chains in an advertisement.
const maxSymrefDepth = 5

// RemoteHead returns the commit HEAD points to on sourceURL without cloning,
// the equivalent of `git ls-remote <url> HEAD`.
func (c *Client) RemoteHead(ctx context.Context, sourceURL string) (string, error) {
	method, err := c.auth.CreateAuth(c.authCfg)
	if err != nil {
		return "", &TransportError{URL: sourceURL, Reason: ReasonAuth, Err: err}
	}

	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{sourceURL},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{
		Auth:            method,
		InsecureSkipTLS: c.insecureSkipTLS,
	})
	if err != nil {
		return "", classifyCloneError(sourceURL, err)
	}

	byName := make(map[plumbing.ReferenceName]*plumbing.Reference, len(refs))
	for _, ref := range refs {
		byName[ref.Name()] = ref
	}
	head, ok := byName[plumbing.HEAD]
	for i := 0; ok && head.Type() == plumbing.SymbolicReference && i < maxSymrefDepth; i++ {
		head, ok = byName[head.Target()]
	}
	if !ok || head.Type() != plumbing.HashReference {
		return "", &TransportError{URL: sourceURL, Reason: ReasonProtocol, Err: errors.New("remote does not advertise HEAD")}
	}
	return head.Hash().String(), nil
}
