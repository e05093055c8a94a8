// Package storage uploads extracted article/document text to the CDN
// bucket via the Supabase storage client.
package storage

import (
	"fmt"
	"strings"
	"sync"

	storage_go "github.com/supabase-community/storage-go"
)

// TokenSource returns the current CDN credential. Satisfied by
// *config.TokenWatcher.Token, so a rotated CDN_TOKEN_FILE is picked up
// without a process restart.
type TokenSource func() string

// CDN uploads text content and returns its public URL. The underlying
// Supabase client has no in-place credential update, so CDN rebuilds it
// whenever tokenFn reports a token different from the one the cached
// client was built with.
type CDN struct {
	projectURL string
	bucket     string
	owner      string
	tokenFn    TokenSource

	mu          sync.Mutex
	cachedToken string
	client      *storage_go.Client
}

// New creates a CDN client. projectURL is the Supabase project's storage
// endpoint (e.g. https://<project>.supabase.co/storage/v1). tokenFn is
// consulted on every call, typically backed by a config.TokenWatcher
// watching CDN_TOKEN_FILE.
func New(projectURL string, tokenFn TokenSource, bucket, owner string) *CDN {
	return &CDN{projectURL: projectURL, tokenFn: tokenFn, bucket: bucket, owner: owner}
}

// clientFor returns a Supabase storage client built with the currently
// active token, rebuilding it if the token has rotated since the last call.
func (c *CDN) clientFor() *storage_go.Client {
	token := c.tokenFn()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil || token != c.cachedToken {
		c.client = storage_go.NewClient(c.projectURL, token, nil)
		c.cachedToken = token
	}
	return c.client
}

// UploadText stores content under a namespaced object key and returns its
// public URL.
func (c *CDN) UploadText(userID, filename, content string) (string, error) {
	key := c.objectKey(userID, filename)
	client := c.clientFor()

	_, err := client.UploadFile(c.bucket, key, strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("cdn upload failed: %w", err)
	}

	resp := client.GetPublicUrl(c.bucket, key)
	return resp.SignedURL, nil
}

func (c *CDN) objectKey(userID, filename string) string {
	if filename == "" {
		filename = "untitled.txt"
	}
	return fmt.Sprintf("%s/%s/%s", c.owner, userID, filename)
}
