package hub

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultEndpoint is the public hub
	DefaultEndpoint = "https://huggingface.co"

	// DefaultRevision is the branch uploads commit to
	DefaultRevision = "main"

	// preuploadChunkSize caps the number of files per preupload call
	preuploadChunkSize = 256

	// lfsBatchChunkSize caps the number of objects per LFS batch call
	lfsBatchChunkSize = 256

	lfsContentType = "application/vnd.git-lfs+json"
	ndjsonType     = "application/x-ndjson"
)

// repoPrefix is the URL segment placed before a repo id on the web side
func repoPrefix(t RepoType) string {
	switch t {
	case RepoTypeDataset:
		return "datasets/"
	case RepoTypeSpace:
		return "spaces/"
	}
	return ""
}

// apiRepoPath returns the /api/{type}s/{repo} part of API URLs
func apiRepoPath(t RepoType, repoID string) string {
	if t == "" {
		t = RepoTypeModel
	}
	return fmt.Sprintf("/api/%ss/%s", t, repoID)
}

// splitRepoID splits "org/name" into organization and name
func splitRepoID(repoID string) (org, name string) {
	if i := strings.Index(repoID, "/"); i >= 0 {
		return repoID[:i], repoID[i+1:]
	}
	return "", repoID
}

func (c *Client) createRepoURL() string {
	return c.endpoint + "/api/repos/create"
}

func (c *Client) whoAmIURL() string {
	return c.endpoint + "/api/whoami-v2"
}

func (c *Client) preuploadURL(t RepoType, repoID, revision string) string {
	return fmt.Sprintf("%s%s/preupload/%s", c.endpoint, apiRepoPath(t, repoID), url.PathEscape(revision))
}

func (c *Client) commitURL(t RepoType, repoID, revision string) string {
	return fmt.Sprintf("%s%s/commit/%s", c.endpoint, apiRepoPath(t, repoID), url.PathEscape(revision))
}

func (c *Client) lfsBatchURL(t RepoType, repoID string) string {
	return fmt.Sprintf("%s/%s%s.git/info/lfs/objects/batch", c.endpoint, repoPrefix(t), repoID)
}

// RepoURLFor builds the web URL of a repository
func (c *Client) RepoURLFor(t RepoType, repoID string) *RepoURL {
	if t == "" {
		t = RepoTypeModel
	}
	return &RepoURL{
		URL:      fmt.Sprintf("%s/%s%s", c.endpoint, repoPrefix(t), repoID),
		Endpoint: c.endpoint,
		RepoID:   repoID,
		RepoType: t,
	}
}
