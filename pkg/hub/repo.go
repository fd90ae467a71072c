package hub

import (
	"context"
	"errors"
	"net/http"
	"strings"

	errs "ckpthub/pkg/errors"
)

// CreateRepo creates a repository on the hub. With ExistOK set, a repository
// that already exists is reported as success and its URL is returned.
func (c *Client) CreateRepo(ctx context.Context, opts CreateRepoOptions) (*RepoURL, error) {
	if err := validateRepoID(opts.RepoID); err != nil {
		return nil, err
	}
	repoType := opts.RepoType
	if repoType == "" {
		repoType = RepoTypeModel
	}
	if !repoType.Valid() {
		return nil, errs.New(errs.ErrorTypeBadRequest, 0, "invalid repo type %q", repoType)
	}

	org, name := splitRepoID(opts.RepoID)
	body := createRepoRequest{
		Name:         name,
		Organization: org,
		Private:      opts.Private,
	}
	if repoType != RepoTypeModel {
		body.Type = string(repoType)
	}

	c.logger.DebugWithFields("creating repository", map[string]interface{}{
		"repo_id":   opts.RepoID,
		"repo_type": repoType,
		"private":   opts.Private,
		"exist_ok":  opts.ExistOK,
	})

	var resp createRepoResponse
	err := c.callJSON(ctx, http.MethodPost, c.createRepoURL(), body, &resp, "", authBearer)
	if err != nil {
		var apiErr *errs.Error
		if opts.ExistOK && errors.As(err, &apiErr) && apiErr.Type == errs.ErrorTypeConflict {
			c.logger.DebugWithFields("repository already exists", map[string]interface{}{
				"repo_id": opts.RepoID,
			})
			return c.RepoURLFor(repoType, opts.RepoID), nil
		}
		c.logger.ErrorWithFields("failed to create repository", map[string]interface{}{
			"repo_id": opts.RepoID,
			"error":   err.Error(),
		})
		return nil, err
	}

	url := c.RepoURLFor(repoType, opts.RepoID)
	if resp.URL != "" {
		url.URL = resp.URL
	}
	return url, nil
}

// WhoAmI returns the account the client's token belongs to
func (c *Client) WhoAmI(ctx context.Context) (*User, error) {
	if c.token == "" {
		return nil, errs.New(errs.ErrorTypeAuth, 0, "no token configured")
	}

	var user User
	if err := c.callJSON(ctx, http.MethodGet, c.whoAmIURL(), nil, &user, "", authBearer); err != nil {
		return nil, err
	}
	return &user, nil
}

// validateRepoID checks the "name" or "namespace/name" form
func validateRepoID(repoID string) error {
	if repoID == "" {
		return errs.New(errs.ErrorTypeBadRequest, 0, "repo id is empty")
	}
	parts := strings.Split(repoID, "/")
	if len(parts) > 2 {
		return errs.New(errs.ErrorTypeBadRequest, 0, "repo id %q must be in the form 'name' or 'namespace/name'", repoID)
	}
	for _, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\n") || strings.Contains(p, "..") {
			return errs.New(errs.ErrorTypeBadRequest, 0, "invalid repo id %q", repoID)
		}
	}
	return nil
}
