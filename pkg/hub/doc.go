// Package hub is a client for the HTTP API of a Hugging Face compatible
// model hub.
//
// It covers what checkpoint publishing needs: creating a repository,
// uploading a local folder as a single commit, and identifying the account
// behind a token. Files the hub marks as LFS are uploaded to storage first,
// using multipart transfers when the hub asks for them, and referenced
// from the commit by their SHA-256.
//
// Idempotent requests are retried on network, rate limit and server errors.
// The commit request is sent once.
//
// Example usage:
//
//	client := hub.NewClient(hub.Options{Token: token})
//
//	url, err := client.CreateRepo(ctx, hub.CreateRepoOptions{
//	    RepoID:  "user/my-model",
//	    ExistOK: true,
//	})
//	if err != nil {
//	    return err
//	}
//
//	info, err := client.UploadFolder(ctx, hub.UploadFolderOptions{
//	    FolderPath:     "./checkpoints",
//	    RepoID:         "user/my-model",
//	    IgnorePatterns: []string{"*.tmp", "logs/"},
//	})
package hub
