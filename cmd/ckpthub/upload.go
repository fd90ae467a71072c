package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"ckpthub/pkg/auth"
	"ckpthub/pkg/config"
	"ckpthub/pkg/hub"
	"ckpthub/pkg/logger"
	"ckpthub/pkg/ratelimit"
	"ckpthub/pkg/uploader"
)

var (
	uploadIgnore        []string
	uploadAllow         []string
	uploadPrivate       bool
	uploadRevision      string
	uploadCommitMessage string
	uploadEndpoint      string
	uploadToken         string
	uploadAccount       string
	uploadRepoType      string
	uploadDryRun        bool
	uploadNotify        bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-dir> <repo-id>",
	Short: "Upload a checkpoint folder to a model repository",
	Long: `Upload a local checkpoint folder to a model repository on the hub.

The repository is created first if it does not exist yet. The folder is then
uploaded in a single commit. Files matching an --ignore pattern are skipped;
patterns use shell wildcards where * also matches '/', and a trailing '/'
matches a whole directory.

The token is taken from --token, HF_TOKEN, or the credentials stored with
'ckpthub auth login', in that order.`,
	Example: `  # Upload a checkpoint, skipping logs and temporary files
  ckpthub upload ./checkpoints my-user/my-model --ignore "*.tmp" --ignore "logs/"

  # See what would be uploaded
  ckpthub upload ./checkpoints my-user/my-model --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	f := uploadCmd.Flags()
	f.StringArrayVarP(&uploadIgnore, "ignore", "i", nil, "pattern of files to skip (repeatable)")
	f.StringArrayVar(&uploadAllow, "allow", nil, "only upload files matching this pattern (repeatable)")
	f.BoolVar(&uploadPrivate, "private", false, "create the repository as private")
	f.StringVar(&uploadRevision, "revision", "", "branch to commit to (default main)")
	f.StringVarP(&uploadCommitMessage, "message", "m", "", "commit message")
	f.StringVar(&uploadEndpoint, "endpoint", "", "hub endpoint (default https://huggingface.co)")
	f.StringVar(&uploadToken, "token", "", "hub access token")
	f.StringVar(&uploadAccount, "account", "", "name of a stored credential to use")
	f.StringVar(&uploadRepoType, "repo-type", "", "repository type: model or dataset (default model)")
	f.BoolVar(&uploadDryRun, "dry-run", false, "list the files that would be uploaded and exit")
	f.BoolVar(&uploadNotify, "notify", false, "send a desktop notification when done")
}

func runUpload(cmd *cobra.Command, args []string) error {
	localDir, repoID := args[0], args[1]

	flags := map[string]interface{}{
		"endpoint":       uploadEndpoint,
		"token":          uploadToken,
		"account":        uploadAccount,
		"repo-type":      uploadRepoType,
		"revision":       uploadRevision,
		"commit-message": uploadCommitMessage,
		"ignore":         uploadIgnore,
		"allow":          uploadAllow,
	}
	if cmd.Flags().Changed("private") {
		flags["private"] = uploadPrivate
	}
	if cmd.Flags().Changed("notify") {
		flags["notify"] = uploadNotify
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	log := logger.GetLogger()
	printer := newPrinter(cfg)

	token := resolveToken(cfg, log)
	logger.LogComponentStart("uploader", map[string]interface{}{
		"endpoint":  cfg.Hub.Endpoint,
		"repo_id":   repoID,
		"has_token": token != "",
		"dry_run":   uploadDryRun,
	})

	client := hub.NewClient(hub.Options{
		Endpoint:   cfg.Hub.Endpoint,
		Token:      token,
		Timeout:    cfg.Hub.Timeout,
		MaxRetries: cfg.Hub.MaxRetries,
		Limiter:    ratelimit.PerMinute(cfg.Hub.RequestsPerMinute),
		Logger:     log,
	})

	up := uploader.New(client, uploader.Options{
		RepoType:      hub.RepoType(strings.ToLower(cfg.Hub.RepoType)),
		Private:       cfg.Hub.Private,
		Revision:      cfg.Upload.Revision,
		CommitMessage: cfg.Upload.CommitMessage,
		AllowPatterns: cfg.Upload.AllowPatterns,
		DryRun:        uploadDryRun,
		Notify:        cfg.UI.NotificationsEnabled,
		Progress:      cfg.UI.ProgressEnabled,
	}, printer, log)

	if err := up.UploadCheckpointFolder(cmd.Context(), localDir, repoID, cfg.Upload.IgnorePatterns); err != nil {
		// already reported on stdout
		return &exitError{err: err}
	}
	return nil
}

// resolveToken returns the configured token, falling back to stored
// credentials. An empty token is allowed; the hub decides whether it is
// needed.
func resolveToken(cfg *config.Config, log logger.Logger) string {
	if cfg.Hub.Token != "" {
		return cfg.Hub.Token
	}

	manager, err := auth.NewManager()
	if err != nil {
		log.DebugWithFields("credential manager unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}

	token, err := manager.Token(cfg.Hub.Account)
	if err != nil {
		if !errors.Is(err, auth.ErrCredentialsNotFound) {
			log.WarnWithFields("failed to read stored credentials", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return ""
	}
	return token
}

// exitError carries a failure that has already been shown to the user
type exitError struct {
	err error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}
