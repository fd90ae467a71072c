package uploader

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"ckpthub/pkg/checkpoint"
	"ckpthub/pkg/hub"
	"ckpthub/pkg/ignore"
	"ckpthub/pkg/logger"
	"ckpthub/pkg/ui"
)

// Hub is the part of the hub client the uploader needs
type Hub interface {
	CreateRepo(ctx context.Context, opts hub.CreateRepoOptions) (*hub.RepoURL, error)
	UploadFolder(ctx context.Context, opts hub.UploadFolderOptions) (*hub.CommitInfo, error)
}

// Stage names the step an upload failed in
type Stage string

const (
	StageCreateRepo   Stage = "create_repo"
	StageUploadFolder Stage = "upload_folder"
	StageScan         Stage = "scan"
)

// UploadError reports a failed checkpoint upload
type UploadError struct {
	Stage  Stage
	RepoID string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload to %s failed during %s: %v", e.RepoID, e.Stage, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Options tunes an Uploader
type Options struct {
	// RepoType defaults to a model repository
	RepoType      hub.RepoType
	Private       bool
	Revision      string
	CommitMessage string
	AllowPatterns []string
	// DryRun lists the files that would be uploaded without contacting the hub
	DryRun bool
	// Notify sends a desktop notification when an upload ends
	Notify bool
	// Progress shows a live progress line on the progress printer
	Progress bool
}

// Uploader publishes local checkpoint folders to model repositories
type Uploader struct {
	hub      Hub
	opts     Options
	printer  *ui.Printer
	progress *ui.Printer
	notifier *ui.Notifier
	logger   logger.Logger
}

// New creates an uploader. Status lines go to printer (stdout when nil);
// the progress line goes to stderr.
func New(h Hub, opts Options, printer *ui.Printer, log logger.Logger) *Uploader {
	if printer == nil {
		printer = ui.NewPrinter(os.Stdout, false)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	u := &Uploader{
		hub:      h,
		opts:     opts,
		printer:  printer,
		progress: ui.NewPrinter(os.Stderr, printer.ColorEnabled()),
		logger:   log.WithField("component", "uploader"),
	}
	if opts.Notify {
		u.notifier = ui.NewNotifier()
	}
	return u
}

// WithNotifier replaces the desktop notifier
func (u *Uploader) WithNotifier(n *ui.Notifier) *Uploader {
	u.notifier = n
	return u
}

// WithProgressPrinter replaces the printer used for the progress line
func (u *Uploader) WithProgressPrinter(p *ui.Printer) *Uploader {
	u.progress = p
	return u
}

// UploadCheckpointFolder makes sure the model repository repoID exists and
// uploads localDir to it, skipping files that match ignorePatterns. A nil
// pattern list behaves like an empty one.
//
// The outcome is always printed. Failures, including panics raised by the
// hub client, are also returned as *UploadError; the call itself never
// panics.
func (u *Uploader) UploadCheckpointFolder(ctx context.Context, localDir, repoID string, ignorePatterns []string) (err error) {
	if ignorePatterns == nil {
		ignorePatterns = []string{}
	}

	opID := uuid.NewString()
	log := u.logger.WithFields(map[string]interface{}{
		"op_id":     opID,
		"repo_id":   repoID,
		"local_dir": localDir,
	})

	repoType := u.opts.RepoType
	if repoType == "" {
		repoType = hub.RepoTypeModel
	}

	stage := StageCreateRepo
	defer func() {
		if r := recover(); r != nil {
			log.ErrorWithFields("recovered panic during upload", map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stage": stage,
			})
			err = u.fail(log, &UploadError{Stage: stage, RepoID: repoID, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	if u.opts.DryRun {
		stage = StageScan
		return u.dryRun(log, localDir, repoID, ignorePatterns)
	}

	log.DebugWithFields("ensuring repository exists", map[string]interface{}{
		"ignore_patterns": ignorePatterns,
	})
	repoURL, err := u.hub.CreateRepo(ctx, hub.CreateRepoOptions{
		RepoID:   repoID,
		RepoType: repoType,
		Private:  u.opts.Private,
		ExistOK:  true,
	})
	if err != nil {
		return u.fail(log, &UploadError{Stage: stage, RepoID: repoID, Err: err})
	}

	u.printer.Println(fmt.Sprintf("Uploading contents of '%s' to '%s'...", localDir, repoID))

	stage = StageUploadFolder
	display := ui.NewProgressDisplay(u.progress, repoID, u.opts.Progress)
	info, err := u.hub.UploadFolder(ctx, hub.UploadFolderOptions{
		FolderPath:     localDir,
		RepoID:         repoID,
		RepoType:       repoType,
		Revision:       u.opts.Revision,
		CommitMessage:  u.opts.CommitMessage,
		AllowPatterns:  u.opts.AllowPatterns,
		IgnorePatterns: ignorePatterns,
		Progress:       progressHandler(display),
	})
	if errors.Is(err, hub.ErrNoFiles) {
		// nothing to commit; the repository is left as it is
		u.printer.Warning("   - Warning: No files to upload. Skipping to prevent an empty commit.")
		log.Warn("No files to upload, skipping commit")
		u.printer.Success("Epoch checkpoint successfully uploaded to " + repoID)
		return nil
	}
	if err != nil {
		return u.fail(log, &UploadError{Stage: stage, RepoID: repoID, Err: err})
	}

	if u.opts.Progress {
		display.Complete(info.Files, info.Bytes)
	}
	u.printer.Success("Epoch checkpoint successfully uploaded to " + repoID)
	log.DebugWithFields("Commit created", map[string]interface{}{
		"repo_url":   repoURL.String(),
		"commit_url": info.CommitURL,
	})
	logger.LogUpload(log, localDir, repoID, info.Files, info.Bytes, nil)
	u.notify(log, "Checkpoint uploaded", fmt.Sprintf("%s → %s", localDir, repoID))
	return nil
}

func (u *Uploader) fail(log logger.Logger, uerr *UploadError) error {
	u.printer.Error(fmt.Sprintf("An error occurred during upload: %v", uerr.Err))
	log.WithField("stage", uerr.Stage).WithError(uerr.Err).Error("Checkpoint upload failed")
	u.notify(log, "Checkpoint upload failed", uerr.Err.Error())
	return uerr
}

func (u *Uploader) notify(log logger.Logger, title, message string) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.Notify(title, message); err != nil {
		log.DebugWithFields("desktop notification failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// dryRun prints the files an upload would send
func (u *Uploader) dryRun(log logger.Logger, localDir, repoID string, ignorePatterns []string) error {
	folder, err := checkpoint.ScanWithLogger(localDir, ignore.WithDefaults(u.opts.AllowPatterns, ignorePatterns), log)
	if err != nil {
		return u.fail(log, &UploadError{Stage: StageScan, RepoID: repoID, Err: err})
	}

	rows := make([]ui.FileRow, 0, len(folder.Files))
	for _, f := range folder.Files {
		rows = append(rows, ui.FileRow{Path: f.RelPath, Size: f.Size, SHA256: f.SHA256})
	}
	u.printer.PrintFileTable(rows)
	u.printer.Highlight(fmt.Sprintf("Dry run: nothing was uploaded to %s", repoID))
	return nil
}

func progressHandler(display *ui.ProgressDisplay) func(hub.ProgressEvent) {
	return func(ev hub.ProgressEvent) {
		switch ev.Stage {
		case hub.StageScanned:
			display.Start(ev.Total, ev.TotalBytes)
		case hub.StageUploading:
			display.FileStarted(ev.Path)
		case hub.StageUploaded:
			display.FileDone(ev.Path, ev.Bytes, false)
		case hub.StageSkipped:
			display.FileDone(ev.Path, ev.Bytes, true)
		case hub.StageCommitting:
			display.Committing()
		}
	}
}
