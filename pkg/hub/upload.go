package hub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"ckpthub/pkg/checkpoint"
	errs "ckpthub/pkg/errors"
	"ckpthub/pkg/ignore"
	"ckpthub/pkg/retry"
)

// ErrNoFiles is returned when nothing in the folder is left to upload
var ErrNoFiles = errors.New("no files to upload")

const defaultCommitMessage = "Upload folder using ckpthub"

const (
	uploadModeLFS     = "lfs"
	uploadModeRegular = "regular"
)

// UploadFolder uploads the contents of a local folder to a repository in a
// single commit. Large and binary files go through LFS first.
func (c *Client) UploadFolder(ctx context.Context, opts UploadFolderOptions) (*CommitInfo, error) {
	start := time.Now()
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
	revision := opts.Revision
	if revision == "" {
		revision = DefaultRevision
	}
	message := opts.CommitMessage
	if message == "" {
		message = defaultCommitMessage
	}
	report := func(ev ProgressEvent) {
		if opts.Progress != nil {
			opts.Progress(ev)
		}
	}

	m := ignore.WithDefaults(opts.AllowPatterns, opts.IgnorePatterns)
	folder, err := checkpoint.ScanWithLogger(opts.FolderPath, m, c.logger)
	if err != nil {
		return nil, err
	}
	if len(folder.Files) == 0 {
		return nil, ErrNoFiles
	}
	report(ProgressEvent{Stage: StageScanned, Total: len(folder.Files), TotalBytes: folder.TotalSize()})

	modes, err := c.preupload(ctx, repoType, opts.RepoID, revision, folder.Files)
	if err != nil {
		return nil, err
	}

	var lfsFiles, regularFiles []checkpoint.File
	for _, f := range folder.Files {
		switch modes[f.RelPath] {
		case "":
			c.logger.DebugWithFields("file ignored by the hub", map[string]interface{}{
				"path": f.RelPath,
			})
		case uploadModeLFS:
			lfsFiles = append(lfsFiles, f)
		default:
			regularFiles = append(regularFiles, f)
		}
	}
	if len(lfsFiles)+len(regularFiles) == 0 {
		return nil, ErrNoFiles
	}

	if err := c.uploadLFSFiles(ctx, repoType, opts.RepoID, revision, lfsFiles, report); err != nil {
		return nil, err
	}

	report(ProgressEvent{Stage: StageCommitting, Total: len(lfsFiles) + len(regularFiles)})
	resp, err := c.commit(ctx, repoType, opts.RepoID, revision, commitHeader{
		Summary:     message,
		Description: opts.CommitDescription,
	}, regularFiles, lfsFiles)
	if err != nil {
		return nil, err
	}

	info := &CommitInfo{
		CommitURL:     resp.CommitURL,
		CommitOID:     resp.CommitOID,
		CommitMessage: message,
		RepoURL:       c.RepoURLFor(repoType, opts.RepoID),
		Files:         len(lfsFiles) + len(regularFiles),
		Duration:      time.Since(start),
	}
	for _, f := range lfsFiles {
		info.Bytes += f.Size
	}
	for _, f := range regularFiles {
		info.Bytes += f.Size
	}
	report(ProgressEvent{Stage: StageCommitted, Done: info.Files, Total: info.Files, Bytes: info.Bytes})

	c.logger.InfoWithFields("folder uploaded", map[string]interface{}{
		"repo_id":    opts.RepoID,
		"revision":   revision,
		"files":      info.Files,
		"lfs_files":  len(lfsFiles),
		"bytes":      info.Bytes,
		"commit_oid": info.CommitOID,
		"duration":   info.Duration,
	})
	return info, nil
}

// preupload asks the hub how each file must be uploaded. Files the hub wants
// ignored are absent from the returned map.
func (c *Client) preupload(ctx context.Context, t RepoType, repoID, revision string, files []checkpoint.File) (map[string]string, error) {
	modes := make(map[string]string, len(files))
	url := c.preuploadURL(t, repoID, revision)

	for start := 0; start < len(files); start += preuploadChunkSize {
		end := start + preuploadChunkSize
		if end > len(files) {
			end = len(files)
		}

		req := preuploadRequest{Files: make([]preuploadFile, 0, end-start)}
		for _, f := range files[start:end] {
			req.Files = append(req.Files, preuploadFile{
				Path:   f.RelPath,
				Sample: base64.StdEncoding.EncodeToString(f.Sample),
				Size:   f.Size,
			})
		}

		var resp preuploadResponse
		if err := c.callJSON(ctx, http.MethodPost, url, req, &resp, "", authBearer); err != nil {
			return nil, err
		}
		for _, f := range resp.Files {
			if f.ShouldIgnore {
				continue
			}
			mode := f.UploadMode
			if mode != uploadModeLFS {
				mode = uploadModeRegular
			}
			modes[f.Path] = mode
		}
	}
	return modes, nil
}

// uploadLFSFiles negotiates LFS transfers in batches and uploads every object
// the hub does not already have.
func (c *Client) uploadLFSFiles(ctx context.Context, t RepoType, repoID, revision string, files []checkpoint.File, report func(ProgressEvent)) error {
	if len(files) == 0 {
		return nil
	}

	byOID := make(map[string]checkpoint.File, len(files))
	var objects []lfsObject
	for _, f := range files {
		if _, seen := byOID[f.SHA256]; seen {
			continue
		}
		byOID[f.SHA256] = f
		objects = append(objects, lfsObject{OID: f.SHA256, Size: f.Size})
	}

	done := 0
	total := len(objects)
	for start := 0; start < len(objects); start += lfsBatchChunkSize {
		end := start + lfsBatchChunkSize
		if end > len(objects) {
			end = len(objects)
		}

		batch, err := c.lfsBatch(ctx, t, repoID, revision, objects[start:end])
		if err != nil {
			return err
		}

		for _, obj := range batch.Objects {
			f, ok := byOID[obj.OID]
			if !ok {
				continue
			}
			if obj.Error != nil {
				return errs.New(errs.TypeForStatus(obj.Error.Code), obj.Error.Code,
					"LFS upload of %s refused: %s", f.RelPath, obj.Error.Message)
			}

			if obj.Actions.Upload == nil {
				done++
				report(ProgressEvent{Stage: StageSkipped, Path: f.RelPath, Bytes: f.Size, Done: done, Total: total})
				continue
			}

			report(ProgressEvent{Stage: StageUploading, Path: f.RelPath, Bytes: f.Size, Done: done, Total: total})
			if err := c.uploadLFSObject(ctx, f, obj.Actions.Upload); err != nil {
				return err
			}
			if obj.Actions.Verify != nil {
				if err := c.verifyLFSObject(ctx, f, obj.Actions.Verify); err != nil {
					return err
				}
			}
			done++
			report(ProgressEvent{Stage: StageUploaded, Path: f.RelPath, Bytes: f.Size, Done: done, Total: total})
		}
	}
	return nil
}

func (c *Client) lfsBatch(ctx context.Context, t RepoType, repoID, revision string, objects []lfsObject) (*lfsBatchResponse, error) {
	req := lfsBatchRequest{
		Operation: "upload",
		Transfers: []string{"basic", "multipart"},
		Objects:   objects,
		HashAlgo:  "sha256",
		Ref:       lfsRef{Name: revision},
	}

	var resp lfsBatchResponse
	if err := c.callJSON(ctx, http.MethodPost, c.lfsBatchURL(t, repoID), req, &resp, lfsContentType, authBasic); err != nil {
		return nil, err
	}
	return &resp, nil
}

// uploadLFSObject sends one file to the storage location the batch call
// returned, in parts when the hub asks for a multipart transfer.
func (c *Client) uploadLFSObject(ctx context.Context, f checkpoint.File, action *lfsAction) error {
	header := make(map[string]string, len(action.Header))
	for k, v := range action.Header {
		header[k] = v
	}

	if raw, ok := header["chunk_size"]; ok {
		chunkSize, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || chunkSize <= 0 {
			return errs.New(errs.ErrorTypeParsing, 0, "invalid chunk_size %q for %s", raw, f.RelPath)
		}
		delete(header, "chunk_size")
		return c.uploadMultipart(ctx, f, action.Href, header, chunkSize)
	}

	_, err := c.putFileRange(ctx, action.Href, header, f, 0, f.Size)
	return err
}

// uploadMultipart uploads each part to its own URL and then posts the
// collected ETags to the completion URL.
func (c *Client) uploadMultipart(ctx context.Context, f checkpoint.File, completionURL string, header map[string]string, chunkSize int64) error {
	parts := sortedPartURLs(header)
	expected := (f.Size + chunkSize - 1) / chunkSize
	if int64(len(parts)) != expected {
		return errs.New(errs.ErrorTypeParsing, 0,
			"hub returned %d part URLs for %s, expected %d", len(parts), f.RelPath, expected)
	}

	type completedPart struct {
		PartNumber int    `json:"partNumber"`
		ETag       string `json:"etag"`
	}
	completion := struct {
		OID   string          `json:"oid"`
		Parts []completedPart `json:"parts"`
	}{OID: f.SHA256}

	for i, partURL := range parts {
		offset := int64(i) * chunkSize
		length := chunkSize
		if offset+length > f.Size {
			length = f.Size - offset
		}
		respHeader, err := c.putFileRange(ctx, partURL, nil, f, offset, length)
		if err != nil {
			return err
		}
		etag := respHeader.Get("ETag")
		if etag == "" {
			return errs.New(errs.ErrorTypeParsing, 0, "part %d of %s returned no ETag", i+1, f.RelPath)
		}
		completion.Parts = append(completion.Parts, completedPart{PartNumber: i + 1, ETag: etag})
	}

	return c.callJSON(ctx, http.MethodPost, completionURL, completion, nil, lfsContentType, authNone)
}

// sortedPartURLs returns the part URLs of a multipart action ordered by part
// number. Part keys are the numeric entries of the action header.
func sortedPartURLs(header map[string]string) []string {
	type part struct {
		n   int
		url string
	}
	var parts []part
	for k, v := range header {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		parts = append(parts, part{n: n, url: v})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })

	urls := make([]string, len(parts))
	for i, p := range parts {
		urls[i] = p.url
	}
	return urls
}

// putFileRange PUTs length bytes of f starting at offset, retrying on
// transient failures. The file is reopened for every attempt.
func (c *Client) putFileRange(ctx context.Context, url string, header map[string]string, f checkpoint.File, offset, length int64) (http.Header, error) {
	return retry.DoWithResult(ctx, func() (http.Header, error) {
		file, err := os.Open(f.AbsPath)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		req, err := c.newRequest(ctx, http.MethodPut, url, io.NewSectionReader(file, offset, length), authNone)
		if err != nil {
			return nil, err
		}
		req.ContentLength = length
		for k, v := range header {
			req.Header.Set(k, v)
		}

		_, respHeader, err := c.doRequest(req)
		return respHeader, err
	}, c.retryConfig())
}

func (c *Client) verifyLFSObject(ctx context.Context, f checkpoint.File, action *lfsAction) error {
	return retry.Do(ctx, func() error {
		payload, err := json.Marshal(lfsObject{OID: f.SHA256, Size: f.Size})
		if err != nil {
			return err
		}
		req, err := c.newRequest(ctx, http.MethodPost, action.Href, bytes.NewReader(payload), authBasic)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", lfsContentType)
		req.Header.Set("Accept", lfsContentType)
		for k, v := range action.Header {
			req.Header.Set(k, v)
		}
		_, _, err = c.doRequest(req)
		return err
	}, c.retryConfig())
}

// commit creates the commit in one NDJSON request. It is sent once.
func (c *Client) commit(ctx context.Context, t RepoType, repoID, revision string, header commitHeader, regular, lfs []checkpoint.File) (*commitResponse, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	if err := enc.Encode(commitLine{Key: "header", Value: header}); err != nil {
		return nil, errs.New(errs.ErrorTypeBadRequest, 0, "failed to encode commit header: %v", err)
	}
	for _, f := range regular {
		content, err := os.ReadFile(f.AbsPath)
		if err != nil {
			return nil, err
		}
		if err := enc.Encode(commitLine{Key: "file", Value: commitFile{
			Content:  base64.StdEncoding.EncodeToString(content),
			Path:     f.RelPath,
			Encoding: "base64",
		}}); err != nil {
			return nil, errs.New(errs.ErrorTypeBadRequest, 0, "failed to encode %s: %v", f.RelPath, err)
		}
	}
	for _, f := range lfs {
		if err := enc.Encode(commitLine{Key: "lfsFile", Value: commitLFSFile{
			Path: f.RelPath,
			Algo: "sha256",
			OID:  f.SHA256,
		}}); err != nil {
			return nil, errs.New(errs.ErrorTypeBadRequest, 0, "failed to encode %s: %v", f.RelPath, err)
		}
	}

	url := c.commitURL(t, repoID, revision)
	req, err := c.newRequest(ctx, http.MethodPost, url, &buf, authBearer)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", ndjsonType)
	req.Header.Set("Accept", "application/json")

	raw, _, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	var resp commitResponse
	if err := c.decode(url, raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
