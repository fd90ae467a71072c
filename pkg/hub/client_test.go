package hub

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"ckpthub/pkg/checkpoint"
	errs "ckpthub/pkg/errors"
	"ckpthub/pkg/logger"
	"ckpthub/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "hf_testtoken"

// fakeHub is an in-memory hub serving the endpoints the client uses
type fakeHub struct {
	t      *testing.T
	server *httptest.Server

	mu           sync.Mutex
	repos        map[string]bool
	createBodies []createRepoRequest
	lfsObjects   map[string][]byte // objects already in storage, by oid
	serverIgnore map[string]bool
	commits      [][]commitLine
	puts         int
	verified     []string

	// failures makes the next n calls to a route fail with a status
	failures map[string][]int
}

func newFakeHub(t *testing.T) *fakeHub {
	h := &fakeHub{
		t:            t,
		repos:        map[string]bool{},
		lfsObjects:   map[string][]byte{},
		serverIgnore: map[string]bool{},
		failures:     map[string][]int{},
	}
	h.server = httptest.NewServer(http.HandlerFunc(h.handle))
	t.Cleanup(h.server.Close)
	return h
}

func (h *fakeHub) client() *Client {
	return NewClient(Options{
		Endpoint:   h.server.URL,
		Token:      testToken,
		MaxRetries: 2,
		Backoff:    &retry.ConstantBackoff{},
		Logger:     logger.NewTestLogger(),
	})
}

func (h *fakeHub) failNext(route string, statuses ...int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures[route] = append(h.failures[route], statuses...)
}

func (h *fakeHub) popFailure(route string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	queue := h.failures[route]
	if len(queue) == 0 {
		return 0
	}
	h.failures[route] = queue[1:]
	return queue[0]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *fakeHub) handle(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	var route string
	switch {
	case path == "/api/repos/create":
		route = "create"
	case path == "/api/whoami-v2":
		route = "whoami"
	case strings.Contains(path, "/preupload/"):
		route = "preupload"
	case strings.Contains(path, "/commit/"):
		route = "commit"
	case strings.HasSuffix(path, ".git/info/lfs/objects/batch"):
		route = "batch"
	case strings.HasPrefix(path, "/storage/"):
		route = "storage"
	case path == "/verify":
		route = "verify"
	default:
		http.NotFound(w, r)
		return
	}

	if status := h.popFailure(route); status != 0 {
		writeJSON(w, status, errorBody{Error: fmt.Sprintf("injected %d", status)})
		return
	}

	if route != "storage" && route != "verify" {
		if route == "batch" {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "USER" || pass != testToken {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "bad credentials"})
				return
			}
		} else if r.Header.Get("Authorization") != "Bearer "+testToken {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Invalid credentials in Authorization header"})
			return
		}
	}

	switch route {
	case "create":
		h.handleCreate(w, r)
	case "whoami":
		writeJSON(w, http.StatusOK, map[string]interface{}{"name": "ada", "type": "user"})
	case "preupload":
		h.handlePreupload(w, r)
	case "batch":
		h.handleBatch(w, r)
	case "storage":
		h.handleStorage(w, r)
	case "verify":
		var obj lfsObject
		_ = json.NewDecoder(r.Body).Decode(&obj)
		h.mu.Lock()
		h.verified = append(h.verified, obj.OID)
		h.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{})
	case "commit":
		h.handleCommit(w, r)
	}
}

func (h *fakeHub) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRepoRequest
	require.NoError(h.t, json.NewDecoder(r.Body).Decode(&req))

	id := req.Name
	if req.Organization != "" {
		id = req.Organization + "/" + req.Name
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.createBodies = append(h.createBodies, req)
	if h.repos[id] {
		writeJSON(w, http.StatusConflict, errorBody{Error: "You already created this model repo"})
		return
	}
	h.repos[id] = true
	writeJSON(w, http.StatusOK, createRepoResponse{URL: h.server.URL + "/" + id})
}

func (h *fakeHub) handlePreupload(w http.ResponseWriter, r *http.Request) {
	var req preuploadRequest
	require.NoError(h.t, json.NewDecoder(r.Body).Decode(&req))

	var resp preuploadResponse
	for _, f := range req.Files {
		_, err := base64.StdEncoding.DecodeString(f.Sample)
		require.NoError(h.t, err)

		mode := uploadModeRegular
		if strings.HasSuffix(f.Path, ".bin") || strings.HasSuffix(f.Path, ".safetensors") {
			mode = uploadModeLFS
		}
		h.mu.Lock()
		ignored := h.serverIgnore[f.Path]
		h.mu.Unlock()
		resp.Files = append(resp.Files, struct {
			Path         string `json:"path"`
			UploadMode   string `json:"uploadMode"`
			ShouldIgnore bool   `json:"shouldIgnore"`
		}{Path: f.Path, UploadMode: mode, ShouldIgnore: ignored})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *fakeHub) handleBatch(w http.ResponseWriter, r *http.Request) {
	assert.Equal(h.t, lfsContentType, r.Header.Get("Content-Type"))
	var req lfsBatchRequest
	require.NoError(h.t, json.NewDecoder(r.Body).Decode(&req))
	assert.Equal(h.t, "upload", req.Operation)
	assert.Equal(h.t, "sha256", req.HashAlgo)

	resp := lfsBatchResponse{Transfer: "basic"}
	for _, obj := range req.Objects {
		out := lfsBatchObject{OID: obj.OID, Size: obj.Size}
		h.mu.Lock()
		_, exists := h.lfsObjects[obj.OID]
		h.mu.Unlock()
		if !exists {
			out.Actions.Upload = &lfsAction{
				Href:   h.server.URL + "/storage/" + obj.OID,
				Header: map[string]string{"X-Storage-Token": "s3cret"},
			}
			out.Actions.Verify = &lfsAction{Href: h.server.URL + "/verify"}
		}
		resp.Objects = append(resp.Objects, out)
	}
	w.Header().Set("Content-Type", lfsContentType)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *fakeHub) handleStorage(w http.ResponseWriter, r *http.Request) {
	assert.Empty(h.t, r.Header.Get("Authorization"), "storage must not receive the hub token")
	assert.Equal(h.t, "s3cret", r.Header.Get("X-Storage-Token"))

	body, err := io.ReadAll(r.Body)
	require.NoError(h.t, err)
	oid := strings.TrimPrefix(r.URL.Path, "/storage/")
	sum := sha256.Sum256(body)
	assert.Equal(h.t, oid, hex.EncodeToString(sum[:]))

	h.mu.Lock()
	h.lfsObjects[oid] = body
	h.puts++
	h.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (h *fakeHub) handleCommit(w http.ResponseWriter, r *http.Request) {
	assert.Equal(h.t, ndjsonType, r.Header.Get("Content-Type"))

	var lines []commitLine
	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		var raw struct {
			Key   string          `json:"key"`
			Value json.RawMessage `json:"value"`
		}
		require.NoError(h.t, json.Unmarshal(scanner.Bytes(), &raw))

		var value interface{}
		switch raw.Key {
		case "header":
			var v commitHeader
			require.NoError(h.t, json.Unmarshal(raw.Value, &v))
			value = v
		case "file":
			var v commitFile
			require.NoError(h.t, json.Unmarshal(raw.Value, &v))
			value = v
		case "lfsFile":
			var v commitLFSFile
			require.NoError(h.t, json.Unmarshal(raw.Value, &v))
			value = v
		}
		lines = append(lines, commitLine{Key: raw.Key, Value: value})
	}

	h.mu.Lock()
	h.commits = append(h.commits, lines)
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, commitResponse{
		CommitURL: h.server.URL + "/user/model/commit/abc123",
		CommitOID: "abc123",
	})
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func sha(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestNewClient(t *testing.T) {
	client := NewClient(Options{Endpoint: "https://hub.example.com/"})
	assert.Equal(t, "https://hub.example.com", client.Endpoint())
	assert.Zero(t, client.httpClient.Timeout)

	client = NewClient(Options{})
	assert.Equal(t, DefaultEndpoint, client.Endpoint())
}

func TestRepoURLFor(t *testing.T) {
	client := NewClient(Options{Endpoint: "https://hub.example.com"})

	assert.Equal(t, "https://hub.example.com/user/model", client.RepoURLFor("", "user/model").URL)
	assert.Equal(t, "https://hub.example.com/datasets/user/data", client.RepoURLFor(RepoTypeDataset, "user/data").URL)
	assert.Equal(t, "https://hub.example.com/datasets/user/data.git/info/lfs/objects/batch",
		client.lfsBatchURL(RepoTypeDataset, "user/data"))
	assert.Equal(t, "https://hub.example.com/user/model.git/info/lfs/objects/batch",
		client.lfsBatchURL(RepoTypeModel, "user/model"))
	assert.Equal(t, "https://hub.example.com/api/models/user/model/preupload/refs%2Fpr%2F1",
		client.preuploadURL(RepoTypeModel, "user/model", "refs/pr/1"))
}

func TestCreateRepo(t *testing.T) {
	hub := newFakeHub(t)
	client := hub.client()

	url, err := client.CreateRepo(context.Background(), CreateRepoOptions{RepoID: "user/model", ExistOK: true})
	require.NoError(t, err)
	assert.Equal(t, hub.server.URL+"/user/model", url.URL)
	assert.Equal(t, RepoTypeModel, url.RepoType)

	require.Len(t, hub.createBodies, 1)
	assert.Equal(t, "model", hub.createBodies[0].Name)
	assert.Equal(t, "user", hub.createBodies[0].Organization)
	assert.Empty(t, hub.createBodies[0].Type)
	assert.False(t, hub.createBodies[0].Private)
}

func TestCreateRepoExistOK(t *testing.T) {
	hub := newFakeHub(t)
	hub.repos["user/model"] = true
	client := hub.client()

	url, err := client.CreateRepo(context.Background(), CreateRepoOptions{RepoID: "user/model", ExistOK: true})
	require.NoError(t, err)
	assert.Equal(t, hub.server.URL+"/user/model", url.URL)

	_, err = client.CreateRepo(context.Background(), CreateRepoOptions{RepoID: "user/model"})
	require.Error(t, err)
	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeConflict, apiErr.Type)
	assert.Equal(t, http.StatusConflict, apiErr.Code)
	assert.Contains(t, apiErr.Message, "already created")
}

func TestCreateRepoDataset(t *testing.T) {
	hub := newFakeHub(t)
	client := hub.client()

	url, err := client.CreateRepo(context.Background(), CreateRepoOptions{
		RepoID:   "user/data",
		RepoType: RepoTypeDataset,
		Private:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, RepoTypeDataset, url.RepoType)
	require.Len(t, hub.createBodies, 1)
	assert.Equal(t, "dataset", hub.createBodies[0].Type)
	assert.True(t, hub.createBodies[0].Private)
}

func TestCreateRepoValidation(t *testing.T) {
	client := NewClient(Options{Endpoint: "http://127.0.0.1:1"})

	tests := []struct {
		name string
		opts CreateRepoOptions
	}{
		{"empty id", CreateRepoOptions{}},
		{"too many parts", CreateRepoOptions{RepoID: "a/b/c"}},
		{"empty namespace", CreateRepoOptions{RepoID: "/model"}},
		{"whitespace", CreateRepoOptions{RepoID: "user/my model"}},
		{"bad type", CreateRepoOptions{RepoID: "user/model", RepoType: "notebook"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreateRepo(context.Background(), tt.opts)
			var apiErr *errs.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, errs.ErrorTypeBadRequest, apiErr.Type)
		})
	}
}

func TestCreateRepoUnauthorized(t *testing.T) {
	hub := newFakeHub(t)
	client := NewClient(Options{Endpoint: hub.server.URL, Token: "wrong", Logger: logger.NewTestLogger()})

	_, err := client.CreateRepo(context.Background(), CreateRepoOptions{RepoID: "user/model", ExistOK: true})
	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeAuth, apiErr.Type)
	assert.Contains(t, apiErr.Error(), "Invalid credentials")
}

func TestCreateRepoRetriesServerErrors(t *testing.T) {
	hub := newFakeHub(t)
	hub.failNext("create", http.StatusServiceUnavailable, http.StatusBadGateway)
	client := hub.client()

	_, err := client.CreateRepo(context.Background(), CreateRepoOptions{RepoID: "user/model", ExistOK: true})
	require.NoError(t, err)
	assert.True(t, hub.repos["user/model"])
}

func TestCreateRepoGivesUpAfterMaxRetries(t *testing.T) {
	hub := newFakeHub(t)
	hub.failNext("create", 500, 500, 500)
	client := hub.client()

	_, err := client.CreateRepo(context.Background(), CreateRepoOptions{RepoID: "user/model"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
	assert.False(t, hub.repos["user/model"])
}

func TestWhoAmI(t *testing.T) {
	hub := newFakeHub(t)

	user, err := hub.client().WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Name)

	_, err = NewClient(Options{Endpoint: hub.server.URL}).WhoAmI(context.Background())
	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeAuth, apiErr.Type)
}

func TestUploadFolder(t *testing.T) {
	hub := newFakeHub(t)
	client := hub.client()

	root := t.TempDir()
	weights := strings.Repeat("\x00\x01weights", 300)
	writeTree(t, root, map[string]string{
		"config.json":           `{"hidden_size": 768}`,
		"model.safetensors":     weights,
		"optimizer.pt":          "optimizer state",
		"logs/events.out":       "event",
		".git/HEAD":             "ref: refs/heads/main",
		"nested/tokenizer.json": `{"vocab": {}}`,
	})

	var events []ProgressEvent
	info, err := client.UploadFolder(context.Background(), UploadFolderOptions{
		FolderPath:     root,
		RepoID:         "user/model",
		IgnorePatterns: []string{"*.pt", "logs/"},
		Progress:       func(ev ProgressEvent) { events = append(events, ev) },
	})
	require.NoError(t, err)

	assert.Equal(t, "abc123", info.CommitOID)
	assert.Equal(t, 3, info.Files)
	assert.Equal(t, defaultCommitMessage, info.CommitMessage)
	assert.Equal(t, hub.server.URL+"/user/model", info.RepoURL.URL)

	assert.Equal(t, []byte(weights), hub.lfsObjects[sha(weights)])
	assert.Equal(t, []string{sha(weights)}, hub.verified)

	require.Len(t, hub.commits, 1)
	lines := hub.commits[0]
	require.Len(t, lines, 4)
	assert.Equal(t, "header", lines[0].Key)
	assert.Equal(t, defaultCommitMessage, lines[0].Value.(commitHeader).Summary)

	assert.Equal(t, commitFile{
		Content:  base64.StdEncoding.EncodeToString([]byte(`{"hidden_size": 768}`)),
		Path:     "config.json",
		Encoding: "base64",
	}, lines[1].Value)
	assert.Equal(t, "nested/tokenizer.json", lines[2].Value.(commitFile).Path)
	assert.Equal(t, commitLFSFile{Path: "model.safetensors", Algo: "sha256", OID: sha(weights)}, lines[3].Value)

	require.NotEmpty(t, events)
	assert.Equal(t, StageScanned, events[0].Stage)
	assert.Equal(t, 3, events[0].Total)
	assert.Equal(t, StageCommitted, events[len(events)-1].Stage)
}

func TestUploadFolderSkipsExistingLFSObjects(t *testing.T) {
	hub := newFakeHub(t)
	weights := strings.Repeat("w", 4096)
	hub.lfsObjects[sha(weights)] = []byte(weights)
	client := hub.client()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a/model.bin": weights,
		"b/model.bin": weights,
	})

	var skipped int
	_, err := client.UploadFolder(context.Background(), UploadFolderOptions{
		FolderPath: root,
		RepoID:     "user/model",
		Progress: func(ev ProgressEvent) {
			if ev.Stage == StageSkipped {
				skipped++
			}
		},
	})
	require.NoError(t, err)
	assert.Zero(t, hub.puts)
	assert.Equal(t, 1, skipped)

	require.Len(t, hub.commits, 1)
	assert.Len(t, hub.commits[0], 3)
}

func TestUploadFolderServerSideIgnore(t *testing.T) {
	hub := newFakeHub(t)
	hub.serverIgnore["secret.txt"] = true
	client := hub.client()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"README.md": "# model", "secret.txt": "x"})

	info, err := client.UploadFolder(context.Background(), UploadFolderOptions{FolderPath: root, RepoID: "user/model"})
	require.NoError(t, err)
	assert.Equal(t, 1, info.Files)
	require.Len(t, hub.commits[0], 2)
	assert.Equal(t, "README.md", hub.commits[0][1].Value.(commitFile).Path)
}

func TestUploadFolderAllowPatterns(t *testing.T) {
	hub := newFakeHub(t)
	client := hub.client()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"config.json": "{}", "notes.txt": "n"})

	info, err := client.UploadFolder(context.Background(), UploadFolderOptions{
		FolderPath:    root,
		RepoID:        "user/model",
		AllowPatterns: []string{"*.json"},
		CommitMessage: "Add config",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, info.Files)
	assert.Equal(t, "Add config", hub.commits[0][0].Value.(commitHeader).Summary)
}

func TestUploadFolderNoFiles(t *testing.T) {
	hub := newFakeHub(t)
	client := hub.client()

	root := t.TempDir()
	_, err := client.UploadFolder(context.Background(), UploadFolderOptions{FolderPath: root, RepoID: "user/model"})
	assert.ErrorIs(t, err, ErrNoFiles)

	writeTree(t, root, map[string]string{"only.tmp": "x"})
	_, err = client.UploadFolder(context.Background(), UploadFolderOptions{
		FolderPath:     root,
		RepoID:         "user/model",
		IgnorePatterns: []string{"*.tmp"},
	})
	assert.ErrorIs(t, err, ErrNoFiles)
	assert.Empty(t, hub.commits)
}

func TestUploadFolderMissingDirectory(t *testing.T) {
	hub := newFakeHub(t)
	_, err := hub.client().UploadFolder(context.Background(), UploadFolderOptions{
		FolderPath: filepath.Join(t.TempDir(), "missing"),
		RepoID:     "user/model",
	})
	require.Error(t, err)
	assert.Empty(t, hub.commits)
}

func TestUploadFolderRetriesPreuploadButNotCommit(t *testing.T) {
	hub := newFakeHub(t)
	hub.failNext("preupload", http.StatusServiceUnavailable)
	hub.failNext("commit", http.StatusInternalServerError)
	client := hub.client()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"config.json": "{}"})

	_, err := client.UploadFolder(context.Background(), UploadFolderOptions{FolderPath: root, RepoID: "user/model"})
	require.Error(t, err)
	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeServerError, apiErr.Type)
	assert.Empty(t, hub.commits)
	assert.Empty(t, hub.failures["preupload"])
}

func TestUploadFolderCancelled(t *testing.T) {
	hub := newFakeHub(t)
	client := hub.client()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"config.json": "{}"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.UploadFolder(ctx, UploadFolderOptions{FolderPath: root, RepoID: "user/model"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckResponseStatus(t *testing.T) {
	client := NewClient(Options{Logger: logger.NewNopLogger()})

	tests := []struct {
		name    string
		status  int
		header  string
		body    string
		wantTyp errs.ErrorType
		wantMsg string
	}{
		{"ok", http.StatusOK, "", "", "", ""},
		{"header message", http.StatusForbidden, "No write access", `{"error":"ignored"}`, errs.ErrorTypePermission, "No write access"},
		{"json message", http.StatusNotFound, "", `{"error":"Repository not found"}`, errs.ErrorTypeNotFound, "Repository not found"},
		{"plain body", http.StatusBadRequest, "", "bad path\n", errs.ErrorTypeBadRequest, "bad path"},
		{"empty body", http.StatusTooManyRequests, "", "", errs.ErrorTypeRateLimit, "Too Many Requests"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: tt.status,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(tt.body)),
			}
			if tt.header != "" {
				resp.Header.Set("X-Error-Message", tt.header)
			}

			err := client.checkResponseStatus(resp)
			if tt.wantTyp == "" {
				assert.NoError(t, err)
				return
			}
			var apiErr *errs.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantTyp, apiErr.Type)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.status, apiErr.Code)
		})
	}
}

type countingLimiter struct {
	waits int32
}

func (l *countingLimiter) Allow() bool { return true }
func (l *countingLimiter) Reset()      {}
func (l *countingLimiter) Wait(ctx context.Context) error {
	atomic.AddInt32(&l.waits, 1)
	return ctx.Err()
}

func TestClientUsesLimiter(t *testing.T) {
	hub := newFakeHub(t)
	limiter := &countingLimiter{}
	client := NewClient(Options{Endpoint: hub.server.URL, Token: testToken, Limiter: limiter, Logger: logger.NewNopLogger()})

	_, err := client.CreateRepo(context.Background(), CreateRepoOptions{RepoID: "user/model"})
	require.NoError(t, err)
	_, err = client.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&limiter.waits))
}

func TestSortedPartURLs(t *testing.T) {
	urls := sortedPartURLs(map[string]string{
		"00010":         "u10",
		"00002":         "u2",
		"00001":         "u1",
		"X-Amz-Content": "ignored",
	})
	assert.Equal(t, []string{"u1", "u2", "u10"}, urls)
}

func TestUploadLFSObjectMultipart(t *testing.T) {
	var mu sync.Mutex
	parts := map[string]string{}
	var completion struct {
		OID   string `json:"oid"`
		Parts []struct {
			PartNumber int    `json:"partNumber"`
			ETag       string `json:"etag"`
		} `json:"parts"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/part/"):
			body, _ := io.ReadAll(r.Body)
			n := strings.TrimPrefix(r.URL.Path, "/part/")
			mu.Lock()
			parts[n] = string(body)
			mu.Unlock()
			w.Header().Set("ETag", `"etag-`+n+`"`)
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPost && r.URL.Path == "/complete":
			_ = json.NewDecoder(r.Body).Decode(&completion)
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"model.bin": "0123456789"})
	file := scannedFile(t, root, "model.bin")

	client := NewClient(Options{Endpoint: server.URL, Token: testToken, Logger: logger.NewNopLogger(), Backoff: &retry.ConstantBackoff{}})
	err := client.uploadLFSObject(context.Background(), file, &lfsAction{
		Href: server.URL + "/complete",
		Header: map[string]string{
			"chunk_size": "4",
			"00001":      server.URL + "/part/1",
			"00002":      server.URL + "/part/2",
			"00003":      server.URL + "/part/3",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"1": "0123", "2": "4567", "3": "89"}, parts)
	assert.Equal(t, sha("0123456789"), completion.OID)
	require.Len(t, completion.Parts, 3)
	assert.Equal(t, 3, completion.Parts[2].PartNumber)
	assert.Equal(t, `"etag-3"`, completion.Parts[2].ETag)
}

func TestUploadLFSObjectMultipartPartCountMismatch(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"model.bin": "0123456789"})
	file := scannedFile(t, root, "model.bin")

	client := NewClient(Options{Endpoint: "http://127.0.0.1:1", Logger: logger.NewNopLogger()})
	err := client.uploadLFSObject(context.Background(), file, &lfsAction{
		Href:   "http://127.0.0.1:1/complete",
		Header: map[string]string{"chunk_size": "4", "00001": "http://127.0.0.1:1/part/1"},
	})
	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)
}

func scannedFile(t *testing.T, root, rel string) checkpoint.File {
	t.Helper()
	folder, err := checkpoint.ScanWithLogger(root, nil, logger.NewNopLogger())
	require.NoError(t, err)
	for _, f := range folder.Files {
		if f.RelPath == rel {
			return f
		}
	}
	t.Fatalf("%s not found in %s", rel, root)
	return checkpoint.File{}
}
