package hub

import "time"

// RepoType is the kind of hub repository
type RepoType string

const (
	RepoTypeModel   RepoType = "model"
	RepoTypeDataset RepoType = "dataset"
	RepoTypeSpace   RepoType = "space"
)

// Valid reports whether t is a repository type the hub knows about
func (t RepoType) Valid() bool {
	switch t {
	case RepoTypeModel, RepoTypeDataset, RepoTypeSpace:
		return true
	}
	return false
}

// CreateRepoOptions configures CreateRepo
type CreateRepoOptions struct {
	RepoID   string
	RepoType RepoType
	Private  bool
	// ExistOK makes an already existing repository a success
	ExistOK bool
}

// RepoURL identifies a repository on the hub
type RepoURL struct {
	URL      string
	Endpoint string
	RepoID   string
	RepoType RepoType
}

func (r *RepoURL) String() string {
	return r.URL
}

// UploadFolderOptions configures UploadFolder
type UploadFolderOptions struct {
	FolderPath        string
	RepoID            string
	RepoType          RepoType
	Revision          string
	CommitMessage     string
	CommitDescription string
	AllowPatterns     []string
	IgnorePatterns    []string
	// Progress, if set, receives an event for every step of the upload
	Progress func(ProgressEvent)
}

// ProgressStage names a step of UploadFolder
type ProgressStage string

const (
	StageScanned    ProgressStage = "scanned"
	StageUploading  ProgressStage = "uploading"
	StageUploaded   ProgressStage = "uploaded"
	StageSkipped    ProgressStage = "skipped"
	StageCommitting ProgressStage = "committing"
	StageCommitted  ProgressStage = "committed"
)

// ProgressEvent reports upload progress
type ProgressEvent struct {
	Stage      ProgressStage
	Path       string
	Bytes      int64
	Done       int
	Total      int
	TotalBytes int64
}

// CommitInfo describes the commit created by UploadFolder
type CommitInfo struct {
	CommitURL     string
	CommitOID     string
	CommitMessage string
	RepoURL       *RepoURL
	Files         int
	Bytes         int64
	Duration      time.Duration
}

// User is the account behind a token
type User struct {
	Name     string `json:"name"`
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Type     string `json:"type"`
	Orgs     []struct {
		Name string `json:"name"`
	} `json:"orgs"`
}

type createRepoRequest struct {
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
	Type         string `json:"type,omitempty"`
	Private      bool   `json:"private"`
}

type createRepoResponse struct {
	URL string `json:"url"`
}

type preuploadFile struct {
	Path   string `json:"path"`
	Sample string `json:"sample"`
	Size   int64  `json:"size"`
}

type preuploadRequest struct {
	Files []preuploadFile `json:"files"`
}

type preuploadResponse struct {
	Files []struct {
		Path         string `json:"path"`
		UploadMode   string `json:"uploadMode"`
		ShouldIgnore bool   `json:"shouldIgnore"`
	} `json:"files"`
}

type lfsObject struct {
	OID  string `json:"oid"`
	Size int64  `json:"size"`
}

type lfsRef struct {
	Name string `json:"name"`
}

type lfsBatchRequest struct {
	Operation string      `json:"operation"`
	Transfers []string    `json:"transfers"`
	Objects   []lfsObject `json:"objects"`
	HashAlgo  string      `json:"hash_algo"`
	Ref       lfsRef      `json:"ref"`
}

type lfsAction struct {
	Href   string            `json:"href"`
	Header map[string]string `json:"header"`
}

type lfsBatchObject struct {
	OID     string `json:"oid"`
	Size    int64  `json:"size"`
	Actions struct {
		Upload *lfsAction `json:"upload"`
		Verify *lfsAction `json:"verify"`
	} `json:"actions"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type lfsBatchResponse struct {
	Transfer string           `json:"transfer"`
	Objects  []lfsBatchObject `json:"objects"`
}

type commitLine struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

type commitHeader struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

type commitFile struct {
	Content  string `json:"content"`
	Path     string `json:"path"`
	Encoding string `json:"encoding"`
}

type commitLFSFile struct {
	Path string `json:"path"`
	Algo string `json:"algo"`
	OID  string `json:"oid"`
}

type commitResponse struct {
	CommitURL string `json:"commitUrl"`
	CommitOID string `json:"commitOid"`
}

type errorBody struct {
	Error string `json:"error"`
}
