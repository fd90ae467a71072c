// Package uploader publishes a local checkpoint folder to a model repository
// on the hub.
//
// An upload makes sure the repository exists, then sends the folder in one
// commit. Progress and the outcome are printed as status lines; failures are
// also returned as *UploadError, so scripts can check them without parsing
// output. The uploader does not retry; transient hub errors are retried by
// the hub client itself.
package uploader
