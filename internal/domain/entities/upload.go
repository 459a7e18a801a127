package entities

// UploadResult is the blob store metadata reported when a streamed upload completes
type UploadResult struct {
	Location  string `json:"location"`
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	ETag      string `json:"etag,omitempty"`
	VersionID string `json:"versionId,omitempty"`
	UploadID  string `json:"uploadId,omitempty"`
}
