package models

// These structs define the JSON payloads accepted and returned by the HTTP functions.

// TranslateRequest is the input for the translate function.
type TranslateRequest struct {
	ObjectKey string `json:"objectKey"`
}

// TranslateResponse is the successful output of the translate function.
type TranslateResponse struct {
	TranslatedKey string `json:"translatedKey"`
	DownloadURL   string `json:"downloadUrl"`
}

// ErrorResponse is returned by every function on failure. Error carries a
// stable error code, never the underlying error text.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// UploadURLRequest is the input for the upload-url function.
type UploadURLRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// UploadURLResponse is the output of the upload-url function.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// DownloadURLResponse is the output of the download-url function.
type DownloadURLResponse struct {
	DownloadURL string `json:"downloadUrl"`
	ObjectKey   string `json:"objectKey"`
}

// GCSEvent is the payload of a GCS object.finalized event.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}
