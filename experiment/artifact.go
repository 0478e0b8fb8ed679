package experiment

import "os"

// Environment variables read by the tracking client to switch artifact
// uploads to chunked multipart mode.
const (
	EnvMultipartUpload    = "MLFLOW_ENABLE_PROXY_MULTIPART_UPLOAD"
	EnvMultipartChunkSize = "MLFLOW_MULTIPART_UPLOAD_CHUNK_SIZE"

	// multipartChunkSize is 100MB.
	multipartChunkSize = "104857600"
)

// EnableLargeArtifactUpload enables chunked multipart upload for large
// artifacts. Call it before logging large files such as model weights to
// prevent upload timeouts.
func EnableLargeArtifactUpload() {
	os.Setenv(EnvMultipartUpload, "true")
	os.Setenv(EnvMultipartChunkSize, multipartChunkSize)
}
