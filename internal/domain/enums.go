package domain

// FileType represents the allowed resume file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
	FileTypeTXT FileType = "txt"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
	FileTypeTXT: "text/plain",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
	"text/plain":      FileTypeTXT,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
	"txt":  FileTypeTXT,
}

// FileStatus represents the lifecycle of an uploaded file.
type FileStatus string

const (
	FileStatusPending  FileStatus = "pending"
	FileStatusUploaded FileStatus = "uploaded"
	FileStatusFailed   FileStatus = "failed"
	FileStatusDeleted  FileStatus = "deleted"
)

// BatchStatus represents the lifecycle of an extraction batch.
type BatchStatus string

const (
	BatchStatusQueued     BatchStatus = "queued"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// MatchJobStatus represents the lifecycle of a candidate-scoring job.
type MatchJobStatus string

const (
	MatchJobStatusPending   MatchJobStatus = "pending"
	MatchJobStatusStreaming MatchJobStatus = "streaming"
	MatchJobStatusCompleted MatchJobStatus = "completed"
	MatchJobStatusCancelled MatchJobStatus = "cancelled"
	MatchJobStatusFailed    MatchJobStatus = "failed"
)
