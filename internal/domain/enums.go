package domain

import "strings"

// FileType represents the allowed file types for upload.
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

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
	"txt":  FileTypeTXT,
}

// FileTypeFromName resolves a FileType from a filename's extension.
func FileTypeFromName(filename string) (FileType, bool) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return "", false
	}
	ft, ok := AllowedExtensions[strings.ToLower(filename[idx+1:])]
	return ft, ok
}

// ReviewStatus is the workflow status of a record. The vocabulary is open:
// reviewers may set any value unless a strict policy is configured.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// NoSuggestion is stored as the suggestion for records that passed validation.
const NoSuggestion = "No suggestion."
