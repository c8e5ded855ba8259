package studymaterial

import (
	"fmt"
	"strings"
)

const (
	// MaxFileSize is the upload ceiling for the file variant.
	MaxFileSize = 5 << 20 // 5 MiB

	// inputDetailExcerptLen bounds the text excerpt used as a history label.
	inputDetailExcerptLen = 30
)

// allowedFileTypes are the declared content types accepted for upload.
// The gate runs before the file is ever considered selected.
var allowedFileTypes = map[string]bool{
	"application/pdf": true,
	"text/plain":      true,
}

// Normalize clears the fields that belong to the other input variants, so a
// request that switched methods carries no stale content from the previous
// one. Credential whitespace is trimmed here too: a blank credential is
// treated as absent and never forwarded.
func (r *GenerateRequest) Normalize() {
	switch r.InputMethod {
	case InputMethodText:
		r.Topic = ""
	case InputMethodTopic:
		r.Content = ""
	}

	r.GeminiAPIKey = strings.TrimSpace(r.GeminiAPIKey)
}

// Validate checks the request per its variant. Content fields must be
// non-empty after trimming; the file variant is rejected here because it has
// its own multipart path.
func (r *GenerateRequest) Validate() error {
	switch r.InputMethod {
	case InputMethodText:
		if strings.TrimSpace(r.Content) == "" {
			return &ValidationError{Field: "content", Reason: "content is required for text input method"}
		}
	case InputMethodTopic:
		if strings.TrimSpace(r.Topic) == "" {
			return &ValidationError{Field: "topic", Reason: "topic is required for topic input method"}
		}
	case InputMethodFile:
		return &ValidationError{Field: "input_method", Reason: "file uploads must use the multipart endpoint"}
	default:
		return &ValidationError{Field: "input_method", Reason: fmt.Sprintf("unknown input method %q", r.InputMethod)}
	}

	if !ValidPurpose(r.Purpose) {
		return &ValidationError{Field: "purpose", Reason: fmt.Sprintf("unknown purpose %q", r.Purpose)}
	}

	if !ValidDifficulty(r.DifficultyLevel) {
		return &ValidationError{Field: "difficulty_level", Reason: fmt.Sprintf("unknown difficulty level %q", r.DifficultyLevel)}
	}

	return nil
}

// ValidateFileSelection gates a file before it is accepted for upload.
func ValidateFileSelection(filename, contentType string, size int64) error {
	if filename == "" || size == 0 {
		return &ValidationError{Field: "file", Reason: "a file must be selected"}
	}

	if !allowedFileTypes[contentType] {
		return &ValidationError{Field: "file", Reason: fmt.Sprintf("unsupported file type %q, please upload PDF or TXT", contentType)}
	}

	if size > MaxFileSize {
		return &ValidationError{Field: "file", Reason: "file exceeds the 5 MiB limit"}
	}

	return nil
}

// Validate checks the multipart file request.
func (r *FileRequest) Validate() error {
	if err := ValidateFileSelection(r.Filename, r.ContentType, r.Size); err != nil {
		return err
	}

	if !ValidPurpose(r.Purpose) {
		return &ValidationError{Field: "purpose", Reason: fmt.Sprintf("unknown purpose %q", r.Purpose)}
	}

	if !ValidDifficulty(r.DifficultyLevel) {
		return &ValidationError{Field: "difficulty_level", Reason: fmt.Sprintf("unknown difficulty level %q", r.DifficultyLevel)}
	}

	return nil
}

// InputDetail derives the short descriptive label a history entry carries:
// the topic name, a truncated text excerpt, or the filename.
func (r *GenerateRequest) InputDetail() string {
	switch r.InputMethod {
	case InputMethodTopic:
		return strings.TrimSpace(r.Topic)
	case InputMethodText:
		content := strings.TrimSpace(r.Content)
		if len(content) > inputDetailExcerptLen {
			return content[:inputDetailExcerptLen] + "..."
		}
		return content
	}
	return ""
}
