package decode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pagelight/pagelight/internal/domain"
)

// supportedExtensions lists the document formats MuPDF decodes for us.
var supportedExtensions = map[string]bool{
	".pdf":  true,
	".epub": true,
	".xps":  true,
}

// Validator provides input validation for document files.
type Validator struct {
	logger zerolog.Logger
}

// NewValidator creates a new validator instance.
func NewValidator(logger zerolog.Logger) *Validator {
	return &Validator{logger: logger}
}

// ValidatePath validates that a file path points to a readable document of a
// supported format.
func (v *Validator) ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return domain.ValidationError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return domain.ValidationError(fmt.Sprintf("unsupported document format: %s", ext), nil)
	}

	// Very large files still open, they just take a while.
	const warnSize = 100 * 1024 * 1024
	if info.Size() > warnSize {
		v.logger.Warn().Str("path", path).Int64("size_mb", info.Size()/(1024*1024)).Msg("document is very large")
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.ValidationError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	file.Close()

	return nil
}
