package decode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelight/pagelight/internal/domain"
)

func TestValidatePath(t *testing.T) {
	v := NewValidator(zerolog.Nop())
	dir := t.TempDir()

	pdfPath := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid pdf", pdfPath, false},
		{"empty path", "", true},
		{"whitespace path", "   ", true},
		{"missing file", filepath.Join(dir, "nope.pdf"), true},
		{"directory", dir, true},
		{"unsupported extension", func() string {
			p := filepath.Join(dir, "doc.txt")
			_ = os.WriteFile(p, []byte("text"), 0o644)
			return p
		}(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				var derr *domain.DomainError
				require.ErrorAs(t, err, &derr)
				assert.Equal(t, domain.ErrorTypeValidation, derr.Type)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePath_EpubAndXPSSupported(t *testing.T) {
	v := NewValidator(zerolog.Nop())
	dir := t.TempDir()

	for _, name := range []string{"book.epub", "sheet.xps", "UPPER.PDF"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("data"), 0o644))
		assert.NoError(t, v.ValidatePath(p), name)
	}
}
