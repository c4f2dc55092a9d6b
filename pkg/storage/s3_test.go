package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUploadType(t *testing.T) {
	tests := []struct {
		contentType, filename string
		want                  bool
	}{
		{"image/png", "banner.png", true},
		{"application/pdf; charset=binary", "brochure", true},
		{"", "photo.JPEG", true},
		{"application/octet-stream", "deck.pdf", true},
		{"video/mp4", "clip.mp4", false},
		{"text/html", "index.html", false},
		{"", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateUploadType(tt.contentType, tt.filename), tt.contentType+" "+tt.filename)
	}
}

func TestContentTypeForFilename(t *testing.T) {
	assert.Equal(t, "image/webp", ContentTypeForFilename("a.WEBP"))
	assert.Equal(t, "application/pdf", ContentTypeForFilename("x.pdf"))
	assert.Equal(t, "application/octet-stream", ContentTypeForFilename("x.exe"))
}

func TestUploadKey(t *testing.T) {
	k := UploadKey("Webinar Banners", "../../etc/My Photo.PNG")
	assert.True(t, strings.HasPrefix(k, "uploads/webinar-banners/"), k)
	assert.True(t, strings.HasSuffix(k, ".png"), k)
	assert.NotContains(t, k, "..")

	assert.True(t, strings.HasPrefix(UploadKey("", "x.pdf"), "uploads/misc/"))
	assert.False(t, strings.HasSuffix(UploadKey("docs", "x.sh"), ".sh"))
}

func TestInvoiceKey(t *testing.T) {
	assert.Equal(t, "invoices/webinar/abc.pdf", InvoiceKey("webinar", "abc"))
}
