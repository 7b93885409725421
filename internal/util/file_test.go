package util

import (
	"errors"
	"mime/multipart"
	"net/textproto"
	"testing"
)

func header(filename, contentType string, size int64) *multipart.FileHeader {
	h := make(textproto.MIMEHeader)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &multipart.FileHeader{Filename: filename, Header: h, Size: size}
}

func TestValidateUpload(t *testing.T) {
	allowed := []string{"application/pdf", "text/plain"}

	tests := []struct {
		name     string
		header   *multipart.FileHeader
		wantType string
		wantErr  error
	}{
		{"declared pdf", header("a.pdf", "application/pdf", 10), "application/pdf", nil},
		{"parameters stripped", header("a.txt", "text/plain; charset=utf-8", 10), "text/plain", nil},
		{"extension fallback", header("a.pdf", "application/octet-stream", 10), "application/pdf", nil},
		{"not allowed", header("a.exe", "application/x-msdownload", 10), "application/x-msdownload", ErrFileTypeNotAllowed},
		{"too large", header("a.pdf", "application/pdf", 101), "", ErrFileTooLarge},
		{"missing", nil, "", ErrFileRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateUpload(tt.header, allowed, 100)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantType != "" && got != tt.wantType {
				t.Errorf("type = %q, want %q", got, tt.wantType)
			}
		})
	}
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, DefaultPage, DefaultLimit},
		{3, 10, 3, 10},
		{1, 1000, 1, MaxLimit},
	}
	for _, tt := range tests {
		page, limit := NormalizePage(tt.page, tt.limit)
		if page != tt.wantPage || limit != tt.wantLimit {
			t.Errorf("NormalizePage(%d, %d) = %d, %d", tt.page, tt.limit, page, limit)
		}
	}
}
