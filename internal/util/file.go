package util

import (
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// DetectUploadType 优先使用客户端声明的 Content-Type，缺失时按扩展名推断
func DetectUploadType(header *multipart.FileHeader) string {
	contentType := header.Header.Get("Content-Type")
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			contentType = mediaType
		}
	}
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename))); byExt != "" {
			contentType, _, _ = mime.ParseMediaType(byExt)
		}
	}
	return contentType
}

// ValidateUpload 校验上传文件的大小与类型
func ValidateUpload(header *multipart.FileHeader, allowedTypes []string, maxBytes int64) (string, error) {
	if header == nil {
		return "", ErrFileRequired
	}
	if maxBytes > 0 && header.Size > maxBytes {
		return "", ErrFileTooLarge
	}

	contentType := DetectUploadType(header)
	for _, allowed := range allowedTypes {
		if contentType == allowed {
			return contentType, nil
		}
	}
	return contentType, ErrFileTypeNotAllowed
}
