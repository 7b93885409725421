package service

import (
	"campus_share_backend/internal/config"
	"campus_share_backend/internal/util"
	"campus_share_backend/pkg/logger"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

var ErrInvalidLocator = errors.New("invalid storage locator")

// StorageProvider 定义通用存储接口，locator 为对象在存储中的相对名称
type StorageProvider interface {
	Save(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
	Delete(ctx context.Context, locator string) error
	Resolve(locator string) string
}

// LocalStorageProvider 本地存储实现
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

// fullPath 将 locator 限制在存储根目录内
func (p *LocalStorageProvider) fullPath(locator string) (string, error) {
	clean := path.Clean("/" + locator)
	if clean == "/" {
		return "", ErrInvalidLocator
	}
	return filepath.Join(p.Config.LocalPath, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func (p *LocalStorageProvider) Save(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	dst, err := p.fullPath(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, reader); err != nil {
		out.Close()
		os.Remove(dst)
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", err
	}

	return name, nil
}

func (p *LocalStorageProvider) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	src, err := p.fullPath(locator)
	if err != nil {
		return nil, err
	}
	return os.Open(src)
}

func (p *LocalStorageProvider) Delete(ctx context.Context, locator string) error {
	dst, err := p.fullPath(locator)
	if err != nil {
		return err
	}
	return os.Remove(dst)
}

func (p *LocalStorageProvider) Resolve(locator string) string {
	return "/uploads/" + locator
}

// MinioStorageProvider MinIO存储实现
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Save(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, name, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

func (p *MinioStorageProvider) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	obj, err := p.Client.GetObject(ctx, p.Config.MinioBucket, locator, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject 是惰性的，Stat 一次以便尽早发现对象不存在
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, locator string) error {
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, locator, minio.RemoveObjectOptions{})
}

func (p *MinioStorageProvider) Resolve(locator string) string {
	return "/" + p.Config.MinioBucket + "/" + locator
}

// OSSStorageProvider 阿里云OSS存储实现
type OSSStorageProvider struct {
	Config *config.StorageConfig
	Client *oss.Client
}

func NewOSSStorageProvider(cfg *config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Config: cfg, Client: client}, nil
}

func (p *OSSStorageProvider) Save(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}

	if err := bucket.PutObject(name, reader, oss.ContentType(contentType)); err != nil {
		return "", err
	}
	return name, nil
}

func (p *OSSStorageProvider) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return nil, err
	}
	return bucket.GetObject(locator)
}

func (p *OSSStorageProvider) Delete(ctx context.Context, locator string) error {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return err
	}
	return bucket.DeleteObject(locator)
}

func (p *OSSStorageProvider) Resolve(locator string) string {
	return fmt.Sprintf("https://%s.%s/%s", p.Config.OSSBucket, p.Config.OSSEndpoint, locator)
}

// StorageService 存储服务
type StorageService struct {
	Provider StorageProvider
}

func NewStorageService(cfg *config.Config) *StorageService {
	var provider StorageProvider
	switch cfg.Storage.Type {
	case util.StorageMinio:
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("Failed to init MinIO storage, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	case util.StorageOSS:
		p, err := NewOSSStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("Failed to init OSS storage, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}

	return &StorageService{Provider: provider}
}

// ObjectName 生成资料对象名 resources/<uuid><ext>
func ObjectName(filename string) string {
	return "resources/" + uuid.New().String() + strings.ToLower(filepath.Ext(filename))
}

func (s *StorageService) Save(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	return s.Provider.Save(ctx, ObjectName(filename), reader, size, contentType)
}

func (s *StorageService) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	return s.Provider.Open(ctx, locator)
}

func (s *StorageService) Delete(ctx context.Context, locator string) error {
	return s.Provider.Delete(ctx, locator)
}

func (s *StorageService) Resolve(locator string) string {
	return s.Provider.Resolve(locator)
}
