package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/go-resty/resty/v2"
)

// ==================== 接口定义 ====================

// StoredObject 存储结果：对外访问 URL 与后端定位 key
// 本地后端的 key 是绝对路径，S3 后端的 key 是对象键
type StoredObject struct {
	URL string
	Key string
}

// StorageProvider 存储提供者接口
type StorageProvider interface {
	// Store 在 {category}/{shop}/ 作用域下写入文件
	Store(ctx context.Context, data []byte, category, shop, filename, contentType string) (*StoredObject, error)
}

// 存储作用域
const (
	scopePdfs   = "pdfs"
	scopeImages = "images"
)

// ==================== 配置 ====================

// StorageConfig 存储配置，构造时一次性确定后端
type StorageConfig struct {
	Provider string // "local" | "s3" | "cloudflare-r2"

	// 本地存储
	LocalRoot string // 公开目录根，默认 ./public

	// S3
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // 自定义端点（可选）
	CDNDomain string // CDN 域名（可选）
}

// ==================== 工厂方法 ====================

// NewStorageProvider 按配置创建存储提供者
func NewStorageProvider(cfg *StorageConfig) (StorageProvider, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(cfg)
	case "cloudflare-r2":
		// 占位后端：调用时报错而不是静默吞掉
		return &r2Storage{}, nil
	default:
		return nil, fmt.Errorf("%w: 不支持的存储提供者: %s", ErrStorage, cfg.Provider)
	}
}

// ==================== StorageService ====================

// StorageService 存储服务，封装 PDF 与图片两条写入路径
type StorageService struct {
	provider StorageProvider
	client   *resty.Client
}

// NewStorageService 创建存储服务
func NewStorageService(cfg *StorageConfig) (*StorageService, error) {
	provider, err := NewStorageProvider(cfg)
	if err != nil {
		return nil, err
	}
	return &StorageService{
		provider: provider,
		client:   resty.New().SetTimeout(30 * time.Second),
	}, nil
}

// StorePDF 持久化 PDF 字节，返回访问 URL 与定位 key
func (s *StorageService) StorePDF(ctx context.Context, data []byte, filename, shop string) (*StoredObject, error) {
	return s.provider.Store(ctx, data, scopePdfs, shop, filename, "application/pdf")
}

// StoreImage 下载远程图片并持久化到 images/{shop}/ 作用域
func (s *StorageService) StoreImage(ctx context.Context, sourceURL, filename, shop string) (*StoredObject, error) {
	resp, err := s.client.R().SetContext(ctx).Get(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: 下载图片失败: %v", ErrExternalFetch, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: 下载图片失败: %s", ErrExternalFetch, resp.Status())
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(resp.Body())
	}
	return s.provider.Store(ctx, resp.Body(), scopeImages, shop, filename, contentType)
}

// ==================== 本地存储 ====================

// LocalStorage 本地磁盘后端，写入公开目录并返回根相对 URL
type LocalStorage struct {
	root string
}

// NewLocalStorage 创建本地存储
func NewLocalStorage(cfg *StorageConfig) (*LocalStorage, error) {
	root := cfg.LocalRoot
	if root == "" {
		root = "./public"
	}
	return &LocalStorage{root: root}, nil
}

func (s *LocalStorage) Store(ctx context.Context, data []byte, category, shop, filename, contentType string) (*StoredObject, error) {
	dir := filepath.Join(s.root, category, shop)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: 创建存储目录失败: %v", ErrStorage, err)
	}

	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: 写入文件失败: %v", ErrStorage, err)
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		absPath = filePath
	}

	return &StoredObject{
		URL: fmt.Sprintf("/%s/%s/%s", category, shop, filename),
		Key: absPath,
	}, nil
}

// ==================== S3 存储 ====================

// S3Storage S3 后端，公开可读
type S3Storage struct {
	client    *s3.Client
	bucket    string
	region    string
	cdnDomain string
}

// NewS3Storage 创建 S3 存储
func NewS3Storage(cfg *StorageConfig) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: 加载 AWS 配置失败: %v", ErrStorage, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:    client,
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		cdnDomain: cfg.CDNDomain,
	}, nil
}

func (s *S3Storage) Store(ctx context.Context, data []byte, category, shop, filename, contentType string) (*StoredObject, error) {
	key := fmt.Sprintf("%s/%s/%s", category, shop, filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: 上传 S3 失败: %v", ErrStorage, err)
	}

	return &StoredObject{
		URL: s.publicURL(key),
		Key: key,
	}, nil
}

func (s *S3Storage) publicURL(key string) string {
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// ==================== Cloudflare R2 ====================

// r2Storage R2 后端尚未实现
type r2Storage struct{}

func (s *r2Storage) Store(ctx context.Context, data []byte, category, shop, filename, contentType string) (*StoredObject, error) {
	return nil, fmt.Errorf("%w: cloudflare-r2 后端尚未实现", ErrStorage)
}
