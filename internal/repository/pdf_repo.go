package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"letter_press_v1_202608/internal/model"

	"gorm.io/gorm"
)

// ==================== GeneratedPdfRepository 产物仓库 ====================

// ShopGenerationCount 单店铺生成数量统计
type ShopGenerationCount struct {
	Shop  string
	Count int64
}

// GeneratedPdfRepository 已生成 PDF 仓库接口
type GeneratedPdfRepository interface {
	Create(ctx context.Context, pdf *model.GeneratedPdf) error
	// FindByToken 按下载令牌查找，不存在时返回 (nil, nil)
	FindByToken(ctx context.Context, token string) (*model.GeneratedPdf, error)
	// FindByOrderIdentifier 按订单号/订单名/订单 ID 查找，按创建时间倒序
	FindByOrderIdentifier(ctx context.Context, identifier, orderID string, limit int) ([]model.GeneratedPdf, error)
	// CountByShopSince 统计 since 之后各店铺的生成数量
	CountByShopSince(ctx context.Context, since time.Time) ([]ShopGenerationCount, error)
}

type generatedPdfRepository struct {
	db *gorm.DB
}

// NewGeneratedPdfRepository 创建产物仓库
func NewGeneratedPdfRepository(db *gorm.DB) GeneratedPdfRepository {
	return &generatedPdfRepository{db: db}
}

func (r *generatedPdfRepository) Create(ctx context.Context, pdf *model.GeneratedPdf) error {
	return r.db.WithContext(ctx).Create(pdf).Error
}

func (r *generatedPdfRepository) FindByToken(ctx context.Context, token string) (*model.GeneratedPdf, error) {
	var pdf model.GeneratedPdf
	err := r.db.WithContext(ctx).Where("download_token = ?", token).First(&pdf).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pdf, nil
}

func (r *generatedPdfRepository) FindByOrderIdentifier(ctx context.Context, identifier, orderID string, limit int) ([]model.GeneratedPdf, error) {
	if limit <= 0 {
		limit = 20
	}

	// 买家可能带或不带 "#" 前缀输入订单号，两种形式都要命中
	db := r.db.WithContext(ctx).
		Where("order_number = ?", identifier).
		Or("order_name = ?", identifier).
		Or("order_name = ?", "#"+identifier).
		Or("order_name = ?", strings.TrimPrefix(identifier, "#"))
	if orderID != "" {
		db = db.Or("order_id = ?", orderID)
	}

	var pdfs []model.GeneratedPdf
	err := r.db.WithContext(ctx).
		Where(db).
		Order("created_at DESC").
		Limit(limit).
		Find(&pdfs).Error
	return pdfs, err
}

func (r *generatedPdfRepository) CountByShopSince(ctx context.Context, since time.Time) ([]ShopGenerationCount, error) {
	var counts []ShopGenerationCount
	err := r.db.WithContext(ctx).
		Model(&model.GeneratedPdf{}).
		Where("created_at >= ?", since).
		Select("shop, COUNT(*) as count").
		Group("shop").
		Scan(&counts).Error
	return counts, err
}
