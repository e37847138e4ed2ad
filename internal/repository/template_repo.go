package repository

import (
	"context"
	"errors"

	"letter_press_v1_202608/internal/model"

	"gorm.io/gorm"
)

// ==================== TemplateRepository 模板仓库 ====================

// TemplateRepository 信纸模板仓库接口
type TemplateRepository interface {
	// FindActive 查找 (shop, productID) 当前生效的模板，不存在时返回 (nil, nil)
	FindActive(ctx context.Context, shop, productID string) (*model.LetterTemplate, error)
	Create(ctx context.Context, tpl *model.LetterTemplate) error
	GetByID(ctx context.Context, id int64) (*model.LetterTemplate, error)
}

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository 创建模板仓库
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) FindActive(ctx context.Context, shop, productID string) (*model.LetterTemplate, error) {
	var tpl model.LetterTemplate
	err := r.db.WithContext(ctx).
		Where("shop = ?", shop).
		Where("product_id = ?", productID).
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepository) Create(ctx context.Context, tpl *model.LetterTemplate) error {
	return r.db.WithContext(ctx).Create(tpl).Error
}

func (r *templateRepository) GetByID(ctx context.Context, id int64) (*model.LetterTemplate, error) {
	var tpl model.LetterTemplate
	err := r.db.WithContext(ctx).First(&tpl, id).Error
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}
