package model

import (
	"time"
)

// ==================== LetterTemplate 信纸模板 ====================

// LetterTemplate 信纸 HTML 模板
// 以 (shop, product_id) 为业务标识，同一组合同一时刻至多一个 is_active 模板，
// 该不变量由 TemplateService 的单写锁保证，而非数据库约束
type LetterTemplate struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Shop      string `gorm:"size:255;index:idx_tpl_shop_product;not null"`
	ProductID string `gorm:"size:64;index:idx_tpl_shop_product;not null"`

	// 模板内容
	Name        string `gorm:"size:255"`
	HtmlContent string `gorm:"type:text;not null"`
	CssContent  string `gorm:"type:text"`

	// 状态（创建方显式赋值，不依赖列默认值，布尔零值会被 GORM 跳过）
	IsActive bool `gorm:"index"`

	// 审计字段
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (*LetterTemplate) TableName() string {
	return "letter_templates"
}
