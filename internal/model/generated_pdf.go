package model

import (
	"time"

	"gorm.io/datatypes"
)

// ==================== GeneratedPdf 已生成信纸 ====================

// GeneratedPdf 一条订单行项目渲染出的 PDF 产物
// 生成后不可变，唯一写入方是 GenerateService
type GeneratedPdf struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	// 订单信息
	OrderID     string `gorm:"size:64;index"`
	OrderNumber string `gorm:"size:64;index"`
	OrderName   string `gorm:"size:64;index"`
	LineItemID  string `gorm:"size:64"`

	// 商品信息
	ProductID    string `gorm:"size:64"`
	ProductTitle string `gorm:"size:500"`

	// 买家信息
	CustomerEmail string `gorm:"size:255"`

	// 使用的模板
	TemplateID int64 `gorm:"index"`

	// 产物位置
	PdfURL string `gorm:"size:500"`
	PdfKey string `gorm:"size:500"`

	// 个性化原始属性（审计留存，PostgreSQL JSONB）
	PersonalizationData datatypes.JSONMap `gorm:"type:jsonb"`

	// 关联图片（可选）
	ImageURL string `gorm:"size:500"`

	// 下载令牌（一次写入，永不轮换）
	DownloadToken string `gorm:"size:64;uniqueIndex;not null"`

	// 租户
	Shop string `gorm:"size:255;index;not null"`

	// 审计字段
	CreatedAt time.Time
}

func (*GeneratedPdf) TableName() string {
	return "generated_pdfs"
}
