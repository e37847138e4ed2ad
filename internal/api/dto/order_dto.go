package dto

// ==================== Shopify 订单载荷 ====================

// LineItemProperty 行项目自定义属性（买家个性化输入）
type LineItemProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RawLineItem Shopify 订单行项目（webhook / Admin REST 共用格式）
type RawLineItem struct {
	ID         int64              `json:"id"`
	Title      string             `json:"title"`
	Quantity   int                `json:"quantity"`
	Price      string             `json:"price"`
	SKU        string             `json:"sku"`
	Vendor     string             `json:"vendor"`
	ProductID  int64              `json:"product_id"`
	VariantID  int64              `json:"variant_id"`
	Properties []LineItemProperty `json:"properties"`
}

// OrderPayload Shopify 订单载荷
// 来自 orders/create webhook 或 Admin REST API，进入管线前已完成平台鉴权
type OrderPayload struct {
	ID          int64         `json:"id"`
	OrderNumber int64         `json:"order_number"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	LineItems   []RawLineItem `json:"line_items"`
}

// ==================== 生成与查询响应 ====================

// GeneratedPdfItem 单条生成结果
type GeneratedPdfItem struct {
	ID           int64  `json:"id"`
	ProductTitle string `json:"productTitle"`
	DownloadURL  string `json:"downloadUrl"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// GeneratePdfResponse 按订单生成 PDF 的响应
type GeneratePdfResponse struct {
	OrderNumber string             `json:"orderNumber"`
	Pdfs        []GeneratedPdfItem `json:"pdfs"`
	Count       int                `json:"count"`
}

// ListPdfsResponse 按订单号查询已生成 PDF 的响应
type ListPdfsResponse struct {
	OrderNumber string             `json:"orderNumber"`
	Pdfs        []GeneratedPdfItem `json:"pdfs"`
	Count       int                `json:"count"`
}
