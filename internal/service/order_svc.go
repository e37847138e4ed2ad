package service

import (
	"net/url"
	"strconv"
	"strings"

	"letter_press_v1_202608/internal/api/dto"
)

// ==================== 个性化数据提取 ====================

// OrderItemData 从单条订单行项目提取出的个性化记录
// 提取后不再修改；Properties 保留全部原始键值对，
// TextFields / ImageURLs 是按规则分类出的子集
type OrderItemData struct {
	LineItemID   string
	ProductID    string
	VariantID    string
	ProductTitle string
	Quantity     int
	Price        string
	SKU          string
	Vendor       string

	// 全部原始属性，原样保留
	Properties map[string]string

	// 非 URL 的文本属性
	TextFields map[string]string

	// 识别为图片地址的属性值，保持出现顺序
	ImageURLs []string
}

// FirstImageURL 返回第一个图片地址，没有则返回空串
func (d *OrderItemData) FirstImageURL() string {
	if len(d.ImageURLs) > 0 {
		return d.ImageURLs[0]
	}
	return ""
}

// 识别为图片的扩展名集合
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}

// ExtractOrderItems 把原始行项目转换为结构化个性化记录
// 空输入得到空结果，调用方应把空结果当作"无需生成"而非错误
func ExtractOrderItems(lineItems []dto.RawLineItem) []OrderItemData {
	items := make([]OrderItemData, 0, len(lineItems))

	for _, li := range lineItems {
		item := OrderItemData{
			LineItemID:   formatID(li.ID),
			ProductID:    formatID(li.ProductID),
			VariantID:    formatID(li.VariantID),
			ProductTitle: li.Title,
			Quantity:     li.Quantity,
			Price:        li.Price,
			SKU:          li.SKU,
			Vendor:       li.Vendor,
			Properties:   make(map[string]string),
			TextFields:   make(map[string]string),
		}

		for _, prop := range li.Properties {
			name := prop.Name
			value := prop.Value

			// 所有属性原样保留
			item.Properties[name] = value

			// 非 URL 文本归入文本字段
			if value != "" && !strings.HasPrefix(value, "http") && !strings.HasPrefix(value, "@http") {
				item.TextFields[name] = value
			}

			// 能解析为图片 URL 的归入图片列表，解析失败静默丢弃
			if imageURL := extractImageURL(value); imageURL != "" {
				item.ImageURLs = append(item.ImageURLs, imageURL)
			}
		}

		items = append(items, item)
	}

	return items
}

// extractImageURL 从属性值提取图片地址
// 部分定制插件会加 "@" 前缀（如 "@https://cdn.shopify.com/..."），先去掉再校验
func extractImageURL(value string) string {
	if value == "" {
		return ""
	}

	raw := strings.TrimPrefix(value, "@")

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	path := strings.ToLower(u.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return raw
		}
	}
	return ""
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
