package service

import (
	"html"
	"sort"
	"strconv"
	"strings"
)

// ==================== 占位符替换引擎 ====================
//
// 模板先被解析成片段流（字面文本 + 命名占位符），渲染时对片段流做一次遍历。
// 没有对应数据、也不属于条件区块的占位符按字面 {{...}} 原样输出。
// 所有注入的标量值都先做 HTML 转义，买家输入不可能变成活动标记。

// PersonalizationData 渲染一封信所需的全部个性化数据
// 已知字段显式建模，其余买家自定义属性放入 Custom
type PersonalizationData struct {
	ProductTitle  string
	OrderName     string
	CustomerEmail string
	Quantity      int
	Price         string
	SKU           string
	Vendor        string

	// 原始属性与文本字段合并后的开放键值集合
	Custom map[string]string
}

// 条件区块与已知标量占位符名
const (
	phProductTitle          = "productTitle"
	phOrderName             = "orderName"
	phCustomerEmail         = "customerEmail"
	phQuantity              = "quantity"
	phPrice                 = "price"
	phSKU                   = "sku"
	phVendor                = "vendor"
	phImageURL              = "imageUrl"
	phHighQualityImageURL   = "highQualityImageUrl"
	phImageSection          = "imageSection"
	phOrderDetailsSection   = "orderDetailsSection"
	phDownloadButtonSection = "downloadButtonSection"
)

// 订单明细区块不重复罗列的保留键
var reservedDetailKeys = map[string]bool{
	phProductTitle:  true,
	phOrderName:     true,
	phCustomerEmail: true,
	phQuantity:      true,
	phPrice:         true,
	phSKU:           true,
	phVendor:        true,
	phImageURL:      true,
}

// tplSegment 模板片段：字面文本或一个占位符
type tplSegment struct {
	placeholder bool
	text        string // 字面内容，或占位符名（不含花括号）
}

// parseTemplate 把模板字符串解析成片段流，只解析一次
func parseTemplate(htmlContent string) []tplSegment {
	var segments []tplSegment
	rest := htmlContent

	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			break
		}
		close := strings.Index(rest[open:], "}}")
		if close < 0 {
			break
		}
		close += open

		if open > 0 {
			segments = append(segments, tplSegment{text: rest[:open]})
		}
		segments = append(segments, tplSegment{placeholder: true, text: rest[open+2 : close]})
		rest = rest[close+2:]
	}

	if rest != "" {
		segments = append(segments, tplSegment{text: rest})
	}
	return segments
}

// RenderLetterHTML 纯函数：模板 + 个性化数据 + 可选图片地址 → 完整 HTML
// 不做任何 I/O，相同输入产出逐字节相同的结果
func RenderLetterHTML(htmlContent string, data *PersonalizationData, imageURL string) string {
	segments := parseTemplate(htmlContent)

	var b strings.Builder
	b.Grow(len(htmlContent))

	for _, seg := range segments {
		if !seg.placeholder {
			b.WriteString(seg.text)
			continue
		}
		b.WriteString(resolvePlaceholder(seg.text, data, imageURL))
	}
	return b.String()
}

// resolvePlaceholder 解析单个占位符
func resolvePlaceholder(key string, data *PersonalizationData, imageURL string) string {
	switch key {
	case phProductTitle:
		return html.EscapeString(data.ProductTitle)
	case phOrderName:
		return html.EscapeString(data.OrderName)
	case phCustomerEmail:
		return html.EscapeString(data.CustomerEmail)
	case phQuantity:
		if data.Quantity == 0 {
			return ""
		}
		return html.EscapeString(strconv.Itoa(data.Quantity))
	case phPrice:
		return html.EscapeString(data.Price)
	case phSKU:
		return html.EscapeString(data.SKU)
	case phVendor:
		return html.EscapeString(data.Vendor)

	case phImageURL, phHighQualityImageURL:
		// 图片地址已通过 URL 校验，按原文注入；没有图片时保留字面占位符
		if imageURL != "" {
			return imageURL
		}
		return "{{" + key + "}}"

	case phImageSection:
		return buildImageSection(imageURL)
	case phDownloadButtonSection:
		return buildDownloadButtonSection(imageURL)
	case phOrderDetailsSection:
		return buildOrderDetailsSection(data.Custom)
	}

	// 买家自定义属性的透传替换
	if data.Custom != nil {
		if v, ok := data.Custom[key]; ok {
			return html.EscapeString(v)
		}
	}

	// 无匹配数据：按字面原样输出，不报错
	return "{{" + key + "}}"
}

// ==================== 条件区块 ====================

// buildImageSection 有图片时生成图片区块，否则为空串
func buildImageSection(imageURL string) string {
	if imageURL == "" {
		return ""
	}
	return `
      <div class="image-section">
        <img src="` + imageURL + `" alt="Personalized Image" style="max-width: 100%; height: auto; border-radius: 8px; box-shadow: 0 4px 15px rgba(0,0,0,0.1);" />
      </div>
    `
}

// buildDownloadButtonSection 有图片时生成高清图下载按钮，否则为空串
func buildDownloadButtonSection(imageURL string) string {
	if imageURL == "" {
		return ""
	}
	return `
      <div style="text-align: center; margin-top: 30px; padding: 20px;">
        <a href="` + imageURL + `"
           class="download-button"
           download
           style="display: inline-block; padding: 15px 30px; background: #d4af37; color: white; text-decoration: none; border-radius: 5px; font-weight: bold; font-size: 16px; box-shadow: 0 2px 5px rgba(0,0,0,0.2);">
          Download High-Quality Image
        </a>
        <p style="margin-top: 10px; color: #7f8c8d; font-size: 14px;">Click the button above to download your high-quality personalized image</p>
      </div>
    `
}

// buildOrderDetailsSection 从自定义属性生成订单明细区块
// 保留键与空白值跳过；键按字典序排列保证输出确定；值里的换行转成 <br>
func buildOrderDetailsSection(custom map[string]string) string {
	keys := make([]string, 0, len(custom))
	for k := range custom {
		if reservedDetailKeys[k] {
			continue
		}
		if strings.TrimSpace(custom[k]) == "" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var details strings.Builder
	for _, k := range keys {
		v := strings.ReplaceAll(html.EscapeString(custom[k]), "\n", "<br>")
		details.WriteString("<p><strong>" + html.EscapeString(k) + ":</strong> " + v + "</p>")
	}

	return `
      <div class="order-details">
        <h2 style="color: #2c3e50; margin-top: 30px; margin-bottom: 20px;">Order Details</h2>
        ` + details.String() + `
      </div>
    `
}
