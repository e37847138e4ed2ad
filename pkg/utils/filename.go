package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// SanitizeFilename 把连续的非字母数字字符折叠为单个下划线
func SanitizeFilename(s string) string {
	return strings.Trim(nonAlphanumeric.ReplaceAllString(s, "_"), "_")
}

// PdfFilename 生成 PDF 存储文件名：letter_{订单标识}_{行项目}_{毫秒时间戳}.pdf
func PdfFilename(orderRef, lineItemID string) string {
	return fmt.Sprintf("letter_%s_%s_%d.pdf", orderRef, lineItemID, time.Now().UnixMilli())
}

// ImageFilename 生成图片存储文件名：image_{订单ID}_{行项目}_{毫秒时间戳}.png
func ImageFilename(orderID, lineItemID string) string {
	return fmt.Sprintf("image_%s_%s_%d.png", orderID, lineItemID, time.Now().UnixMilli())
}
