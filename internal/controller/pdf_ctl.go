package controller

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"letter_press_v1_202608/internal/api/dto"
	"letter_press_v1_202608/internal/repository"
	"letter_press_v1_202608/internal/service"

	"github.com/gin-gonic/gin"
)

// ==================== 控制器 ====================

// PdfController 按需生成与查询控制器
type PdfController struct {
	generateService *service.GenerateService
	orderSource     service.OrderSource
	pdfRepo         repository.GeneratedPdfRepository

	// 拼接绝对下载链接的公开地址，可为空（降级为相对链接）
	baseURL string
	// 未显式携带 shop 参数时使用的默认店铺
	defaultShop string
}

func NewPdfController(
	generateService *service.GenerateService,
	orderSource service.OrderSource,
	pdfRepo repository.GeneratedPdfRepository,
	baseURL string,
	defaultShop string,
) *PdfController {
	return &PdfController{
		generateService: generateService,
		orderSource:     orderSource,
		pdfRepo:         pdfRepo,
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		defaultShop:     defaultShop,
	}
}

// parseGID 兼容 GraphQL 全局 ID（gid://shopify/Order/123）与裸数字 ID
func parseGID(id string) string {
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}

// ==================== API 方法 ====================

// GeneratePdf 为指定订单按需生成 PDF（处理全部合格行项目）
// @Summary 按订单 ID 生成 PDF
// @Tags Pdf
// @Param orderId path string true "订单 ID 或 GID"
// @Param shop query string false "店铺域名"
// @Success 200 {object} dto.GeneratePdfResponse
// @Router /api/generate-pdf/{orderId} [get]
func (ctrl *PdfController) GeneratePdf(c *gin.Context) {
	orderID := parseGID(c.Param("orderId"))
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少订单 ID"})
		return
	}

	shop := c.Query("shop")
	if shop == "" {
		shop = ctrl.defaultShop
	}
	if shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少店铺标识"})
		return
	}

	ctx := c.Request.Context()
	payload, err := ctrl.orderSource.GetOrder(ctx, shop, orderID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "订单不存在"})
			return
		}
		log.Printf("[PdfController] 拉取订单 %s 失败: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "拉取订单失败"})
		return
	}

	results, err := ctrl.generateService.GenerateForOrder(ctx, shop, payload, true)
	if err != nil {
		log.Printf("[PdfController] 订单 %s 生成失败: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成失败"})
		return
	}
	if len(results) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "订单没有可生成信纸的行项目"})
		return
	}

	items := make([]dto.GeneratedPdfItem, 0, len(results))
	for _, rec := range results {
		items = append(items, dto.GeneratedPdfItem{
			ID:           rec.ID,
			ProductTitle: rec.ProductTitle,
			DownloadURL:  ctrl.downloadURL(rec.DownloadToken),
			CreatedAt:    rec.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	c.JSON(http.StatusOK, dto.GeneratePdfResponse{
		OrderNumber: payload.Name,
		Pdfs:        items,
		Count:       len(items),
	})
}

// ListPdfs 按订单号查询已生成的 PDF（最新优先）
// @Summary 按订单号查询 PDF
// @Tags Pdf
// @Param orderNumber path string true "订单号或订单名"
// @Param orderId query string false "订单 ID 或 GID"
// @Success 200 {object} dto.ListPdfsResponse
// @Router /api/pdfs/{orderNumber} [get]
func (ctrl *PdfController) ListPdfs(c *gin.Context) {
	identifier := parseGID(c.Param("orderNumber"))
	if identifier == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少订单号"})
		return
	}
	orderID := parseGID(c.Query("orderId"))

	records, err := ctrl.pdfRepo.FindByOrderIdentifier(c.Request.Context(), identifier, orderID, 20)
	if err != nil {
		log.Printf("[PdfController] 查询订单 %s 的 PDF 失败: %v", identifier, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询失败"})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "未找到该订单的 PDF"})
		return
	}

	items := make([]dto.GeneratedPdfItem, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.GeneratedPdfItem{
			ID:           rec.ID,
			ProductTitle: rec.ProductTitle,
			DownloadURL:  ctrl.downloadURL(rec.DownloadToken),
			CreatedAt:    rec.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	c.JSON(http.StatusOK, dto.ListPdfsResponse{
		OrderNumber: identifier,
		Pdfs:        items,
		Count:       len(items),
	})
}

func (ctrl *PdfController) downloadURL(token string) string {
	return ctrl.baseURL + "/download/" + token
}
