package controller

import (
	"log"
	"net/http"

	"letter_press_v1_202608/internal/api/dto"
	"letter_press_v1_202608/internal/service"

	"github.com/gin-gonic/gin"
)

// ==================== 控制器 ====================

// WebhookController Shopify webhook 控制器
type WebhookController struct {
	generateService *service.GenerateService
}

func NewWebhookController(generateService *service.GenerateService) *WebhookController {
	return &WebhookController{generateService: generateService}
}

// ==================== API 方法 ====================

// OrderCreated 处理 orders/create webhook
// 无论处理结果如何都返回 200，避免 Shopify 按失败重试造成重复投递风暴
// @Summary 接收订单创建 webhook
// @Tags Webhook
// @Accept json
// @Success 200 {object} map[string]interface{}
// @Router /webhooks/orders/create [post]
func (ctrl *WebhookController) OrderCreated(c *gin.Context) {
	shop := c.GetHeader("X-Shopify-Shop-Domain")
	if shop == "" {
		log.Printf("[WebhookController] webhook 缺少 X-Shopify-Shop-Domain 头")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var payload dto.OrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("[WebhookController] webhook 载荷解析失败: %v", err)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	// webhook 路径只处理第一条合格行项目，完整处理走按需接口
	results, err := ctrl.generateService.GenerateForOrder(c.Request.Context(), shop, &payload, false)
	if err != nil {
		log.Printf("[WebhookController] 订单 %s 处理失败: %v", payload.Name, err)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	log.Printf("[WebhookController] 订单 %s 处理完成，生成 %d 份", payload.Name, len(results))
	c.JSON(http.StatusOK, gin.H{
		"received":  true,
		"generated": len(results),
	})
}

// Probe webhook 探活
// @Summary webhook 探活
// @Tags Webhook
// @Success 200 {object} map[string]interface{}
// @Router /webhooks/orders/create [get]
func (ctrl *WebhookController) Probe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "webhook endpoint is reachable",
	})
}
