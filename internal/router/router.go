package router

import (
	"letter_press_v1_202608/internal/controller"
	"letter_press_v1_202608/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Controllers 路由依赖的控制器集合
type Controllers struct {
	Webhook  *controller.WebhookController
	Pdf      *controller.PdfController
	Download *controller.DownloadController
}

// StaticConfig 本地存储的静态目录映射，Root 为空时不挂载
type StaticConfig struct {
	Root string
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, ctls *Controllers, static StaticConfig) {
	// 1. Shopify webhook 路由组
	webhooks := r.Group("/webhooks")
	{
		// POST /webhooks/orders/create
		webhooks.POST("/orders/create", ctls.Webhook.OrderCreated)
		// GET 探活，配置 webhook 时用来确认地址可达
		webhooks.GET("/orders/create", ctls.Webhook.Probe)
	}

	// 2. API 路由组（店铺前端跨域访问）
	api := r.Group("/api")
	api.Use(middleware.CORS())
	{
		// GET /api/generate-pdf/:orderId
		api.GET("/generate-pdf/:orderId", ctls.Pdf.GeneratePdf)
		// GET /api/pdfs/:orderNumber
		api.GET("/pdfs/:orderNumber", ctls.Pdf.ListPdfs)
	}

	// 3. 下载令牌路由
	r.GET("/download/:token", ctls.Download.Download)

	// 4. 本地存储的公开目录
	if static.Root != "" {
		r.Static("/pdfs", static.Root+"/pdfs")
		r.Static("/images", static.Root+"/images")
	}
}
