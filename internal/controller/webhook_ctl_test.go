package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"letter_press_v1_202608/internal/service"

	"github.com/gin-gonic/gin"
)

// ==================== 测试辅助 ====================

func setupWebhookRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// 下面的用例都不会走到管线深处，依赖可以为空
	ctl := NewWebhookController(service.NewGenerateService(nil, nil, nil, nil))
	r.POST("/webhooks/orders/create", ctl.OrderCreated)
	r.GET("/webhooks/orders/create", ctl.Probe)
	return r
}

// ==================== 单元测试 ====================

// webhook 无论处理结果如何都必须回 200，否则平台会不断重试
func TestOrderCreated_Always200(t *testing.T) {
	r := setupWebhookRouter()

	cases := []struct {
		name string
		shop string
		body string
	}{
		{"缺少店铺头", "", `{"id":1}`},
		{"载荷不是 JSON", "shop.example.com", `not json at all`},
		{"无行项目订单", "shop.example.com", `{"id":5001,"order_number":1001,"name":"#1001","line_items":[]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			if tc.shop != "" {
				req.Header.Set("X-Shopify-Shop-Domain", tc.shop)
			}
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("webhook 必须返回 200, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), `"received":true`) {
				t.Errorf("响应应确认收到: %s", w.Body.String())
			}
		})
	}
}

func TestWebhookProbe(t *testing.T) {
	r := setupWebhookRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/webhooks/orders/create", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("探活应返回 200, got %d", w.Code)
	}
}
