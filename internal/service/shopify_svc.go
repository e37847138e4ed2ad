package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"letter_press_v1_202608/internal/api/dto"

	"github.com/go-resty/resty/v2"
)

// ==================== 订单来源 ====================

// OrderSource 订单来源接口
// 按需生成路径通过它取回完整订单；webhook 路径不经过这里
type OrderSource interface {
	GetOrder(ctx context.Context, shop, orderID string) (*dto.OrderPayload, error)
}

// ShopifyConfig Shopify Admin API 配置
type ShopifyConfig struct {
	AccessToken string
	APIVersion  string // 如 "2024-07"
}

// ShopifyOrderSource 基于 Admin REST API 的订单来源
type ShopifyOrderSource struct {
	client *resty.Client
	cfg    ShopifyConfig
}

// NewShopifyOrderSource 创建 Shopify 订单来源
func NewShopifyOrderSource(cfg ShopifyConfig) *ShopifyOrderSource {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-07"
	}
	client := resty.New()
	client.SetTimeout(15 * time.Second)
	client.SetRetryCount(2)
	return &ShopifyOrderSource{client: client, cfg: cfg}
}

// GetOrder 拉取单个订单并转换为 webhook 载荷格式
func (s *ShopifyOrderSource) GetOrder(ctx context.Context, shop, orderID string) (*dto.OrderPayload, error) {
	apiURL := fmt.Sprintf("https://%s/admin/api/%s/orders/%s.json", shop, s.cfg.APIVersion, orderID)

	var result struct {
		Order dto.OrderPayload `json:"order"`
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("X-Shopify-Access-Token", s.cfg.AccessToken).
		SetResult(&result).
		Get(apiURL)
	if err != nil {
		return nil, fmt.Errorf("请求 Shopify API 失败: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: 订单 %s 不存在", ErrNotFound, orderID)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Shopify API 错误 [%d]: %s", resp.StatusCode(), resp.String())
	}

	return &result.Order, nil
}
