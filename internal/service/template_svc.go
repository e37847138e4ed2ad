package service

import (
	"context"
	"fmt"
	"sync"

	"letter_press_v1_202608/internal/model"
	"letter_press_v1_202608/internal/repository"
)

// ==================== TemplateService 模板解析 ====================

// TemplateService 查找或惰性创建 (shop, productID) 的生效模板
type TemplateService struct {
	repo repository.TemplateRepository

	// 每个 (shop, productID) 一把互斥锁，创建默认模板时持锁重查，
	// 避免并发首单为同一商品建出两个生效模板
	createLocks sync.Map // string -> *sync.Mutex
}

// NewTemplateService 创建模板服务
func NewTemplateService(repo repository.TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

// Resolve 返回生效模板，不存在时创建默认模板并返回
// 每次调用都重新查询，不做跨调用缓存
func (s *TemplateService) Resolve(ctx context.Context, shop, productID, productTitle string) (*model.LetterTemplate, error) {
	tpl, err := s.repo.FindActive(ctx, shop, productID)
	if err != nil {
		return nil, fmt.Errorf("查询模板失败: %w", err)
	}
	if tpl != nil {
		return tpl, nil
	}

	mu := s.lockFor(shop, productID)
	mu.Lock()
	defer mu.Unlock()

	// 持锁重查：并发解析方可能已经建好
	tpl, err = s.repo.FindActive(ctx, shop, productID)
	if err != nil {
		return nil, fmt.Errorf("查询模板失败: %w", err)
	}
	if tpl != nil {
		return tpl, nil
	}

	tpl = &model.LetterTemplate{
		Shop:        shop,
		ProductID:   productID,
		Name:        fmt.Sprintf("Default Template - %s", productTitle),
		HtmlContent: defaultTemplateHTML,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, tpl); err != nil {
		return nil, fmt.Errorf("创建默认模板失败: %w", err)
	}
	return tpl, nil
}

func (s *TemplateService) lockFor(shop, productID string) *sync.Mutex {
	key := shop + "|" + productID
	v, _ := s.createLocks.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// ==================== 默认模板 ====================

// defaultTemplateHTML 商品没有模板时惰性落库的默认信纸骨架
const defaultTemplateHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <style>
    body {
      font-family: 'Georgia', serif;
      margin: 0;
      padding: 40px;
      background: linear-gradient(135deg, #f5f7fa 0%, #c3cfe2 100%);
      min-height: 100vh;
    }
    .letter-container {
      max-width: 800px;
      margin: 0 auto;
      background: white;
      padding: 60px;
      box-shadow: 0 10px 30px rgba(0,0,0,0.1);
      border-radius: 8px;
    }
    .header {
      text-align: center;
      margin-bottom: 40px;
      border-bottom: 3px solid #d4af37;
      padding-bottom: 20px;
    }
    .header h1 {
      color: #2c3e50;
      font-size: 36px;
      margin: 0;
      font-weight: bold;
    }
    .content {
      line-height: 1.8;
      font-size: 18px;
      color: #34495e;
      margin: 30px 0;
    }
    .image-section {
      text-align: center;
      margin: 40px 0;
    }
    .image-section img {
      max-width: 100%;
      height: auto;
      border-radius: 8px;
      box-shadow: 0 4px 15px rgba(0,0,0,0.1);
    }
    .download-button {
      display: inline-block;
      margin-top: 30px;
      padding: 15px 30px;
      background: #d4af37;
      color: white;
      text-decoration: none;
      border-radius: 5px;
      font-weight: bold;
      text-align: center;
    }
    .footer {
      margin-top: 50px;
      text-align: center;
      color: #7f8c8d;
      font-size: 14px;
    }
  </style>
</head>
<body>
  <div class="letter-container">
    <div class="header">
      <h1>{{productTitle}}</h1>
    </div>

    <div class="content">
      {{imageSection}}

      <div class="order-info" style="margin: 30px 0; padding: 20px; background: #f8f9fa; border-radius: 4px;">
        <p><strong>Order Number:</strong> {{orderName}}</p>
        <p><strong>Product:</strong> {{productTitle}}</p>
        <p><strong>Quantity:</strong> {{quantity}}</p>
        <p><strong>Price:</strong> {{price}}</p>
      </div>

      {{orderDetailsSection}}

      {{downloadButtonSection}}
    </div>

    <div class="footer">
      <p>Created with love by The Best Letters</p>
      <p>Order: {{orderName}}</p>
    </div>
  </div>
</body>
</html>`
