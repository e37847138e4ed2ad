package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"letter_press_v1_202608/internal/api/dto"
	"letter_press_v1_202608/internal/model"
	"letter_press_v1_202608/internal/repository"
	"letter_press_v1_202608/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ==================== 依赖接口 ====================

// templateResolver 模板解析依赖
type templateResolver interface {
	Resolve(ctx context.Context, shop, productID, productTitle string) (*model.LetterTemplate, error)
}

// letterRenderer 渲染依赖
type letterRenderer interface {
	RenderPDF(ctx context.Context, htmlContent string, expectImage bool) ([]byte, error)
}

// artifactStore 产物存储依赖
type artifactStore interface {
	StorePDF(ctx context.Context, data []byte, filename, shop string) (*StoredObject, error)
	StoreImage(ctx context.Context, sourceURL, filename, shop string) (*StoredObject, error)
}

// ==================== GenerateService 生成编排 ====================

// GenerateService 驱动单个订单的信纸生成管线：
// 提取 → 模板解析 → 图片落存 → 占位符替换 → 渲染 → PDF 落存 → 发令牌 → 建档
type GenerateService struct {
	templates templateResolver
	renderer  letterRenderer
	storage   artifactStore
	pdfRepo   repository.GeneratedPdfRepository

	// 单个行项目的处理时限，渲染可能挂起数秒
	itemTimeout time.Duration
}

// NewGenerateService 创建生成编排服务
func NewGenerateService(
	templates templateResolver,
	renderer letterRenderer,
	storage artifactStore,
	pdfRepo repository.GeneratedPdfRepository,
) *GenerateService {
	return &GenerateService{
		templates:   templates,
		renderer:    renderer,
		storage:     storage,
		pdfRepo:     pdfRepo,
		itemTimeout: 2 * time.Minute,
	}
}

// GenerateForOrder 为订单的合格行项目生成信纸
// allItems 为假时只处理第一条（webhook 路径），为真时全部处理（按需路径）。
// 单条失败只记录并跳过，不影响其余行项目；没有合格行项目时返回空结果且无错误。
func (s *GenerateService) GenerateForOrder(ctx context.Context, shop string, payload *dto.OrderPayload, allItems bool) ([]model.GeneratedPdf, error) {
	if shop == "" {
		return nil, fmt.Errorf("%w: 缺少店铺标识", ErrValidation)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: 缺少订单载荷", ErrValidation)
	}

	items := ExtractOrderItems(payload.LineItems)
	if len(items) == 0 {
		// 无事可做，不是错误
		return nil, nil
	}
	if !allItems {
		items = items[:1]
	}

	var results []model.GeneratedPdf
	for i := range items {
		item := &items[i]

		itemCtx, cancel := context.WithTimeout(ctx, s.itemTimeout)
		rec, err := s.generateItem(itemCtx, shop, payload, item)
		cancel()

		if err != nil {
			log.Printf("[GenerateService] 订单 %s 商品 %q 生成失败: %v", payload.Name, item.ProductTitle, err)
			continue
		}
		results = append(results, *rec)
	}

	return results, nil
}

// generateItem 处理单条行项目
func (s *GenerateService) generateItem(ctx context.Context, shop string, payload *dto.OrderPayload, item *OrderItemData) (*model.GeneratedPdf, error) {
	tpl, err := s.templates.Resolve(ctx, shop, item.ProductID, item.ProductTitle)
	if err != nil {
		return nil, err
	}

	orderID := formatID(payload.ID)
	orderNumber := formatID(payload.OrderNumber)

	// 图片先转存到自有存储；转存失败不致命，继续用原始地址渲染
	imageURL := item.FirstImageURL()
	storedImageURL := ""
	if imageURL != "" {
		obj, err := s.storage.StoreImage(ctx, imageURL, utils.ImageFilename(orderID, item.LineItemID), shop)
		if err != nil {
			log.Printf("[GenerateService] 图片转存失败: %v", err)
		} else {
			storedImageURL = obj.URL
		}
	}

	effectiveImage := imageURL
	if effectiveImage == "" {
		effectiveImage = storedImageURL
	}

	data := buildPersonalizationData(payload, item)
	letterHTML := RenderLetterHTML(tpl.HtmlContent, data, effectiveImage)

	pdfBytes, err := s.renderer.RenderPDF(ctx, letterHTML, effectiveImage != "")
	if err != nil {
		return nil, err
	}

	orderRef := orderNumber
	if orderRef == "" {
		orderRef = utils.SanitizeFilename(payload.Name)
	}
	stored, err := s.storage.StorePDF(ctx, pdfBytes, utils.PdfFilename(orderRef, item.LineItemID), shop)
	if err != nil {
		return nil, err
	}

	personalization := make(datatypes.JSONMap, len(item.Properties))
	for k, v := range item.Properties {
		personalization[k] = v
	}

	rec := &model.GeneratedPdf{
		OrderID:             orderID,
		OrderNumber:         orderNumber,
		OrderName:           payload.Name,
		LineItemID:          item.LineItemID,
		ProductID:           item.ProductID,
		ProductTitle:        item.ProductTitle,
		CustomerEmail:       payload.Email,
		TemplateID:          tpl.ID,
		PdfURL:              stored.URL,
		PdfKey:              stored.Key,
		PersonalizationData: personalization,
		ImageURL:            effectiveImage,
		DownloadToken:       uuid.NewString(),
		Shop:                shop,
	}
	if err := s.pdfRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("保存生成记录失败: %w", err)
	}

	return rec, nil
}

// buildPersonalizationData 把订单与行项目数据合并为渲染输入
func buildPersonalizationData(payload *dto.OrderPayload, item *OrderItemData) *PersonalizationData {
	custom := make(map[string]string, len(item.Properties)+len(item.TextFields))
	for k, v := range item.Properties {
		custom[k] = v
	}
	for k, v := range item.TextFields {
		custom[k] = v
	}

	return &PersonalizationData{
		ProductTitle:  item.ProductTitle,
		OrderName:     payload.Name,
		CustomerEmail: payload.Email,
		Quantity:      item.Quantity,
		Price:         item.Price,
		SKU:           item.SKU,
		Vendor:        item.Vendor,
		Custom:        custom,
	}
}
