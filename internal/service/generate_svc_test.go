package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"letter_press_v1_202608/internal/api/dto"
	"letter_press_v1_202608/internal/model"
	"letter_press_v1_202608/internal/repository"
)

// ==================== 测试辅助 ====================

type fakeResolver struct {
	err error
}

func (r *fakeResolver) Resolve(ctx context.Context, shop, productID, productTitle string) (*model.LetterTemplate, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &model.LetterTemplate{
		ID:          7,
		Shop:        shop,
		ProductID:   productID,
		HtmlContent: "<html>{{productTitle}}{{imageSection}}</html>",
		IsActive:    true,
	}, nil
}

type fakeRenderer struct {
	mu       sync.Mutex
	calls    int
	failOn   int // 第 N 次调用返回错误，0 表示不失败
	lastHTML string
}

func (r *fakeRenderer) RenderPDF(ctx context.Context, htmlContent string, expectImage bool) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.lastHTML = htmlContent
	if r.failOn != 0 && r.calls == r.failOn {
		return nil, ErrRender
	}
	return []byte("%PDF-fake"), nil
}

type fakeStore struct {
	mu        sync.Mutex
	pdfs      []string
	images    []string
	imageErr  error
	pdfErr    error
	publicURL string
}

func (s *fakeStore) StorePDF(ctx context.Context, data []byte, filename, shop string) (*StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pdfErr != nil {
		return nil, s.pdfErr
	}
	s.pdfs = append(s.pdfs, filename)
	return &StoredObject{URL: "/pdfs/" + shop + "/" + filename, Key: "/abs/" + filename}, nil
}

func (s *fakeStore) StoreImage(ctx context.Context, sourceURL, filename, shop string) (*StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.imageErr != nil {
		return nil, s.imageErr
	}
	s.images = append(s.images, sourceURL)
	return &StoredObject{URL: "/images/" + shop + "/" + filename, Key: "/abs/" + filename}, nil
}

// fakePdfRepo 内存产物仓库
type fakePdfRepo struct {
	mu      sync.Mutex
	nextID  int64
	records []model.GeneratedPdf
	err     error
}

func (r *fakePdfRepo) Create(ctx context.Context, pdf *model.GeneratedPdf) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.nextID++
	pdf.ID = r.nextID
	pdf.CreatedAt = time.Now()
	r.records = append(r.records, *pdf)
	return nil
}

func (r *fakePdfRepo) FindByToken(ctx context.Context, token string) (*model.GeneratedPdf, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].DownloadToken == token {
			rec := r.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (r *fakePdfRepo) FindByOrderIdentifier(ctx context.Context, identifier, orderID string, limit int) ([]model.GeneratedPdf, error) {
	return nil, nil
}

func (r *fakePdfRepo) CountByShopSince(ctx context.Context, since time.Time) ([]repository.ShopGenerationCount, error) {
	return nil, nil
}

func testPayload(lineItems ...dto.RawLineItem) *dto.OrderPayload {
	return &dto.OrderPayload{
		ID:          5001,
		OrderNumber: 1001,
		Name:        "#1001",
		Email:       "buyer@example.com",
		LineItems:   lineItems,
	}
}

func textItem(id int64, text string) dto.RawLineItem {
	return dto.RawLineItem{
		ID:        id,
		Title:     "Custom Letter",
		Quantity:  1,
		Price:     "9.99",
		ProductID: 2001,
		Properties: []dto.LineItemProperty{
			{Name: "Single Line Text", Value: text},
		},
	}
}

// ==================== 单元测试 ====================

func TestGenerateForOrder_NothingToDo(t *testing.T) {
	svc := NewGenerateService(&fakeResolver{}, &fakeRenderer{}, &fakeStore{}, &fakePdfRepo{})

	results, err := svc.GenerateForOrder(context.Background(), "shop.example.com", testPayload(), false)
	if err != nil {
		t.Fatalf("无行项目不是错误, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("无行项目应返回空结果, got %d", len(results))
	}
}

func TestGenerateForOrder_Validation(t *testing.T) {
	svc := NewGenerateService(&fakeResolver{}, &fakeRenderer{}, &fakeStore{}, &fakePdfRepo{})

	if _, err := svc.GenerateForOrder(context.Background(), "", testPayload(textItem(1, "hi")), false); !errors.Is(err, ErrValidation) {
		t.Errorf("缺少 shop 应返回 ErrValidation, got %v", err)
	}
	if _, err := svc.GenerateForOrder(context.Background(), "shop.example.com", nil, false); !errors.Is(err, ErrValidation) {
		t.Errorf("缺少载荷应返回 ErrValidation, got %v", err)
	}
}

func TestGenerateForOrder_TextOnly(t *testing.T) {
	renderer := &fakeRenderer{}
	store := &fakeStore{}
	repo := &fakePdfRepo{}
	svc := NewGenerateService(&fakeResolver{}, renderer, store, repo)

	results, err := svc.GenerateForOrder(context.Background(), "shop.example.com",
		testPayload(textItem(1, "Happy Birthday")), false)
	if err != nil {
		t.Fatalf("GenerateForOrder() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("应生成 1 条记录, got %d", len(results))
	}

	rec := results[0]
	if rec.OrderID != "5001" || rec.OrderNumber != "1001" || rec.OrderName != "#1001" {
		t.Errorf("订单字段错误: %+v", rec)
	}
	if rec.TemplateID != 7 {
		t.Errorf("应记录使用的模板 ID, got %d", rec.TemplateID)
	}
	if rec.ImageURL != "" {
		t.Errorf("纯文本行项目不应有图片: %s", rec.ImageURL)
	}
	if rec.DownloadToken == "" {
		t.Error("应签发下载令牌")
	}
	if v, ok := rec.PersonalizationData["Single Line Text"]; !ok || v != "Happy Birthday" {
		t.Errorf("原始属性应留档: %v", rec.PersonalizationData)
	}
	if len(store.images) != 0 {
		t.Error("无图片时不应走图片转存")
	}
	if len(store.pdfs) != 1 {
		t.Errorf("PDF 应落存 1 次, got %d", len(store.pdfs))
	}
}

func TestGenerateForOrder_WithImage(t *testing.T) {
	renderer := &fakeRenderer{}
	store := &fakeStore{}
	svc := NewGenerateService(&fakeResolver{}, renderer, store, &fakePdfRepo{})

	item := textItem(1, "hello")
	item.Properties = append(item.Properties, dto.LineItemProperty{
		Name: "Upload", Value: "@https://cdn.example.com/p.png",
	})

	results, err := svc.GenerateForOrder(context.Background(), "shop.example.com", testPayload(item), false)
	if err != nil {
		t.Fatalf("GenerateForOrder() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("应生成 1 条记录, got %d", len(results))
	}
	if results[0].ImageURL != "https://cdn.example.com/p.png" {
		t.Errorf("应记录去掉 @ 前缀的图片地址: %s", results[0].ImageURL)
	}
	if len(store.images) != 1 || store.images[0] != "https://cdn.example.com/p.png" {
		t.Errorf("图片应转存一次: %v", store.images)
	}
}

func TestGenerateForOrder_ImageStoreFailureNotFatal(t *testing.T) {
	store := &fakeStore{imageErr: ErrExternalFetch}
	svc := NewGenerateService(&fakeResolver{}, &fakeRenderer{}, store, &fakePdfRepo{})

	item := textItem(1, "hello")
	item.Properties = append(item.Properties, dto.LineItemProperty{
		Name: "Upload", Value: "https://cdn.example.com/p.png",
	})

	results, err := svc.GenerateForOrder(context.Background(), "shop.example.com", testPayload(item), false)
	if err != nil {
		t.Fatalf("图片转存失败不应中断生成, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("转存失败仍应渲染出 PDF, got %d 条", len(results))
	}
	// 降级使用原始图片地址
	if results[0].ImageURL != "https://cdn.example.com/p.png" {
		t.Errorf("应降级记录原始图片地址: %s", results[0].ImageURL)
	}
}

func TestGenerateForOrder_FirstItemOnly(t *testing.T) {
	renderer := &fakeRenderer{}
	svc := NewGenerateService(&fakeResolver{}, renderer, &fakeStore{}, &fakePdfRepo{})

	payload := testPayload(textItem(1, "a"), textItem(2, "b"), textItem(3, "c"))

	// webhook 路径只处理第一条
	results, err := svc.GenerateForOrder(context.Background(), "shop.example.com", payload, false)
	if err != nil {
		t.Fatalf("GenerateForOrder() error = %v", err)
	}
	if len(results) != 1 || results[0].LineItemID != "1" {
		t.Errorf("只应处理第一条行项目: %+v", results)
	}

	// 按需路径全量处理
	results, err = svc.GenerateForOrder(context.Background(), "shop.example.com", payload, true)
	if err != nil {
		t.Fatalf("GenerateForOrder() error = %v", err)
	}
	if len(results) != 3 {
		t.Errorf("按需路径应处理全部行项目, got %d", len(results))
	}
}

func TestGenerateForOrder_ItemFailureIsolated(t *testing.T) {
	// 第二条渲染失败，第一三条照常产出
	renderer := &fakeRenderer{failOn: 2}
	svc := NewGenerateService(&fakeResolver{}, renderer, &fakeStore{}, &fakePdfRepo{})

	payload := testPayload(textItem(1, "a"), textItem(2, "b"), textItem(3, "c"))
	results, err := svc.GenerateForOrder(context.Background(), "shop.example.com", payload, true)
	if err != nil {
		t.Fatalf("单条失败不应上抛, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("失败行项目应被跳过, got %d 条", len(results))
	}
	if results[0].LineItemID != "1" || results[1].LineItemID != "3" {
		t.Errorf("幸存行项目错误: %+v", results)
	}
}

func TestGenerateForOrder_TokenUnique(t *testing.T) {
	svc := NewGenerateService(&fakeResolver{}, &fakeRenderer{}, &fakeStore{}, &fakePdfRepo{})

	payload := testPayload(textItem(1, "a"), textItem(2, "b"), textItem(3, "c"), textItem(4, "d"))
	results, err := svc.GenerateForOrder(context.Background(), "shop.example.com", payload, true)
	if err != nil {
		t.Fatalf("GenerateForOrder() error = %v", err)
	}

	seen := make(map[string]bool)
	for _, rec := range results {
		if rec.DownloadToken == "" {
			t.Fatal("令牌不应为空")
		}
		if seen[rec.DownloadToken] {
			t.Fatalf("令牌重复: %s", rec.DownloadToken)
		}
		seen[rec.DownloadToken] = true
	}
}

func TestGenerateForOrder_RendersPersonalizedHTML(t *testing.T) {
	renderer := &fakeRenderer{}
	svc := NewGenerateService(&fakeResolver{}, renderer, &fakeStore{}, &fakePdfRepo{})

	_, err := svc.GenerateForOrder(context.Background(), "shop.example.com",
		testPayload(textItem(1, "hi")), false)
	if err != nil {
		t.Fatalf("GenerateForOrder() error = %v", err)
	}

	// 渲染输入应是替换完占位符的 HTML
	if renderer.lastHTML == "" || renderer.lastHTML == "<html>{{productTitle}}{{imageSection}}</html>" {
		t.Errorf("渲染前应完成占位符替换: %s", renderer.lastHTML)
	}
}
