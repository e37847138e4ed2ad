package repository

import (
	"context"
	"testing"

	"letter_press_v1_202608/internal/model"
)

// ==================== 单元测试 ====================

func TestTemplateRepository_FindActive(t *testing.T) {
	repo := NewTemplateRepository(setupTestDB(t))
	ctx := context.Background()

	// 不存在时返回 (nil, nil)
	tpl, err := repo.FindActive(ctx, "shop.example.com", "2001")
	if err != nil {
		t.Fatalf("不存在不是错误, got %v", err)
	}
	if tpl != nil {
		t.Errorf("不存在应返回 nil, got %+v", tpl)
	}

	if err := repo.Create(ctx, &model.LetterTemplate{
		Shop:        "shop.example.com",
		ProductID:   "2001",
		Name:        "Default",
		HtmlContent: "<html>{{productTitle}}</html>",
		IsActive:    true,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tpl, err = repo.FindActive(ctx, "shop.example.com", "2001")
	if err != nil {
		t.Fatalf("FindActive() error = %v", err)
	}
	if tpl == nil || tpl.Name != "Default" {
		t.Errorf("应找到刚创建的模板: %+v", tpl)
	}

	// 其他商品不受影响
	tpl, _ = repo.FindActive(ctx, "shop.example.com", "9999")
	if tpl != nil {
		t.Errorf("其他商品不应命中: %+v", tpl)
	}
}

func TestTemplateRepository_InactiveSkipped(t *testing.T) {
	repo := NewTemplateRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &model.LetterTemplate{
		Shop:        "shop.example.com",
		ProductID:   "2001",
		Name:        "Disabled",
		HtmlContent: "<html></html>",
		IsActive:    false,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tpl, err := repo.FindActive(ctx, "shop.example.com", "2001")
	if err != nil {
		t.Fatalf("FindActive() error = %v", err)
	}
	if tpl != nil {
		t.Errorf("停用模板不应被解析出来: %+v", tpl)
	}
}

func TestTemplateRepository_GetByID(t *testing.T) {
	repo := NewTemplateRepository(setupTestDB(t))
	ctx := context.Background()

	tpl := &model.LetterTemplate{
		Shop:        "shop.example.com",
		ProductID:   "2001",
		Name:        "ByID",
		HtmlContent: "<html></html>",
		IsActive:    true,
	}
	if err := repo.Create(ctx, tpl); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "ByID" {
		t.Errorf("GetByID 返回错误记录: %+v", got)
	}

	if _, err := repo.GetByID(ctx, 99999); err == nil {
		t.Error("不存在的 ID 应返回错误")
	}
}
