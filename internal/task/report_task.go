package task

import (
	"context"
	"log"
	"time"

	"letter_press_v1_202608/internal/repository"

	"github.com/robfig/cron/v3"
)

// ==================== ReportTask 生成量日报任务 ====================

// ReportTask 每日统计各店铺的信纸生成量并落日志
// 用于排查生成量异常（模板失效、webhook 断流）
type ReportTask struct {
	PdfRepo repository.GeneratedPdfRepository
	Cron    *cron.Cron
}

func NewReportTask(pdfRepo repository.GeneratedPdfRepository) *ReportTask {
	return &ReportTask{
		PdfRepo: pdfRepo,
		Cron:    cron.New(cron.WithSeconds()), // 支持秒级控制
	}
}

// Start 启动定时任务
func (t *ReportTask) Start() {
	// 每天 00:10 统计前一天
	_, err := t.Cron.AddFunc("0 10 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		t.reportJob(ctx)
	})
	if err != nil {
		log.Fatalf("无法启动生成量日报任务: %v", err)
	}

	t.Cron.Start()
	log.Println("[ReportTask] 生成量日报任务已启动 (每天 00:10 统计)")
}

// Stop 停止定时任务
func (t *ReportTask) Stop() {
	ctx := t.Cron.Stop()
	<-ctx.Done()
	log.Println("[ReportTask] 生成量日报任务已停止")
}

// reportJob 统计过去 24 小时各店铺生成量
func (t *ReportTask) reportJob(ctx context.Context) {
	since := time.Now().Add(-24 * time.Hour)

	counts, err := t.PdfRepo.CountByShopSince(ctx, since)
	if err != nil {
		log.Printf("[Cron] 生成量统计失败: %v", err)
		return
	}
	if len(counts) == 0 {
		log.Println("[Cron] 过去 24 小时没有新生成的信纸")
		return
	}

	total := int64(0)
	for _, c := range counts {
		log.Printf("[Cron] 店铺 [%s] 过去 24 小时生成 %d 份信纸", c.Shop, c.Count)
		total += c.Count
	}
	log.Printf("[Cron] 过去 24 小时合计生成 %d 份信纸", total)
}
