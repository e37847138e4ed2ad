package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ==================== PdfService 无头浏览器渲染 ====================

// 打印参数：A4 纸型，四边 0.5 英寸页边距
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
	marginInches      = 0.5

	// 固定视口，保证排版与宿主显示环境无关
	viewportWidth  = 1200
	viewportHeight = 1600
	deviceScale    = 2
)

// waitImagesJS 等待文档内全部 <img> 加载完成（或失败）
const waitImagesJS = `() => Promise.all(
	Array.from(document.images).map((img) => {
		if (img.complete) return true;
		return new Promise((resolve) => {
			img.onload = resolve;
			img.onerror = resolve;
		});
	})
)`

// RenderConfig 渲染配置
type RenderConfig struct {
	BrowserBin       string        // 预装浏览器路径，为空时由 rod 自动下载
	NoSandbox        bool          // 容器环境需要
	MaxConcurrent    int           // 同时渲染的页面上限
	PageLoadTimeout  time.Duration // 页面加载 + 网络空闲等待上限
	ImageLoadTimeout time.Duration // 图片加载等待上限，超时降级继续
}

// PdfService 把已替换完占位符的 HTML 渲染为 PDF 字节
// 浏览器进程是稀缺资源，渲染槽位用带缓冲通道限流
type PdfService struct {
	cfg   RenderConfig
	slots chan struct{}

	mu      sync.Mutex
	browser *rod.Browser
}

// NewPdfService 创建渲染服务，浏览器惰性启动
func NewPdfService(cfg RenderConfig) *PdfService {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	if cfg.PageLoadTimeout <= 0 {
		cfg.PageLoadTimeout = 30 * time.Second
	}
	if cfg.ImageLoadTimeout <= 0 {
		cfg.ImageLoadTimeout = 5 * time.Second
	}
	return &PdfService{
		cfg:   cfg,
		slots: make(chan struct{}, cfg.MaxConcurrent),
	}
}

// ensureBrowser 惰性连接浏览器
func (s *PdfService) ensureBrowser() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return s.browser, nil
	}

	l := launcher.New()
	if s.cfg.BrowserBin != "" {
		l = l.Bin(s.cfg.BrowserBin)
	}
	if s.cfg.NoSandbox {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: 启动浏览器失败: %v", ErrRender, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: 连接浏览器失败: %v", ErrRender, err)
	}

	s.browser = browser
	return browser, nil
}

// Close 释放浏览器资源
func (s *PdfService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		err := s.browser.Close()
		s.browser = nil
		return err
	}
	return nil
}

// RenderPDF 渲染 HTML 为 PDF 字节
// expectImage 为真时额外等待页面图片加载，超时只告警不失败
func (s *PdfService) RenderPDF(ctx context.Context, htmlContent string, expectImage bool) ([]byte, error) {
	// 占用一个渲染槽位
	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrRender, ctx.Err())
	}

	browser, err := s.ensureBrowser()
	if err != nil {
		return nil, err
	}

	// HTML 落临时文件后用 file:// 打开，页面内的远程图片仍可正常请求
	tmp, err := os.CreateTemp("", "letter_*.html")
	if err != nil {
		return nil, fmt.Errorf("%w: 写入临时文件失败: %v", ErrRender, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(htmlContent); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: 写入临时文件失败: %v", ErrRender, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: 写入临时文件失败: %v", ErrRender, err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: 创建页面失败: %v", ErrRender, err)
	}
	// 无论哪条路径退出都关闭页面
	defer page.Close()

	page = page.Context(ctx)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: deviceScale,
	}); err != nil {
		return nil, fmt.Errorf("%w: 设置视口失败: %v", ErrRender, err)
	}

	if err := page.Navigate("file://" + tmpPath); err != nil {
		return nil, fmt.Errorf("%w: 加载页面失败: %v", ErrRender, err)
	}

	// load 事件与网络空闲都要满足，远程图片请求才算完成
	if err := page.Timeout(s.cfg.PageLoadTimeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: 等待页面加载失败: %v", ErrRender, err)
	}
	wait := page.Timeout(s.cfg.PageLoadTimeout).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	wait()

	if expectImage {
		// 图片加载不阻塞出图：超时记录后继续
		if _, err := page.Timeout(s.cfg.ImageLoadTimeout).Eval(waitImagesJS); err != nil {
			log.Printf("[PdfService] 图片加载等待超时，继续生成 PDF: %v", err)
		}
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:        floatPtr(paperWidthInches),
		PaperHeight:       floatPtr(paperHeightInches),
		MarginTop:         floatPtr(marginInches),
		MarginBottom:      floatPtr(marginInches),
		MarginLeft:        floatPtr(marginInches),
		MarginRight:       floatPtr(marginInches),
		PrintBackground:   true,
		PreferCSSPageSize: false,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: 导出 PDF 失败: %v", ErrRender, err)
	}

	pdfBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取 PDF 流失败: %v", ErrRender, err)
	}
	return pdfBytes, nil
}

func floatPtr(v float64) *float64 {
	return &v
}
