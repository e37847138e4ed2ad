package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"letter_press_v1_202608/internal/controller"
	"letter_press_v1_202608/internal/model"
	"letter_press_v1_202608/internal/repository"
	"letter_press_v1_202608/internal/router"
	"letter_press_v1_202608/internal/service"
	"letter_press_v1_202608/internal/task"
	"letter_press_v1_202608/pkg/database"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 启动定时任务
	initTasks(deps)

	// 4. 初始化路由
	r := gin.Default()
	router.InitRoutes(r, deps.Controllers, router.StaticConfig{Root: deps.StaticRoot})

	// 5. 启动服务
	startServer(r)

	// 6. 回收浏览器进程
	if err := deps.Services.Pdf.Close(); err != nil {
		log.Printf("关闭浏览器失败: %v", err)
	}
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers

	// 本地存储的公开目录根，非本地存储时为空
	StaticRoot string
}

// Repositories 仓库集合
type Repositories struct {
	Template repository.TemplateRepository
	Pdf      repository.GeneratedPdfRepository
}

// Services 服务集合
type Services struct {
	Template *service.TemplateService
	Pdf      *service.PdfService
	Storage  *service.StorageService
	Generate *service.GenerateService
	Orders   service.OrderSource
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=letter_press port=5432 sslmode=disable")
	return database.InitDB(dsn,
		&model.LetterTemplate{},
		&model.GeneratedPdf{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Template: repository.NewTemplateRepository(db),
		Pdf:      repository.NewGeneratedPdfRepository(db),
	}

	// -------- 存储服务 --------
	provider := getEnv("STORAGE_PROVIDER", "local")
	staticRoot := ""
	if provider == "local" {
		staticRoot = getEnv("LOCAL_STORAGE_ROOT", "./public")
	}
	storageSvc, err := service.NewStorageService(&service.StorageConfig{
		Provider:  provider,
		LocalRoot: staticRoot,
		Bucket:    getEnv("AWS_BUCKET", ""),
		Region:    getEnv("AWS_REGION", ""),
		AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		Endpoint:  getEnv("AWS_ENDPOINT", ""),
		CDNDomain: getEnv("AWS_CDN_DOMAIN", ""),
	})
	if err != nil {
		log.Fatalf("存储服务初始化失败: %v", err)
	}

	// -------- 业务服务 --------
	services := &Services{
		Storage:  storageSvc,
		Template: service.NewTemplateService(repos.Template),
		Pdf: service.NewPdfService(service.RenderConfig{
			BrowserBin:    getEnv("BROWSER_BIN", ""),
			NoSandbox:     getEnvBool("BROWSER_NO_SANDBOX", true),
			MaxConcurrent: getEnvInt("RENDER_MAX_CONCURRENT", 2),
		}),
		Orders: service.NewShopifyOrderSource(service.ShopifyConfig{
			AccessToken: getEnv("SHOPIFY_ACCESS_TOKEN", ""),
			APIVersion:  getEnv("SHOPIFY_API_VERSION", ""),
		}),
	}
	services.Generate = service.NewGenerateService(
		services.Template,
		services.Pdf,
		services.Storage,
		repos.Pdf,
	)

	// -------- Controller 层 --------
	baseURL := getEnv("APP_URL", "")
	defaultShop := getEnv("SHOPIFY_SHOP", "")
	controllers := &router.Controllers{
		Webhook:  controller.NewWebhookController(services.Generate),
		Pdf:      controller.NewPdfController(services.Generate, services.Orders, repos.Pdf, baseURL, defaultShop),
		Download: controller.NewDownloadController(repos.Pdf, baseURL),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
		StaticRoot:  staticRoot,
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) {
	// 生成量日报
	reportTask := task.NewReportTask(deps.Repos.Pdf)
	reportTask.Start()

	log.Println("定时任务已启动")
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
	}
	return defaultValue
}
