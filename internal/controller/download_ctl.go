package controller

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"letter_press_v1_202608/internal/repository"
	"letter_press_v1_202608/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ==================== 控制器 ====================

// DownloadController 下载令牌解析控制器
type DownloadController struct {
	pdfRepo repository.GeneratedPdfRepository
	baseURL string
}

func NewDownloadController(pdfRepo repository.GeneratedPdfRepository, baseURL string) *DownloadController {
	return &DownloadController{
		pdfRepo: pdfRepo,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// ==================== API 方法 ====================

// Download 按令牌取回 PDF
// 本地产物直接回流字节，远程产物重定向到公开地址
// @Summary 按下载令牌取回 PDF
// @Tags Download
// @Param token path string true "下载令牌"
// @Success 200 {file} application/pdf
// @Router /download/{token} [get]
func (ctrl *DownloadController) Download(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少下载令牌"})
		return
	}

	rec, err := ctrl.pdfRepo.FindByToken(c.Request.Context(), token)
	if err != nil {
		log.Printf("[DownloadController] 查询令牌失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询失败"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接无效"})
		return
	}

	// key 是本地绝对路径时直接回流文件内容
	if filepath.IsAbs(rec.PdfKey) {
		data, err := os.ReadFile(rec.PdfKey)
		if err != nil {
			// 记录在档但文件已丢失，与令牌无效区分开
			log.Printf("[DownloadController] 令牌 %s 对应的文件缺失: %v", token, err)
			c.JSON(http.StatusNotFound, gin.H{"error": "文件不存在"})
			return
		}

		filename := fmt.Sprintf("%s_%s.pdf",
			utils.SanitizeFilename(rec.ProductTitle),
			utils.SanitizeFilename(rec.OrderName),
		)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "application/pdf", data)
		return
	}

	// 远程产物：绝对地址直接跳转，相对地址补公开前缀
	if strings.HasPrefix(rec.PdfURL, "http://") || strings.HasPrefix(rec.PdfURL, "https://") {
		c.Redirect(http.StatusFound, rec.PdfURL)
		return
	}
	c.Redirect(http.StatusFound, ctrl.baseURL+rec.PdfURL)
}
