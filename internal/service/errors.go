package service

import "errors"

// ==================== 管线错误分类 ====================

// 各阶段错误哨兵，调用方用 errors.Is 判断失败类别。
// 提取与占位符替换阶段对"格式不对但存在"的数据一律宽容降级，不产生错误。
var (
	// ErrValidation 缺少必要标识（订单 ID、店铺域名等）
	ErrValidation = errors.New("参数校验失败")

	// ErrNotFound 订单/模板/产物不存在
	ErrNotFound = errors.New("记录不存在")

	// ErrExternalFetch 远程资源（买家上传图片等）下载失败
	ErrExternalFetch = errors.New("远程资源获取失败")

	// ErrRender 无头浏览器渲染失败或不可恢复超时
	ErrRender = errors.New("PDF 渲染失败")

	// ErrStorage 产物持久化失败或存储后端不可用
	ErrStorage = errors.New("存储失败")
)
