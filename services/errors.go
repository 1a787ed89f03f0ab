package services

import "errors"

// 服务层错误，controllers 负责翻译为 HTTP 状态码。
var (
	// ErrNotFound 实体不存在或不属于当前用户，两种情况统一返回，
	// 避免泄露归属信息
	ErrNotFound = errors.New("record not found")

	// ErrNoJSONArray 模型输出中找不到 JSON 数组
	ErrNoJSONArray = errors.New("no JSON array found in model output")

	// ErrNoValidItems 解析出的元素没有一个通过校验
	ErrNoValidItems = errors.New("no valid items in model output")

	// ErrGenerationInProgress 同一实体的生成请求正在进行中
	ErrGenerationInProgress = errors.New("generation already in progress")
)
