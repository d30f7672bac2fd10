package domain

import "errors"

var (
	// ErrNothingToApply 标签为空，保存时没有可应用的值
	ErrNothingToApply = errors.New("nothing to apply")
	// ErrNoTemplate 尚未加载模板
	ErrNoTemplate = errors.New("no template loaded")
	// ErrRecognitionInvalid 识别结果无法解析为属性映射
	ErrRecognitionInvalid = errors.New("failed to retrieve any data")
	// ErrDocumentLoad 模板文档加载失败
	ErrDocumentLoad = errors.New("document load failure")
	// ErrDocumentSave 文档保存失败
	ErrDocumentSave = errors.New("document save failure")
	// ErrUnknownSession 配置中不存在的会话
	ErrUnknownSession = errors.New("unknown session")
	// ErrUnsupportedImage 不支持的图片格式
	ErrUnsupportedImage = errors.New("unsupported image format")
)
