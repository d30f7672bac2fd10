// Package recognizer 提供证件图片的字段识别实现
package recognizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/allanpk716/docx_templater/internal/config"
	"github.com/allanpk716/docx_templater/internal/domain"
)

// DocTypeProperty 识别结果中表示证件类型的属性名
const DocTypeProperty = "DOCTYPE"

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
}

// New 根据配置创建识别引擎
func New(cfg *config.Config, logger *slog.Logger) (domain.Recognizer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	switch cfg.RecognizerName() {
	case config.RecognizerDocengine:
		return NewDocengine(cfg.ExecutablePath(), cfg.BundlePath(), cfg.RecognizerTimeout(), logger), nil
	case config.RecognizerTesseract:
		t, err := NewTesseract(cfg.Language, logger)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("未知的识别引擎: %s", cfg.Recognizer)
	}
}

// ValidateImagePath 检查图片扩展名是否受支持
func ValidateImagePath(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !imageExtensions[ext] {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedImage, path)
	}
	return nil
}

// ParseOutput 将识别程序输出的 JSON 对象解析为属性映射。
// 非字符串的标量转换为文本，null 值被跳过。
func ParseOutput(data []byte) (domain.RecognitionResult, error) {
	decoder := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(data)))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRecognitionInvalid, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: 输出不是 JSON 对象", domain.ErrRecognitionInvalid)
	}

	result := make(domain.RecognitionResult, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			result[key] = v
		case json.Number:
			result[key] = v.String()
		case bool:
			if v {
				result[key] = "true"
			} else {
				result[key] = "false"
			}
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("%w: 属性 %s: %w", domain.ErrRecognitionInvalid, key, err)
			}
			result[key] = string(encoded)
		}
	}

	return result, nil
}
