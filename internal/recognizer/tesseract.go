//go:build ocr

package recognizer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/otiai10/gosseract/v2"

	"github.com/allanpk716/docx_templater/internal/domain"
)

// Tesseract 使用本地 Tesseract 引擎识别证件图片。
// 需要系统安装 tesseract-ocr 并以 -tags ocr 构建。
type Tesseract struct {
	language string
	logger   *slog.Logger
}

// NewTesseract 创建 Tesseract 识别器
func NewTesseract(language string, logger *slog.Logger) (*Tesseract, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if language == "" {
		language = "eng"
	}
	return &Tesseract{language: language, logger: logger}, nil
}

// Recognize 对图片做 OCR，并把 "Label: value" 行解析为属性
func (t *Tesseract) Recognize(ctx context.Context, imagePath string, session domain.Session) (domain.RecognitionResult, error) {
	if err := ValidateImagePath(imagePath); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return nil, fmt.Errorf("设置 OCR 语言失败: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("加载图片失败: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR 识别失败: %w", err)
	}

	result := parseLabeledText(text, session)
	t.logger.Debug("OCR 识别完成", "image", imagePath, "properties", len(result))
	return result, nil
}
