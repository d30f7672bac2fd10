//go:build !ocr

package recognizer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/allanpk716/docx_templater/internal/domain"
)

// ErrOCRNotEnabled 未以 -tags ocr 构建时使用 Tesseract 识别器返回的错误
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Tesseract 未启用 OCR 时的占位实现
type Tesseract struct{}

// NewTesseract 返回 ErrOCRNotEnabled
func NewTesseract(language string, logger *slog.Logger) (*Tesseract, error) {
	return nil, ErrOCRNotEnabled
}

// Recognize 返回 ErrOCRNotEnabled
func (t *Tesseract) Recognize(ctx context.Context, imagePath string, session domain.Session) (domain.RecognitionResult, error) {
	return nil, ErrOCRNotEnabled
}
