package recognizer

import (
	"strings"
	"unicode"

	"github.com/allanpk716/docx_templater/internal/domain"
)

// parseLabeledText 将 OCR 文本中 "Label: value" 形式的行转换为属性映射。
// 标签名转为大写并以下划线连接，重复标签保留第一次出现的值。
func parseLabeledText(text string, session domain.Session) domain.RecognitionResult {
	result := make(domain.RecognitionResult)
	if session.ID != "" {
		result[DocTypeProperty] = session.ID
	}

	for _, line := range strings.Split(text, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key := propertyName(label)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		if _, exists := result[key]; exists {
			continue
		}
		result[key] = value
	}

	return result
}

func propertyName(label string) string {
	fields := strings.FieldsFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.ToUpper(strings.Join(fields, "_"))
}
