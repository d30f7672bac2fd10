package matcher

import (
	"regexp"
	"sort"
	"strings"

	"github.com/allanpk716/docx_templater/internal/domain"
)

// placeholderPattern 匹配 ${name} 形式的占位符，不支持转义与嵌套
var placeholderPattern = regexp.MustCompile(`\$\{([^${}\t\r\n]+)\}`)

// placeholderMatcher 占位符匹配器实现
type placeholderMatcher struct {
	patternCache map[string]*regexp.Regexp
}

// NewPlaceholderMatcher 创建新的占位符匹配器
func NewPlaceholderMatcher() domain.PlaceholderMatcher {
	return &placeholderMatcher{
		patternCache: make(map[string]*regexp.Regexp),
	}
}

// FirstMatch 按 keys 的顺序返回第一个其占位符出现在 content 中的键
func (pm *placeholderMatcher) FirstMatch(content string, keys []string) (string, bool) {
	if !strings.Contains(content, "${") {
		return "", false
	}
	for _, key := range keys {
		if strings.Contains(content, FormatPlaceholder(key)) {
			return key, true
		}
	}
	return "", false
}

// FindMatches 在内容中查找所有可替换的占位符，values 的键为标签名
func (pm *placeholderMatcher) FindMatches(content string, values map[string]string) []domain.Match {
	var matches []domain.Match

	for key, replacement := range values {
		placeholder := FormatPlaceholder(key)
		pattern := pm.getOrCreatePattern(regexp.QuoteMeta(placeholder))

		indexes := pattern.FindAllStringIndex(content, -1)
		for _, index := range indexes {
			matches = append(matches, domain.Match{
				Keyword:     placeholder,
				Replacement: replacement,
				StartPos:    index[0],
				EndPos:      index[1],
			})
		}
	}

	// 按位置排序，从后往前替换避免位置偏移
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].StartPos > matches[j].StartPos
	})

	return matches
}

// ReplaceMatches 根据匹配结果替换内容
func (pm *placeholderMatcher) ReplaceMatches(content string, matches []domain.Match) string {
	result := content

	// 从后往前替换，避免位置偏移问题
	for _, match := range matches {
		if match.StartPos >= 0 && match.EndPos <= len(result) {
			result = result[:match.StartPos] + match.Replacement + result[match.EndPos:]
		}
	}

	return result
}

// getOrCreatePattern 获取或创建正则表达式模式
func (pm *placeholderMatcher) getOrCreatePattern(escaped string) *regexp.Regexp {
	if pattern, exists := pm.patternCache[escaped]; exists {
		return pattern
	}

	pattern := regexp.MustCompile(escaped)
	pm.patternCache[escaped] = pattern
	return pattern
}

// ExtractPlaceholders 返回内容中出现的所有占位符名称（按出现顺序，去重）
func ExtractPlaceholders(content string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// ValidatePlaceholderName 检查标签名能否组成合法占位符
func ValidatePlaceholderName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "${}\t\r\n")
}

// ValidatePlaceholderFormat 验证占位符格式是否正确 (${key} 格式)
func ValidatePlaceholderFormat(placeholder string) bool {
	if len(placeholder) < 4 {
		return false
	}
	if !strings.HasPrefix(placeholder, "${") || !strings.HasSuffix(placeholder, "}") {
		return false
	}
	return ValidatePlaceholderName(placeholder[2 : len(placeholder)-1])
}

// FormatPlaceholder 将标签名格式化为 ${key} 格式
func FormatPlaceholder(name string) string {
	return "${" + name + "}"
}
