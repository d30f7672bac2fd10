package processor

import (
	"log/slog"
	"strings"

	"github.com/allanpk716/docx_templater/internal/domain"
	"github.com/allanpk716/docx_templater/internal/matcher"
	"github.com/allanpk716/docx_templater/pkg/docx"
)

// maxSubstitutionsPerRun 单个运行的替换次数上限，防止值中再次出现自身占位符时死循环
const maxSubstitutionsPerRun = 256

// templateFiller 模板填充器实现
type templateFiller struct {
	matcher domain.PlaceholderMatcher
	logger  *slog.Logger
}

// NewTemplateFiller 创建新的模板填充器
func NewTemplateFiller(logger *slog.Logger) domain.TemplateFiller {
	if logger == nil {
		logger = slog.Default()
	}
	return &templateFiller{
		matcher: matcher.NewPlaceholderMatcher(),
		logger:  logger,
	}
}

// FillParagraph 替换段落中所有可解析的 ${key} 占位符。
//
// 占位符可能跨越多个运行：从包含 '$' 的运行 i 开始向右逐个拼接运行文本，
// 直到拼接文本中出现某个标签的占位符（运行 j）。替换结果写回运行 i，沿用其格式，
// 运行 i+1..j 被清空。运行 i 中仍有 '$' 时继续处理，否则前进到下一个运行。
// 无法解析的占位符原样保留。
func (tf *templateFiller) FillParagraph(paragraph *docx.Paragraph, tags domain.TagSource) domain.FillStats {
	stats := domain.FillStats{Paragraphs: 1}
	if paragraph == nil || tags == nil || tags.IsEmpty() {
		return stats
	}

	keys := tags.Keys()
	runs := paragraph.Runs

	for i := range runs {
		for n := 0; strings.Contains(runs[i].Text(), "$"); n++ {
			if n >= maxSubstitutionsPerRun {
				tf.logger.Warn("单个运行替换次数超过上限，停止处理", "run", i, "limit", maxSubstitutionsPerRun)
				break
			}

			key, end, ok := tf.findSpan(runs, i, keys)
			if !ok {
				// 未闭合或未知的占位符保持原样
				break
			}

			value, _ := tags.Get(key)
			composite := compositeText(runs, i, end)
			matches := tf.matcher.FindMatches(composite, map[string]string{key: value})
			runs[i].SetText(tf.matcher.ReplaceMatches(composite, matches))
			for k := i + 1; k <= end; k++ {
				runs[k].Clear()
			}

			stats.Substitutions += len(matches)
			if stats.PerKey == nil {
				stats.PerKey = make(map[string]int)
			}
			stats.PerKey[key] += len(matches)

			tf.logger.Debug("替换占位符", "key", key, "start_run", i, "end_run", end, "count", len(matches))
		}
	}

	return stats
}

// findSpan 从运行 start 起向右扩展，返回首个命中的标签以及完成匹配的运行下标
func (tf *templateFiller) findSpan(runs []*docx.Run, start int, keys []string) (string, int, bool) {
	var composite strings.Builder
	for j := start; j < len(runs); j++ {
		composite.WriteString(runs[j].Text())
		if key, ok := tf.matcher.FirstMatch(composite.String(), keys); ok {
			return key, j, true
		}
	}
	return "", -1, false
}

// compositeText 拼接运行 from..to（含）的文本
func compositeText(runs []*docx.Run, from, to int) string {
	var sb strings.Builder
	for k := from; k <= to; k++ {
		sb.WriteString(runs[k].Text())
	}
	return sb.String()
}
