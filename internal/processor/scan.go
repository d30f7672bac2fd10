package processor

import (
	"strings"

	"github.com/allanpk716/docx_templater/internal/domain"
	"github.com/allanpk716/docx_templater/internal/matcher"
	"github.com/allanpk716/docx_templater/pkg/docx"
)

// PlaceholderInfo 模板中一个占位符的统计
type PlaceholderInfo struct {
	Name        string
	Occurrences int
	InTables    int
	Resolvable  bool
}

// ScanDocument 统计文档中出现的占位符（按段落文本，跨运行的占位符也计入）。
// tags 为 nil 时所有占位符视为不可解析。
func ScanDocument(doc *docx.Document, tags domain.TagSource) []PlaceholderInfo {
	if doc == nil {
		return nil
	}

	var infos []PlaceholderInfo
	index := make(map[string]int)

	record := func(p *docx.Paragraph, inTable bool) {
		text := p.Text()
		for _, name := range matcher.ExtractPlaceholders(text) {
			i, ok := index[name]
			if !ok {
				info := PlaceholderInfo{Name: name}
				if tags != nil {
					_, info.Resolvable = tags.Get(name)
				}
				infos = append(infos, info)
				i = len(infos) - 1
				index[name] = i
			}
			count := strings.Count(text, matcher.FormatPlaceholder(name))
			infos[i].Occurrences += count
			if inTable {
				infos[i].InTables += count
			}
		}
	}

	for _, p := range doc.Paragraphs {
		record(p, false)
	}
	for _, t := range doc.Tables {
		for _, p := range t.Paragraphs() {
			record(p, true)
		}
	}

	return infos
}
