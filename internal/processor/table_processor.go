package processor

import (
	"github.com/allanpk716/docx_templater/internal/domain"
	"github.com/allanpk716/docx_templater/pkg/docx"
)

// tableProcessor 表格处理器实现
type tableProcessor struct {
	filler domain.TemplateFiller
}

// NewTableProcessor 创建新的表格处理器
func NewTableProcessor(filler domain.TemplateFiller) domain.TableProcessor {
	return &tableProcessor{filler: filler}
}

// FillTables 按 表格 -> 行 -> 单元格 -> 段落 的顺序逐段填充，单元格之间互不影响
func (tp *tableProcessor) FillTables(tables []*docx.Table, tags domain.TagSource) domain.FillStats {
	var stats domain.FillStats
	for _, table := range tables {
		for _, row := range table.Rows {
			for _, cell := range row.Cells {
				for _, paragraph := range cell.Paragraphs {
					stats.Add(tp.filler.FillParagraph(paragraph, tags))
				}
			}
		}
	}
	return stats
}
