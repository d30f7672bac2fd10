package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allanpk716/docx_templater/internal/domain"
	"github.com/allanpk716/docx_templater/pkg/docx"
)

// documentProcessor 文档处理器实现
type documentProcessor struct {
	filler         domain.TemplateFiller
	tableProcessor domain.TableProcessor
	logger         *slog.Logger
}

// NewDocumentProcessor 创建新的文档处理器
func NewDocumentProcessor(logger *slog.Logger) domain.DocumentProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	filler := NewTemplateFiller(logger)
	return &documentProcessor{
		filler:         filler,
		tableProcessor: NewTableProcessor(filler),
		logger:         logger,
	}
}

// ApplyTags 将标签应用到文档的所有顶层段落和表格段落。
// 标签为空时返回 domain.ErrNothingToApply，文档不做任何修改。
func (dp *documentProcessor) ApplyTags(doc *docx.Document, tags domain.TagSource) (*domain.FillResult, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档不能为空")
	}
	if tags == nil || tags.IsEmpty() {
		return nil, domain.ErrNothingToApply
	}

	result := &domain.FillResult{}

	for _, paragraph := range doc.Paragraphs {
		stats := dp.filler.FillParagraph(paragraph, tags)
		result.Add(stats)
		result.InParagraphs += stats.Substitutions
	}

	tableStats := dp.tableProcessor.FillTables(doc.Tables, tags)
	result.Add(tableStats)
	result.InTables = tableStats.Substitutions

	for _, info := range ScanDocument(doc, nil) {
		result.Unresolved = append(result.Unresolved, info.Name)
	}

	dp.logger.Info("标签应用完成",
		"paragraphs", result.Paragraphs,
		"substitutions", result.Substitutions,
		"in_paragraphs", result.InParagraphs,
		"in_tables", result.InTables,
		"unresolved", len(result.Unresolved))

	return result, nil
}

// ProcessDocument 加载模板、应用标签并保存到 outputPath
func (dp *documentProcessor) ProcessDocument(ctx context.Context, templatePath, outputPath string, tags domain.TagSource) (*domain.FillResult, error) {
	if tags == nil || tags.IsEmpty() {
		return nil, domain.ErrNothingToApply
	}

	if outputPath == "" {
		return nil, fmt.Errorf("输出路径不能为空")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dp.logger.Info("开始处理文档", "template", templatePath)

	doc, err := docx.Open(templatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDocumentLoad, err)
	}
	defer doc.Close()

	result, err := dp.ApplyTags(doc, tags)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := doc.SaveAs(outputPath); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDocumentSave, err)
	}
	result.OutputPath = outputPath

	dp.logger.Info("文档处理完成", "output", outputPath)
	return result, nil
}

// ValidateDocument 验证模板是否可以加载
func (dp *documentProcessor) ValidateDocument(templatePath string) error {
	if templatePath == "" {
		return fmt.Errorf("%w: 模板路径不能为空", domain.ErrDocumentLoad)
	}

	doc, err := docx.Open(templatePath)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDocumentLoad, err)
	}
	return doc.Close()
}
