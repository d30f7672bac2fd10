// Package docx 提供保留运行格式的 DOCX 文档模型。
//
// 文档通过 nguyenthenguyen/docx 读写容器，word/document.xml 按字节偏移解析为
// 段落、表格和运行；保存时只改写被修改的运行的 <w:t>、<w:tab>、<w:br> 元素，其余 XML 原样保留。
package docx

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrInvalidFormat 文件不是有效的 DOCX 容器
	ErrInvalidFormat = errors.New("invalid docx format")
	// ErrLegacyFormat 文件是旧版 Word 97-2003 (.doc) 复合文档
	ErrLegacyFormat = errors.New("legacy word document")
	// ErrSave 保存失败
	ErrSave = errors.New("cannot save document")
)

// requiredParts DOCX 容器中必须存在的部件
var requiredParts = []string{
	"[Content_Types].xml",
	"word/document.xml",
}

// Document 已加载的文档：顶层段落与表格
type Document struct {
	Paragraphs []*Paragraph
	Tables     []*Table

	content string
	runs    []*Run
	wrapper *DocxWrapper
}

// NewDocument 在内存中构建文档（不关联任何文件）
func NewDocument(paragraphs []*Paragraph, tables []*Table) *Document {
	return &Document{Paragraphs: paragraphs, Tables: tables}
}

// Open 打开 DOCX 文件并解析正文
func Open(filePath string) (*Document, error) {
	if filePath == "" {
		return nil, fmt.Errorf("文档路径不能为空")
	}

	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("无法访问文档: %w", err)
	}

	if err := validateContainer(filePath); err != nil {
		return nil, err
	}

	wrapper, err := OpenWrapper(filePath)
	if err != nil {
		return nil, err
	}

	doc, err := ParseXML(wrapper.Content())
	if err != nil {
		wrapper.Close()
		return nil, err
	}
	doc.wrapper = wrapper

	return doc, nil
}

// validateContainer 检查 ZIP 结构与必需部件
func validateContainer(filePath string) error {
	reader, err := zip.OpenReader(filePath)
	if err != nil {
		if info, ok := inspectLegacy(filePath); ok {
			return fmt.Errorf("%w: %s", ErrLegacyFormat, info)
		}
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer reader.Close()

	parts := make(map[string]bool, len(reader.File))
	for _, f := range reader.File {
		parts[f.Name] = true
	}

	for _, name := range requiredParts {
		if !parts[name] {
			return fmt.Errorf("%w: 缺少必需部件 %s", ErrInvalidFormat, name)
		}
	}

	return nil
}

// Modified 是否有运行被改写
func (d *Document) Modified() bool {
	for _, run := range d.runs {
		if run.modified {
			return true
		}
	}
	return false
}

// XML 返回当前（含改写）的 document.xml 内容
func (d *Document) XML() string {
	return d.render()
}

// Text 返回文档纯文本，顶层段落在前，表格段落在后
func (d *Document) Text() string {
	return d.extractText()
}

// SaveAs 保存文档到指定路径
func (d *Document) SaveAs(outputPath string) error {
	if d.wrapper == nil {
		return fmt.Errorf("%w: 文档未关联 DOCX 文件", ErrSave)
	}
	return d.wrapper.SaveDocument(d.render(), d.Modified(), outputPath)
}

// Close 释放底层文件
func (d *Document) Close() error {
	if d.wrapper != nil {
		err := d.wrapper.Close()
		d.wrapper = nil
		return err
	}
	return nil
}
