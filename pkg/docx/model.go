package docx

import "strings"

// Run 段落中一段格式一致的连续文本 (<w:r>)。
// 文本中 <w:tab/> 记为 '\t'，<w:br/> 与 <w:cr/> 记为 '\n'。
type Run struct {
	// Properties 原始 <w:rPr> XML，对填充逻辑不透明
	Properties string

	text     string
	modified bool

	qname    string        // 运行元素的限定名，如 "w:r"
	contents []contentSpan // 源 XML 中的文本类子元素，按出现顺序
	insertAt int           // 没有文本类子元素时新内容的插入位置 (</w:r> 之前)
}

type contentKind int

const (
	contentText contentKind = iota
	contentTab
	contentBreak
)

// contentSpan 记录一个完整的 <w:t>、<w:tab>、<w:br> 或 <w:cr> 元素在源 XML 中的位置
type contentSpan struct {
	kind  contentKind
	start int
	end   int
	qname string
	text  string
}

// value 返回该元素在运行文本中对应的字符串
func (c contentSpan) value() string {
	switch c.kind {
	case contentTab:
		return "\t"
	case contentBreak:
		return "\n"
	}
	return c.text
}

// NewRun 创建一个独立的运行（用于测试或程序化构建文档）
func NewRun(text, properties string) *Run {
	return &Run{Properties: properties, text: text, insertAt: -1}
}

// Text 返回运行的当前文本
func (r *Run) Text() string {
	return r.text
}

// SetText 改写运行文本，格式保持不变
func (r *Run) SetText(text string) {
	if r.text == text && !r.modified {
		return
	}
	r.text = text
	r.modified = true
}

// Clear 清空运行文本，制表符与换行一并移除
func (r *Run) Clear() {
	r.SetText("")
}

// Modified 运行文本是否被改写过
func (r *Run) Modified() bool {
	return r.modified
}

// Paragraph 段落，由有序的运行组成
type Paragraph struct {
	Runs []*Run
}

// NewParagraph 由运行构建段落
func NewParagraph(runs ...*Run) *Paragraph {
	return &Paragraph{Runs: runs}
}

// Text 返回段落的完整文本
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.text)
	}
	return sb.String()
}

// Cell 表格单元格
type Cell struct {
	Paragraphs []*Paragraph
}

// Row 表格行
type Row struct {
	Cells []*Cell
}

// Table 表格
type Table struct {
	Rows []*Row
}

// Paragraphs 返回表格中所有单元格的段落，按行、列顺序
func (t *Table) Paragraphs() []*Paragraph {
	var paragraphs []*Paragraph
	for _, row := range t.Rows {
		for _, cell := range row.Cells {
			paragraphs = append(paragraphs, cell.Paragraphs...)
		}
	}
	return paragraphs
}
