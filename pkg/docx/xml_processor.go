package docx

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// WordprocessingML 主命名空间
const nsW = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

type frameKind int

const (
	frameOther frameKind = iota
	frameTable
	frameRow
	frameCell
	frameParagraph
	frameRun
	frameRunProps
	frameText
	frameTab
	frameBreak
)

// frame 解析过程中一个已打开的元素
type frame struct {
	kind        frameKind
	start       int
	qname       string
	selfClosing bool
}

// xmlProcessor 基于字节偏移解析 document.xml，保留原始 XML 以便局部改写
type xmlProcessor struct {
	content    string
	doc        *Document
	frames     []frame
	tables     []*Table
	rows       []*Row
	cells      []*Cell
	paragraphs []*Paragraph
	runs       []*Run
	text       strings.Builder
}

// ParseXML 解析 word/document.xml 内容，构建段落/表格/运行模型
func ParseXML(content string) (*Document, error) {
	xp := &xmlProcessor{
		content: content,
		doc:     &Document{content: content},
	}

	decoder := xml.NewDecoder(strings.NewReader(content))
	for {
		start := int(decoder.InputOffset())
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: 解析 document.xml 失败: %v", ErrInvalidFormat, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			xp.startElement(t, start, int(decoder.InputOffset()))
		case xml.EndElement:
			xp.endElement(start, int(decoder.InputOffset()))
		case xml.CharData:
			if xp.parentKind() == frameText {
				xp.text.Write(t)
			}
		}
	}

	if len(xp.frames) != 0 {
		return nil, fmt.Errorf("%w: document.xml 元素未闭合", ErrInvalidFormat)
	}

	return xp.doc, nil
}

// parentKind 返回当前最内层元素的类型
func (xp *xmlProcessor) parentKind() frameKind {
	if len(xp.frames) == 0 {
		return frameOther
	}
	return xp.frames[len(xp.frames)-1].kind
}

func (xp *xmlProcessor) startElement(t xml.StartElement, start, after int) {
	f := frame{
		start:       start,
		qname:       rawElementName(xp.content, start),
		selfClosing: strings.HasSuffix(xp.content[start:after], "/>"),
	}

	if t.Name.Space == nsW {
		switch t.Name.Local {
		case "tbl":
			f.kind = frameTable
			table := &Table{}
			xp.doc.Tables = append(xp.doc.Tables, table)
			xp.tables = append(xp.tables, table)
		case "tr":
			if len(xp.tables) > 0 {
				f.kind = frameRow
				row := &Row{}
				table := xp.tables[len(xp.tables)-1]
				table.Rows = append(table.Rows, row)
				xp.rows = append(xp.rows, row)
			}
		case "tc":
			if len(xp.rows) > 0 {
				f.kind = frameCell
				cell := &Cell{}
				row := xp.rows[len(xp.rows)-1]
				row.Cells = append(row.Cells, cell)
				xp.cells = append(xp.cells, cell)
			}
		case "p":
			f.kind = frameParagraph
			paragraph := &Paragraph{}
			if len(xp.cells) > 0 {
				cell := xp.cells[len(xp.cells)-1]
				cell.Paragraphs = append(cell.Paragraphs, paragraph)
			} else {
				xp.doc.Paragraphs = append(xp.doc.Paragraphs, paragraph)
			}
			xp.paragraphs = append(xp.paragraphs, paragraph)
		case "r":
			if len(xp.paragraphs) > 0 {
				f.kind = frameRun
				run := &Run{qname: f.qname, insertAt: -1}
				paragraph := xp.paragraphs[len(xp.paragraphs)-1]
				paragraph.Runs = append(paragraph.Runs, run)
				xp.runs = append(xp.runs, run)
				xp.doc.runs = append(xp.doc.runs, run)
			}
		case "rPr":
			if xp.parentKind() == frameRun {
				f.kind = frameRunProps
			}
		case "t":
			if xp.parentKind() == frameRun {
				f.kind = frameText
				xp.text.Reset()
			}
		case "tab":
			if xp.parentKind() == frameRun {
				f.kind = frameTab
			}
		case "br":
			if xp.parentKind() == frameRun && isLineBreak(t) {
				f.kind = frameBreak
			}
		case "cr":
			if xp.parentKind() == frameRun {
				f.kind = frameBreak
			}
		}
	}

	xp.frames = append(xp.frames, f)
}

func (xp *xmlProcessor) endElement(start, end int) {
	if len(xp.frames) == 0 {
		return
	}
	f := xp.frames[len(xp.frames)-1]
	xp.frames = xp.frames[:len(xp.frames)-1]

	switch f.kind {
	case frameTable:
		xp.tables = xp.tables[:len(xp.tables)-1]
	case frameRow:
		xp.rows = xp.rows[:len(xp.rows)-1]
	case frameCell:
		xp.cells = xp.cells[:len(xp.cells)-1]
	case frameParagraph:
		xp.paragraphs = xp.paragraphs[:len(xp.paragraphs)-1]
	case frameRun:
		run := xp.runs[len(xp.runs)-1]
		if !f.selfClosing {
			run.insertAt = start
		}
		xp.runs = xp.runs[:len(xp.runs)-1]
	case frameRunProps:
		run := xp.runs[len(xp.runs)-1]
		run.Properties = xp.content[f.start:end]
	case frameText:
		xp.addContent(contentSpan{kind: contentText, start: f.start, end: end, qname: f.qname, text: xp.text.String()})
	case frameTab:
		xp.addContent(contentSpan{kind: contentTab, start: f.start, end: end, qname: f.qname})
	case frameBreak:
		xp.addContent(contentSpan{kind: contentBreak, start: f.start, end: end, qname: f.qname})
	}
}

func (xp *xmlProcessor) addContent(c contentSpan) {
	run := xp.runs[len(xp.runs)-1]
	run.text += c.value()
	run.contents = append(run.contents, c)
}

// isLineBreak 判断 <w:br> 是否为普通换行；分页符、分栏符不计入运行文本
func isLineBreak(t xml.StartElement) bool {
	for _, attr := range t.Attr {
		if attr.Name.Local == "type" {
			return attr.Value == "" || attr.Value == "textWrapping"
		}
	}
	return true
}

// rawElementName 从源 XML 中取出元素的限定名（保留原始前缀）
func rawElementName(content string, start int) string {
	if start >= len(content) || content[start] != '<' {
		return ""
	}
	rest := content[start+1:]
	end := strings.IndexAny(rest, " \t\r\n/>")
	if end < 0 {
		return rest
	}
	return rest[:end]
}

// namePrefix 返回限定名的前缀部分（含冒号）
func namePrefix(qname string) string {
	if i := strings.IndexByte(qname, ':'); i >= 0 {
		return qname[:i+1]
	}
	return ""
}

// textElement 生成保留空白的 <w:t> 元素
func textElement(qname, text string) string {
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(qname)
	sb.WriteString(` xml:space="preserve">`)
	_ = xml.EscapeText(&sb, []byte(text))
	sb.WriteString("</")
	sb.WriteString(qname)
	sb.WriteString(">")
	return sb.String()
}

// splitRunText 按制表符和换行切分运行文本。
// 返回 len(seps)+1 个文本段，seps 中为 '\t' 或 '\n'；"\r\n" 与 '\r' 视为换行。
func splitRunText(text string) ([]string, []byte) {
	segments := []string{""}
	var seps []byte
	var cur strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '\t', '\n', '\r':
			if c == '\r' {
				if i+1 < len(text) && text[i+1] == '\n' {
					i++
				}
				c = '\n'
			}
			segments[len(segments)-1] = cur.String()
			cur.Reset()
			seps = append(seps, c)
			segments = append(segments, "")
		default:
			cur.WriteByte(c)
		}
	}
	segments[len(segments)-1] = cur.String()
	return segments, seps
}

// contentElements 把运行文本还原为有序的 <w:t>/<w:tab/>/<w:br/> 元素序列
func contentElements(prefix, text string) string {
	segments, seps := splitRunText(text)
	var sb strings.Builder
	for i, segment := range segments {
		if segment != "" {
			sb.WriteString(textElement(prefix+"t", segment))
		}
		if i < len(seps) {
			if seps[i] == '\t' {
				sb.WriteString("<" + prefix + "tab/>")
			} else {
				sb.WriteString("<" + prefix + "br/>")
			}
		}
	}
	return sb.String()
}

type xmlEdit struct {
	start int
	end   int
	repl  string
}

// runEdits 计算一个被改写运行的 XML 改动
func runEdits(run *Run) []xmlEdit {
	prefix := namePrefix(run.qname)

	if len(run.contents) == 0 {
		if run.text == "" || run.insertAt < 0 {
			return nil
		}
		return []xmlEdit{{start: run.insertAt, end: run.insertAt, repl: contentElements(prefix, run.text)}}
	}

	if edits, ok := segmentEdits(run, prefix); ok {
		return edits
	}

	// 制表符或换行的结构发生变化：在首个元素处整体重写，其余文本类元素删除
	edits := make([]xmlEdit, 0, len(run.contents))
	for i, c := range run.contents {
		repl := ""
		if i == 0 {
			repl = contentElements(prefix, run.text)
		}
		edits = append(edits, xmlEdit{start: c.start, end: c.end, repl: repl})
	}
	return edits
}

// segmentEdits 在制表符与换行的顺序不变时只改写各段的 <w:t>，
// 原有的 <w:tab>、<w:br> 及其属性保持不动。
func segmentEdits(run *Run, prefix string) ([]xmlEdit, bool) {
	segments, seps := splitRunText(run.text)

	groups := [][]contentSpan{nil}
	var oldSeps []contentSpan
	for _, c := range run.contents {
		if c.kind == contentText {
			groups[len(groups)-1] = append(groups[len(groups)-1], c)
			continue
		}
		oldSeps = append(oldSeps, c)
		groups = append(groups, nil)
	}

	if len(oldSeps) != len(seps) {
		return nil, false
	}
	for i, c := range oldSeps {
		if c.value()[0] != seps[i] {
			return nil, false
		}
	}

	var edits []xmlEdit
	for i, group := range groups {
		segment := segments[i]

		if len(group) == 0 {
			if segment == "" {
				continue
			}
			var pos int
			if i < len(oldSeps) {
				pos = oldSeps[i].start
			} else {
				pos = oldSeps[i-1].end
			}
			edits = append(edits, xmlEdit{start: pos, end: pos, repl: textElement(prefix+"t", segment)})
			continue
		}

		var current strings.Builder
		for _, c := range group {
			current.WriteString(c.text)
		}
		if current.String() == segment {
			continue
		}

		for j, c := range group {
			repl := ""
			if j == 0 && segment != "" {
				repl = textElement(c.qname, segment)
			}
			edits = append(edits, xmlEdit{start: c.start, end: c.end, repl: repl})
		}
	}
	return edits, true
}

// render 将被改写的运行拼接回原始 XML，未改动的字节保持原样
func (d *Document) render() string {
	var edits []xmlEdit
	for _, run := range d.runs {
		if run.modified {
			edits = append(edits, runEdits(run)...)
		}
	}

	if len(edits) == 0 {
		return d.content
	}

	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].start < edits[j].start
	})

	var sb strings.Builder
	sb.Grow(len(d.content))
	last := 0
	for _, e := range edits {
		// 被外层改动覆盖的区间（如文本框内的运行）跳过
		if e.start < last {
			continue
		}
		sb.WriteString(d.content[last:e.start])
		sb.WriteString(e.repl)
		last = e.end
	}
	sb.WriteString(d.content[last:])
	return sb.String()
}

// extractText 提取文档纯文本，段落以换行分隔（用于预览和调试）
func (d *Document) extractText() string {
	var lines []string
	for _, p := range d.Paragraphs {
		lines = append(lines, p.Text())
	}
	for _, t := range d.Tables {
		for _, p := range t.Paragraphs() {
			lines = append(lines, p.Text())
		}
	}
	return strings.Join(lines, "\n")
}
