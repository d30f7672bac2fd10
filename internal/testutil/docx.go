// Package testutil 提供测试用的 DOCX 构建工具
package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
</Relationships>`

// DocumentXML 用给定正文构造 word/document.xml
func DocumentXML(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
}

// WriteDocx 在 dir 下创建一个最小的 DOCX 文件，正文为 body
func WriteDocx(t testing.TB, dir, name, body string) string {
	t.Helper()
	return WriteDocxParts(t, dir, name, map[string]string{
		"word/document.xml": DocumentXML(body),
	})
}

// WriteDocxParts 创建 DOCX 文件，parts 覆盖或补充默认部件
func WriteDocxParts(t testing.TB, dir, name string, parts map[string]string) string {
	t.Helper()

	files := map[string]string{
		"[Content_Types].xml":          contentTypesXML,
		"_rels/.rels":                  rootRelsXML,
		"word/_rels/document.xml.rels": documentRelsXML,
	}
	for k, v := range parts {
		files[k] = v
	}

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("创建测试文档失败: %v", err)
	}
	defer file.Close()

	zipWriter := zip.NewWriter(file)
	for filename, content := range files {
		writer, err := zipWriter.Create(filename)
		if err != nil {
			t.Fatalf("创建文件 %s 失败: %v", filename, err)
		}
		if _, err := writer.Write([]byte(content)); err != nil {
			t.Fatalf("写入文件 %s 失败: %v", filename, err)
		}
	}
	if err := zipWriter.Close(); err != nil {
		t.Fatalf("关闭 ZIP 失败: %v", err)
	}

	return path
}

// Run 构造带可选格式的 <w:r>
func Run(text, rPr string) string {
	return `<w:r>` + rPr + `<w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

// Paragraph 构造 <w:p>
func Paragraph(runs ...string) string {
	p := `<w:p>`
	for _, r := range runs {
		p += r
	}
	return p + `</w:p>`
}

// Table 构造只有一行的表格，每个单元格一个段落
func Table(cells ...string) string {
	tbl := `<w:tbl><w:tr>`
	for _, c := range cells {
		tbl += `<w:tc>` + c + `</w:tc>`
	}
	return tbl + `</w:tr></w:tbl>`
}
