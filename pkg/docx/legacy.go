package docx

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/richardlehane/mscfb"
	"github.com/richardlehane/msoleps"
)

// oleSignature OLE 复合文档文件头
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// LegacyInfo 旧版 Word 文档的摘要信息
type LegacyInfo struct {
	Title  string
	Author string
}

func (li *LegacyInfo) String() string {
	switch {
	case li.Title != "" && li.Author != "":
		return fmt.Sprintf("Word 97-2003 文档 %q (作者 %s)，请另存为 .docx", li.Title, li.Author)
	case li.Title != "":
		return fmt.Sprintf("Word 97-2003 文档 %q，请另存为 .docx", li.Title)
	default:
		return "Word 97-2003 文档，请另存为 .docx"
	}
}

// inspectLegacy 判断文件是否为 OLE 复合文档，并尽量读取摘要属性
func inspectLegacy(filePath string) (*LegacyInfo, bool) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, false
	}
	defer file.Close()

	header := make([]byte, len(oleSignature))
	if _, err := io.ReadFull(file, header); err != nil || !bytes.Equal(header, oleSignature) {
		return nil, false
	}

	info := &LegacyInfo{}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return info, true
	}

	doc, err := mscfb.New(file)
	if err != nil {
		return info, true
	}

	props := msoleps.New()
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if !msoleps.IsMSOLEPS(entry.Initial) {
			continue
		}
		if err := props.Reset(doc); err != nil {
			continue
		}
		for _, prop := range props.Property {
			switch prop.Name {
			case "Title":
				info.Title = prop.String()
			case "Author":
				info.Author = prop.String()
			}
		}
	}

	return info, true
}
