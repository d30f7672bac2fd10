package docx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	docxlib "github.com/nguyenthenguyen/docx"
)

// DocxWrapper 包装 nguyenthenguyen/docx 库，负责 DOCX 容器的读写
type DocxWrapper struct {
	reader   *docxlib.ReplaceDocx
	editable *docxlib.Docx
	filePath string
}

// OpenWrapper 打开 DOCX 容器
func OpenWrapper(filePath string) (*DocxWrapper, error) {
	reader, err := docxlib.ReadDocxFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: 打开文档失败: %v", ErrInvalidFormat, err)
	}

	return &DocxWrapper{
		reader:   reader,
		editable: reader.Editable(),
		filePath: filePath,
	}, nil
}

// Content 返回 word/document.xml 的内容
func (dw *DocxWrapper) Content() string {
	if dw.editable == nil {
		return ""
	}
	return dw.editable.GetContent()
}

// SaveDocument 以新的 document.xml 内容保存文档。
// 先写入目标目录下的临时文件再重命名，输出路径可以是源文件本身。
func (dw *DocxWrapper) SaveDocument(content string, modified bool, outputPath string) error {
	if dw.editable == nil {
		return fmt.Errorf("文档未打开")
	}

	// 如果没有修改，直接复制原文件
	if !modified {
		return writeFileAtomic(outputPath, dw.copyOriginalFile)
	}

	dw.editable.SetContent(content)
	return writeFileAtomic(outputPath, func(w io.Writer) error {
		if err := dw.editable.Write(w); err != nil {
			return fmt.Errorf("保存文档失败: %v", err)
		}
		return nil
	})
}

// copyOriginalFile 复制原始文件
func (dw *DocxWrapper) copyOriginalFile(w io.Writer) error {
	sourceFile, err := os.Open(dw.filePath)
	if err != nil {
		return fmt.Errorf("打开源文件失败: %v", err)
	}
	defer sourceFile.Close()

	if _, err := io.Copy(w, sourceFile); err != nil {
		return fmt.Errorf("复制文件失败: %v", err)
	}
	return nil
}

// writeFileAtomic 通过临时文件写入 outputPath，失败时目标文件保持不变
func writeFileAtomic(outputPath string, write func(io.Writer) error) error {
	dir, base := filepath.Split(outputPath)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: 创建目标文件失败: %v", ErrSave, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrSave, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: 设置文件权限失败: %v", ErrSave, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: 写入目标文件失败: %v", ErrSave, err)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		return fmt.Errorf("%w: 替换目标文件失败: %v", ErrSave, err)
	}
	return nil
}

// Close 关闭文档
func (dw *DocxWrapper) Close() error {
	if dw.reader != nil {
		err := dw.reader.Close()
		dw.reader = nil
		dw.editable = nil
		return err
	}
	return nil
}
