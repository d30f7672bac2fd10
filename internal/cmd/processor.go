package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/allanpk716/docx_templater/internal/domain"
)

// BatchSummary 批量填充的结果统计
type BatchSummary struct {
	Processed     int
	Failed        int
	Substitutions int
}

// ProcessBatchFiles 用同一组标签填充目录下的所有模板，保持相对路径。
// 单个文件失败时记录并继续。
func ProcessBatchFiles(ctx context.Context, docProcessor domain.DocumentProcessor, inputDir, outputDir string, tags domain.TagSource, logger *slog.Logger) (*BatchSummary, error) {
	if tags == nil || tags.IsEmpty() {
		return nil, domain.ErrNothingToApply
	}

	// 查找所有 DOCX 文件
	docxFiles, err := FindDocxFiles(inputDir)
	if err != nil {
		return nil, fmt.Errorf("查找 DOCX 文件失败: %w", err)
	}

	if len(docxFiles) == 0 {
		return nil, fmt.Errorf("在目录 %s 中没有找到 DOCX 文件", inputDir)
	}

	// 创建输出目录
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	logger.Info("找到 DOCX 文件", "count", len(docxFiles))

	summary := &BatchSummary{}
	for i, inputFile := range docxFiles {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		relPath, err := filepath.Rel(inputDir, inputFile)
		if err != nil {
			return summary, fmt.Errorf("计算相对路径失败: %w", err)
		}
		outputFile := filepath.Join(outputDir, relPath)

		// 确保输出文件的目录存在
		if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
			return summary, fmt.Errorf("创建输出文件目录失败: %w", err)
		}

		logger.Info("处理文件", "index", i+1, "total", len(docxFiles), "file", inputFile)

		result, err := docProcessor.ProcessDocument(ctx, inputFile, outputFile, tags)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			logger.Warn("处理文件失败", "file", inputFile, "error", err)
			summary.Failed++
			continue
		}

		summary.Processed++
		summary.Substitutions += result.Substitutions
	}

	logger.Info("批量处理完成", "processed", summary.Processed, "failed", summary.Failed)
	return summary, nil
}

// FindDocxFiles 查找路径下的所有 DOCX 文件，path 为文件时直接返回
func FindDocxFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var docxFiles []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.ToLower(filepath.Ext(p)) == ".docx" {
			// 排除 Word 的临时锁文件
			if !strings.HasPrefix(filepath.Base(p), "~$") {
				docxFiles = append(docxFiles, p)
			}
		}

		return nil
	})

	return docxFiles, err
}
