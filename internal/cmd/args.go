package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BatchArgs 批量填充的参数
type BatchArgs struct {
	InputDir  string
	OutputDir string
}

// ParseBatchArgs 解析 batch 命令的位置参数，缺省输出目录为 <输入目录>_filled
func ParseBatchArgs(args []string) (*BatchArgs, error) {
	if len(args) == 0 || args[0] == "" {
		return nil, fmt.Errorf("必须指定输入目录")
	}

	batch := &BatchArgs{InputDir: filepath.Clean(args[0])}
	if len(args) > 1 && args[1] != "" {
		batch.OutputDir = filepath.Clean(args[1])
	} else {
		batch.OutputDir = batch.InputDir + "_filled"
	}

	if err := ValidateBatchArgs(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// ValidateBatchArgs 验证批量参数
func ValidateBatchArgs(args *BatchArgs) error {
	info, err := os.Stat(args.InputDir)
	if err != nil {
		return fmt.Errorf("输入目录不存在: %s", args.InputDir)
	}
	if !info.IsDir() {
		return fmt.Errorf("输入路径不是目录: %s", args.InputDir)
	}

	in, err := filepath.Abs(args.InputDir)
	if err != nil {
		return fmt.Errorf("解析输入目录失败: %w", err)
	}
	out, err := filepath.Abs(args.OutputDir)
	if err != nil {
		return fmt.Errorf("解析输出目录失败: %w", err)
	}
	if in == out {
		return fmt.Errorf("输出目录不能与输入目录相同")
	}
	if strings.HasPrefix(out, in+string(filepath.Separator)) {
		return fmt.Errorf("输出目录不能位于输入目录内")
	}

	return nil
}
