package recognizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/allanpk716/docx_templater/internal/domain"
)

// Docengine 调用外部 docengine 命令行程序识别证件
type Docengine struct {
	executable string
	bundle     string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewDocengine 创建 docengine 识别器
func NewDocengine(executable, bundle string, timeout time.Duration, logger *slog.Logger) *Docengine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Docengine{
		executable: executable,
		bundle:     bundle,
		timeout:    timeout,
		logger:     logger,
	}
}

// Recognize 执行 <executable> <image> <bundle> <documents_mask> 并解析标准输出
func (d *Docengine) Recognize(ctx context.Context, imagePath string, session domain.Session) (domain.RecognitionResult, error) {
	if err := ValidateImagePath(imagePath); err != nil {
		return nil, err
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	mask := session.DocumentsMask
	if mask == "" {
		mask = "*"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.executable, imagePath, d.bundle, mask)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	d.logger.Debug("执行识别程序", "executable", d.executable, "image", imagePath, "mask", mask)

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("识别超时或被取消: %w", ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("启动识别程序失败: %w", err)
		}
		// 非零退出码时仍尝试解析输出
		d.logger.Warn("识别程序非正常退出", "code", exitErr.ExitCode(), "stderr", stderr.String())
	}

	result, err := ParseOutput(stdout.Bytes())
	if err != nil {
		d.logger.Debug("识别输出无法解析", "stdout", stdout.String())
		return nil, err
	}

	d.logger.Debug("识别完成", "properties", len(result))
	return result, nil
}
