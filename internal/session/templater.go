// Package session 管理一次填表会话：模板、识别得到的标签和会话日志
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/allanpk716/docx_templater/internal/config"
	"github.com/allanpk716/docx_templater/internal/domain"
	"github.com/allanpk716/docx_templater/internal/matcher"
	"github.com/allanpk716/docx_templater/internal/processor"
	"github.com/allanpk716/docx_templater/internal/tagstore"
	"github.com/allanpk716/docx_templater/internal/textutil"
)

const docxExt = ".docx"

// Templater 串联模板加载、图片识别、标签合并和文档保存。
// 状态和会话日志通过 StateStore 在多次调用之间保留。
type Templater struct {
	cfg          *config.Config
	recognizer   domain.Recognizer
	processor    domain.DocumentProcessor
	store        domain.StateStore
	tags         *tagstore.Store
	templatePath string
	journal      io.Writer
	logger       *slog.Logger
}

// Option Templater 的可选配置
type Option func(*Templater)

// WithProcessor 替换文档处理器
func WithProcessor(p domain.DocumentProcessor) Option {
	return func(t *Templater) { t.processor = p }
}

// WithJournal 会话日志同时写入 w
func WithJournal(w io.Writer) Option {
	return func(t *Templater) { t.journal = w }
}

// New 创建 Templater 并从 store 恢复上一次的状态
func New(ctx context.Context, cfg *config.Config, recognizer domain.Recognizer, store domain.StateStore, logger *slog.Logger, opts ...Option) (*Templater, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	if store == nil {
		return nil, fmt.Errorf("状态存储不能为空")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var storeOpts []tagstore.Option
	if cfg.NormalizeValues {
		storeOpts = append(storeOpts, tagstore.WithNormalizer(textutil.Normalize))
	}

	t := &Templater{
		cfg:        cfg,
		recognizer: recognizer,
		processor:  processor.NewDocumentProcessor(logger),
		store:      store,
		tags:       tagstore.New(storeOpts...),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(t)
	}

	state, err := store.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("恢复会话状态失败: %w", err)
	}
	t.templatePath = state.TemplatePath
	t.tags.Replace(state.Tags)

	return t, nil
}

// TemplatePath 当前模板路径，未加载时为空
func (t *Templater) TemplatePath() string {
	return t.templatePath
}

// Entries 按键排序返回当前标签
func (t *Templater) Entries() []tagstore.Entry {
	return t.tags.Entries()
}

// TagCount 当前标签数量
func (t *Templater) TagCount() int {
	return t.tags.Len()
}

// Tags 当前标签集合
func (t *Templater) Tags() domain.TagSource {
	return t.tags
}

// Log 返回最近 limit 行会话日志
func (t *Templater) Log(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	return t.store.RecentLog(ctx, limit)
}

// LoadTemplate 验证并记录模板路径，失败时保留原状态
func (t *Templater) LoadTemplate(ctx context.Context, path string) error {
	t.logf(ctx, "Loading template...")

	if err := t.processor.ValidateDocument(path); err != nil {
		t.logf(ctx, "Cannot open file %s: %v", path, err)
		return err
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	t.templatePath = path
	t.logf(ctx, "Loaded template from %s", path)

	return t.persist(ctx)
}

// LoadImage 识别一张证件图片，并按配置的标签映射合并结果
func (t *Templater) LoadImage(ctx context.Context, sessionID, imagePath string) ([]tagstore.Entry, error) {
	sess, ok := t.cfg.Session(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSession, sessionID)
	}
	if t.recognizer == nil {
		return nil, fmt.Errorf("未配置识别引擎")
	}

	t.logf(ctx, "Loading image of %s...", sess.Text)
	t.logf(ctx, "Recognizing %s...", imagePath)

	result, err := t.recognizer.Recognize(ctx, imagePath, sess)
	if err != nil {
		if errors.Is(err, domain.ErrRecognitionInvalid) {
			t.logf(ctx, "Failed to retrieve any data.")
		} else {
			t.logf(ctx, "Cannot process file %s: %v", imagePath, err)
		}
		return nil, err
	}

	updated := t.tags.Merge(sessionID, result, t.cfg.Tags)
	for _, entry := range updated {
		t.logf(ctx, "Extracted %s: %s", entry.Key, entry.Value)
	}
	if len(updated) == 0 {
		t.logf(ctx, "No fields extracted.")
	}

	t.logger.Debug("识别结果已合并", "session", sessionID, "properties", len(result), "updated", len(updated))
	return updated, t.persist(ctx)
}

// Put 手动设置一个标签
func (t *Templater) Put(ctx context.Context, key, value string) error {
	if !matcher.ValidatePlaceholderName(key) {
		return fmt.Errorf("标签名无效: %q", key)
	}

	t.tags.Put(key, value)
	t.logf(ctx, "Set %s: %s", key, value)
	return t.persist(ctx)
}

// Clear 清空标签并忘记模板
func (t *Templater) Clear(ctx context.Context) error {
	t.logf(ctx, "Clearing state...")
	t.tags.Clear()
	t.templatePath = ""
	return t.persist(ctx)
}

// Save 将标签应用到模板并保存。标签为空时返回 domain.ErrNothingToApply，不读写任何文档。
func (t *Templater) Save(ctx context.Context, outputPath string) (*domain.FillResult, error) {
	if t.tags.IsEmpty() {
		t.logf(ctx, "Nothing to apply.")
		return nil, domain.ErrNothingToApply
	}
	if t.templatePath == "" {
		t.logf(ctx, "No template loaded.")
		return nil, domain.ErrNoTemplate
	}

	t.logf(ctx, "Applying values to template file %s:", t.templatePath)
	for _, entry := range t.tags.Entries() {
		t.logf(ctx, "  %s: %s", entry.Key, entry.Value)
	}

	target := ResolveOutputPath(outputPath, t.templatePath)
	result, err := t.processor.ProcessDocument(ctx, t.templatePath, target, t.tags)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDocumentLoad):
			t.logf(ctx, "Cannot open file %s: %v", t.templatePath, err)
		case errors.Is(err, domain.ErrDocumentSave):
			t.logf(ctx, "Cannot save to file %s", target)
		default:
			t.logf(ctx, "Cannot apply values: %v", err)
		}
		return nil, err
	}

	t.logf(ctx, "Saved to %s", result.OutputPath)
	return result, nil
}

// ResolveOutputPath 计算实际输出路径。
// 空路径默认为 <模板名>_filled.docx；缺少 .docx 扩展名时补上，
// 并在目标已存在时不断追加 -copy。
func ResolveOutputPath(outputPath, templatePath string) string {
	if outputPath == "" {
		base := strings.TrimSuffix(templatePath, filepath.Ext(templatePath))
		return base + "_filled" + docxExt
	}

	if strings.HasSuffix(strings.ToLower(outputPath), docxExt) {
		return outputPath
	}

	path := outputPath + docxExt
	for fileExists(path) {
		path = strings.TrimSuffix(path, docxExt) + "-copy" + docxExt
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (t *Templater) persist(ctx context.Context) error {
	err := t.store.SaveState(ctx, &domain.SessionState{
		TemplatePath: t.templatePath,
		Tags:         t.tags.Map(),
	})
	if err != nil {
		return fmt.Errorf("保存会话状态失败: %w", err)
	}
	return nil
}

// logf 写入一行会话日志
func (t *Templater) logf(ctx context.Context, format string, args ...any) {
	message := fmt.Sprintf(format, args...)

	if t.journal != nil {
		fmt.Fprintln(t.journal, message)
	}
	if err := t.store.AppendLog(ctx, domain.LogEntry{Message: message}); err != nil {
		t.logger.Warn("写入会话日志失败", "error", err)
	}
}
