package domain

import (
	"context"
	"time"

	"github.com/allanpk716/docx_templater/pkg/docx"
)

// TagSource 只读的标签来源，模板填充期间使用
type TagSource interface {
	Get(key string) (string, bool)
	Keys() []string
	IsEmpty() bool
}

// PlaceholderMatcher 占位符匹配器接口
type PlaceholderMatcher interface {
	FirstMatch(content string, keys []string) (string, bool)
	FindMatches(content string, values map[string]string) []Match
	ReplaceMatches(content string, matches []Match) string
}

// TemplateFiller 模板填充器接口，对段落逐个运行替换占位符
type TemplateFiller interface {
	FillParagraph(paragraph *docx.Paragraph, tags TagSource) FillStats
}

// TableProcessor 表格处理器接口
type TableProcessor interface {
	FillTables(tables []*docx.Table, tags TagSource) FillStats
}

// DocumentProcessor 文档处理器接口
type DocumentProcessor interface {
	ApplyTags(doc *docx.Document, tags TagSource) (*FillResult, error)
	ProcessDocument(ctx context.Context, templatePath, outputPath string, tags TagSource) (*FillResult, error)
	ValidateDocument(templatePath string) error
}

// Recognizer 外部识别引擎接口
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string, session Session) (RecognitionResult, error)
}

// StateStore 会话状态持久化接口
type StateStore interface {
	LoadState(ctx context.Context) (*SessionState, error)
	SaveState(ctx context.Context, state *SessionState) error
	AppendLog(ctx context.Context, entry LogEntry) error
	RecentLog(ctx context.Context, limit int) ([]LogEntry, error)
	Close() error
}

// RecognitionResult 一次识别得到的 属性名 -> 值 映射
type RecognitionResult map[string]string

// Session 采集会话（证件类别），例如 "passport"
type Session struct {
	ID            string
	Text          string
	DocumentsMask string
}

// Match 表示一个匹配项
type Match struct {
	Keyword     string // 占位符原文 (如 ${name})
	Replacement string // 替换值
	StartPos    int    // 开始位置
	EndPos      int    // 结束位置
}

// FillStats 段落级替换统计
type FillStats struct {
	Paragraphs    int
	Substitutions int
	PerKey        map[string]int
}

// Add 合并另一份统计
func (s *FillStats) Add(other FillStats) {
	s.Paragraphs += other.Paragraphs
	s.Substitutions += other.Substitutions
	if len(other.PerKey) == 0 {
		return
	}
	if s.PerKey == nil {
		s.PerKey = make(map[string]int)
	}
	for k, v := range other.PerKey {
		s.PerKey[k] += v
	}
}

// FillResult 文档填充结果
type FillResult struct {
	FillStats
	InParagraphs int
	InTables     int
	Unresolved   []string
	OutputPath   string
}

// SessionState 持久化的会话状态
type SessionState struct {
	TemplatePath string
	Tags         map[string]string
}

// LogEntry 会话日志中的一行
type LogEntry struct {
	ID        string
	Message   string
	CreatedAt time.Time
}
