// Package memory 进程内的会话状态存储，用于测试和一次性运行
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allanpk716/docx_templater/internal/domain"
)

// Store 实现 domain.StateStore
type Store struct {
	mu    sync.RWMutex
	state domain.SessionState
	log   []domain.LogEntry
}

var _ domain.StateStore = (*Store)(nil)

// NewStore 创建空的内存存储
func NewStore() *Store {
	return &Store{state: domain.SessionState{Tags: make(map[string]string)}}
}

// LoadState 返回状态副本
func (s *Store) LoadState(ctx context.Context) (*domain.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &domain.SessionState{
		TemplatePath: s.state.TemplatePath,
		Tags:         maps.Clone(s.state.Tags),
	}, nil
}

// SaveState 整体替换状态
func (s *Store) SaveState(ctx context.Context, state *domain.SessionState) error {
	if state == nil {
		return fmt.Errorf("状态不能为空")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tags := maps.Clone(state.Tags)
	if tags == nil {
		tags = make(map[string]string)
	}
	s.state = domain.SessionState{TemplatePath: state.TemplatePath, Tags: tags}
	return nil
}

// AppendLog 追加一行日志
func (s *Store) AppendLog(ctx context.Context, entry domain.LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.log = append(s.log, entry)
	s.mu.Unlock()
	return nil
}

// RecentLog 按时间顺序返回最近 limit 行日志，limit <= 0 时返回全部
func (s *Store) RecentLog(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if limit > 0 && len(s.log) > limit {
		start = len(s.log) - limit
	}
	out := make([]domain.LogEntry, len(s.log)-start)
	copy(out, s.log[start:])
	return out, nil
}

// Close 无操作
func (s *Store) Close() error {
	return nil
}
