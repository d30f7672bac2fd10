// Package sqlite 基于 SQLite 的会话状态存储，保存模板路径、标签和会话日志
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite 驱动

	"github.com/allanpk716/docx_templater/internal/domain"
	"github.com/allanpk716/docx_templater/internal/storage/sqlite/migrations"
)

const dbFileName = "state.db"

// Store 实现 domain.StateStore
type Store struct {
	db   *sql.DB
	path string
}

var _ domain.StateStore = (*Store)(nil)

// NewStore 在指定目录创建或打开状态库，目录为空时使用 ~/.docx-templater
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("获取用户目录失败: %w", err)
		}
		dataDir = filepath.Join(home, ".docx-templater")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("创建状态目录失败: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("打开状态库失败: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("执行迁移失败: %w", err)
	}

	return s, nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	return s.db.Close()
}

// Path 返回数据库文件路径
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("创建 schema_migrations 表失败: %w", err)
	}

	var currentVersion int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("读取迁移版本失败: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("读取迁移目录失败: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("读取迁移 %s 失败: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("执行迁移 %s 失败: %w", name, err)
		}
	}

	return nil
}

// LoadState 读取持久化的模板路径和标签，尚无记录时返回空状态
func (s *Store) LoadState(ctx context.Context) (*domain.SessionState, error) {
	state := &domain.SessionState{Tags: make(map[string]string)}

	err := s.db.QueryRowContext(ctx, "SELECT template_path FROM state WHERE id = 1").Scan(&state.TemplatePath)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("读取状态失败: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM tags")
	if err != nil {
		return nil, fmt.Errorf("读取标签失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("读取标签失败: %w", err)
		}
		state.Tags[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("读取标签失败: %w", err)
	}

	return state, nil
}

// SaveState 在一个事务中整体替换模板路径和标签
func (s *Store) SaveState(ctx context.Context, state *domain.SessionState) error {
	if state == nil {
		return fmt.Errorf("状态不能为空")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO state (id, template_path, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET template_path = excluded.template_path, updated_at = excluded.updated_at
	`, state.TemplatePath, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("保存模板路径失败: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM tags"); err != nil {
		return fmt.Errorf("清空标签失败: %w", err)
	}

	for key, value := range state.Tags {
		if _, err := tx.ExecContext(ctx, "INSERT INTO tags (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("保存标签 %s 失败: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// AppendLog 追加一行会话日志，缺省的 ID 和时间会自动填充
func (s *Store) AppendLog(ctx context.Context, entry domain.LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO session_log (id, message, created_at) VALUES (?, ?, ?)",
		entry.ID, entry.Message, formatTime(entry.CreatedAt))
	if err != nil {
		return fmt.Errorf("写入会话日志失败: %w", err)
	}
	return nil
}

// RecentLog 按时间顺序返回最近 limit 行日志，limit <= 0 时返回全部
func (s *Store) RecentLog(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	query := "SELECT id, message, created_at FROM session_log ORDER BY seq DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("读取会话日志失败: %w", err)
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var entry domain.LogEntry
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("读取会话日志失败: %w", err)
		}
		entry.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("解析日志时间失败: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("读取会话日志失败: %w", err)
	}

	// 倒序查询后翻转为时间顺序
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
