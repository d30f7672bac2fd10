// Package tagstore 保存从识别结果中累积的 标签名 -> 值 映射。
package tagstore

import (
	"sort"
	"strings"

	"github.com/allanpk716/docx_templater/internal/domain"
)

// Entry 一个标签及其值
type Entry struct {
	Key   string
	Value string
}

// Normalizer 值在写入前的规范化函数
type Normalizer func(string) string

// Store 标签存储，单线程使用
type Store struct {
	values    map[string]string
	normalize Normalizer
}

var _ domain.TagSource = (*Store)(nil)

// Option 存储选项
type Option func(*Store)

// WithNormalizer 合并识别结果时对值做规范化
func WithNormalizer(fn Normalizer) Option {
	return func(s *Store) {
		s.normalize = fn
	}
}

// New 创建空的标签存储
func New(opts ...Option) *Store {
	s := &Store{values: make(map[string]string)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put 插入或覆盖一个标签
func (s *Store) Put(key, value string) {
	s.values[key] = value
}

// Get 获取标签值
func (s *Store) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Clear 清空所有标签，可重复调用
func (s *Store) Clear() {
	s.values = make(map[string]string)
}

// IsEmpty 是否没有任何标签
func (s *Store) IsEmpty() bool {
	return len(s.values) == 0
}

// Len 标签数量
func (s *Store) Len() int {
	return len(s.values)
}

// Keys 返回按字典序排列的标签名，模板填充以此顺序决定同时命中时的优先级
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries 返回当前标签的快照（按标签名排序）
func (s *Store) Entries() []Entry {
	entries := make([]Entry, 0, len(s.values))
	for _, k := range s.Keys() {
		entries = append(entries, Entry{Key: k, Value: s.values[k]})
	}
	return entries
}

// Map 返回标签映射的副本
func (s *Store) Map() map[string]string {
	m := make(map[string]string, len(s.values))
	for k, v := range s.values {
		m[k] = v
	}
	return m
}

// Replace 用给定映射替换全部内容（从持久化状态恢复时使用）
func (s *Store) Replace(values map[string]string) {
	s.Clear()
	for k, v := range values {
		s.values[k] = v
	}
}

// Merge 将一次识别结果按 "会话:属性" -> 标签名 的映射写入存储。
// 映射或结果中缺失的属性会被跳过，返回实际写入的标签（按映射键排序）。
func (s *Store) Merge(sessionID string, result domain.RecognitionResult, tags map[string]string) []Entry {
	if len(result) == 0 || len(tags) == 0 {
		return nil
	}

	mappingKeys := make([]string, 0, len(tags))
	for k := range tags {
		mappingKeys = append(mappingKeys, k)
	}
	sort.Strings(mappingKeys)

	var updated []Entry
	for _, mappingKey := range mappingKeys {
		session, property, ok := SplitTagKey(mappingKey)
		if !ok || session != sessionID {
			continue
		}

		value, ok := result[property]
		if !ok {
			continue
		}
		if s.normalize != nil {
			value = s.normalize(value)
		}

		tag := tags[mappingKey]
		s.Put(tag, value)
		updated = append(updated, Entry{Key: tag, Value: value})
	}

	return updated
}

// SplitTagKey 拆分 "会话:属性" 形式的映射键
func SplitTagKey(key string) (session, property string, ok bool) {
	i := strings.IndexByte(key, ':')
	if i < 0 {
		return "", "", false
	}
	session = key[:i]
	// 属性名取最后一个冒号之后的部分
	property = key[strings.LastIndexByte(key, ':')+1:]
	return session, property, session != "" && property != ""
}
