package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/allanpk716/docx_templater/internal/domain"
	"github.com/allanpk716/docx_templater/internal/matcher"
	"github.com/allanpk716/docx_templater/internal/tagstore"
)

// 支持的识别引擎
const (
	RecognizerDocengine = "docengine"
	RecognizerTesseract = "tesseract"
)

const (
	defaultDocumentsMask = "*"
	defaultLanguage      = "eng"
	defaultTimeout       = 60
)

// SessionConfig 一个采集会话（证件类别）的配置
type SessionConfig struct {
	Text          string `json:"text" toml:"text" yaml:"text"`
	DocumentsMask string `json:"documents_mask" toml:"documents_mask" yaml:"documents_mask"`
}

// Config 表示完整的配置文件结构
type Config struct {
	Executable      string                   `json:"executable" toml:"executable" yaml:"executable"`
	Bundle          string                   `json:"bundle" toml:"bundle" yaml:"bundle"`
	Sessions        map[string]SessionConfig `json:"sessions" toml:"sessions" yaml:"sessions"`
	Tags            map[string]string        `json:"tags" toml:"tags" yaml:"tags"`
	Recognizer      string                   `json:"recognizer,omitempty" toml:"recognizer,omitempty" yaml:"recognizer,omitempty"`
	Language        string                   `json:"language,omitempty" toml:"language,omitempty" yaml:"language,omitempty"`
	NormalizeValues bool                     `json:"normalize_values,omitempty" toml:"normalize_values,omitempty" yaml:"normalize_values,omitempty"`
	Timeout         int                      `json:"timeout,omitempty" toml:"timeout,omitempty" yaml:"timeout,omitempty"`

	// baseDir 配置文件所在目录，相对路径以此为基准
	baseDir string
}

// ConfigManager 配置管理接口
type ConfigManager interface {
	LoadConfig(filePath string) (*Config, error)
	ValidateConfig(config *Config) error
}

// configManager 配置管理器实现
type configManager struct{}

// NewConfigManager 创建新的配置管理器
func NewConfigManager() ConfigManager {
	return &configManager{}
}

// LoadConfig 从文件加载配置，按扩展名选择 JSON / TOML / YAML
func (cm *configManager) LoadConfig(filePath string) (*Config, error) {
	if filePath == "" {
		return nil, fmt.Errorf("配置文件路径不能为空")
	}

	// 检查文件是否存在
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("配置文件不存在: %s", filePath)
	}

	// 读取文件内容
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".toml":
		err = toml.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return nil, fmt.Errorf("不支持的配置文件格式: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("解析配置文件路径失败: %w", err)
	}
	config.baseDir = filepath.Dir(absPath)
	config.setDefaultValues()

	// 验证配置
	if err := cm.ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &config, nil
}

// ValidateConfig 验证配置的有效性
func (cm *configManager) ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("配置不能为空")
	}

	if len(config.Sessions) == 0 {
		return fmt.Errorf("会话列表不能为空")
	}

	for id := range config.Sessions {
		if id == "" || strings.Contains(id, ":") {
			return fmt.Errorf("会话标识无效: %q", id)
		}
	}

	for key, tag := range config.Tags {
		session, _, ok := tagstore.SplitTagKey(key)
		if !ok {
			return fmt.Errorf("标签映射键必须是 会话:属性 格式: %q", key)
		}
		if _, exists := config.Sessions[session]; !exists {
			return fmt.Errorf("标签映射 %q 引用了未定义的会话 %q", key, session)
		}
		if !matcher.ValidatePlaceholderName(tag) {
			return fmt.Errorf("标签映射 %q 的标签名无效: %q", key, tag)
		}
	}

	switch config.RecognizerName() {
	case RecognizerDocengine:
		if config.Executable == "" {
			return fmt.Errorf("docengine 识别引擎需要配置 executable")
		}
	case RecognizerTesseract:
	default:
		return fmt.Errorf("未知的识别引擎: %s", config.Recognizer)
	}

	if config.Timeout < 0 {
		return fmt.Errorf("timeout 不能为负数")
	}

	return nil
}

// setDefaultValues 设置默认值
func (c *Config) setDefaultValues() {
	if c.Recognizer == "" {
		c.Recognizer = RecognizerDocengine
	}
	if c.Language == "" {
		c.Language = defaultLanguage
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	for id, session := range c.Sessions {
		if session.DocumentsMask == "" {
			session.DocumentsMask = defaultDocumentsMask
			c.Sessions[id] = session
		}
	}
}

// RecognizerName 返回识别引擎名称，未配置时为 docengine
func (c *Config) RecognizerName() string {
	if c.Recognizer == "" {
		return RecognizerDocengine
	}
	return strings.ToLower(c.Recognizer)
}

// Session 返回指定会话
func (c *Config) Session(id string) (domain.Session, bool) {
	s, ok := c.Sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	mask := s.DocumentsMask
	if mask == "" {
		mask = defaultDocumentsMask
	}
	return domain.Session{ID: id, Text: s.Text, DocumentsMask: mask}, true
}

// SessionIDs 返回排序后的会话标识
func (c *Config) SessionIDs() []string {
	ids := make([]string, 0, len(c.Sessions))
	for id := range c.Sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ExecutablePath 返回识别程序的路径（相对路径基于配置文件目录）
func (c *Config) ExecutablePath() string {
	return c.resolve(c.Executable)
}

// BundlePath 返回识别配置包的路径（相对路径基于配置文件目录）
func (c *Config) BundlePath() string {
	return c.resolve(c.Bundle)
}

// RecognizerTimeout 单次识别的超时时间
func (c *Config) RecognizerTimeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.baseDir == "" {
		return path
	}
	return filepath.Join(c.baseDir, path)
}
