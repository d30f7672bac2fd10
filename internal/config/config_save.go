package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// SampleConfig 返回一个示例配置：护照会话及常用字段映射
func SampleConfig() *Config {
	return &Config{
		Executable: "docengine_cli",
		Bundle:     "bundle_docengine.se",
		Sessions: map[string]SessionConfig{
			"passport": {Text: "Passport", DocumentsMask: "*"},
		},
		Tags: map[string]string{
			"passport:full_name":      "full_name",
			"passport:surname":        "last_name",
			"passport:name":           "first_name",
			"passport:birth_date":     "birth_date",
			"passport:number":         "passport_number",
			"passport:issue_date":     "issue_date",
			"passport:authority":      "authority",
			"passport:birth_place":    "birth_place",
			"passport:authority_code": "authority_code",
		},
		Recognizer: RecognizerDocengine,
		Language:   defaultLanguage,
		Timeout:    defaultTimeout,
	}
}

// SaveConfig 按扩展名将配置写入文件，已存在的文件先备份为 .bak
func SaveConfig(config *Config, filePath string) error {
	if config == nil {
		return fmt.Errorf("配置不能为空")
	}

	// 验证配置
	if err := NewConfigManager().ValidateConfig(config); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	case ".toml":
		data, err = toml.Marshal(config)
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		return fmt.Errorf("不支持的配置文件格式: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	// 确保目录存在
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	if err := createBackup(filePath); err != nil {
		return fmt.Errorf("创建备份失败: %w", err)
	}

	// 写入文件
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// createBackup 将已存在的配置文件复制为 <文件名>.bak
func createBackup(filePath string) error {
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return os.WriteFile(filePath+".bak", data, 0644)
}
