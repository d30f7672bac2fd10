package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const jsonConfig = `{
	"executable": "bin/docengine",
	"bundle": "bundle.bin",
	"sessions": {
		"PASSPORT": {"text": "Passport", "documents_mask": "*:PASSPORT:*"},
		"ID": {"text": "ID card"}
	},
	"tags": {
		"PASSPORT:FIELD:SURNAME": "surname",
		"ID:NUMBER": "id_number"
	}
}`

const tomlConfig = `
executable = "/opt/docengine/docengine"
bundle = "/opt/docengine/bundle.bin"
language = "deu"
timeout = 5

[sessions.PASSPORT]
text = "Passport"
documents_mask = "*"

[tags]
"PASSPORT:SURNAME" = "surname"
`

const yamlConfig = `
recognizer: tesseract
normalize_values: true
sessions:
  PASSPORT:
    text: Passport
tags:
  "PASSPORT:SURNAME": surname
`

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("写入临时文件失败: %v", err)
	}
	return path
}

func TestConfigManager_LoadConfig(t *testing.T) {
	tests := []struct {
		name           string
		fileName       string
		configData     string
		wantErr        bool
		wantSessions   int
		wantTags       int
		wantRecognizer string
	}{
		{
			name:           "json config",
			fileName:       "config.json",
			configData:     jsonConfig,
			wantSessions:   2,
			wantTags:       2,
			wantRecognizer: RecognizerDocengine,
		},
		{
			name:           "toml config",
			fileName:       "config.toml",
			configData:     tomlConfig,
			wantSessions:   1,
			wantTags:       1,
			wantRecognizer: RecognizerDocengine,
		},
		{
			name:           "yaml config",
			fileName:       "config.yaml",
			configData:     yamlConfig,
			wantSessions:   1,
			wantTags:       1,
			wantRecognizer: RecognizerTesseract,
		},
		{
			name:           "yml extension",
			fileName:       "config.yml",
			configData:     yamlConfig,
			wantSessions:   1,
			wantTags:       1,
			wantRecognizer: RecognizerTesseract,
		},
		{
			name:       "invalid json",
			fileName:   "config.json",
			configData: `{"sessions": {`,
			wantErr:    true,
		},
		{
			name:       "unsupported extension",
			fileName:   "config.ini",
			configData: `sessions=1`,
			wantErr:    true,
		},
		{
			name:       "no sessions",
			fileName:   "config.json",
			configData: `{"executable": "docengine", "sessions": {}}`,
			wantErr:    true,
		},
		{
			name:       "docengine without executable",
			fileName:   "config.json",
			configData: `{"sessions": {"ID": {"text": "ID"}}}`,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.fileName, tt.configData)

			manager := NewConfigManager()
			config, err := manager.LoadConfig(path)

			if tt.wantErr {
				if err == nil {
					t.Errorf("期望出现错误，但没有错误")
				}
				return
			}

			if err != nil {
				t.Fatalf("不期望出现错误，但出现了错误: %v", err)
			}

			if len(config.Sessions) != tt.wantSessions {
				t.Errorf("会话数量 = %v, 期望 %v", len(config.Sessions), tt.wantSessions)
			}
			if len(config.Tags) != tt.wantTags {
				t.Errorf("标签映射数量 = %v, 期望 %v", len(config.Tags), tt.wantTags)
			}
			if config.RecognizerName() != tt.wantRecognizer {
				t.Errorf("识别引擎 = %v, 期望 %v", config.RecognizerName(), tt.wantRecognizer)
			}
		})
	}
}

func TestConfigManager_LoadConfig_FileNotFound(t *testing.T) {
	manager := NewConfigManager()
	_, err := manager.LoadConfig("nonexistent.json")
	if err == nil {
		t.Errorf("期望文件不存在错误，但没有错误")
	}
}

func TestConfigManager_LoadConfig_InvalidPath(t *testing.T) {
	manager := NewConfigManager()
	_, err := manager.LoadConfig("")
	if err == nil {
		t.Errorf("期望路径无效错误，但没有错误")
	}
}

func TestConfigManager_LoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "config.json", jsonConfig)

	config, err := NewConfigManager().LoadConfig(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if config.Language != "eng" {
		t.Errorf("默认语言 = %v, 期望 eng", config.Language)
	}
	if config.RecognizerTimeout() != 60*time.Second {
		t.Errorf("默认超时 = %v, 期望 60s", config.RecognizerTimeout())
	}

	session, ok := config.Session("ID")
	if !ok {
		t.Fatalf("会话 ID 不存在")
	}
	if session.DocumentsMask != "*" {
		t.Errorf("默认文档掩码 = %q, 期望 *", session.DocumentsMask)
	}
	if session.Text != "ID card" {
		t.Errorf("会话文本 = %q", session.Text)
	}

	passport, _ := config.Session("PASSPORT")
	if passport.DocumentsMask != "*:PASSPORT:*" {
		t.Errorf("文档掩码 = %q", passport.DocumentsMask)
	}

	if _, ok := config.Session("VISA"); ok {
		t.Errorf("未定义的会话不应存在")
	}
}

func TestConfigManager_LoadConfig_RelativePaths(t *testing.T) {
	path := writeConfig(t, "config.json", jsonConfig)
	dir := filepath.Dir(path)

	config, err := NewConfigManager().LoadConfig(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if got, want := config.ExecutablePath(), filepath.Join(dir, "bin", "docengine"); got != want {
		t.Errorf("ExecutablePath = %q, 期望 %q", got, want)
	}
	if got, want := config.BundlePath(), filepath.Join(dir, "bundle.bin"); got != want {
		t.Errorf("BundlePath = %q, 期望 %q", got, want)
	}
}

func TestConfigManager_LoadConfig_TOMLValues(t *testing.T) {
	path := writeConfig(t, "config.toml", tomlConfig)

	config, err := NewConfigManager().LoadConfig(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if config.ExecutablePath() != "/opt/docengine/docengine" {
		t.Errorf("绝对路径不应被改写: %q", config.ExecutablePath())
	}
	if config.Language != "deu" {
		t.Errorf("语言 = %q, 期望 deu", config.Language)
	}
	if config.RecognizerTimeout() != 5*time.Second {
		t.Errorf("超时 = %v, 期望 5s", config.RecognizerTimeout())
	}
	if config.Tags["PASSPORT:SURNAME"] != "surname" {
		t.Errorf("标签映射 = %v", config.Tags)
	}
}

func TestConfig_SessionIDs(t *testing.T) {
	config := &Config{
		Sessions: map[string]SessionConfig{
			"VISA":     {Text: "Visa"},
			"ID":       {Text: "ID"},
			"PASSPORT": {Text: "Passport"},
		},
	}

	ids := config.SessionIDs()
	want := []string{"ID", "PASSPORT", "VISA"}
	if len(ids) != len(want) {
		t.Fatalf("会话数量 = %d, 期望 %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, 期望 %q", i, ids[i], want[i])
		}
	}
}
