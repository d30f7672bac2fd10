// Package cmd 实现 docx-templater 的命令行
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/allanpk716/docx_templater/internal/config"
	"github.com/allanpk716/docx_templater/internal/domain"
	"github.com/allanpk716/docx_templater/internal/logger"
	"github.com/allanpk716/docx_templater/internal/recognizer"
	"github.com/allanpk716/docx_templater/internal/session"
	"github.com/allanpk716/docx_templater/internal/storage/sqlite"
)

// AppName 程序名
const AppName = "docx-templater"

// AppVersion 构建时可通过 -ldflags 覆盖
var AppVersion = "dev"

var (
	configPath string
	stateDir   string
	verbose    bool
)

// newRecognizer 创建识别引擎，测试中可替换
var newRecognizer = func(cfg *config.Config, log *slog.Logger) (domain.Recognizer, error) {
	return recognizer.New(cfg, log)
}

var rootCmd = &cobra.Command{
	Use:   AppName,
	Short: "Fill DOCX templates with values recognized from identity documents",
	Long: `docx-templater recognizes identity document images, collects the extracted
fields as tags and substitutes ${tag} placeholders in a DOCX template while
keeping the formatting of the surrounding text.

State (current template, tags and the session log) is kept in --state-dir
between invocations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "配置文件路径 (.json/.toml/.yaml)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "状态目录（默认 ~/.docx-templater）")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出")
}

// Execute 执行根命令
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func commandLogger(cmd *cobra.Command) *slog.Logger {
	return logger.New(cmd.ErrOrStderr(), verbose)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.NewConfigManager().LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置文件失败: %w", err)
	}
	return cfg, nil
}

func openStore() (*sqlite.Store, error) {
	store, err := sqlite.NewStore(stateDir)
	if err != nil {
		return nil, fmt.Errorf("打开状态库失败: %w", err)
	}
	return store, nil
}

// openTemplater 加载配置和状态，构建 Templater。
// withRecognizer 为 false 时不创建识别引擎。
func openTemplater(cmd *cobra.Command, withRecognizer bool) (*session.Templater, func(), error) {
	log := commandLogger(cmd)

	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	var rec domain.Recognizer
	if withRecognizer {
		rec, err = newRecognizer(cfg, log)
		if err != nil {
			return nil, nil, fmt.Errorf("创建识别引擎失败: %w", err)
		}
	}

	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	templater, err := session.New(commandContext(cmd), cfg, rec, store, log, session.WithJournal(cmd.OutOrStdout()))
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn("关闭状态库失败", "error", err)
		}
	}
	return templater, cleanup, nil
}
