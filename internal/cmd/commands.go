package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/allanpk716/docx_templater/internal/domain"
)

var templateCmd = &cobra.Command{
	Use:   "template <path>",
	Short: "Load a DOCX template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplate,
}

var recognizeCmd = &cobra.Command{
	Use:   "recognize <session> <image>",
	Short: "Recognize a document image and merge the extracted tags",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecognize,
}

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a tag value manually",
	Args:  cobra.ExactArgs(2),
	RunE:  runSet,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the current tags",
	Args:  cobra.NoArgs,
	RunE:  runTags,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the template and all tags",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

var saveCmd = &cobra.Command{
	Use:   "save [output]",
	Short: "Apply the tags to the template and save a new document",
	Long: `Applies the current tags to the loaded template and writes a new document.
Without an output path the document is saved next to the template as
<template>_filled.docx. A path without the .docx extension gets one, and
"-copy" is appended while such a file already exists.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSave,
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the session log",
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List the configured recognition sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

var logLimit int

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "显示的最大行数（0 表示全部）")

	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(recognizeCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runTemplate(cmd *cobra.Command, args []string) error {
	templater, cleanup, err := openTemplater(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	return templater.LoadTemplate(commandContext(cmd), args[0])
}

func runRecognize(cmd *cobra.Command, args []string) error {
	templater, cleanup, err := openTemplater(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	// 识别结果无效时按零提取处理，日志中已记录
	_, err = templater.LoadImage(commandContext(cmd), args[0], args[1])
	if errors.Is(err, domain.ErrRecognitionInvalid) {
		return nil
	}
	return err
}

func runSet(cmd *cobra.Command, args []string) error {
	templater, cleanup, err := openTemplater(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	return templater.Put(commandContext(cmd), args[0], args[1])
}

func runTags(cmd *cobra.Command, _ []string) error {
	templater, cleanup, err := openTemplater(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	if path := templater.TemplatePath(); path != "" {
		cmd.Printf("Template: %s\n", path)
	} else {
		cmd.Println("Template: (none)")
	}

	if templater.TagCount() == 0 {
		cmd.Println("No tags.")
		return nil
	}
	cmd.Printf("Tags (%d):\n", templater.TagCount())
	for _, entry := range templater.Entries() {
		cmd.Printf("  %s: %s\n", entry.Key, entry.Value)
	}
	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	templater, cleanup, err := openTemplater(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	return templater.Clear(commandContext(cmd))
}

func runSave(cmd *cobra.Command, args []string) error {
	templater, cleanup, err := openTemplater(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	var output string
	if len(args) == 1 {
		output = args[0]
	}

	result, err := templater.Save(commandContext(cmd), output)
	if errors.Is(err, domain.ErrNothingToApply) {
		return nil
	}
	if err != nil {
		return err
	}

	if verbose {
		cmd.Printf("Substitutions: %d (paragraphs: %d, tables: %d)\n",
			result.Substitutions, result.InParagraphs, result.InTables)
	}
	for _, name := range result.Unresolved {
		cmd.Printf("Unresolved: ${%s}\n", name)
	}
	return nil
}

func runLog(cmd *cobra.Command, _ []string) error {
	templater, cleanup, err := openTemplater(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := templater.Log(commandContext(cmd), logLimit)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		cmd.Printf("%s  %s\n", entry.CreatedAt.Local().Format("2006-01-02 15:04:05"), entry.Message)
	}
	return nil
}

func runSessions(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	for _, id := range cfg.SessionIDs() {
		s, _ := cfg.Session(id)
		cmd.Printf("%s\t%s\t%s\n", s.ID, s.Text, s.DocumentsMask)
	}
	return nil
}
