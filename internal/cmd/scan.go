package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allanpk716/docx_templater/internal/matcher"
	"github.com/allanpk716/docx_templater/internal/processor"
	"github.com/allanpk716/docx_templater/internal/tagstore"
	"github.com/allanpk716/docx_templater/pkg/docx"
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "List the placeholders used by a template or a directory of templates",
	Long: `Lists every ${tag} placeholder found in the given template, or in every
template below the given directory, and whether a value for it is currently
stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

var batchCmd = &cobra.Command{
	Use:   "batch <input-dir> [output-dir]",
	Short: "Fill every template in a directory with the current tags",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runBatch,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(batchCmd)
}

// loadTags 从状态库读取当前标签
func loadTags(cmd *cobra.Command) (*tagstore.Store, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	state, err := store.LoadState(commandContext(cmd))
	if err != nil {
		return nil, fmt.Errorf("读取会话状态失败: %w", err)
	}

	tags := tagstore.New()
	tags.Replace(state.Tags)
	return tags, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	tags, err := loadTags(cmd)
	if err != nil {
		return err
	}

	files, err := FindDocxFiles(args[0])
	if err != nil {
		return fmt.Errorf("查找 DOCX 文件失败: %w", err)
	}
	if len(files) == 0 {
		cmd.Printf("No templates found in %s\n", args[0])
		return nil
	}

	for _, file := range files {
		doc, err := docx.Open(file)
		if err != nil {
			cmd.Printf("%s: %v\n", file, err)
			continue
		}
		infos := processor.ScanDocument(doc, tags)
		doc.Close()

		cmd.Printf("%s:\n", file)
		if len(infos) == 0 {
			cmd.Println("  (no placeholders)")
			continue
		}
		for _, info := range infos {
			status := "unresolved"
			if info.Resolvable {
				status = "resolvable"
			}
			cmd.Printf("  %s x%d (tables: %d) %s\n",
				matcher.FormatPlaceholder(info.Name), info.Occurrences, info.InTables, status)
		}
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	batch, err := ParseBatchArgs(args)
	if err != nil {
		return err
	}

	tags, err := loadTags(cmd)
	if err != nil {
		return err
	}
	if tags.IsEmpty() {
		cmd.Println("Nothing to apply.")
		return nil
	}

	log := commandLogger(cmd)
	summary, err := ProcessBatchFiles(commandContext(cmd), processor.NewDocumentProcessor(log), batch.InputDir, batch.OutputDir, tags, log)
	if err != nil {
		return err
	}

	cmd.Printf("Filled %d templates into %s (%d failed, %d substitutions)\n",
		summary.Processed, batch.OutputDir, summary.Failed, summary.Substitutions)
	return nil
}
