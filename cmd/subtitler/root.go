package main

import (
	"github.com/spf13/cobra"
)

const (
	groupPipeline = "pipeline"
	groupManage   = "manage"
)

func newRootCommand() *cobra.Command {
	var configPath string
	ctx := newCommandContext(&configPath)

	root := &cobra.Command{
		Use:   "subtitler",
		Short: "Transcribe, translate, and burn subtitles into videos",
		Long: `subtitler turns a directory of videos into copies with translated
subtitles burned in. Each stage can run alone or as part of "run":

  extract     video -> mp3
  transcribe  mp3   -> source-language srt
  translate   srt   -> target-language srt
  burn        video + translated srt -> subtitled video`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return ctx.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.toml (default: the user config directory)")

	root.AddGroup(
		&cobra.Group{ID: groupPipeline, Title: "Pipeline Commands:"},
		&cobra.Group{ID: groupManage, Title: "Management Commands:"},
	)
	addToGroup(root, groupPipeline,
		newRunCommand(ctx),
		newExtractCommand(ctx),
		newTranscribeCommand(ctx),
		newTranslateCommand(ctx),
		newBurnCommand(ctx),
		newWatchCommand(ctx),
	)
	addToGroup(root, groupManage,
		newStatusCommand(ctx),
		newCheckCommand(ctx),
		newConfigCommand(ctx),
	)
	return root
}

func addToGroup(parent *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.GroupID = group
		parent.AddCommand(cmd)
	}
}
