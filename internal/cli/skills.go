package cli

import (
	"context"

	"resumatch/internal/common"
	"resumatch/internal/types"

	"github.com/spf13/cobra"
)

var skillsCmd = &cobra.Command{
	Use:   "skills [resume-file]",
	Short: "List the skills found in a resume",
	Long: `Extract the text of a resume and list the vocabulary skills it mentions,
without matching them against the job catalog.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: outputPreRun(&skillsConfig),
	RunE:    runSkills,
}

var skillsConfig common.CommandConfig

func init() {
	addOutputFlags(skillsCmd, &skillsConfig)
}

func runSkills(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	a, err := newApp(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close(logger)

	fileCmd := common.FileCommand{
		Config:      skillsConfig,
		Supported:   a.analyzer.SupportedExtensions(),
		MaxFileSize: cfg.App.MaxFileSize,
	}
	return common.RunFileCommand(cmd.Context(), logger, fileCmd, args[0],
		func(ctx context.Context, filename string, data []byte) (*types.SkillsResult, error) {
			return a.analyzer.ExtractSkills(ctx, filename, data)
		})
}
