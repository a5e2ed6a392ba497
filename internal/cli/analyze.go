package cli

import (
	"context"

	"resumatch/internal/common"
	"resumatch/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file]",
	Short: "Extract skills from a resume and recommend matching job roles",
	Long: `Analyze a resume: extract its text, find the skills it mentions from the
configured vocabulary, and rank the job catalog by match percentage.

Supported inputs: .pdf, .docx, .html, .htm, .md, .txt
The output includes:
- A preview of the extracted resume text
- The skills found, in canonical form
- The best matching roles with matched and missing skills`,
	Args:    cobra.ExactArgs(1),
	PreRunE: outputPreRun(&analyzeConfig),
	RunE:    runAnalyze,
}

var (
	analyzeConfig common.CommandConfig
	analyzeLimit  int
)

func init() {
	addOutputFlags(analyzeCmd, &analyzeConfig)
	analyzeCmd.Flags().IntVarP(&analyzeLimit, "limit", "n", 0, "Number of job recommendations (default from config)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	a, err := newApp(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close(logger)

	fileCmd := common.FileCommand{
		Config:      analyzeConfig,
		Supported:   a.analyzer.SupportedExtensions(),
		MaxFileSize: cfg.App.MaxFileSize,
	}

	logger.Info("Starting resume analysis",
		"file", args[0],
		"limit", a.analyzer.Limit(analyzeLimit),
		"output_format", analyzeConfig.OutputFormat)

	err = common.RunFileCommand(cmd.Context(), logger, fileCmd, args[0],
		func(ctx context.Context, filename string, data []byte) (*types.AnalysisResult, error) {
			return a.analyzer.Analyze(ctx, filename, data, analyzeLimit)
		})
	if err != nil {
		return err
	}
	logger.Info("Resume analysis completed successfully")
	return nil
}

// outputPreRun applies the default output format and normalizes it.
func outputPreRun(out *common.CommandConfig) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if out.OutputFormat == "" {
			out.OutputFormat = cfg.App.DefaultFormat
		}
		format, err := common.NormalizeOutputFormat(out.OutputFormat, cfg.App.SupportedFormats)
		out.OutputFormat = format
		return err
	}
}

func addOutputFlags(cmd *cobra.Command, out *common.CommandConfig) {
	cmd.Flags().StringVarP(&out.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&out.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.NewOutputHandler(nil).GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
}
