package cli

import (
	"fmt"

	"resumatch/internal/catalog"
	"resumatch/internal/common"
	"resumatch/internal/errors"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect or import the skill vocabulary and job catalog",
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured catalog",
	Long: `Load the catalog from the configured source (file, sqlite or postgres)
and print its size. With --list the vocabulary and job roles are printed too.`,
	Args:    cobra.NoArgs,
	PreRunE: outputPreRun(&catalogConfig),
	RunE:    runCatalogShow,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a skills file and job CSV into the configured database",
	Long: `Read a skills vocabulary (one skill per line) and a job catalog CSV with
"Job Role" and "Required Skills" columns, and replace the catalog stored in
the configured SQLite or Postgres source in a single transaction.`,
	Args: cobra.NoArgs,
	RunE: runCatalogImport,
}

var (
	catalogConfig common.CommandConfig
	catalogList   bool
	importSkills  string
	importJobs    string
)

func init() {
	addOutputFlags(catalogShowCmd, &catalogConfig)
	catalogShowCmd.Flags().BoolVar(&catalogList, "list", false, "Also print every skill and job role")

	catalogImportCmd.Flags().StringVar(&importSkills, "skills", "", "Skills vocabulary file (default from config)")
	catalogImportCmd.Flags().StringVar(&importJobs, "jobs", "", "Job catalog CSV (default from config)")

	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogImportCmd)
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	source, err := catalog.Open(cmd.Context(), cfg.Catalog, logger)
	if err != nil {
		return err
	}
	store := catalog.NewStore(source, logger)
	defer closeQuietly(store, logger)

	if err := store.Reload(cmd.Context()); err != nil {
		return err
	}
	snapshot, err := store.Snapshot()
	if err != nil {
		return err
	}

	if err := common.NewOutputHandler(logger).WithWriter(cmd.OutOrStdout()).HandleOutput(snapshot.Info(), catalogConfig); err != nil {
		return err
	}
	if !catalogList {
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nVocabulary:")
	for _, skill := range snapshot.Vocabulary {
		fmt.Fprintf(out, "  %s\n", skill)
	}
	fmt.Fprintln(out, "\nJobs:")
	for _, job := range snapshot.Jobs {
		fmt.Fprintf(out, "  %s: %s\n", job.Role, catalog.JoinSkills(job.RequiredSkills))
	}
	return nil
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	skillsPath := firstNonEmpty(importSkills, cfg.Catalog.SkillsFile)
	jobsPath := firstNonEmpty(importJobs, cfg.Catalog.JobsFile)

	source, err := catalog.Open(cmd.Context(), cfg.Catalog, logger)
	if err != nil {
		return err
	}
	store := catalog.NewStore(source, logger)
	defer closeQuietly(store, logger)

	importer, ok := source.(catalog.Importer)
	if !ok {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("catalog source %q does not support import; set catalog.source to sqlite or postgres", source.Name()), nil)
	}

	vocabulary, jobs, err := catalog.LoadFiles(cmd.Context(), skillsPath, jobsPath)
	if err != nil {
		return err
	}
	if err := importer.Import(cmd.Context(), vocabulary, jobs); err != nil {
		return err
	}

	logger.Info("Catalog imported",
		"source", source.Name(),
		"skills_file", skillsPath,
		"jobs_file", jobsPath,
		"vocabulary_size", len(vocabulary),
		"job_count", len(jobs))
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d skills and %d jobs into %s\n", len(vocabulary), len(jobs), source.Name())
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
