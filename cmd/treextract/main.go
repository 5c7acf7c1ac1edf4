// Package main is the entry point for the treextract CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/treextract/internal/extract"
	"github.com/pdiddy/treextract/internal/runlog"
	"github.com/pdiddy/treextract/internal/treeio"
	"github.com/pdiddy/treextract/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// defaultPrefix names unlabeled trees when no --prefix is given.
const defaultPrefix = "tree"

// rootCmd is the base command; running it performs the extraction.
var rootCmd = &cobra.Command{
	Use:   "treextract",
	Short: "Extract phylogenetic trees from tree files into Newick files",
	Long: `treextract reads a file containing one or more serialized phylogenetic
trees (Newick, Nexus, and related dialects) and writes each tree to its own
Newick file named <tree-name>.tre. Trees that carry no name in the source
file are named <prefix>_<index> from their position in the file.

Run 'treextract formats' for the list of supported input formats.`,
	RunE: runExtract,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().StringP("input", "i", "", "path to the input tree file")
	rootCmd.Flags().StringP("format", "f", "", "format of the input data (see 'treextract formats')")
	rootCmd.Flags().StringP("prefix", "p", defaultPrefix, "prefix for naming unlabeled trees")
	rootCmd.Flags().String("out-dir", ".", "directory to write .tre files into")
	rootCmd.Flags().String("manifest", "", "write a YAML manifest of the run to this path")
	rootCmd.Flags().Bool("record", false, "record the run in the extraction history")
	rootCmd.MarkFlagRequired("input")
	rootCmd.MarkFlagRequired("format")

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./treextract.yaml or ~/.config/treextract/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("treextract")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "treextract"))
		}
	}

	viper.SetEnvPrefix("TREEXTRACT")
	viper.AutomaticEnv()

	viper.SetDefault("prefix", defaultPrefix)
	viper.SetDefault("out_dir", ".")
	viper.SetDefault("runlog.dir", runlog.DefaultDir)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// flagOrConfig resolves a string setting: an explicit flag wins, then
// the viper config value (which includes the registered default).
func flagOrConfig(cmd *cobra.Command, flag, key string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return viper.GetString(key)
}

func runExtract(cmd *cobra.Command, args []string) error {
	// Flag parsing succeeded; errors past this point are runtime
	// failures, so the usage text stays out of the output.
	cmd.SilenceUsage = true

	input, _ := cmd.Flags().GetString("input")
	format, _ := cmd.Flags().GetString("format")

	if !treeio.Supported(format) {
		fmt.Fprintf(os.Stderr, "invalid input format: %q\n\nvalid formats:\n", format)
		for _, id := range treeio.Formats() {
			fmt.Fprintf(os.Stderr, "\t%s\n", id)
		}
		return fmt.Errorf("unsupported format %q", format)
	}

	req := types.ExtractRequest{
		InputPath: input,
		Format:    format,
		Prefix:    flagOrConfig(cmd, "prefix", "prefix"),
		OutDir:    flagOrConfig(cmd, "out-dir", "out_dir"),
	}

	result, err := extract.Extract(req, os.Stdout)
	if err != nil {
		return err
	}

	if manifestPath, _ := cmd.Flags().GetString("manifest"); manifestPath != "" {
		if err := extract.WriteManifest(manifestPath, req, result); err != nil {
			return err
		}
	}

	record, _ := cmd.Flags().GetBool("record")
	runLog := runLogConfig()
	if record || runLog.Enabled {
		if err := recordRun(runLog, req, result); err != nil {
			return err
		}
	}
	return nil
}

// runLogConfig builds the run history settings from viper.
func runLogConfig() types.RunLogConfig {
	return types.RunLogConfig{
		Enabled: viper.GetBool("runlog.enabled"),
		Dir:     viper.GetString("runlog.dir"),
	}
}

// recordRun stores the completed run in the extraction history.
func recordRun(cfg types.RunLogConfig, req types.ExtractRequest, result extract.Result) error {
	store, err := runlog.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	run := runlog.Run{
		Input:     req.InputPath,
		Format:    req.Format,
		Prefix:    req.Prefix,
		TreeCount: result.Count(),
	}
	for _, t := range result.Written {
		run.Files = append(run.Files, runlog.RunFile{Name: t.Name, Path: t.Path})
	}
	_, err = store.Record(run)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
