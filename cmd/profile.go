package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/KaramelBytes/dataprep-cli/internal/config"
	"github.com/KaramelBytes/dataprep-cli/internal/ingest"
	"github.com/KaramelBytes/dataprep-cli/internal/profile"
	"github.com/KaramelBytes/dataprep-cli/internal/utils"
)

var (
	proFormat     string
	proVisuals    bool
	proBins       int
	proOutputPath string
	proDelimiter  string
	proSheetName  string
	proSheetIndex int
	proQuiet      bool
)

var profileCmd = &cobra.Command{
	Use:   "profile <files...>",
	Short: "Profile CSV/TSV/XLSX/JSON tables: missing values, cardinality and statistics",
	Long: `Profile one or more tables. Arguments may be glob patterns.
With several inputs, --output names a directory and each profile is written as <name>.profile.<ext>.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		ext, err := formatExt(proFormat)
		if err != nil {
			return err
		}
		c, err := currentConfig()
		if err != nil {
			return err
		}
		opt, err := readOptions(c, proDelimiter, proSheetName, proSheetIndex)
		if err != nil {
			return err
		}
		popt := c.ProfileOptions()
		if proBins > 0 {
			popt.Bins = proBins
		}
		log, err := newLogger(c)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		multi := len(files) > 1
		if multi && proOutputPath != "" {
			if err := os.MkdirAll(proOutputPath, 0o755); err != nil {
				return err
			}
		}
		total := len(files)
		for i, path := range files {
			if multi && !proQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			res, err := ingest.ReadFile(path, opt)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			for _, w := range res.Warnings {
				log.Warn("input warning", zap.String("file", path), zap.String("warning", w))
			}
			rep := profile.Profile(res.Data)
			rep.Warnings = res.Warnings
			var vis *profile.Visuals
			if proVisuals || proFormat == "markdown" {
				vis = profile.Visualize(res.Data, popt)
			}
			out, err := renderProfile(rep, vis, proFormat)
			if err != nil {
				return err
			}
			log.Debug("profiled", zap.String("file", path), zap.Int("rows", rep.Rows), zap.Int("columns", len(rep.Columns)))

			if proOutputPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out), "\n"))
				continue
			}
			dest := proOutputPath
			if multi {
				base := filepath.Base(path)
				dest = filepath.Join(proOutputPath, strings.TrimSuffix(base, filepath.Ext(base))+".profile"+ext)
			}
			if err := utils.SafeWriteFile(dest, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", dest)
		}
		return nil
	},
}

type profileOutput struct {
	Report  *profile.Report  `json:"report" yaml:"report"`
	Visuals *profile.Visuals `json:"visuals,omitempty" yaml:"visuals,omitempty"`
}

func renderProfile(rep *profile.Report, vis *profile.Visuals, format string) ([]byte, error) {
	switch format {
	case "markdown":
		return []byte(rep.Markdown(vis)), nil
	case "table":
		return []byte(rep.Table()), nil
	case "json":
		return utils.PrettyJSON(profileOutput{Report: rep, Visuals: vis})
	case "yaml":
		b, err := yaml.Marshal(profileOutput{Report: rep, Visuals: vis})
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported --format: %s", format)
	}
}

func formatExt(format string) (string, error) {
	switch format {
	case "markdown":
		return ".md", nil
	case "table":
		return ".txt", nil
	case "json":
		return ".json", nil
	case "yaml":
		return ".yaml", nil
	default:
		return "", fmt.Errorf("unsupported --format: %s (use markdown|table|json|yaml)", format)
	}
}

// readOptions applies command flags on top of the configured ingest options.
func readOptions(c *cfgpkg.Global, delimiter, sheetName string, sheetIndex int) (ingest.Options, error) {
	opt, err := c.IngestOptions(c.Server.MaxUploadBytes)
	if err != nil {
		return opt, err
	}
	if delimiter != "" {
		d, err := cfgpkg.ParseDelimiter(delimiter)
		if err != nil {
			return opt, fmt.Errorf("unsupported --delimiter: %s", delimiter)
		}
		opt.Delimiter = d
	}
	opt.SheetName = sheetName
	if sheetIndex > 0 {
		opt.SheetIndex = sheetIndex
	}
	return opt, nil
}

// expandInputs resolves glob patterns and literal paths, dropping duplicates.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&proFormat, "format", "f", "markdown", "output format: markdown|table|json|yaml")
	profileCmd.Flags().BoolVar(&proVisuals, "visuals", false, "include histograms and the correlation matrix in json/yaml output")
	profileCmd.Flags().IntVar(&proBins, "bins", 0, "histogram bins (default from config, 30)")
	profileCmd.Flags().StringVarP(&proOutputPath, "output", "o", "", "write to this file (or directory with several inputs)")
	profileCmd.Flags().StringVar(&proDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab'")
	profileCmd.Flags().StringVar(&proSheetName, "sheet-name", "", "XLSX: sheet name to profile")
	profileCmd.Flags().IntVar(&proSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	profileCmd.Flags().BoolVarP(&proQuiet, "quiet", "q", false, "suppress per-file progress")
}
