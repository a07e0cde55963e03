package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"simfinder/config"
	"simfinder/finder"
	"simfinder/imageprocessor"
	"simfinder/logging"
	"simfinder/report"
	"simfinder/signalhandler"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "0.1.0"

var flagOpts config.Config

var rootCmd = &cobra.Command{
	Use:   "simfinder <source> <sample>",
	Short: "Rank images by perceptual similarity to a sample image",
	Long: "Scans a folder or zip archive, compares every image with the sample using a DCT perceptual hash\n" +
		"and writes a report sorted from most to least similar.\n\n" +
		"Supported image formats: " + supportedFormats(),
	Version: Version,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := resolveConfig(cmd, flagOpts)
		if err != nil {
			return err
		}
		return runFind(cmd.Context(), args[0], args[1], cfg)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <report>",
	Short: "Print a similarity report as a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runShow(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	addFindFlags(rootCmd, &flagOpts)
	rootCmd.AddCommand(showCmd)

	// errors are reported once, through the logger, by execute
	rootCmd.SilenceErrors = true
}

func addFindFlags(cmd *cobra.Command, opts *config.Config) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.Output, "output", "o", "", "Report file (default: similarity.txt next to the source)")
	flags.StringVarP(&opts.Password, "password", "p", "", "Archive password (encrypted archives are not supported)")
	flags.IntVarP(&opts.Workers, "workers", "w", 0, "Number of fingerprinting workers (default: based on CPU count)")
	flags.IntVar(&opts.HashSize, "hash-size", imageprocessor.DefaultHashSize, "Perceptual hash side length; 8 gives 64-bit fingerprints")
	flags.StringVar(&opts.CachePath, "cache", "", "SQLite file used to cache fingerprints between runs")
	flags.IntVarP(&opts.Limit, "limit", "n", 0, "Keep only the N most similar images (0 keeps all)")
	flags.Float64Var(&opts.MinScore, "min-score", 0, "Drop images scoring below this percentage")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "Disable the progress bar")
	flags.BoolVarP(&opts.Debug, "debug", "d", false, "Log every processed file")
	flags.StringVar(&opts.LogFile, "logfile", "", "Write logs to this file instead of stderr")
}

// resolveConfig layers the flags set on cmd over .env and environment values
func resolveConfig(cmd *cobra.Command, opts config.Config) (config.Config, error) {
	cfg, err := config.Load(".env")
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	cfg.Output = opts.Output
	cfg.Password = opts.Password
	cfg.Limit = opts.Limit
	cfg.Quiet = opts.Quiet
	if flags.Changed("workers") {
		cfg.Workers = opts.Workers
	}
	if flags.Changed("hash-size") {
		cfg.HashSize = opts.HashSize
	}
	if flags.Changed("cache") {
		cfg.CachePath = opts.CachePath
	}
	if flags.Changed("min-score") {
		cfg.MinScore = opts.MinScore
	}
	if flags.Changed("debug") {
		cfg.Debug = opts.Debug
	}
	if flags.Changed("logfile") {
		cfg.LogFile = opts.LogFile
	}

	return cfg, cfg.Validate()
}

func runFind(ctx context.Context, source, sample string, cfg config.Config) error {
	logging.SetDebug(cfg.Debug)
	if cfg.LogFile != "" {
		if err := logging.SetupLogger(cfg.LogFile, cfg.Debug); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to setup logging: %v\n", err)
		} else {
			defer logging.CloseLogger()
		}
	}

	f := finder.New(cfg)
	if !cfg.Quiet {
		f.Progress = os.Stderr
	}

	startTime := time.Now()
	res, err := f.Run(ctx, source, sample)
	if err != nil {
		if cfg.LogFile != "" {
			// execute reports it again on stderr once the file is closed
			logging.LogError("%v", err)
		}
		return err
	}

	fmt.Printf("Report: %s\n", res.OutputPath)
	fmt.Printf("Images ranked: %d (skipped %d of %d files)\n", len(res.Records), res.Stats.Skipped, res.Stats.TotalFiles)
	if res.Extracted {
		fmt.Println("Archive extracted to a temporary workspace (removed)")
	}
	if res.Stats.CacheHits > 0 {
		fmt.Printf("Fingerprints reused from cache: %d\n", res.Stats.CacheHits)
	}
	if res.Cache != nil {
		fmt.Printf("Cache entries for this source: %d (%d unique fingerprints)\n", res.Cache.TotalImages, res.Cache.UniqueHashes)
	}
	fmt.Printf("Total time: %v\n", time.Since(startTime).Round(time.Millisecond))
	return nil
}

func runShow(out io.Writer, path string) error {
	label, entries, err := report.ReadReport(path)
	if err != nil {
		return fmt.Errorf("cannot read report %s: %w", path, err)
	}

	fmt.Fprintf(out, "Source: %s\n\n", label)
	if len(entries) == 0 {
		fmt.Fprintln(out, "No images in report.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "RANK\tFILE\tSIMILARITY")
	fmt.Fprintln(w, "----\t----\t----------")
	for i, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%.2f%%\n", i+1, e.Filename, e.Score)
	}
	return w.Flush()
}

func supportedFormats() string {
	names := lo.Map(imageprocessor.SupportedFormats(), func(f imageprocessor.FormatType, _ int) string {
		return string(f)
	})
	return strings.Join(names, ", ")
}

// execute runs the command tree and returns the process exit code
func execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.LogError("%v", err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signalhandler.NotifyContext(context.Background())

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	code := execute(ctx)
	stop()
	os.Exit(code)
}
