package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"apidiff/internal/client"
	"apidiff/internal/config"
	"apidiff/internal/model"
	"apidiff/internal/param"
	"apidiff/internal/reporter"
	"apidiff/internal/runner"
)

var (
	configPath string
	outputPath string
	debug      bool
	casesPath  string
)

func main() {
	root := &cobra.Command{
		Use:   "apidiff",
		Short: "Compare JSON responses between two versions of an API",
		Long: "apidiff expands the configured parameters into test cases, fetches each case\n" +
			"from the old and new endpoints under a shared rate limit, diffs the JSON\n" +
			"responses and writes an Excel report.",
		SilenceUsage: true,
		RunE:         runDiff,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML config file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.Flags().StringVarP(&outputPath, "output", "o", "output/api_diff.xlsx", "path to the output Excel file")
	_ = root.MarkPersistentFlagRequired("config")

	gen := &cobra.Command{
		Use:   "gencases",
		Short: "Write every parameter combination to a CSV file",
		RunE:  runGenCases,
	}
	gen.Flags().StringVarP(&casesPath, "output", "o", "config/test_data.csv", "path to the output CSV file")
	root.AddCommand(gen)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if debug {
		log.SetLevel(log.DebugLevel)
	}
}

func runDiff(cmd *cobra.Command, _ []string) error {
	setupLogging()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	lim := client.NewWindowLimiter(cfg.RateLimitCalls, cfg.RateLimitPeriod)
	cl := client.New(lim, cfg.Timeout)
	r := runner.New(cfg, cl)

	names := cfg.ParamNames()
	r.Checkpoint = func(rows []model.CaseResult) {
		if err := reporter.Write(rows, names, outputPath); err != nil {
			log.Warnf("intermediate save failed: %v", err)
			return
		}
		log.Infof("saved intermediate results after %d cases", len(rows))
	}

	start := time.Now()
	results, err := r.Run(cmd.Context())
	if err != nil {
		return err
	}

	if err := reporter.Write(results, names, outputPath); err != nil {
		return err
	}
	reporter.Summary(results, time.Since(start))
	return nil
}

func runGenCases(_ *cobra.Command, _ []string) error {
	setupLogging()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	groups, err := param.ResolveGroups(cfg.Params, cfg.BaseDir)
	if err != nil {
		return err
	}
	cases := param.BuildCases(groups)
	log.Infof("total combinations to generate: %d", len(cases))

	if dir := filepath.Dir(casesPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(casesPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", casesPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	names := cfg.ParamNames()
	if err := w.Write(names); err != nil {
		return err
	}
	for _, c := range cases {
		record := make([]string, len(names))
		for i, n := range names {
			record[i] = c[n]
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	log.Infof("csv generated: %s", casesPath)
	return nil
}
