package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/compgraph/algorithms"
	"github.com/kbukum/compgraph/config"
	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/graph"
	"github.com/kbukum/compgraph/jsonl"
	"github.com/kbukum/compgraph/logger"
	"github.com/kbukum/compgraph/observability"
	"github.com/kbukum/compgraph/validation"
	"github.com/kbukum/compgraph/version"
)

// Source names the bundled graphs read from.
const (
	sourceDocs    = "docs"
	sourceTimes   = "travel_times"
	sourceLengths = "edge_lengths"
)

type app struct {
	configFile string
	envFile    string
}

// textGraph builds one of the document graphs on a named source.
type textGraph func(input string, opts ...algorithms.Option) *graph.Graph

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "compgraph",
		Short:         "Run dataflow graphs over JSON lines files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", ".env file loaded before COMPGRAPH_* variables")

	root.AddCommand(
		a.textCommand("wordcount", "Count every word over all documents", algorithms.WordCount),
		a.textCommand("tfidf", "Top three documents per word by TF-IDF", algorithms.InvertedIndex),
		a.textCommand("pmi", "Top ten words per document by pointwise mutual information", algorithms.PMI),
		a.roadSpeedCommand(),
		versionCommand(),
	)
	return root
}

func (a *app) textCommand(use, short string, build textGraph) *cobra.Command {
	var input, output, docColumn, textColumn string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validation.New().Required("input", input).Validate(); err != nil {
				return err
			}
			return a.execute(cmd, output, func(cfg *config.App) (*graph.Graph, graph.Sources) {
				g := build(sourceDocs,
					algorithms.WithDocColumn(docColumn),
					algorithms.WithTextColumn(textColumn),
					algorithms.WithSortOptions(cfg.Engine.SortOptions()...),
				)
				return g, graph.Sources{sourceDocs: jsonl.ReadFile(input)}
			})
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON lines file of documents")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&docColumn, "doc-column", "doc_id", "document id column")
	cmd.Flags().StringVar(&textColumn, "text-column", "text", "text column")
	return cmd
}

func (a *app) roadSpeedCommand() *cobra.Command {
	var times, lengths, output string
	cmd := &cobra.Command{
		Use:   "roadspeed",
		Short: "Average speed per weekday and hour",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := validation.New().
				Required("times", times).
				Required("lengths", lengths).
				Validate()
			if err != nil {
				return err
			}
			return a.execute(cmd, output, func(cfg *config.App) (*graph.Graph, graph.Sources) {
				g := algorithms.RoadSpeed(sourceTimes, sourceLengths,
					algorithms.WithSortOptions(cfg.Engine.SortOptions()...))
				return g, graph.Sources{
					sourceTimes:   jsonl.ReadFile(times),
					sourceLengths: jsonl.ReadFile(lengths),
				}
			})
		},
	}
	cmd.Flags().StringVar(&times, "times", "", "JSON lines file of edge traversals")
	cmd.Flags().StringVar(&lengths, "lengths", "", "JSON lines file of edge geometry")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}

func (a *app) load() (*config.App, error) {
	var opts []config.LoaderOption
	if a.configFile != "" {
		if _, err := os.Stat(a.configFile); err != nil {
			return nil, errors.FileNotFound(a.configFile, err)
		}
		opts = append(opts, config.WithConfigFile(a.configFile))
	}
	if a.envFile != "" {
		opts = append(opts, config.WithEnvFile(a.envFile))
	}
	return config.Load(opts...)
}

// execute loads the configuration, runs the graph returned by build and
// writes its rows as JSON lines to output.
func (a *app) execute(cmd *cobra.Command, output string, build func(*config.App) (*graph.Graph, graph.Sources)) error {
	ctx := cmd.Context()
	cfg, err := a.load()
	if err != nil {
		return err
	}
	logger.Init(&cfg.Logging)
	logger.Reset()
	logger.Register("cli", logger.NewWithWriter(&cfg.Logging, cfg.Logging.ServiceName, cmd.ErrOrStderr()).WithComponent("cli"))
	log := logger.Get("cli").WithContext(ctx)

	if cfg.Observability.Enabled {
		shutdown, err := observability.Setup(ctx, observability.Config{
			ServiceName:    cfg.Name,
			ServiceVersion: version.Get().Version,
			Environment:    cfg.Environment,
			Endpoint:       cfg.Observability.Endpoint,
			Insecure:       cfg.Observability.Insecure,
			SampleRate:     cfg.Observability.SampleRate,
		})
		if err != nil {
			return errors.Internal(err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				log.Warn("telemetry shutdown failed", logger.ErrorFields("shutdown", err))
			}
		}()
	}

	w, closeOutput, err := openOutput(output, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	g, sources := build(cfg)
	start := time.Now()
	n, err := jsonl.Write(ctx, w, g.Run(ctx, sources))
	if cerr := closeOutput(); err == nil && cerr != nil {
		err = errors.IO("close", output, cerr)
	}
	if err != nil {
		fields := logger.ErrorFields(cmd.Name(), err)
		fields["code"] = string(errors.Wrap(err).Code)
		log.Error("graph failed", fields)
		return err
	}

	log.Info("graph finished", logger.Fields(
		logger.FieldOperation, cmd.Name(),
		logger.FieldRows, n,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return nil
}

// openOutput opens path for writing, or returns stdout when path is empty.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.IO("create", path, err)
	}
	return f, f.Close, nil
}
