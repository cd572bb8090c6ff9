package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahrav/go-posescore/infrastructure/sink"
	"github.com/ahrav/go-posescore/internal/application"
	"github.com/ahrav/go-posescore/internal/domain"
)

// unknownIDs returns the ids of sets that have no record in the dataset.
func unknownIDs(records []domain.DatasetRecord, sets []domain.PredictionSet) []string {
	known := make(map[string]struct{}, len(records))
	for _, r := range records {
		known[r.ID] = struct{}{}
	}
	var out []string
	for _, s := range sets {
		if _, ok := known[s.ID]; !ok {
			out = append(out, s.ID)
		}
	}
	return out
}

func newScoreCommand(env *environment) *cobra.Command {
	var dataset, out, summary string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score every complex of a dataset",
		Long: "Score reads a dataset (JSON Lines, or YAML with an items list), scores the\n" +
			"poses of every complex and writes one prediction record per complex.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := env.cfg

			records, err := application.LoadDataset(ctx, env.source, dataset)
			if err != nil {
				return err
			}
			services, err := application.NewServices(ctx, cfg, env.source)
			if err != nil {
				return err
			}
			pipeline, err := application.BuildPipeline(cfg, application.NewDefaultUnitRegistry(services.Dependencies()), env.metrics)
			if err != nil {
				return err
			}

			runID := uuid.NewString()
			fanout := sink.NewFanout(env.metrics)
			file, err := sink.CreateJSONLFile(out)
			if err != nil {
				return err
			}
			fanout.Add("jsonl", file)
			if cfg.Sinks.Kafka.Enabled {
				kafkaSink, err := sink.NewKafkaSink(cfg.Sinks.Kafka, runID)
				if err != nil {
					_ = fanout.Close()
					return err
				}
				fanout.Add("kafka", kafkaSink)
			}

			engine, err := application.NewEngine(pipeline, application.EngineOptions{
				Sink:        fanout,
				Metrics:     env.metrics,
				Logger:      env.logger,
				Concurrency: cfg.Concurrency.Complexes,
				ModelName:   services.Model.Name(),
				RunID:       runID,
			})
			if err != nil {
				_ = fanout.Close()
				return err
			}

			report, runErr := engine.Run(ctx, records)
			if err := fanout.Close(); err != nil && runErr == nil {
				runErr = err
			}
			if runErr != nil {
				return runErr
			}

			if summary != "" {
				if err := sink.WriteCSVFile(summary, func(w io.Writer) error {
					return sink.WriteSummaries(w, report.Summaries())
				}); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[score] wrote %s (%d complexes, run %s)\n", out, len(report.Outcomes), report.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "dataset file (.jsonl, .yaml or .yml)")
	cmd.Flags().StringVar(&out, "out", "runs/out.jsonl", "predictions output (JSON Lines)")
	cmd.Flags().StringVar(&summary, "summary", "", "optional per-complex summary CSV")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

func newSummarizeCommand(env *environment) *cobra.Command {
	var dataset, pred, out, filtered string

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Filter predictions by pose validity and aggregate per complex",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := env.cfg

			records, err := application.LoadDataset(ctx, env.source, dataset)
			if err != nil {
				return err
			}
			sets, err := application.LoadPredictions(ctx, env.source, pred)
			if err != nil {
				return err
			}
			services, err := application.NewServices(ctx, cfg, env.source)
			if err != nil {
				return err
			}
			aggregation := cfg.Aggregation.ForSummarize()
			summarizer, err := application.NewSummarizer(services.Checker, aggregation, cfg.Concurrency.Poses)
			if err != nil {
				return err
			}
			report, err := summarizer.Summarize(ctx, sets)
			if err != nil {
				return err
			}

			if err := sink.WriteCSVFile(out, func(w io.Writer) error {
				return sink.WriteSummaries(w, report.Summaries)
			}); err != nil {
				return err
			}
			jsonl, err := sink.CreateJSONLFile(filtered)
			if err != nil {
				return err
			}
			for _, set := range report.Filtered {
				if err := jsonl.Write(ctx, set); err != nil {
					_ = jsonl.Close()
					return err
				}
			}
			if err := jsonl.Close(); err != nil {
				return err
			}

			if ids := unknownIDs(records, sets); len(ids) > 0 {
				env.logger.Warn("predictions for complexes missing from the dataset", zap.Strings("ids", ids))
			}
			env.logger.Info("summarized predictions",
				zap.Int("complexes", len(report.Summaries)),
				zap.String("method", aggregation.Method),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "[summarize] wrote %s and %s\n", out, filtered)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "dataset the predictions were made for")
	cmd.Flags().StringVar(&pred, "pred", "", "predictions (JSON Lines)")
	cmd.Flags().StringVar(&out, "out", "", "summary CSV output")
	cmd.Flags().StringVar(&filtered, "filtered", "runs/filtered_predictions.jsonl", "filtered predictions output")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("pred")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newTopKCommand(env *environment) *cobra.Command {
	var dataset, pred string

	cmd := &cobra.Command{
		Use:   "topk",
		Short: "Report Top-1 and Top-2 success against labelled native poses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			records, err := application.LoadDataset(ctx, env.source, dataset)
			if err != nil {
				return err
			}
			sets, err := application.LoadPredictions(ctx, env.source, pred)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), application.EvaluateTopK(records, sets))
			return nil
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "labelled dataset")
	cmd.Flags().StringVar(&pred, "pred", "", "predictions (JSON Lines)")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("pred")
	return cmd
}

func newSweepCommand(env *environment) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Rescore predicted poses across a pH and ionic strength grid",
		Long: "Sweep rescores every pose of every complex at pH 6.5 to 8.0 in seven steps\n" +
			"against ionic strength 0.05, 0.15 and 0.30 M, aggregating with softmax at T=1.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sets, err := application.LoadPredictions(ctx, env.source, in)
			if err != nil {
				return err
			}
			services, err := application.NewServices(ctx, env.cfg, env.source)
			if err != nil {
				return err
			}
			sweeper, err := application.NewSweeper(services.Featurizer, services.Conditions, services.Model,
				application.DefaultSweepGrid(), env.cfg.Concurrency.Poses)
			if err != nil {
				return err
			}
			points, err := sweeper.Sweep(ctx, sets)
			if err != nil {
				return err
			}
			if err := sink.WriteCSVFile(out, func(w io.Writer) error {
				return sink.WriteSweep(w, points)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[sweep] wrote %s with %d rows\n", out, len(points))
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "predictions (JSON Lines)")
	cmd.Flags().StringVar(&out, "out", "runs/sweep.csv", "sweep CSV output")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func newInspectCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect POSE...",
		Short: "Print the validation report and interface features of poses",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, err := application.NewServices(ctx, env.cfg, env.source)
			if err != nil {
				return err
			}
			reports, err := application.InspectPoses(ctx, services.Checker, services.Featurizer, args, env.cfg.Concurrency.Poses)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), reports)
		},
	}
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
