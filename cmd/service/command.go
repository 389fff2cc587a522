package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vieagent/vieagent/app/core"
	v1 "github.com/vieagent/vieagent/app/logic/v1"
	"github.com/vieagent/vieagent/app/logic/v1/process"
	"github.com/vieagent/vieagent/pkg/metrics"
	"github.com/vieagent/vieagent/pkg/parser"
	"github.com/vieagent/vieagent/pkg/types"
)

type Options struct {
	ConfigPath string
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.ConfigPath, "config", "c", "", "init service by given config")
}

func printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

// NewAnalyzeCommand inspects a folder and prints the risk report and batch
// plan without indexing anything.
func NewAnalyzeCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "analyze a folder before ingestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))
			logic := v1.NewIngestLogic(cmd.Context(), app)

			analysis, err := logic.Analyze(args[0])
			if err != nil {
				return err
			}
			return printJSON(analysis)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func NewIngestCommand() *cobra.Command {
	opts := &Options{}
	var (
		collection string
		source     string
		title      string
	)

	cmd := &cobra.Command{
		Use:   "ingest [path]",
		Short: "parse and index a folder or file into a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))
			logic := v1.NewIngestLogic(cmd.Context(), app)

			if types.SourceType(source) == types.SOURCE_TYPE_CHAT_EXPORT {
				result, analysis, err := logic.IngestFolder(args[0], collection)
				if err != nil {
					return err
				}
				return printJSON(map[string]any{
					"analysis": analysis,
					"result":   result,
				})
			}

			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			summaries, parseSummary, err := logic.Ingest(parser.RawInput{
				SourceType: types.SourceType(source),
				Collection: collection,
				Title:      title,
				Content:    content,
			})
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"parse":     parseSummary,
				"summaries": summaries,
			})
		},
	}
	opts.AddFlags(cmd.Flags())
	cmd.Flags().StringVar(&collection, "collection", "default", "target collection")
	cmd.Flags().StringVar(&source, "source", string(types.SOURCE_TYPE_CHAT_EXPORT), "source type: chat_export, text, markdown")
	cmd.Flags().StringVar(&title, "title", "", "document title for single-file sources")
	return cmd
}

func NewSearchCommand() *cobra.Command {
	opts := &Options{}
	var cfg types.SearchConfig

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "hybrid retrieval over a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))

			defaults := app.Cfg().Retrieval.SearchDefaults()
			if cfg.Collection != "" {
				defaults.Collection = cfg.Collection
			}
			if cfg.Threshold > 0 {
				defaults.Threshold = cfg.Threshold
			}
			if cfg.MaxResults > 0 {
				defaults.MaxResults = cfg.MaxResults
			}

			result, err := v1.NewSearchLogic(cmd.Context(), app).Search(args[0], defaults)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	opts.AddFlags(cmd.Flags())
	cmd.Flags().StringVar(&cfg.Collection, "collection", "default", "collection to search")
	cmd.Flags().Float64Var(&cfg.Threshold, "threshold", 0, "minimum blended score")
	cmd.Flags().IntVar(&cfg.MaxResults, "max-results", 0, "maximum chunks returned")
	return cmd
}

// NewProcessCommand runs the background schedules and the metrics endpoint
// until interrupted.
func NewProcessCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "process",
		Short: "run background schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunProcess(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunProcess(opts *Options) error {
	app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))

	p := process.NewProcess(app)
	p.Start()
	defer p.Stop()

	if addr := app.Cfg().Addr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.DefaultExportHandler())
		server := &http.Server{Addr: addr, Handler: mux}
		go server.ListenAndServe()
		defer server.Shutdown(context.Background())
	}

	fmt.Println("Process starting...")
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs
	return nil
}
