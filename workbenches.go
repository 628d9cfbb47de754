package main

import (
	"fmt"

	"arcdata/config"
	"arcdata/exporter"
	"arcdata/fetcher"
	"arcdata/parser"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const staticUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func newWorkbenchesCmd(a *app) *cobra.Command {
	var output, fetcherName string

	cmd := &cobra.Command{
		Use:   "workbenches",
		Short: "Extracts workshop stations, their levels and Scrappy from the wiki into a JSON file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wiki := a.cfg.Wiki
			if output != "" {
				wiki.Output = output
			}
			if fetcherName != "" {
				wiki.Fetcher = fetcherName
			}

			f, err := newFetcher(wiki, a.log)
			if err != nil {
				return err
			}
			defer func() {
				if err := f.Close(); err != nil {
					a.log.Warn("Failed to close fetcher", zap.Error(err))
				}
			}()

			a.log.Info("Fetching workbench data", zap.String("url", wiki.URL), zap.String("fetcher", wiki.Fetcher))
			html, err := f.Fetch(cmd.Context(), wiki.URL, wiki.WaitSelector)
			if err != nil {
				return err
			}

			a.log.Info("Extracting data")
			doc, err := parser.NewParser().ParseHTML(html, wiki.URL)
			if err != nil {
				return err
			}
			a.log.Info("Extracted workbench stations",
				zap.Int("workbenches", len(doc.Workbenches)),
				zap.Int("scrappy_levels", len(doc.Scrappy.Levels)),
			)

			size, err := exporter.WriteJSON(wiki.Output, doc)
			if err != nil {
				return err
			}

			exporter.SummarizeWorkbenches(a.out, doc, wiki.Output, size)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to wiki.output)")
	cmd.Flags().StringVar(&fetcherName, "fetcher", "", "Page fetcher: rod (headless browser) or colly (static HTML)")
	return cmd
}

func newFetcher(wiki config.WikiConfig, log *zap.Logger) (fetcher.Fetcher, error) {
	switch wiki.Fetcher {
	case config.FetcherRod:
		return fetcher.NewRodFetcher(wiki, log)
	case config.FetcherColly:
		timeout := wiki.WaitTimeout
		if timeout <= 0 {
			timeout = fetcher.DefaultWaitTimeout
		}
		return fetcher.NewCollyFetcher(staticUserAgent, timeout, log), nil
	default:
		return nil, fmt.Errorf("unknown fetcher %q (want %q or %q)", wiki.Fetcher, config.FetcherRod, config.FetcherColly)
	}
}
