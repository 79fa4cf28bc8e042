// Command smoke walks the raw search pages of one query against the configured site and
// prints what each page returned. It bypasses caching and aggregation.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/h0rv/flowcanvas/internal/auth"
	"github.com/h0rv/flowcanvas/internal/config"
	"github.com/h0rv/flowcanvas/internal/jira"
	"github.com/h0rv/flowcanvas/internal/jql"
	"github.com/h0rv/flowcanvas/internal/logger"
	"github.com/h0rv/flowcanvas/internal/search"
	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagPages  int
	flagSize   int
	flagRaw    bool
)

func main() {
	cmd := &cobra.Command{
		Use:   "smoke <jql>",
		Short: "Walk raw search pages for a JQL query",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	cmd.Flags().StringVar(&flagConfig, "config", "", "path to config file")
	cmd.Flags().IntVar(&flagPages, "pages", 3, "maximum pages to request")
	cmd.Flags().IntVar(&flagSize, "page-size", search.MaxPageSize, "issues per page")
	cmd.Flags().BoolVar(&flagRaw, "raw", false, "send the query as given, without the project and time bound")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		log.Fatal(err)
	}
	logs := logger.New(*cfg)

	token, err := auth.GetToken(auth.DefaultProviders(cfg.Jira.APIToken, cfg.Jira.TokenCommand)...)
	if err != nil {
		log.Fatal(err)
	}
	creds := jira.Credentials{Email: cfg.Jira.Email, Token: token}

	var transport search.Transport
	if cfg.Jira.Transport == config.TransportGraphQL {
		transport = jira.NewGraphQLTransport(cfg.Jira.GatewayURL, cfg.Caller.CloudID, creds, cfg.Jira.Timeout, logs)
		fmt.Printf("Transport: graphql (cloud %s)\n\n", cfg.Caller.CloudID)
	} else {
		client := jira.NewClient(cfg.Jira.BaseURL, creds, cfg.Jira.Timeout, logs)
		me, err := client.Myself(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Transport: rest %s\nUser: %s (%s) accountId=%s\n\n", client.BaseURL(), me.DisplayName, me.EmailAddress, me.AccountID)
		transport = client
	}

	query := args[0]
	if !flagRaw {
		scoper := jql.Scoper{DaysBack: cfg.Search.DaysBack, AlwaysBoundTime: cfg.Search.AlwaysBoundTime}
		query = scoper.Compose(query, jql.ExtractProjectKey(query))
	}
	fmt.Printf("Query: %s\n\n", query)

	cursor := ""
	seen := 0
	for page := 1; page <= flagPages; page++ {
		resp, err := transport.Execute(ctx, search.PageRequest{
			Query:    query,
			PageSize: flagSize,
			Cursor:   cursor,
			Fields:   search.DefaultFields,
		})
		if err != nil {
			log.Fatal(err)
		}
		seen += len(resp.Issues)

		total := "unknown"
		if resp.Total != nil {
			total = fmt.Sprint(*resp.Total)
		}
		fmt.Printf("Page %d: %d issues (seen %d, total %s, last=%t, next=%q)\n",
			page, len(resp.Issues), seen, total, resp.IsLast, resp.NextPageToken)
		for _, issue := range resp.Issues {
			fmt.Printf("  %s  %-14s %s\n", issue.Key, issue.StatusName(), issue.Summary())
		}

		cursor = resp.NextPageToken
		if cursor == "" || resp.IsLast || len(resp.Issues) == 0 {
			break
		}
	}
	return nil
}
