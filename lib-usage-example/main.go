package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/sw33tLie/jirascope/pkg/federated"
	"github.com/sw33tLie/jirascope/pkg/ingest"
	"github.com/sw33tLie/jirascope/pkg/jira"
)

func main() {
	// Usage: go run *.go -url "https://example.atlassian.net" -email "you@example.com" -token "your_api_token" -project PROJ -q "login"

	urlFlag := flag.String("url", "", "Jira base URL")
	emailFlag := flag.String("email", "", "Jira account email")
	tokenFlag := flag.String("token", "", "Jira API token")
	projectFlag := flag.String("project", "", "Project key to export")
	queryFlag := flag.String("q", "", "Text to search for once exported")

	// Parse the command-line flags
	flag.Parse()

	cfg := jira.NewConfig(*urlFlag, *emailFlag, *tokenFlag)
	if err := cfg.Validate(); err != nil {
		fmt.Println(err)
		return
	}
	if *projectFlag == "" {
		fmt.Println("Project is required. Please provide it using the -project flag.")
		return
	}

	ctx := context.Background()
	client := jira.NewClient(cfg)

	// Export one project into PROJ.db
	sink := &ingest.DBSink{Path: ingest.DBPath("", *projectFlag, false)}
	res, err := ingest.Run(ctx, ingest.Config{Source: client, Sink: sink}, ingest.ProjectJQL(*projectFlag, ""))
	sink.Close()
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("Exported %d issues to %s\n", res.Index.TotalIssues, sink.Path)

	// Query it, along with any other stores you have
	fed, err := federated.OpenPaths([]string{sink.Path}, nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer fed.Close()

	page, err := fed.Search(ctx, federated.Query{Text: *queryFlag})
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, t := range page.Tickets {
		fmt.Printf("%s [%s] %s\n", t.Key, t.Status, t.Summary)
	}
}
