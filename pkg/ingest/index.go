package ingest

import (
	"time"

	"github.com/google/uuid"
	"github.com/sw33tLie/jirascope/pkg/ticket"
)

// IndexFile is the name of the run summary written next to file exports.
const IndexFile = "_index.json"

// Index summarizes one run.
type Index struct {
	RunID       string       `json:"runId"`
	ExportDate  string       `json:"exportDate"`
	JQL         string       `json:"jql"`
	TotalIssues int          `json:"totalIssues"`
	Issues      []IndexEntry `json:"issues"`
}

type IndexEntry struct {
	Key     string  `json:"key"`
	Summary *string `json:"summary"`
	Status  *string `json:"status"`
	File    string  `json:"file"`
}

func NewIndex(jql string) *Index {
	return &Index{
		RunID:      uuid.New().String(),
		ExportDate: time.Now().UTC().Format(ticket.ExportTimeFormat),
		JQL:        jql,
		Issues:     []IndexEntry{},
	}
}

// Add records a stored ticket.
func (idx *Index) Add(t *ticket.Ticket, location string) {
	idx.Issues = append(idx.Issues, IndexEntry{
		Key:     t.Key,
		Summary: t.Summary,
		Status:  t.Status,
		File:    location,
	})
	idx.TotalIssues = len(idx.Issues)
}
