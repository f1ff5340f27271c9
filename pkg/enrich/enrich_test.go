package enrich

import (
	"context"
	"reflect"
	"testing"

	"github.com/doctrace/citegraph/pkg/common"
	"github.com/doctrace/citegraph/pkg/graph"
)

func buildGraph(t *testing.T, chunks []common.Chunk) *common.CitationGraph {
	t.Helper()

	client, err := graph.NewClient(graph.NewClientParams{ParallelChunks: 2})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	g, err := client.BuildGraph(context.Background(), "doc-1", chunks, nil)
	if err != nil {
		t.Fatalf("BuildGraph() error = %v", err)
	}
	return g
}

func TestEnrich(t *testing.T) {
	g := buildGraph(t, []common.Chunk{
		{ID: "a", Text: "Figures 1 and 2, Table 3, from Equation (4) and [5]."},
		{ID: "b", Text: "no citations at all"},
	})

	e := NewEnricher(g, 3)

	got := e.Enrich("a")
	want := Metadata{
		ChunkID:         "a",
		CitedFigures:    []string{"1", "2"},
		CitedTables:     []string{"3"},
		CitedEquations:  []string{"4"},
		CitedChapters:   []string{},
		CitedReferences: []string{"5"},
		TotalCitations:  5,
		HasFigures:      true,
		HasTables:       true,
		HasEquations:    true,
		HasChapters:     false,
		HasReferences:   true,
		IsDense:         true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Enrich(a) = %#v, want %#v", got, want)
	}
}

func TestEnrichZeroCitations(t *testing.T) {
	g := buildGraph(t, []common.Chunk{
		{ID: "b", Text: "no citations at all"},
	})

	e := NewEnricher(g, 3)

	got := e.Enrich("b")
	if got.TotalCitations != 0 || got.IsDense {
		t.Errorf("Enrich(b) = %#v, want zero citations and not dense", got)
	}
	for _, list := range [][]string{got.CitedFigures, got.CitedTables, got.CitedEquations, got.CitedChapters, got.CitedReferences} {
		if len(list) != 0 {
			t.Errorf("Enrich(b) has non-empty list %v", list)
		}
	}
	if got.HasFigures || got.HasTables || got.HasEquations || got.HasChapters || got.HasReferences {
		t.Errorf("Enrich(b) has true flags: %#v", got)
	}
}

func TestEnrichAll(t *testing.T) {
	g := buildGraph(t, []common.Chunk{
		{ID: "a", Text: "Figure 1."},
		{ID: "b", Text: "plain"},
	})

	records := NewEnricher(g, 0).EnrichAll()

	if len(records) != 2 {
		t.Fatalf("EnrichAll() returned %d records, want 2", len(records))
	}
	if !records["a"].IsDense {
		t.Errorf("chunk a should be dense at threshold 0")
	}
	if records["b"].IsDense {
		t.Errorf("chunk b should not be dense")
	}
}
