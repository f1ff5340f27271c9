package query

import (
	"context"
	"reflect"
	"testing"

	"github.com/doctrace/citegraph/pkg/common"
	"github.com/doctrace/citegraph/pkg/graph"
)

func buildEngine(t *testing.T, chunks []common.Chunk) *Engine {
	t.Helper()

	client, err := graph.NewClient(graph.NewClientParams{ParallelChunks: 2})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	g, err := client.BuildGraph(context.Background(), "doc-1", chunks, nil)
	if err != nil {
		t.Fatalf("BuildGraph() error = %v", err)
	}
	return NewEngine(g)
}

func TestChunksCiting(t *testing.T) {
	e := buildEngine(t, []common.Chunk{
		{ID: "a", Text: "Figure 1 and Table 2."},
		{ID: "b", Text: "Figure 1 again."},
	})

	if got := e.ChunksCiting(common.EntityFigure, "1"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("ChunksCiting(figure, 1) = %v, want [a b]", got)
	}
	if got := e.ChunksCiting(common.EntityFigure, "42"); len(got) != 0 {
		t.Errorf("ChunksCiting(figure, 42) = %v, want empty", got)
	}
	if got := e.ChunksCiting(common.EntityChapter, "1"); len(got) != 0 {
		t.Errorf("ChunksCiting(chapter, 1) = %v, want empty", got)
	}
}

func TestCoCitedChunks(t *testing.T) {
	e := buildEngine(t, []common.Chunk{
		{ID: "p1", Text: "As shown in Figure 1 and Table 4, from Equation (1) we get the result."},
		{ID: "p2", Text: "Figure 1 is also referenced here."},
		{ID: "p3", Text: "Figure 1 and Table 4 both matter."},
		{ID: "p4", Text: "Nothing cited."},
	})

	got := e.CoCitedChunks("p1", 1)
	want := []CoCitation{
		{ChunkID: "p3", SharedEntities: 2},
		{ChunkID: "p2", SharedEntities: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CoCitedChunks(p1, 1) = %v, want %v", got, want)
	}
}

func TestCoCitedChunksScenario(t *testing.T) {
	e := buildEngine(t, []common.Chunk{
		{ID: "p1", Text: "As shown in Figure 1 and Table 4, from Equation (1) we get the result."},
		{ID: "p2", Text: "Figure 1 is also referenced here."},
	})

	got := e.CoCitedChunks("p1", 1)
	want := []CoCitation{{ChunkID: "p2", SharedEntities: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CoCitedChunks(p1, 1) = %v, want %v", got, want)
	}
}

func TestCoCitationSymmetry(t *testing.T) {
	e := buildEngine(t, []common.Chunk{
		{ID: "a", Text: "Figure 1, Table 2 and [3]."},
		{ID: "b", Text: "Figure 1 and Table 2."},
		{ID: "c", Text: "Only [3] here."},
		{ID: "d", Text: "Chapter 9."},
	})

	for _, chunkID := range []string{"a", "b", "c", "d"} {
		for _, co := range e.CoCitedChunks(chunkID, 1) {
			mirrored := e.CoCitedChunks(co.ChunkID, 1)
			found := false
			for _, m := range mirrored {
				if m.ChunkID == chunkID && m.SharedEntities == co.SharedEntities {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("co-citation %s -> %s (%d) has no mirror", chunkID, co.ChunkID, co.SharedEntities)
			}
		}
	}
}

func TestCoCitedChunksTieBreak(t *testing.T) {
	e := buildEngine(t, []common.Chunk{
		{ID: "z", Text: "Figure 1."},
		{ID: "m", Text: "Figure 1."},
		{ID: "a", Text: "Figure 1."},
	})

	got := e.CoCitedChunks("z", 1)
	want := []CoCitation{
		{ChunkID: "a", SharedEntities: 1},
		{ChunkID: "m", SharedEntities: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CoCitedChunks(z, 1) = %v, want %v", got, want)
	}
}

func TestCitationDensity(t *testing.T) {
	e := buildEngine(t, []common.Chunk{
		{ID: "a", Text: "Figure 1, Figure 1 again, Table 2, Eq. 3 and [4]."},
		{ID: "b", Text: "plain text"},
	})

	if got := e.CitationDensity("a"); got != 4 {
		t.Errorf("CitationDensity(a) = %d, want 4", got)
	}
	if got := e.CitationDensity("b"); got != 0 {
		t.Errorf("CitationDensity(b) = %d, want 0", got)
	}
	if got := e.CitationDensity("missing"); got != 0 {
		t.Errorf("CitationDensity(missing) = %d, want 0", got)
	}
}

func TestIsDenseMonotonic(t *testing.T) {
	e := buildEngine(t, []common.Chunk{
		{ID: "a", Text: "Figure 1, Table 2, Eq. 3 and [4]."},
	})

	for threshold := 10; threshold >= 0; threshold-- {
		if e.IsDense("a", threshold) {
			// Dense at this threshold implies dense at every lower one.
			for lower := threshold - 1; lower >= 0; lower-- {
				if !e.IsDense("a", lower) {
					t.Errorf("IsDense(a, %d) = true but IsDense(a, %d) = false", threshold, lower)
				}
			}
			break
		}
	}

	if !e.IsDense("a", 3) {
		t.Errorf("IsDense(a, 3) = false, want true")
	}
	if e.IsDense("a", 4) {
		t.Errorf("IsDense(a, 4) = true, want false")
	}
}
