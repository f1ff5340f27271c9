package cite

import (
	"reflect"
	"testing"

	"github.com/doctrace/citegraph/pkg/common"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(DefaultConfig())
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}
	return e
}

func citationKeys(citations []common.Citation) []string {
	keys := make([]string, 0, len(citations))
	for _, c := range citations {
		keys = append(keys, string(c.Type)+"/"+c.EntityID)
	}
	return keys
}

func TestExtractorCitations(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "empty text",
			text: "",
			want: []string{},
		},
		{
			name: "single figure",
			text: "As shown in Figure 3, the trend continues.",
			want: []string{"figure/3"},
		},
		{
			name: "abbreviated figure",
			text: "See Fig. 12 for details.",
			want: []string{"figure/12"},
		},
		{
			name: "conjunctive figures",
			text: "Figures 5 and 6 show the measured response.",
			want: []string{"figure/5", "figure/6"},
		},
		{
			name: "serial comma figure list",
			text: "Figures 5, 6, and 7 compare the three cases.",
			want: []string{"figure/5", "figure/6", "figure/7"},
		},
		{
			name: "table with alphanumeric suffix",
			text: "Table 8a and Table 8b list the coefficients.",
			want: []string{"table/8a", "table/8b"},
		},
		{
			name: "chapter",
			text: "Chapter 4 covers boundary conditions.",
			want: []string{"chapter/4"},
		},
		{
			name: "named equation",
			text: "Equation (7) gives the steady state.",
			want: []string{"equation/7"},
		},
		{
			name: "abbreviated equation",
			text: "Substituting into Eq. 3 yields the result.",
			want: []string{"equation/3"},
		},
		{
			name: "cue gated parenthesized equation",
			text: "from (2) we obtain the pressure drop",
			want: []string{"equation/2"},
		},
		{
			name: "bare parenthesized number without cue",
			text: "The sample weighed (42) grams in total.",
			want: []string{},
		},
		{
			name: "measurement is not an equation",
			text: "The pressure reached 149 kPa during the test.",
			want: []string{},
		},
		{
			name: "bracketed reference",
			text: "This was first reported in [16].",
			want: []string{"reference/16"},
		},
		{
			name: "bracketed reference list",
			text: "Several studies [4, 7, 9] agree.",
			want: []string{"reference/4", "reference/7", "reference/9"},
		},
		{
			name: "bracketed reference range",
			text: "See [3-5] for the full derivation.",
			want: []string{"reference/3", "reference/4", "reference/5"},
		},
		{
			name: "ref keyword",
			text: "Ref. 21 describes the original apparatus.",
			want: []string{"reference/21"},
		},
		{
			name: "newline inside conjunctive reference",
			text: "as discussed in References 16\nand 17 above",
			want: []string{"reference/16", "reference/17"},
		},
		{
			name: "newline inside figure list",
			text: "Figures 5\nand 6 show the decay.",
			want: []string{"figure/5", "figure/6"},
		},
		{
			name: "mixed types keep text order",
			text: "As shown in Figure 1 and Table 4, from Equation (1) we get [2].",
			want: []string{"figure/1", "table/4", "equation/1", "reference/2"},
		},
		{
			name: "year is not a citation",
			text: "The survey was repeated in 2019 and 2021.",
			want: []string{},
		},
	}

	e := newTestExtractor(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := citationKeys(e.Citations(common.Chunk{ID: "c1", Text: tt.text}))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Citations() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCitationsMentionCount(t *testing.T) {
	e := newTestExtractor(t)

	text := "Figure 2 shows the setup. Later, Figure 2 is revisited, together with Figure 3."
	got := e.Citations(common.Chunk{ID: "c1", Text: text})

	want := []common.Citation{
		{ChunkID: "c1", Type: common.EntityFigure, EntityID: "2", MentionCount: 2},
		{ChunkID: "c1", Type: common.EntityFigure, EntityID: "3", MentionCount: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Citations() = %#v, want %#v", got, want)
	}
}

func TestConjunctiveExpansionCounts(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Citations(common.Chunk{ID: "c1", Text: "Figures 5 and 6 show the effect."})

	if len(got) != 2 {
		t.Fatalf("Citations() returned %d records, want 2", len(got))
	}
	for _, c := range got {
		if c.MentionCount != 1 {
			t.Errorf("mention count for %s/%s = %d, want 1", c.Type, c.EntityID, c.MentionCount)
		}
	}
}

func TestExtractSpansOrdered(t *testing.T) {
	e := newTestExtractor(t)

	obs := e.Extract(common.Chunk{ID: "c1", Text: "Table 4 follows Figure 1 in the text."})
	if len(obs) != 2 {
		t.Fatalf("Extract() returned %d observations, want 2", len(obs))
	}
	if obs[0].Type != common.EntityTable || obs[1].Type != common.EntityFigure {
		t.Errorf("Extract() order = [%s %s], want [table figure]", obs[0].Type, obs[1].Type)
	}
	for i, o := range obs {
		if o.Start < 0 || o.End <= o.Start {
			t.Errorf("observation[%d] has invalid span [%d, %d)", i, o.Start, o.End)
		}
	}
	if obs[0].Start > obs[1].Start {
		t.Errorf("observations not ordered by position: %d > %d", obs[0].Start, obs[1].Start)
	}
}

func TestCustomCueTable(t *testing.T) {
	e, err := NewExtractor(Config{
		EquationCues: []string{"per"},
	})
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}

	got := citationKeys(e.Citations(common.Chunk{ID: "c1", Text: "per (9) the flux is bounded, from (2) it is not"}))
	want := []string{"equation/9"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Citations() = %v, want %v", got, want)
	}
}

func TestLongRangeNotExpanded(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Citations(common.Chunk{ID: "c1", Text: "pages [100-900] in the appendix"})
	want := []string{"reference/100", "reference/900"}
	if !reflect.DeepEqual(citationKeys(got), want) {
		t.Errorf("Citations() = %v, want %v", citationKeys(got), want)
	}
}
