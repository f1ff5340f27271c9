package cite

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/doctrace/citegraph/internal/util"
	"github.com/doctrace/citegraph/pkg/common"
)

// Observation is one raw reference found in a chunk's text. Conjunctive
// forms ("Figures 5 and 6") expand into one observation per listed id, all
// sharing the span of the full match.
type Observation struct {
	Type     common.EntityType
	EntityID string
	Start    int
	End      int
}

// Config tunes the precision heuristics of the extractor. Equation and
// reference patterns are prone to false positives against bare numbers
// (measurements, years, page numbers), so both types require one of the
// configured lexical cues next to the number before a match counts.
type Config struct {
	// EquationCues are words that mark a bare parenthesized number as an
	// equation reference, as in "from (3)" or "using (12)".
	EquationCues []string

	// ReferenceCues are the keywords that introduce an unbracketed
	// bibliography reference, as in "Ref. 16" or "References 16 and 17".
	ReferenceCues []string
}

// DefaultConfig returns the cue tables used when the caller supplies none.
func DefaultConfig() Config {
	return Config{
		EquationCues: []string{
			"from", "using", "by", "in", "see", "substituting",
			"combining", "solving", "rearranging", "with",
		},
		ReferenceCues: []string{
			"ref", "refs", "reference", "references",
		},
	}
}

// Extractor scans chunk text for typed entity references. It never mutates
// the chunk and never fails on unmatched text: absence of a citation is not
// an error.
//
// An Extractor should be created with NewExtractor and is safe for use by
// concurrent goroutines.
type Extractor struct {
	rules []rule
}

type rule struct {
	entityType common.EntityType
	re         *regexp.Regexp
	ranges     bool
}

const (
	// listSep separates the ids of a conjunctive form. \s covers line
	// breaks, so a reference split across a line wrap still parses.
	listSep = `(?:\s*,\s*(?:and\s+)?|\s+and\s+|\s*&\s*)`

	plainID  = `\d+[a-zA-Z]?`
	parenID  = `\(?\d+[a-zA-Z]?\)?`
	rangeID  = `\d+(?:\s*[-–—]\s*\d+)?`
)

func listOf(item string) string {
	return item + `(?:` + listSep + item + `)*`
}

// NewExtractor compiles one pattern set per entity type from the given
// configuration. An empty cue list disables the corresponding pattern.
func NewExtractor(cfg Config) (*Extractor, error) {
	rules := []rule{
		{
			entityType: common.EntityFigure,
			re:         regexp.MustCompile(`(?i)\bfig(?:ure)?s?\.?\s+(` + listOf(plainID) + `)`),
		},
		{
			entityType: common.EntityTable,
			re:         regexp.MustCompile(`(?i)\btables?\s+(` + listOf(plainID) + `)`),
		},
		{
			entityType: common.EntityChapter,
			re:         regexp.MustCompile(`(?i)\bchapters?\s+(` + listOf(plainID) + `)`),
		},
		{
			entityType: common.EntityEquation,
			re:         regexp.MustCompile(`(?i)\b(?:equation|eq)s?\.?\s*(` + listOf(parenID) + `)`),
		},
		{
			entityType: common.EntityReference,
			re:         regexp.MustCompile(`\[(` + listOf(rangeID) + `)\]`),
			ranges:     true,
		},
	}

	if len(cfg.EquationCues) > 0 {
		re, err := cueRegexp(cfg.EquationCues, `\((`+plainID+`)\)`)
		if err != nil {
			return nil, fmt.Errorf("failed to compile equation cue pattern: %w", err)
		}
		rules = append(rules, rule{entityType: common.EntityEquation, re: re})
	}

	if len(cfg.ReferenceCues) > 0 {
		re, err := cueRegexp(cfg.ReferenceCues, `(`+listOf(plainID)+`)`)
		if err != nil {
			return nil, fmt.Errorf("failed to compile reference cue pattern: %w", err)
		}
		rules = append(rules, rule{entityType: common.EntityReference, re: re})
	}

	return &Extractor{rules: rules}, nil
}

func cueRegexp(cues []string, idPattern string) (*regexp.Regexp, error) {
	quoted := make([]string, 0, len(cues))
	for _, cue := range cues {
		cue = strings.TrimSpace(cue)
		if cue == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(cue))
	}
	return regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\.?\s+` + idPattern)
}

// Extract returns every reference observation in the chunk's text, ordered
// by position with a stable tie-break on entity type.
func (e *Extractor) Extract(chunk common.Chunk) []Observation {
	var obs []Observation

	for _, r := range e.rules {
		matches := r.re.FindAllStringSubmatchIndex(chunk.Text, -1)
		for _, m := range matches {
			span := chunk.Text[m[2]:m[3]]
			for _, id := range splitIDList(span, r.ranges) {
				obs = append(obs, Observation{
					Type:     r.entityType,
					EntityID: id,
					Start:    m[0],
					End:      m[1],
				})
			}
		}
	}

	sort.SliceStable(obs, func(i, j int) bool {
		if obs[i].Start != obs[j].Start {
			return obs[i].Start < obs[j].Start
		}
		return typeRank(obs[i].Type) < typeRank(obs[j].Type)
	})

	return obs
}

// Citations collapses the chunk's observations into one Citation per
// distinct (type, id) pair, in first-seen order, with the mention count set
// to the number of occurrences inside the chunk.
func (e *Extractor) Citations(chunk common.Chunk) []common.Citation {
	type key struct {
		t  common.EntityType
		id string
	}

	var citations []common.Citation
	index := make(map[key]int)

	for _, o := range e.Extract(chunk) {
		k := key{t: o.Type, id: o.EntityID}
		if i, ok := index[k]; ok {
			citations[i].MentionCount++
			continue
		}
		index[k] = len(citations)
		citations = append(citations, common.Citation{
			ChunkID:      chunk.ID,
			Type:         o.Type,
			EntityID:     o.EntityID,
			MentionCount: 1,
		})
	}

	return citations
}

var (
	sepRe   = regexp.MustCompile(`(?i)\s*(?:,|&|\band\b)\s*`)
	rangeRe = regexp.MustCompile(`^(\d+)\s*[-–—]\s*(\d+)$`)
)

// maxRangeSpan caps bracketed range expansion such as "[3-5]". Spans beyond
// the cap are almost always page or year ranges, not citation runs.
const maxRangeSpan = 50

func splitIDList(span string, expandRanges bool) []string {
	span = util.CollapseWhitespace(span)

	var ids []string
	for _, token := range sepRe.Split(span, -1) {
		token = strings.Trim(token, "() ")
		if token == "" {
			continue
		}

		if expandRanges {
			if m := rangeRe.FindStringSubmatch(token); m != nil {
				ids = append(ids, expandRange(m[1], m[2])...)
				continue
			}
		}

		ids = append(ids, token)
	}
	return ids
}

func expandRange(loStr, hiStr string) []string {
	lo, err := strconv.Atoi(loStr)
	if err != nil {
		return []string{loStr, hiStr}
	}
	hi, err := strconv.Atoi(hiStr)
	if err != nil {
		return []string{loStr, hiStr}
	}
	if hi < lo || hi-lo > maxRangeSpan {
		return []string{loStr, hiStr}
	}

	ids := make([]string, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		ids = append(ids, strconv.Itoa(n))
	}
	return ids
}

func typeRank(t common.EntityType) int {
	for i, known := range common.EntityTypes() {
		if known == t {
			return i
		}
	}
	return len(common.EntityTypes())
}
