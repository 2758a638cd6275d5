package retrieval

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/errors"
)

// Regex matches a case-insensitive RE2 pattern against raw document text.
type Regex struct{}

func (Regex) Name() string         { return MethodRegex }
func (Regex) ScoreType() ScoreType { return ScoreNone }

// Compile builds the case-insensitive matcher for pattern.
func Compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidPattern, http.StatusBadRequest, "invalid pattern: %v", err)
	}
	return re, nil
}

func (Regex) Search(ctx context.Context, snap *Snapshot, query string) (Outcome, error) {
	re, err := Compile(query)
	if err != nil {
		return Outcome{}, err
	}
	docs := snap.Docs.All()
	results := make([]Result, 0)
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if re.MatchString(doc.Text) {
			results = append(results, unscored(doc))
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return Outcome{Results: results, ScoreType: ScoreNone}, nil
}

// MatchCounts counts each distinct (lower-cased) substring re matches in text.
func MatchCounts(re *regexp.Regexp, text string) map[string]int {
	counts := make(map[string]int)
	for _, m := range re.FindAllString(text, -1) {
		if m == "" {
			continue
		}
		counts[strings.ToLower(m)]++
	}
	return counts
}

func (Regex) Explain(_ context.Context, snap *Snapshot, docID int64, query string) ([]string, error) {
	doc, err := lookupDoc(snap, docID)
	if err != nil {
		return nil, err
	}
	re, err := Compile(query)
	if err != nil {
		return nil, err
	}
	steps := []string{
		fmt.Sprintf("Pattern %q compiled case-insensitively as %s", query, re),
		"Matched against the raw document text",
	}
	locs := re.FindAllStringIndex(doc.Text, -1)
	if len(locs) == 0 {
		return append(steps, fmt.Sprintf("No match: document %d excluded", docID)), nil
	}
	for _, loc := range locs {
		steps = append(steps, fmt.Sprintf("Match %q at byte %d", doc.Text[loc[0]:loc[1]], loc[0]))
	}
	return append(steps, fmt.Sprintf("%d match(es): document %d included", len(locs), docID)), nil
}
