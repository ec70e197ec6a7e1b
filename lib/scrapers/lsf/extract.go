package lsf

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"lsfassist-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

// the portal prints one of these divs above each semester's section,
// partitioning the lectures page into term blocks in document order
const termHeaderClass = "Leistungen_Inhalt"

// tried most specific first; the first pattern that matches any header
// wins and the remaining patterns are never consulted
var defaultTermPatterns = []string{
	`Wintersemester\s*2025/26`,
	`(Wintersemester|Sommersemester)\s*\d{4}(/\d{2})?`,
}

// anchors whose text matches any of these are administrative noise
// (timetable columns, schedule exports, navigation), never classes
var noiseTokens = []string{
	"Tag", "Zeit", "Rhythmus", "Dauer", "Raum", "Lehrperson",
	"Hinweis", "Belegungsinformation", "findet statt", "Belegungs-",
	"PDF", "Stundenplan", "Anmelden", "Login", "Abmelden",
}

var classIdPattern = regexp.MustCompile(`\d{4,6}`)

// legacy marker phrases from the pre-redesign lectures layout
const legacyStartMarker = "Aktuelle Veranstaltungen"

func compileTermPatterns(exactTerm string) []*regexp.Regexp {
	raw := defaultTermPatterns
	if exactTerm != "" {
		raw = append(
			[]string{regexp.QuoteMeta(exactTerm)},
			defaultTermPatterns[1:]...,
		)
	}
	compiled := make([]*regexp.Regexp, len(raw))
	for i, p := range raw {
		compiled[i] = regexp.MustCompile(`(?i)` + p)
	}
	return compiled
}

// ExtractCurrentClasses pulls the class names of the active term out of
// the lectures page markup. A page without a recognizable term section
// yields an empty list, not an error.
func ExtractCurrentClasses(ctx context.Context, markup string, exactTerm string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "ExtractCurrentClasses")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse lectures page html")
		return nil, err
	}

	start, end, found := findSemesterBounds(ctx, doc, compileTermPatterns(exactTerm))
	if !found {
		slog.WarnContext(ctx, "could not find current semester header")
		if strings.Contains(htmlutil.Normalize(doc.Text()), legacyStartMarker) {
			return legacyExtract(ctx), nil
		}
		return nil, nil
	}

	names := classifyCandidates(ctx, start, end)
	span.SetAttributes(attribute.Int("class_count", len(names)))
	return names, nil
}

// findSemesterBounds locates the header of the active term and the
// header of the term after it. A nil end node means the section runs to
// the end of the document.
func findSemesterBounds(
	ctx context.Context,
	doc *goquery.Document,
	patterns []*regexp.Regexp,
) (start *html.Node, end *html.Node, found bool) {
	headers := doc.Find("div." + termHeaderClass).Nodes

	startIdx := -1
	for _, p := range patterns {
		for i, header := range headers {
			text := htmlutil.Normalize(htmlutil.GetText(header))
			if p.MatchString(text) {
				slog.InfoContext(ctx, "found semester header", "text", text)
				startIdx = i
				break
			}
		}
		if startIdx >= 0 {
			break
		}
	}
	if startIdx < 0 {
		return nil, nil, false
	}

	start = headers[startIdx]
	if startIdx+1 < len(headers) {
		end = headers[startIdx+1]
	}
	return start, end, true
}

// nextInDocument yields the successor of n in document order, the same
// order the markup was parsed in.
func nextInDocument(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for n != nil {
		if n.NextSibling != nil {
			return n.NextSibling
		}
		n = n.Parent
	}
	return nil
}

func isAnchor(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "a"
}

// classifyCandidates walks the nodes strictly between the semester
// bounds and filters the anchors found there down to unique class
// names in first-occurrence document order.
func classifyCandidates(ctx context.Context, start *html.Node, end *html.Node) []string {
	var candidates []*html.Node
	for n := nextInDocument(start); n != nil && n != end; n = nextInDocument(n) {
		if isAnchor(n) {
			candidates = append(candidates, n)
		}
	}

	var names []string
	seen := map[string]bool{}
	for _, link := range candidates {
		text := htmlutil.Normalize(htmlutil.GetText(link))
		if !isClassEntry(text) {
			continue
		}
		if seen[text] {
			continue
		}
		seen[text] = true
		names = append(names, text)
		slog.InfoContext(ctx, "found class", "name", text)
	}
	return names
}

// isClassEntry reports whether normalized anchor text names a class.
// Class links carry a 4-6 digit course id; everything matching a noise
// token or shorter than 5 characters is administrative clutter.
func isClassEntry(text string) bool {
	if !classIdPattern.MatchString(text) {
		return false
	}
	lower := strings.ToLower(text)
	for _, token := range noiseTokens {
		if strings.Contains(lower, strings.ToLower(token)) {
			return false
		}
	}
	return utf8.RuneCountInString(text) >= 5
}

// legacyExtract handles the old lectures layout keyed on the "Aktuelle
// Veranstaltungen" marker phrase. Index-based extraction for that
// layout was never carried over from the previous portal version, so
// detecting the marker yields no entries. Known limitation.
func legacyExtract(ctx context.Context) []string {
	_, span := tracer.Start(ctx, "legacyExtract", trace.WithAttributes(
		attribute.String("marker", legacyStartMarker),
	))
	defer span.End()

	slog.InfoContext(ctx, "fell back to legacy lectures marker", "marker", legacyStartMarker)
	return nil
}
