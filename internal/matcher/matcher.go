package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/homologa-digital/homologa/internal/common"
	"github.com/homologa-digital/homologa/internal/model"
)

// Scoring weights for the four independent match signals.
const (
	exactKeywordScore   = 1.0
	phraseVerbatimScore = 0.8
	phrasePartialScore  = 0.4
	aliasScore          = 0.6
	fuzzyScore          = 0.4

	phraseOverlapThreshold = 0.5
	fuzzyThreshold         = 0.5
	fuzzyMinTokenLen       = 4
)

// stopwords are tokens that never count as unmatched terms: articles,
// prepositions, and the verbs customers use to ask for a homologation.
var stopwords = map[string]struct{}{
	"el": {}, "la": {}, "los": {}, "las": {}, "un": {}, "una": {}, "unos": {}, "unas": {},
	"de": {}, "del": {}, "al": {}, "a": {}, "en": {}, "con": {}, "por": {}, "para": {},
	"y": {}, "e": {}, "o": {}, "u": {}, "que": {}, "mi": {}, "su": {}, "me": {}, "le": {},
	"es": {}, "ha": {}, "he": {}, "si": {}, "no": {}, "mas": {}, "tambien": {}, "ademas": {},
	"quiero": {}, "quisiera": {}, "querria": {}, "necesito": {}, "deseo": {}, "gustaria": {},
	"homologar": {}, "homologacion": {}, "legalizar": {}, "certificar": {}, "tramitar": {},
	"poner": {}, "instalar": {}, "instalado": {}, "montar": {}, "montado": {}, "cambiar": {},
	"cambiado": {}, "llevar": {}, "llevo": {}, "tengo": {}, "tiene": {}, "hacer": {},
	"moto": {}, "motocicleta": {}, "coche": {}, "vehiculo": {}, "furgoneta": {},
}

// Matcher scores catalog elements against free-text descriptions. It is a
// pure function over the element list handed to Match; no state is retained
// between calls.
type Matcher struct{}

// NewMatcher creates a new element matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Match scores every element against the description and returns the ranked
// matches plus the meaningful tokens that matched nothing. Elements that are
// variant parents are still returned here; rejecting them until a variant is
// chosen is the classifier's job.
func (m *Matcher) Match(description string, elements []model.Element) MatchResult {
	normDesc := common.Normalize(description)
	tokens := common.Tokenize(description)

	matchedTokens := make(map[string]struct{})
	matches := make([]ElementMatch, 0, len(elements))

	for i := range elements {
		e := &elements[i]
		score, signals := m.scoreElement(e, normDesc, tokens, matchedTokens)
		if score > 0 {
			matches = append(matches, ElementMatch{
				Element: e,
				Score:   score,
				Signals: signals,
			})
		}
	}

	// Descending by score; SliceStable keeps catalog order on ties.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return MatchResult{
		Matches:        matches,
		UnmatchedTerms: unmatchedTerms(tokens, matchedTokens),
	}
}

// scoreElement applies the four additive signals for one element and records
// which input tokens participated.
func (m *Matcher) scoreElement(e *model.Element, normDesc string, tokens []string, matchedTokens map[string]struct{}) (float64, []string) {
	var score float64
	var signals []string

	for _, kw := range e.Keywords {
		nk := common.Normalize(kw)
		if nk == "" {
			continue
		}

		if !strings.Contains(nk, " ") {
			if hasToken(tokens, nk) {
				score += exactKeywordScore
				signals = append(signals, "keyword:"+nk)
				matchedTokens[nk] = struct{}{}
				continue
			}

			// Fuzzy trigram pass for near-miss spellings of single-word
			// keywords. Exact hits were handled above.
			if best, tok := bestTrigramMatch(tokens, nk); best > fuzzyThreshold {
				score += fuzzyScore * best
				signals = append(signals, fmt.Sprintf("fuzzy:%s~%s", tok, nk))
				matchedTokens[tok] = struct{}{}
			}
			continue
		}

		words := strings.Fields(nk)
		ratio := common.WordOverlap(tokens, words)
		if ratio > phraseOverlapThreshold {
			if strings.Contains(normDesc, nk) {
				score += phraseVerbatimScore
				signals = append(signals, "phrase:"+nk)
			} else {
				score += phrasePartialScore * ratio
				signals = append(signals, fmt.Sprintf("phrase-partial:%s(%.2f)", nk, ratio))
			}
			for _, w := range words {
				if hasToken(tokens, w) {
					matchedTokens[w] = struct{}{}
				}
			}
		}
	}

	for _, alias := range e.Aliases {
		na := common.Normalize(alias)
		if na == "" {
			continue
		}
		if hasToken(tokens, na) || strings.Contains(normDesc, na) {
			score += aliasScore
			signals = append(signals, "alias:"+na)
			for _, w := range strings.Fields(na) {
				matchedTokens[w] = struct{}{}
			}
		}
	}

	return score, signals
}

// bestTrigramMatch finds the input token most similar to the keyword.
func bestTrigramMatch(tokens []string, keyword string) (float64, string) {
	var best float64
	var bestToken string

	for _, tok := range tokens {
		if len([]rune(tok)) < fuzzyMinTokenLen || tok == keyword {
			continue
		}
		if sim := common.TrigramSimilarity(tok, keyword); sim > best {
			best = sim
			bestToken = tok
		}
	}

	return best, bestToken
}

// unmatchedTerms reports the tokens that matched no element, for use in
// disambiguation prompts. Stopwords and very short tokens are not worth
// asking about.
func unmatchedTerms(tokens []string, matched map[string]struct{}) []string {
	unmatched := make([]string, 0)
	seen := make(map[string]struct{})

	for _, tok := range tokens {
		if len([]rune(tok)) < 3 {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		if _, ok := matched[tok]; ok {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		unmatched = append(unmatched, tok)
	}

	return unmatched
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}
