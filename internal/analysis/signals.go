package analysis

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var experiencePattern = regexp.MustCompile(`(?i)(\d+)\s*(years|year)`)

// ExtractExperience sums every "<n> year(s)" mention in text.
// Repeated mentions are counted each time and ranges are not interpreted.
// Numbers too large for an int are ignored.
func ExtractExperience(text string) int {
	total := 0
	for _, m := range experiencePattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if total > math.MaxInt-n {
			total = math.MaxInt
			continue
		}
		total += n
	}
	return total
}

var educationKeywords = []string{"b.tech", "m.tech", "bachelor", "master", "mba", "bca", "mca"}

// DetectEducation returns the upper-cased education keywords present in text,
// in keyword order.
func DetectEducation(text string) []string {
	found := make([]string, 0, len(educationKeywords))
	for _, kw := range educationKeywords {
		if strings.Contains(text, kw) {
			found = append(found, strings.ToUpper(kw))
		}
	}
	return found
}

var (
	actionVerbs = []string{
		"developed", "implemented", "designed", "led", "managed", "created",
		"built", "improved", "optimized", "increased", "reduced", "achieved",
		"launched", "delivered", "analyzed", "automated",
	}
	weakPhrases = []string{
		"responsible for", "worked on", "helped", "assisted",
		"duties included", "involved in", "familiar with",
	}
	quantifiedPattern = regexp.MustCompile(`\d+%`)
)

// WritingQuality scores how results-oriented the resume language is.
type WritingQuality struct {
	VerbCount  int `json:"verbCount"`
	WeakCount  int `json:"weakCount"`
	QuantCount int `json:"quantCount"`
	Score      int `json:"score"`
}

// ScoreWriting counts action verbs, weak phrases and percentage figures.
// Each verb and each figure is worth 5 points, each weak phrase costs 3;
// the score is clamped to [0, 100].
func ScoreWriting(text string) WritingQuality {
	wq := WritingQuality{
		VerbCount:  countAll(text, actionVerbs),
		WeakCount:  countAll(text, weakPhrases),
		QuantCount: len(quantifiedPattern.FindAllStringIndex(text, -1)),
	}
	wq.Score = clamp(wq.VerbCount*5+wq.QuantCount*5-wq.WeakCount*3, 0, 100)
	return wq
}

func countAll(text string, terms []string) int {
	n := 0
	for _, t := range terms {
		n += strings.Count(text, t)
	}
	return n
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
