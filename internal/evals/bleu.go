// Package evals scores generated answers against references, used by the
// offline retrieval-quality harness.
package evals

import (
	"math"
	"strings"
)

const bleuMaxN = 4

// smoothing added to zero n-gram precisions so a single missing order does
// not zero the whole score.
const bleuEpsilon = 1e-9

// SentenceBLEU computes sentence-level BLEU-4 of candidate against a single
// reference, tokenized on whitespace, case-insensitive.
func SentenceBLEU(reference, candidate string) float64 {
	ref := tokenize(reference)
	cand := tokenize(candidate)
	if len(cand) == 0 || len(ref) == 0 {
		return 0
	}

	logSum := 0.0
	for n := 1; n <= bleuMaxN; n++ {
		p := modifiedPrecision(ref, cand, n)
		if p == 0 {
			p = bleuEpsilon
		}
		logSum += math.Log(p)
	}
	score := math.Exp(logSum / bleuMaxN)

	return brevityPenalty(len(ref), len(cand)) * score
}

// CorpusBLEU computes corpus-level BLEU-4 over paired candidates and
// references on a 0 to 100 scale, pooling n-gram statistics across all
// pairs before taking the geometric mean.
func CorpusBLEU(candidates, references []string) float64 {
	if len(candidates) == 0 || len(candidates) != len(references) {
		return 0
	}

	var refLen, candLen int
	matched := make([]int, bleuMaxN+1)
	total := make([]int, bleuMaxN+1)
	for i := range candidates {
		ref := tokenize(references[i])
		cand := tokenize(candidates[i])
		refLen += len(ref)
		candLen += len(cand)
		for n := 1; n <= bleuMaxN; n++ {
			m, t := clippedMatches(ref, cand, n)
			matched[n] += m
			total[n] += t
		}
	}
	if candLen == 0 || refLen == 0 {
		return 0
	}

	logSum := 0.0
	for n := 1; n <= bleuMaxN; n++ {
		p := 0.0
		if total[n] > 0 {
			p = float64(matched[n]) / float64(total[n])
		}
		if p == 0 {
			p = bleuEpsilon
		}
		logSum += math.Log(p)
	}
	score := math.Exp(logSum / bleuMaxN)

	return 100 * brevityPenalty(refLen, candLen) * score
}

// EvaluatePair scores one candidate answer against its reference with both
// BLEU variants, keyed by metric name.
func EvaluatePair(candidate, reference string) map[string]float64 {
	return map[string]float64{
		"bleu_sentence": SentenceBLEU(reference, candidate),
		"bleu_corpus":   CorpusBLEU([]string{candidate}, []string{reference}),
	}
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// modifiedPrecision clips candidate n-gram counts by their reference counts.
func modifiedPrecision(ref, cand []string, n int) float64 {
	matched, total := clippedMatches(ref, cand, n)
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

func clippedMatches(ref, cand []string, n int) (matched, total int) {
	candCounts := ngramCounts(cand, n)
	refCounts := ngramCounts(ref, n)
	for gram, c := range candCounts {
		total += c
		if r := refCounts[gram]; r < c {
			matched += r
		} else {
			matched += c
		}
	}
	return matched, total
}

func ngramCounts(tokens []string, n int) map[string]int {
	counts := map[string]int{}
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], " ")]++
	}
	return counts
}

func brevityPenalty(refLen, candLen int) float64 {
	if candLen >= refLen {
		return 1
	}
	return math.Exp(1 - float64(refLen)/float64(candLen))
}
