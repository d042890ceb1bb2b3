package narrate

import (
	"regexp"
	"strings"
)

// Sentence splitting for TTS batching. The model is asked for short
// subtitle-style sentences, so a terminator-based split with an
// abbreviation guard is enough here.

var (
	sentenceEndRegex = regexp.MustCompile(`([.!?]+["')\]]*)(\s+|$)`)

	abbreviations = map[string]bool{
		"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
		"sr": true, "jr": true, "st": true, "vs": true, "etc": true,
		"i.e": true, "e.g": true, "inc": true, "ltd": true, "co": true,
		"no": true, "vol": true, "approx": true,
	}
)

// SplitSentences breaks text into trimmed sentences, keeping terminators.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	last := 0
	for _, loc := range sentenceEndRegex.FindAllStringIndex(text, -1) {
		candidate := strings.TrimSpace(text[last:loc[1]])
		if candidate == "" {
			continue
		}
		if endsWithAbbreviation(candidate) {
			continue
		}
		sentences = append(sentences, candidate)
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// endsWithAbbreviation reports whether the candidate's final token is a
// known abbreviation, meaning the period does not end a sentence.
func endsWithAbbreviation(candidate string) bool {
	trimmed := strings.TrimRight(candidate, `."')]!?`)
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return false
	}
	lastWord := strings.ToLower(fields[len(fields)-1])
	return abbreviations[lastWord]
}

// BatchSentences groups sentences into batches of at most size sentences,
// joined with single spaces. Each batch becomes one TTS request and one
// playback segment. A size below 1 is treated as 1.
func BatchSentences(sentences []string, size int) []string {
	if size < 1 {
		size = 1
	}
	var batches []string
	for i := 0; i < len(sentences); i += size {
		end := i + size
		if end > len(sentences) {
			end = len(sentences)
		}
		batches = append(batches, strings.Join(sentences[i:end], " "))
	}
	return batches
}
