// Package simhash detects near-duplicate page text, such as the same
// article served under a mirror or a print URL.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
	"unicode"
)

// shingleSize is the number of consecutive words hashed together.
const shingleSize = 3

// Fingerprint computes a 64-bit SimHash of text. Words are lowercased and
// stripped of markup punctuation ("**", "[", "|" ...) so the same page
// rendered by two engines fingerprints alike, then hashed as 3-word
// shingles with FNV-64a. Texts shorter than one shingle hash word by word.
func Fingerprint(text string) uint64 {
	words := tokens(text)
	if len(words) == 0 {
		return 0
	}

	features := makeShingles(words, shingleSize)
	if len(features) == 0 {
		features = words
	}

	var vector [64]int
	for _, f := range features {
		h := fnv.New64a()
		h.Write([]byte(f))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two fingerprints are within threshold bits.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// Index remembers the fingerprints seen in one batch. The zero value is
// ready to use; it is not safe for concurrent use.
type Index struct {
	threshold int
	entries   []entry
}

type entry struct {
	fp  uint64
	key string
}

// NewIndex creates an Index matching within threshold bits.
func NewIndex(threshold int) *Index {
	return &Index{threshold: threshold}
}

// Match returns the key of the first remembered text similar to text.
func (x *Index) Match(text string) (string, bool) {
	fp := Fingerprint(text)
	if fp == 0 {
		return "", false
	}
	for _, e := range x.entries {
		if Similar(e.fp, fp, x.threshold) {
			return e.key, true
		}
	}
	return "", false
}

// Add remembers text under key.
func (x *Index) Add(key, text string) {
	if fp := Fingerprint(text); fp != 0 {
		x.entries = append(x.entries, entry{fp: fp, key: key})
	}
}

func tokens(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// makeShingles creates n-word shingles from a slice of tokens.
func makeShingles(words []string, n int) []string {
	if len(words) < n {
		return nil
	}

	shingles := make([]string, 0, len(words)-n+1)
	for i := 0; i <= len(words)-n; i++ {
		shingles = append(shingles, strings.Join(words[i:i+n], " "))
	}
	return shingles
}
