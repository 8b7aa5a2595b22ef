// Package decode implements the Viterbi-based pinyin-to-character
// decoders: a stateless batch decoder over a finite pinyin sequence,
// and an incremental decoder that grows a trellis one keystroke at a
// time.
package decode

import (
	"sort"

	"github.com/pinyinhmm/pyhmm/internal/hmm"
	"github.com/pinyinhmm/pyhmm/internal/lexicon"
)

// Model bundles the three immutable resources every decoder needs.
// Passed explicitly to every constructor instead of living behind
// package-level globals or singletons.
type Model struct {
	Params  *hmm.Store
	Lexicon *lexicon.Lexicon
	Bonus   *hmm.Bonus // nil is a valid, no-op bonus table
}

// batchEntry is one character's slot in a batch-decode trellis layer.
// Layers are kept as ordered slices, not maps: ties in every argmax
// below break toward the first-encountered character in lexicon
// candidate order, which only a stable, ordered structure can give
// deterministically.
type batchEntry struct {
	char    rune
	score   float64
	back    rune
	hasBack bool
}

type batchLayer []batchEntry

func (l batchLayer) find(c rune) (batchEntry, bool) {
	for _, e := range l {
		if e.char == c {
			return e, true
		}
	}

	return batchEntry{}, false
}

// Candidate is a ranked decode result.
type Candidate struct {
	Text  string
	Score float64
}

// DecodeBest returns the Viterbi-optimal character string for
// pinyinSeq, maximizing emit + init + transition + bonus across the
// whole sequence. Empty input returns "".
//
// A pinyin token with no lexicon candidates produces an empty layer.
// The back-trace from the final layer stops at the first empty layer
// it meets going backward, returning only the traced suffix — this
// reproduces the reference decoder's tolerance rather than treating a
// dead token as fatal; see the open question in the design notes.
func (m *Model) DecodeBest(pinyinSeq []string) string {
	if len(pinyinSeq) == 0 {
		return ""
	}

	layers := m.buildLayers(pinyinSeq)

	last := layers[len(layers)-1]
	if len(last) == 0 {
		return ""
	}

	bestChar := argmaxLayer(last)

	return backtrace(layers, len(layers)-1, bestChar)
}

// buildLayers runs the forward Viterbi pass, one layer per token.
func (m *Model) buildLayers(pinyinSeq []string) []batchLayer {
	layers := make([]batchLayer, len(pinyinSeq))

	for t, py := range pinyinSeq {
		cands := m.Lexicon.CandidatesOf(py)
		if len(cands) == 0 {
			layers[t] = batchLayer{}
			continue
		}

		layer := make(batchLayer, 0, len(cands))

		if t == 0 || len(layers[t-1]) == 0 {
			for _, c := range cands {
				layer = append(layer, batchEntry{
					char:  c,
					score: m.Params.GetInit(c) + m.Params.GetEmit(c, py),
				})
			}
		} else {
			prev := layers[t-1]

			for _, c := range cands {
				best, bestPrev, ok := bestPredecessor(prev, c, m.Params, m.Bonus)
				if !ok {
					continue
				}

				layer = append(layer, batchEntry{
					char:    c,
					score:   best + m.Params.GetEmit(c, py),
					back:    bestPrev,
					hasBack: true,
				})
			}
		}

		layers[t] = layer
	}

	return layers
}

// bestPredecessor finds, among prev's characters, the one maximizing
// prevScore + trans(prev,c) + bonus(prev,c). Ties break toward the
// first-encountered predecessor in prev's own candidate order.
func bestPredecessor(prev batchLayer, c rune, params *hmm.Store, bonus *hmm.Bonus) (float64, rune, bool) {
	best := 0.0
	bestPrev := rune(0)
	found := false

	for _, e := range prev {
		score := e.score + params.GetTrans(e.char, c) + bonus.Get(e.char, c)
		if !found || score > best {
			best = score
			bestPrev = e.char
			found = true
		}
	}

	return best, bestPrev, found
}

// argmaxLayer returns the character with the highest score in layer,
// breaking ties toward the first-encountered candidate.
func argmaxLayer(layer batchLayer) rune {
	best := layer[0]

	for _, e := range layer[1:] {
		if e.score > best.score {
			best = e
		}
	}

	return best.char
}

// backtrace walks back-pointers from (layers[idx], start) until it
// reaches layer 0 or an empty layer, and returns the traced suffix in
// forward order.
func backtrace(layers []batchLayer, idx int, start rune) string {
	chars := make([]rune, 0, idx+1)
	cur := start

	for t := idx; t >= 0; t-- {
		entry, ok := layers[t].find(cur)
		if !ok {
			break
		}

		chars = append(chars, cur)

		if !entry.hasBack {
			break
		}

		cur = entry.back
	}

	reverse(chars)

	return string(chars)
}

func reverse(r []rune) {
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
}

// path is one live hypothesis during beam search.
type path struct {
	score    float64
	chars    []rune
	lastChar rune
}

// DecodeTopK returns the top-k decoded strings by beam search, not
// true k-best: at each step at most beamSize paths survive, each
// extended by every candidate of the next token, and the highest
// beamSize survive pruning. If beamSize <= 0, it defaults to k.
//
// A token with no candidates short-circuits the walk: DecodeTopK
// returns the best k of the beam as it stood before that token.
func (m *Model) DecodeTopK(pinyinSeq []string, k, beamSize int) []Candidate {
	if len(pinyinSeq) == 0 || k <= 0 {
		return nil
	}

	if beamSize <= 0 {
		beamSize = k
	}

	first := m.Lexicon.CandidatesOf(pinyinSeq[0])

	beam := make([]path, 0, len(first))
	for _, c := range first {
		beam = append(beam, path{
			score:    m.Params.GetInit(c) + m.Params.GetEmit(c, pinyinSeq[0]),
			chars:    []rune{c},
			lastChar: c,
		})
	}

	beam = topPaths(beam, beamSize)

	for _, py := range pinyinSeq[1:] {
		cands := m.Lexicon.CandidatesOf(py)
		if len(cands) == 0 {
			break
		}

		next := make([]path, 0, len(beam)*len(cands))

		for _, p := range beam {
			for _, c := range cands {
				score := p.score + m.Params.GetTrans(p.lastChar, c) + m.Bonus.Get(p.lastChar, c) + m.Params.GetEmit(c, py)
				chars := make([]rune, len(p.chars)+1)
				copy(chars, p.chars)
				chars[len(p.chars)] = c
				next = append(next, path{score: score, chars: chars, lastChar: c})
			}
		}

		if len(next) == 0 {
			break
		}

		beam = topPaths(next, beamSize)
	}

	top := topPaths(beam, k)

	out := make([]Candidate, len(top))
	for i, p := range top {
		out[i] = Candidate{Text: string(p.chars), Score: p.score}
	}

	return out
}

// topPaths sorts by descending score (ties broken by lexicographically
// smaller string for determinism) and returns at most n.
func topPaths(paths []path, n int) []path {
	sort.SliceStable(paths, func(i, j int) bool {
		if paths[i].score != paths[j].score {
			return paths[i].score > paths[j].score
		}

		return string(paths[i].chars) < string(paths[j].chars)
	})

	if n < len(paths) {
		paths = paths[:n]
	}

	return paths
}
