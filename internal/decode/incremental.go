package decode

import "sort"

// DefaultBeamSize matches the reference incremental decoder's default:
// wide enough that ordinary candidate fan-out never triggers pruning,
// narrow enough to bound memory for pathologically ambiguous syllables.
const DefaultBeamSize = 100

// DefaultTopK is the number of candidates Append and Backspace return
// when the caller doesn't ask for a specific count.
const DefaultTopK = 5

// Node is one character's slot in an incremental trellis layer. Back
// is an index into the *previous* layer's slice, not a pointer,
// exactly per the index-based trellis the design notes call for: layers
// are flat and back-tracing is pointer-chasing through indices, never
// through character identity. Back == -1 means "no predecessor" —
// either this is layer 0, or the previous layer was a dead end and
// this node restarts locally.
type Node struct {
	Char  rune
	Score float64
	Back  int
}

// Layer is one committed pinyin token's trellis column. A zero-length
// Layer is a valid, meaningful state: the token had no lexicon
// candidates and is a dead end that must not destroy earlier layers.
type Layer []Node

// Session is a single-owner, mutable incremental decoding session: an
// ordered buffer of committed pinyin tokens paired one-to-one with
// trellis layers. Concurrent mutation of one Session is undefined; a
// driver that interleaves reads and writes must serialize them itself.
type Session struct {
	model    *Model
	beamSize int
	pinyin   []string
	layers   []Layer
}

// NewSession creates an empty session against model. beamSize <= 0
// falls back to DefaultBeamSize.
func NewSession(model *Model, beamSize int) *Session {
	if beamSize <= 0 {
		beamSize = DefaultBeamSize
	}

	return &Session{model: model, beamSize: beamSize}
}

// Len returns the number of committed pinyin tokens. The session is
// Empty when Len() == 0.
func (s *Session) Len() int {
	return len(s.pinyin)
}

// Buffer returns a copy of the committed pinyin tokens, in order.
func (s *Session) Buffer() []string {
	out := make([]string, len(s.pinyin))
	copy(out, s.pinyin)

	return out
}

// Append commits one pinyin syllable and returns the top DefaultTopK
// candidates from the new state.
func (s *Session) Append(py string) []Candidate {
	return s.AppendK(py, DefaultTopK)
}

// AppendK commits one pinyin syllable and returns the top k candidates
// from the new state.
//
// An unknown syllable (no lexicon candidates) is not an error: it
// becomes an empty dead-end layer, and decoding tolerates it exactly
// as the reference decoder does, because the IME path relies on this
// tolerance while the user is mid-syllable. The returned candidates
// fall back to the last non-empty layer in that case, so a dead-end
// keystroke doesn't blank the candidate row the caller is displaying.
func (s *Session) AppendK(py string, k int) []Candidate {
	cands := s.model.Lexicon.CandidatesOf(py)
	s.pinyin = append(s.pinyin, py)

	if len(cands) == 0 {
		s.layers = append(s.layers, Layer{})

		return s.topKFromLastNonEmpty(k)
	}

	var layer Layer

	if len(s.layers) == 0 || len(s.layers[len(s.layers)-1]) == 0 {
		layer = freshLayer(s.model, cands, py)
	} else {
		layer = extendLayer(s.model, s.layers[len(s.layers)-1], cands, py)
	}

	s.layers = append(s.layers, pruneBeam(layer, s.beamSize))

	return s.TopK(k)
}

// Backspace pops the last committed pinyin and its trellis layer
// atomically, and returns the top DefaultTopK candidates from the
// layer now on top. Every earlier layer is untouched, so the result is
// exactly what TopK would have returned right before the matching
// Append call.
func (s *Session) Backspace() []Candidate {
	return s.BackspaceK(DefaultTopK)
}

// BackspaceK is Backspace with an explicit candidate count.
func (s *Session) BackspaceK(k int) []Candidate {
	if len(s.pinyin) == 0 {
		return nil
	}

	s.pinyin = s.pinyin[:len(s.pinyin)-1]
	s.layers = s.layers[:len(s.layers)-1]

	if len(s.layers) == 0 {
		return nil
	}

	return s.TopK(k)
}

// Reset clears the buffer and layers, returning the session to Empty.
func (s *Session) Reset() {
	s.pinyin = s.pinyin[:0]
	s.layers = s.layers[:0]
}

// TopK returns the top-k complete strings ending at the current last
// layer, each a full back-trace, sorted by descending score. If the
// last layer is empty (or the session itself is empty), TopK returns
// an empty list rather than falling back to an earlier layer.
func (s *Session) TopK(k int) []Candidate {
	if len(s.layers) == 0 || k <= 0 {
		return nil
	}

	return s.topKAt(len(s.layers)-1, k)
}

// topKFromLastNonEmpty returns the top-k candidates from the most
// recently built non-empty layer, searching backward from the end of
// the buffer. Returns nil if every layer built so far is empty.
func (s *Session) topKFromLastNonEmpty(k int) []Candidate {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if len(s.layers[i]) > 0 {
			return s.topKAt(i, k)
		}
	}

	return nil
}

// topKAt returns the top-k candidates ending at s.layers[layerIdx],
// each a full back-trace from layer 0, sorted by descending score.
func (s *Session) topKAt(layerIdx, k int) []Candidate {
	if k <= 0 {
		return nil
	}

	layer := s.layers[layerIdx]
	if len(layer) == 0 {
		return nil
	}

	order := rankIndices(layer, len(layer))
	if k < len(order) {
		order = order[:k]
	}

	out := make([]Candidate, len(order))
	for i, idx := range order {
		out[i] = Candidate{
			Text:  backtraceSession(s.layers, layerIdx, idx),
			Score: layer[idx].Score,
		}
	}

	return out
}

// PredictPrefix simulates, without mutating session state, appending
// each of up to ten syllables matching prefix, and returns the
// deduplicated, score-sorted top-k completions. Used for in-progress,
// not-yet-committed pinyin input (e.g. the user has typed "h" of
// "hao" and hasn't pressed a delimiter yet).
func (s *Session) PredictPrefix(prefix string) []Candidate {
	return s.PredictPrefixK(prefix, DefaultTopK)
}

// PredictPrefixK is PredictPrefix with an explicit candidate count.
func (s *Session) PredictPrefixK(prefix string, k int) []Candidate {
	syllables := s.model.Lexicon.StartsWith(prefix)
	if len(syllables) == 0 {
		return nil
	}

	best := make(map[string]float64)

	for _, py := range syllables {
		cands := s.model.Lexicon.CandidatesOf(py)
		if len(cands) == 0 {
			continue
		}

		var sim Layer

		baseEmpty := len(s.layers) == 0 || len(s.layers[len(s.layers)-1]) == 0
		if baseEmpty {
			sim = freshLayer(s.model, cands, py)
		} else {
			sim = extendLayer(s.model, s.layers[len(s.layers)-1], cands, py)
		}

		for _, node := range sim {
			var text string
			if baseEmpty {
				text = string(node.Char)
			} else {
				prefixText := backtraceSession(s.layers, len(s.layers)-1, node.Back)
				text = prefixText + string(node.Char)
			}

			if existing, ok := best[text]; !ok || node.Score > existing {
				best[text] = node.Score
			}
		}
	}

	return sortedCandidates(best, k)
}

// freshLayer builds a layer with no predecessor, for the first
// committed token or a restart after a dead end.
func freshLayer(model *Model, cands []rune, py string) Layer {
	layer := make(Layer, len(cands))

	for i, c := range cands {
		layer[i] = Node{
			Char:  c,
			Score: model.Params.GetInit(c) + model.Params.GetEmit(c, py),
			Back:  -1,
		}
	}

	return layer
}

// extendLayer builds a layer from a non-empty previous layer: for
// every current candidate, the best-scoring predecessor among all of
// prev's entries is chosen and recorded by index.
func extendLayer(model *Model, prev Layer, cands []rune, py string) Layer {
	layer := make(Layer, 0, len(cands))

	for _, c := range cands {
		bestScore := 0.0
		bestBack := -1
		found := false

		for i, p := range prev {
			score := p.Score + model.Params.GetTrans(p.Char, c) + model.Bonus.Get(p.Char, c)
			if !found || score > bestScore {
				bestScore = score
				bestBack = i
				found = true
			}
		}

		layer = append(layer, Node{
			Char:  c,
			Score: bestScore + model.Params.GetEmit(c, py),
			Back:  bestBack,
		})
	}

	return layer
}

// pruneBeam keeps only the top beamSize entries of layer by score,
// applied to the newly built layer only. Older layers are never
// re-pruned: that would invalidate Backspace, which depends on every
// earlier layer staying exactly as it was when first built.
func pruneBeam(layer Layer, beamSize int) Layer {
	if len(layer) <= beamSize {
		return layer
	}

	order := rankIndices(layer, beamSize)

	out := make(Layer, len(order))
	for i, idx := range order {
		out[i] = layer[idx]
	}

	return out
}

// rankIndices returns the indices of layer sorted by descending score,
// stable on ties (so ties break toward the first-encountered
// candidate), truncated to at most n.
func rankIndices(layer Layer, n int) []int {
	idx := make([]int, len(layer))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return layer[idx[a]].Score > layer[idx[b]].Score
	})

	if n < len(idx) {
		idx = idx[:n]
	}

	return idx
}

// backtraceSession walks back-pointers starting at layers[layerIdx][nodeIdx]
// down to layer 0 or the first dead-end restart, and returns the
// traced string in forward order. nodeIdx == -1 yields "".
func backtraceSession(layers []Layer, layerIdx, nodeIdx int) string {
	if nodeIdx < 0 {
		return ""
	}

	chars := make([]rune, 0, layerIdx+1)

	t, i := layerIdx, nodeIdx
	for t >= 0 && i >= 0 {
		node := layers[t][i]
		chars = append(chars, node.Char)
		i = node.Back
		t--
	}

	reverse(chars)

	return string(chars)
}

// sortedCandidates turns a dedup map into a descending-score,
// deterministically tie-broken candidate slice capped at k.
func sortedCandidates(byText map[string]float64, k int) []Candidate {
	out := make([]Candidate, 0, len(byText))
	for text, score := range byText {
		out = append(out, Candidate{Text: text, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}

		return out[i].Text < out[j].Text
	})

	if k > 0 && k < len(out) {
		out = out[:k]
	}

	return out
}
