package decode_test

import (
	"math"

	"github.com/pinyinhmm/pyhmm/internal/decode"
	"github.com/pinyinhmm/pyhmm/internal/hmm"
	"github.com/pinyinhmm/pyhmm/internal/lexicon"
)

// toyModel builds the toy HMM from the end-to-end scenarios: ni -> 你/尼,
// hao -> 好/号, with init/trans/emit matching the worked probabilities.
func toyModel() *decode.Model {
	init := map[rune]float64{
		'你': math.Log(0.6),
		'尼': math.Log(0.4),
		'好': math.Log(0.5),
		'号': math.Log(0.5),
	}

	trans := map[rune]map[rune]float64{
		'你': {'好': math.Log(0.7), '号': math.Log(0.3)},
		'尼': {'好': math.Log(0.4), '号': math.Log(0.6)},
	}

	emit := map[rune]map[string]float64{
		'你': {"ni": 0},
		'尼': {"ni": 0},
		'好': {"hao": 0},
		'号': {"hao": 0},
	}

	store := hmm.New(init, trans, emit)

	lex := lexicon.New(map[string][]rune{
		"ni":  {'你', '尼'},
		"hao": {'好', '号'},
	})

	return &decode.Model{Params: store, Lexicon: lex}
}

// toyModelWithHa is toyModel plus a "ha" -> 哈 syllable, for the
// predict_prefix scenario.
func toyModelWithHa() *decode.Model {
	lex := lexicon.New(map[string][]rune{
		"ni":  {'你', '尼'},
		"hao": {'好', '号'},
		"ha":  {'哈'},
	})

	store := hmm.New(
		map[rune]float64{'你': math.Log(0.6), '尼': math.Log(0.4), '好': math.Log(0.5), '号': math.Log(0.5), '哈': hmm.NegInf},
		map[rune]map[rune]float64{
			'你': {'好': math.Log(0.7), '号': math.Log(0.3), '哈': math.Log(0.1)},
			'尼': {'好': math.Log(0.4), '号': math.Log(0.6)},
		},
		map[rune]map[string]float64{
			'你': {"ni": 0}, '尼': {"ni": 0}, '好': {"hao": 0}, '号': {"hao": 0}, '哈': {"ha": 0},
		},
	)

	return &decode.Model{Params: store, Lexicon: lex}
}
