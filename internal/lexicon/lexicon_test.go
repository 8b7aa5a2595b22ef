package lexicon_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinyinhmm/pyhmm/internal/lexicon"
)

func Test_CandidatesOf_Returns_Nil_When_Pinyin_Unknown(t *testing.T) {
	t.Parallel()

	lex := lexicon.New(map[string][]rune{"ni": {'你', '尼'}})

	assert.Nil(t, lex.CandidatesOf("hao"))
	assert.Equal(t, []rune{'你', '尼'}, lex.CandidatesOf("ni"))
}

func Test_CandidatesOf_Preserves_Order_And_Dedupes(t *testing.T) {
	t.Parallel()

	lex := lexicon.New(map[string][]rune{"ni": {'你', '尼', '你'}})

	assert.Equal(t, []rune{'你', '尼'}, lex.CandidatesOf("ni"))
}

func Test_StartsWith_Returns_Nil_When_Prefix_Empty(t *testing.T) {
	t.Parallel()

	lex := lexicon.New(map[string][]rune{"ni": {'你'}})
	assert.Empty(t, lex.StartsWith(""))
}

func Test_StartsWith_Caps_At_Ten_Matches(t *testing.T) {
	t.Parallel()

	base := map[string][]rune{}
	for i := 0; i < 15; i++ {
		base["zh"+string(rune('a'+i))] = []rune{'字'}
	}

	lex := lexicon.New(base)
	got := lex.StartsWith("zh")
	assert.Len(t, got, 10)

	for _, s := range got {
		assert.True(t, len(s) >= 2 && s[:2] == "zh")
	}
}

func Test_StartsWith_Is_Deterministic_Across_Calls(t *testing.T) {
	t.Parallel()

	lex := lexicon.New(map[string][]rune{
		"hao": {'好'}, "hai": {'海'}, "han": {'汉'}, "ha": {'哈'},
	})

	first := lex.StartsWith("ha")
	second := lex.StartsWith("ha")
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"ha", "hai", "han", "hao"}, first)
}

func Test_Load_Reads_Aggregate_And_Bonus(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon_aggregate.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"base_pinyin_to_chars": {"ni": ["你", "尼"], "hao": ["好", "号"]},
		"word_bigram_bonus": {"你号": 1.0},
		"word_frequency": {"你好": 100}
	}`), 0o600))

	lex, bonus, err := lexicon.Load(path)
	require.NoError(t, err)

	assert.Equal(t, []rune{'你', '尼'}, lex.CandidatesOf("ni"))
	assert.Equal(t, []rune{'好', '号'}, lex.CandidatesOf("hao"))
	assert.Equal(t, 1.0, bonus["你号"])
}

func Test_Load_Returns_ResourceMissing_When_File_Absent(t *testing.T) {
	t.Parallel()

	_, _, err := lexicon.Load(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, lexicon.ErrResourceMissing)
}

func Test_Load_Returns_ResourceMalformed_When_JSON_Invalid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, _, err := lexicon.Load(path)
	require.ErrorIs(t, err, lexicon.ErrResourceMalformed)
}
