package decode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinyinhmm/pyhmm/internal/decode"
)

// S4
func Test_Session_Append_Ni_Returns_Ni_As_Top1(t *testing.T) {
	t.Parallel()

	s := decode.NewSession(toyModel(), 0)

	got := s.Append("ni")
	require.NotEmpty(t, got)
	assert.Equal(t, "你", got[0].Text)
}

// S5
func Test_Session_Append_Hao_Then_Backspace_Restores_Ni(t *testing.T) {
	t.Parallel()

	s := decode.NewSession(toyModel(), 0)

	s.Append("ni")
	got := s.Append("hao")
	require.NotEmpty(t, got)
	assert.Equal(t, "你好", got[0].Text)

	back := s.Backspace()
	require.NotEmpty(t, back)
	assert.Equal(t, "你", back[0].Text)
}

// S6
func Test_Session_PredictPrefix_After_Ni_Includes_NiHa(t *testing.T) {
	t.Parallel()

	s := decode.NewSession(toyModelWithHa(), 0)
	s.Append("ni")

	got := s.PredictPrefix("ha")
	require.NotEmpty(t, got)

	found := false

	for _, c := range got {
		if c.Text == "你哈" {
			found = true
		}
	}

	assert.True(t, found, "expected a completion ending in 哈 starting with 你, got %+v", got)
}

func Test_Session_Backspace_After_Append_Restores_Exact_Prior_State(t *testing.T) {
	t.Parallel()

	s := decode.NewSession(toyModel(), 0)

	s.Append("ni")
	before := s.TopK(5)

	s.Append("hao")
	after := s.Backspace()

	assert.Equal(t, before, after)
	assert.Equal(t, []string{"ni"}, s.Buffer())
}

func Test_Session_Reset_Returns_To_Empty(t *testing.T) {
	t.Parallel()

	s := decode.NewSession(toyModel(), 0)
	s.Append("ni")
	s.Append("hao")

	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Buffer())
	assert.Empty(t, s.TopK(5))

	// idempotent
	s.Reset()
	assert.Equal(t, 0, s.Len())
}

func Test_Session_BufferLen_Equals_LayerCount_After_Every_Op(t *testing.T) {
	t.Parallel()

	s := decode.NewSession(toyModel(), 0)

	ops := []func(){
		func() { s.Append("ni") },
		func() { s.Append("hao") },
		func() { s.Append("xx") }, // unknown syllable, dead-end layer
		func() { s.Backspace() },
		func() { s.PredictPrefix("ha") }, // observational, no transition
		func() { s.TopK(3) },             // observational, no transition
		func() { s.Append("ni") },
		func() { s.Reset() },
	}

	for _, op := range ops {
		op()
		assert.Equal(t, s.Len(), len(s.Buffer()))
	}
}

func Test_Session_Append_Unknown_Pinyin_Is_DeadEnd_Not_Error(t *testing.T) {
	t.Parallel()

	s := decode.NewSession(toyModel(), 0)
	s.Append("ni")

	// The dead-end layer itself is empty, but Append falls back to the
	// last non-empty layer ("ni") rather than returning nothing.
	got := s.Append("zzz")
	require.NotEmpty(t, got)
	assert.Equal(t, "你", got[0].Text)

	// The dead-end doesn't destroy the earlier, still-intact layer.
	back := s.Backspace()
	require.NotEmpty(t, back)
	assert.Equal(t, "你", back[0].Text)
}

func Test_Session_TopK_Returns_Empty_When_Last_Layer_Empty(t *testing.T) {
	t.Parallel()

	s := decode.NewSession(toyModel(), 0)
	s.Append("ni")
	s.Append("zzz")

	assert.Empty(t, s.TopK(5))
}

func Test_Session_TopK_Scores_Are_Monotonically_NonIncreasing(t *testing.T) {
	t.Parallel()

	s := decode.NewSession(toyModelWithHa(), 0)
	s.Append("ni")
	s.Append("hao")

	got := s.TopK(10)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func Test_Session_TopK_Backtrace_Length_Equals_Buffer_Length(t *testing.T) {
	t.Parallel()

	s := decode.NewSession(toyModel(), 0)
	s.Append("ni")
	s.Append("hao")

	for _, c := range s.TopK(10) {
		assert.Len(t, []rune(c.Text), s.Len())
	}
}

func Test_Session_Beam_Pruning_Keeps_Only_Configured_Width(t *testing.T) {
	t.Parallel()

	s := decode.NewSession(toyModelWithHa(), 1)

	got := s.Append("ni")
	assert.Len(t, got, 1)

	got = s.Append("hao")
	assert.Len(t, got, 1)
}

func Test_Session_PredictPrefix_On_Empty_Session_Produces_SingleChar_Strings(t *testing.T) {
	t.Parallel()

	s := decode.NewSession(toyModel(), 0)

	got := s.PredictPrefix("ha")
	for _, c := range got {
		assert.Len(t, []rune(c.Text), 1)
	}
}

func Test_Session_PredictPrefix_Returns_Nil_When_No_Syllable_Matches(t *testing.T) {
	t.Parallel()

	s := decode.NewSession(toyModel(), 0)
	assert.Nil(t, s.PredictPrefix("zzz"))
}
