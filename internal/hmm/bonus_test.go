package hmm_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinyinhmm/pyhmm/internal/hmm"
)

func Test_Bonus_Get_Returns_Zero_For_Absent_Pair(t *testing.T) {
	t.Parallel()

	b := hmm.NewBonus(map[string]float64{"你号": 1.0})

	assert.Equal(t, 1.0, b.Get('你', '号'))
	assert.Equal(t, 0.0, b.Get('你', '好'))
}

func Test_Bonus_Get_On_Nil_Receiver_Returns_Zero(t *testing.T) {
	t.Parallel()

	var b *hmm.Bonus

	assert.Equal(t, 0.0, b.Get('你', '号'))
}

func Test_Bonus_Get_Ignores_Malformed_Multi_Rune_Keys(t *testing.T) {
	t.Parallel()

	b := hmm.NewBonus(map[string]float64{"你": 1.0, "你好吗": 2.0, "你号": 1.0})

	assert.Equal(t, 1.0, b.Get('你', '号'))
}

func Test_LoadBonus_Reads_Standalone_Bonus_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bonus.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"你号": 1.5}`), 0o600))

	got, err := hmm.LoadBonus(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"你号": 1.5}, got)
}

func Test_LoadBonus_Returns_ResourceMissing_When_File_Absent(t *testing.T) {
	t.Parallel()

	_, err := hmm.LoadBonus(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, hmm.ErrResourceMissing)
}

func Test_LoadBonus_Returns_ResourceMalformed_On_Bad_JSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bonus.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600))

	_, err := hmm.LoadBonus(path)
	assert.ErrorIs(t, err, hmm.ErrResourceMalformed)
}
