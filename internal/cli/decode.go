package cli

import (
	"context"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/pinyinhmm/pyhmm/internal/config"
)

// DecodeCmd returns the decode command: one pinyin sequence in,
// best string (or top-k block) out.
func DecodeCmd(cfg config.Config) *Command {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fsLexicon := fs.String("lexicon", "", "Path to lexicon aggregate JSON")
	fsParams := fs.String("params", "", "Path to HMM parameter JSON")
	fsBonus := fs.String("bonus", "", "Path to a standalone bigram-bonus JSON file, overriding lexicon-embedded bonus entries")
	fsK := fs.IntP("k", "k", 1, "Number of candidates to print")
	fsBeam := fs.Int("beam", 0, "Beam size for top-k search (default: k)")

	return &Command{
		Flags: fs,
		Usage: "decode \"<pinyin ...>\" [flags]",
		Short: "Decode a single pinyin sequence",
		Long:  "Decode one whitespace-separated pinyin sequence into the best-scoring Han character string.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execDecode(io, cfg, fs, args, *fsLexicon, *fsParams, *fsBonus, *fsK, *fsBeam)
		},
	}
}

func execDecode(io *IO, cfg config.Config, fs *flag.FlagSet, args []string, lexiconFlag, paramsFlag, bonusFlag string, k, beam int) error {
	if len(args) == 0 {
		return errPinyinRequired
	}

	model, err := loadModel(cfg, lexiconFlag, paramsFlag, bonusFlag)
	if err != nil {
		return err
	}

	pinyinSeq := strings.Fields(args[0])

	kEff := resolveK(k, cfg.K, 1, fs.Changed("k"))

	if kEff <= 1 {
		io.Println(model.DecodeBest(pinyinSeq))
		return nil
	}

	beamEff := beam
	if beamEff <= 0 {
		beamEff = cfg.BeamSize
	}

	for i, cand := range model.DecodeTopK(pinyinSeq, kEff, beamEff) {
		io.Printf("%d. %s\t%.4f\n", i+1, cand.Text, cand.Score)
	}

	return nil
}
