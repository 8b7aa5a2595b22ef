package cli

import (
	"errors"
	"fmt"

	"github.com/pinyinhmm/pyhmm/internal/config"
	"github.com/pinyinhmm/pyhmm/internal/decode"
	"github.com/pinyinhmm/pyhmm/internal/hmm"
	"github.com/pinyinhmm/pyhmm/internal/lexicon"
)

var (
	ErrLexiconRequired    = errors.New("--lexicon is required (or set it in .pinyinrc)")
	ErrParamsRequired     = errors.New("--params is required (or set it in .pinyinrc)")
	errPinyinRequired     = errors.New("a pinyin sequence argument is required")
	errInputRequired      = errors.New("an input file argument is required")
	errPredAndRefRequired = errors.New("--pred and --ref are both required")
)

// resolvePath returns flagValue if non-empty, else cfgValue.
func resolvePath(flagValue, cfgValue string) string {
	if flagValue != "" {
		return flagValue
	}

	return cfgValue
}

// loadModel loads the lexicon and parameter store named by flags,
// falling back to cfg's defaults, and assembles a decode.Model. If
// bonusFlag names a standalone bonus file, its entries override any
// same-keyed entry the lexicon file already carries.
func loadModel(cfg config.Config, lexiconFlag, paramsFlag, bonusFlag string) (*decode.Model, error) {
	lexiconPath := resolvePath(lexiconFlag, cfg.Lexicon)
	if lexiconPath == "" {
		return nil, ErrLexiconRequired
	}

	paramsPath := resolvePath(paramsFlag, cfg.Params)
	if paramsPath == "" {
		return nil, ErrParamsRequired
	}

	lex, bonusRaw, err := lexicon.Load(lexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}

	store, err := hmm.Load(paramsPath)
	if err != nil {
		return nil, fmt.Errorf("load params: %w", err)
	}

	if bonusFlag != "" {
		override, err := hmm.LoadBonus(bonusFlag)
		if err != nil {
			return nil, fmt.Errorf("load bonus: %w", err)
		}

		if bonusRaw == nil {
			bonusRaw = make(map[string]float64, len(override))
		}

		for k, v := range override {
			bonusRaw[k] = v
		}
	}

	return &decode.Model{
		Params:  store,
		Lexicon: lex,
		Bonus:   hmm.NewBonus(bonusRaw),
	}, nil
}

// resolveK returns the flag value if changed, else cfg's default,
// else fall.
func resolveK(flagValue, cfgValue, fall int, changed bool) int {
	if changed {
		return flagValue
	}

	if cfgValue != 0 {
		return cfgValue
	}

	return fall
}
