package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/pinyinhmm/pyhmm/internal/config"
	"github.com/pinyinhmm/pyhmm/internal/metrics"
)

// EvalCmd returns the eval command: scores a predictions file against
// a references file.
func EvalCmd(_ config.Config) *Command {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fsPred := fs.String("pred", "", "Path to predictions file, one decoded line per reference")
	fsRef := fs.String("ref", "", "Path to references file")

	return &Command{
		Flags: fs,
		Usage: "eval --pred <file> --ref <file>",
		Short: "Score predictions against references",
		Long:  "Print sentence accuracy, character accuracy, and character error rate for a predictions/references file pair.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execEval(io, *fsPred, *fsRef)
		},
	}
}

func execEval(io *IO, predPath, refPath string) error {
	if predPath == "" || refPath == "" {
		return errPredAndRefRequired
	}

	predictions, err := readNonBlankLines(predPath)
	if err != nil {
		return fmt.Errorf("read predictions file: %w", err)
	}

	references, err := readNonBlankLines(refPath)
	if err != nil {
		return fmt.Errorf("read references file: %w", err)
	}

	sentenceAcc, err := metrics.SentenceAccuracy(predictions, references)
	if err != nil {
		return err
	}

	charAcc, err := metrics.CharacterAccuracy(predictions, references)
	if err != nil {
		return err
	}

	cer, err := metrics.CharacterErrorRate(predictions, references)
	if err != nil {
		return err
	}

	io.Printf("sentence_accuracy: %.4f\n", sentenceAcc)
	io.Printf("character_accuracy: %.4f\n", charAcc)
	io.Printf("character_error_rate: %.4f\n", cer)
	io.Printf("total_sentences: %d\n", len(references))

	return nil
}
