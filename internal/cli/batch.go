package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	flag "github.com/spf13/pflag"

	"github.com/pinyinhmm/pyhmm/internal/config"
	"github.com/pinyinhmm/pyhmm/internal/decode"
)

// BatchCmd returns the batch command: one pinyin sequence per line of
// an input file, one decoded block per non-blank line out.
func BatchCmd(cfg config.Config) *Command {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fsLexicon := fs.String("lexicon", "", "Path to lexicon aggregate JSON")
	fsParams := fs.String("params", "", "Path to HMM parameter JSON")
	fsBonus := fs.String("bonus", "", "Path to a standalone bigram-bonus JSON file, overriding lexicon-embedded bonus entries")
	fsRef := fs.String("ref", "", "Optional reference file, one line per input line")
	fsK := fs.IntP("k", "k", 1, "Number of candidates to print per line, best included")

	return &Command{
		Flags: fs,
		Usage: "batch <input-file> [flags]",
		Short: "Decode a file of pinyin sequences",
		Long:  "Decode a UTF-8 file with one whitespace-separated pinyin sequence per line, skipping blank lines.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execBatch(io, cfg, fs, args, *fsLexicon, *fsParams, *fsBonus, *fsRef, *fsK)
		},
	}
}

func execBatch(io *IO, cfg config.Config, fs *flag.FlagSet, args []string, lexiconFlag, paramsFlag, bonusFlag, refFlag string, k int) error {
	if len(args) == 0 {
		return errInputRequired
	}

	model, err := loadModel(cfg, lexiconFlag, paramsFlag, bonusFlag)
	if err != nil {
		return err
	}

	lines, err := readNonBlankLines(args[0])
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}

	var refs []string

	if refFlag != "" {
		refs, err = readNonBlankLines(refFlag)
		if err != nil {
			return fmt.Errorf("read reference file: %w", err)
		}

		if len(refs) != len(lines) {
			io.Warn(fmt.Sprintf("reference file has %d lines, input has %d — ignoring references", len(refs), len(lines)))
			refs = nil
		}
	}

	kEff := resolveK(k, cfg.K, 1, fs.Changed("k"))

	results := decodeLinesConcurrently(model, lines, kEff)

	for i, line := range lines {
		io.Println("#", line)
		io.Printf("best: %s\t%.4f\n", results[i][0].Text, results[i][0].Score)

		for j := 1; j < len(results[i]); j++ {
			io.Printf("  %d. %s\t%.4f\n", j+1, results[i][j].Text, results[i][j].Score)
		}

		if refs != nil {
			io.Println("ref:", refs[i])
		}

		io.Println()
	}

	return nil
}

// decodeLinesConcurrently runs decode.DecodeTopK for every line on a
// bounded worker pool, since the decoders read only immutable shared
// state. Results are returned in input order.
func decodeLinesConcurrently(model *decode.Model, lines []string, k int) [][]decode.Candidate {
	results := make([][]decode.Candidate, len(lines))

	jobs := make(chan int, len(lines))
	for i := range lines {
		jobs <- i
	}

	close(jobs)

	numWorkers := runtime.NumCPU()
	if numWorkers > len(lines) {
		numWorkers = len(lines)
	}

	if numWorkers < 1 {
		numWorkers = 1
	}

	var wg sync.WaitGroup

	for range numWorkers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range jobs {
				pinyinSeq := strings.Fields(lines[i])
				top := model.DecodeTopK(pinyinSeq, k, 0)

				if len(top) == 0 {
					top = []decode.Candidate{{Text: model.DecodeBest(pinyinSeq)}}
				}

				results[i] = top
			}
		}()
	}

	wg.Wait()

	return results
}

func readNonBlankLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		lines = append(lines, line)
	}

	return lines, scanner.Err()
}
