// Package main provides pinyin-ime, an interactive keystroke-driven
// REPL that exercises the incremental decoder the way a real input
// method would: bare syllables append, "bs" backspaces, a leading "~"
// predicts against a partial syllable, and "reset" clears the buffer.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/peterh/liner"

	"github.com/pinyinhmm/pyhmm/internal/decode"
	"github.com/pinyinhmm/pyhmm/internal/hmm"
	"github.com/pinyinhmm/pyhmm/internal/lexicon"
)

func main() {
	lexiconPath := flag.String("lexicon", "", "Path to lexicon aggregate JSON")
	paramsPath := flag.String("params", "", "Path to HMM parameter JSON")
	bonusPath := flag.String("bonus", "", "Path to a standalone bigram-bonus JSON file, overriding lexicon-embedded bonus entries")
	beamSize := flag.Int("beam", 0, "Beam size for the incremental trellis (default: decode.DefaultBeamSize)")
	flag.Parse()

	if *lexiconPath == "" || *paramsPath == "" {
		fmt.Fprintln(os.Stderr, "usage: pinyin-ime --lexicon <file> --params <file>")
		os.Exit(1)
	}

	lex, bonusRaw, err := lexicon.Load(*lexiconPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	store, err := hmm.Load(*paramsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if *bonusPath != "" {
		override, err := hmm.LoadBonus(*bonusPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}

		if bonusRaw == nil {
			bonusRaw = make(map[string]float64, len(override))
		}

		for k, v := range override {
			bonusRaw[k] = v
		}
	}

	model := &decode.Model{Params: store, Lexicon: lex, Bonus: hmm.NewBonus(bonusRaw)}
	session := decode.NewSession(model, *beamSize)

	repl := &REPL{session: session}

	if err := repl.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// REPL is the interactive keystroke loop.
type REPL struct {
	session *decode.Session
	liner   *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".pinyin_ime_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Println("pinyin-ime - keystroke-driven pinyin decoder")
	fmt.Println("Type a syllable to append, 'bs' to backspace, '~<prefix>' to predict, 'reset' to clear, 'quit' to exit.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt(r.prompt())
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		switch {
		case line == "quit" || line == "exit":
			r.saveHistory()
			return nil
		case line == "help" || line == "?":
			r.printHelp()
		case line == "reset":
			r.session.Reset()
			fmt.Println("(buffer cleared)")
		case line == "bs" || line == "backspace":
			r.render(r.session.Backspace())
		case strings.HasPrefix(line, "~"):
			r.render(r.session.PredictPrefix(strings.TrimPrefix(line, "~")))
		default:
			r.render(r.session.Append(line))
		}
	}

	r.saveHistory()

	return nil
}

func (r *REPL) prompt() string {
	buf := strings.Join(r.session.Buffer(), " ")
	if buf == "" {
		return "pinyin> "
	}

	return fmt.Sprintf("pinyin[%s]> ", buf)
}

// render prints the candidate row with go-runewidth-aware column
// padding, so two-cells-wide Han glyphs line up against the rank
// numbers and scores echoed beside them.
func (r *REPL) render(candidates []decode.Candidate) {
	if len(candidates) == 0 {
		fmt.Println("(no candidates)")
		return
	}

	widest := 0

	for _, c := range candidates {
		if w := runewidth.StringWidth(c.Text); w > widest {
			widest = w
		}
	}

	for i, c := range candidates {
		pad := widest - runewidth.StringWidth(c.Text)
		fmt.Printf("%d. %s%s  %.4f\n", i+1, c.Text, strings.Repeat(" ", pad), c.Score)
	}
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{"bs", "backspace", "reset", "help", "quit", "exit"}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  <syllable>      Append a pinyin syllable")
	fmt.Println("  ~<prefix>       Predict completions for a partial syllable")
	fmt.Println("  bs              Backspace the last syllable")
	fmt.Println("  reset           Clear the buffer")
	fmt.Println("  help            Show this help")
	fmt.Println("  quit / exit     Exit")
	fmt.Println()
}
