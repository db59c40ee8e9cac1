package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"hqcatalog/internal/logger"

	"github.com/peterh/liner"
)

// Run reads commands from the terminal until exit, EOF or Ctrl-C. History is
// kept in historyPath when it is not empty.
func (s *Shell) Run(ctx context.Context, historyPath string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(s.Complete)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
		defer saveHistory(ctx, line, historyPath)
	}

	fmt.Fprintln(s.opts.Out, "Biblioteca de HQs. Digite help para ver os comandos.")
	for {
		if ctx.Err() != nil {
			return nil
		}
		input, err := line.Prompt(s.Prompt())
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read command: %w", err)
		}
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		quit, err := s.Exec(ctx, input)
		if err != nil {
			fmt.Fprintln(s.opts.Out, "erro:", err)
		}
		if quit {
			return nil
		}
	}
}

func saveHistory(ctx context.Context, line *liner.State, path string) {
	f, err := os.Create(path)
	if err != nil {
		logger.For(ctx).WithError(err).Debug("could not save history")
		return
	}
	defer f.Close()
	if _, err := line.WriteHistory(f); err != nil {
		logger.For(ctx).WithError(err).Debug("could not save history")
	}
}
