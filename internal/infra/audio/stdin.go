package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"buddy/internal/domain"
)

// StdinSource reads one command per line from standard input. It is
// the portable stand-in for a global push-to-talk hotkey: type what
// you would have said and press Enter.
type StdinSource struct {
	reader   io.Reader
	lineChan chan string
	errChan  chan error
}

func NewStdinSource() *StdinSource {
	return newStdinSource(os.Stdin)
}

func newStdinSource(r io.Reader) *StdinSource {
	return &StdinSource{
		reader:   r,
		lineChan: make(chan string),
		errChan:  make(chan error, 1),
	}
}

func (s *StdinSource) Name() string {
	return "stdin"
}

func (s *StdinSource) Start(ctx context.Context) error {
	go func() {
		scanner := bufio.NewScanner(s.reader)
		for scanner.Scan() {
			select {
			case s.lineChan <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			s.errChan <- err
			return
		}
		s.errChan <- io.EOF
	}()
	return nil
}

func (s *StdinSource) Stop() error {
	return nil
}

func (s *StdinSource) NextCommand(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case err := <-s.errChan:
			return nil, fmt.Errorf("stdin closed: %w", err)
		case line := <-s.lineChan:
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			return []byte(domain.TextCommandPrefix + text), nil
		}
	}
}
