// Package confirm asks the operator a yes/no question and waits for the
// answer.
package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type Prompter struct {
	In  io.Reader
	Out io.Writer
}

// Ask prints prompt and blocks until a line is read or ctx is done. Only
// "y" and "yes" confirm; end of input declines.
func (p *Prompter) Ask(ctx context.Context, prompt string) (bool, error) {
	fmt.Fprintf(p.Out, "%s [y/N]: ", prompt)

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.Out)
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return false, a.err
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}

// Ask prompts on the terminal.
func Ask(ctx context.Context, prompt string) (bool, error) {
	p := &Prompter{In: os.Stdin, Out: os.Stderr}
	return p.Ask(ctx, prompt)
}
