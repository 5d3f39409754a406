package folio

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/folio/pkg/domain"
)

// Runner serves an Editor over line-delimited JSON. Each input line is a
// host message ({"kind": ..., "payload": ...}); every outbound message is
// written as one output line.
type Runner struct {
	Input  io.Reader
	Output io.Writer

	// Buffer is the outbound subscription size. Zero means 256.
	Buffer int

	// MaxLineSize bounds one input line. Zero means DefaultMaxLineSize or
	// the FOLIO_MAX_LINE_SIZE environment variable.
	MaxLineSize int
}

// NewRunner creates a runner over the given streams.
func NewRunner(in io.Reader, out io.Writer) *Runner {
	return &Runner{Input: in, Output: out}
}

// Run reads messages until EOF or ctx is done. Malformed lines and
// message errors are reported on the output as {"error": ...} lines and
// do not stop the loop.
func (r *Runner) Run(ctx context.Context, editor *Editor) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}

	buffer := r.Buffer
	if buffer <= 0 {
		buffer = 256
	}
	outbound, cancel := editor.Subscribe(buffer)
	defer cancel()

	var writeMu sync.Mutex
	enc := json.NewEncoder(r.Output)
	write := func(v any) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = enc.Encode(v)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range outbound {
			write(msg)
		}
	}()

	inbound := make(chan domain.Message)
	readErr := make(chan error, 1)
	go func() {
		defer close(inbound)
		scanner := bufio.NewScanner(r.Input)
		// The scanner ceiling sits above any sane MaxLineSize so oversized
		// lines reach SanitizeLine and are reported instead of ending the loop.
		scanner.Buffer(make([]byte, 0, 64*1024), 64<<20)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			line, err := SanitizeLine(line, r.MaxLineSize)
			if err != nil {
				write(map[string]string{"error": fmt.Sprintf("invalid message: %v", err)})
				continue
			}
			var msg domain.Message
			if err := json.Unmarshal([]byte(line), &msg); err != nil {
				write(map[string]string{"error": fmt.Sprintf("invalid message: %v", err)})
				continue
			}
			select {
			case inbound <- msg:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	var err error
loop:
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break loop
		case msg, ok := <-inbound:
			if !ok {
				select {
				case err = <-readErr:
				default:
				}
				break loop
			}
			if herr := editor.HandleMessage(ctx, msg); herr != nil {
				if errors.Is(herr, domain.ErrClosed) {
					err = herr
					break loop
				}
				write(map[string]string{"kind": string(msg.Kind), "error": herr.Error()})
			}
		}
	}

	cancel()
	<-done
	return err
}
