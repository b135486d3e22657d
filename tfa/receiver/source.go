package receiver

import (
	"bufio"
	"context"
	"io"
	"io/ioutil"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Source reads frames line by line from a serial device, pipe or file. Path
// "-" reads stdin.
type Source struct {
	Path          string
	Retries       int
	RetryInterval time.Duration

	// Open defaults to os.Open.
	Open func(path string) (io.ReadCloser, error)
}

// Run calls handle for every frame read until the input ends or ctx is done.
// Malformed lines are logged and skipped. Read failures re-open the input up
// to Retries times in a row; a session that delivered frames starts the count
// over.
func (s *Source) Run(ctx context.Context, handle func(Frame)) error {
	var lastErr error
	failures := 0
	for {
		var n int
		n, lastErr = s.run(ctx, handle)
		if lastErr == nil {
			log.Infof("input %s ended after %d frames", s.Path, n)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if n > 0 {
			failures = 0
		}
		failures++
		if failures >= s.Retries {
			break
		}
		log.Errorf("retrying error in receive: %s", lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.RetryInterval):
		}
	}

	return errors.Wrap(lastErr, "all retries to receive failed")
}

// run reads one session and returns how many frames it handed over.
func (s *Source) run(ctx context.Context, handle func(Frame)) (int, error) {
	in, err := s.open()
	if err != nil {
		return 0, errors.Wrapf(err, "couldn't open %s", s.Path)
	}
	defer in.Close()

	// Scan in the background: closing does not interrupt a blocking read on
	// a tty or an inherited stdin.
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	log.Debugf("reading frames from %s", s.Path)
	n := 0
	for {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return n, errors.Wrapf(err, "failed to read %s", s.Path)
					}
				default:
				}
				return n, ctx.Err()
			}
			frame, ok, err := ParseLine(line)
			if err != nil {
				log.Warnf("skipping line: %s", err)
				continue
			}
			if ok {
				handle(frame)
				n++
			}
		}
	}
}

func (s *Source) open() (io.ReadCloser, error) {
	if s.Open != nil {
		return s.Open(s.Path)
	}
	if s.Path == "-" || s.Path == "" {
		return ioutil.NopCloser(os.Stdin), nil
	}
	return os.Open(s.Path)
}
