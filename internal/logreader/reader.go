package logreader

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// LogReader streams raw log lines to the analysis core. The core owns
// parsing, so readers never interpret line contents.
type LogReader struct{}

// NewLogReader creates a new log reader.
func NewLogReader() *LogReader {
	return &LogReader{}
}

// ReadFile reads a log file and returns a channel of raw lines.
// Gzipped files are decompressed transparently.
func (r *LogReader) ReadFile(ctx context.Context, path string) (<-chan string, <-chan error) {
	lineChan := make(chan string, 100)
	errorChan := make(chan error, 1)

	go func() {
		defer close(lineChan)
		defer close(errorChan)

		file, err := openFile(path)
		if err != nil {
			errorChan <- fmt.Errorf("failed to open file: %w", err)
			return
		}
		defer file.Close()

		if err := scanLines(ctx, file, lineChan); err != nil {
			errorChan <- fmt.Errorf("error reading file: %w", err)
		}
	}()

	return lineChan, errorChan
}

// ReadStdin reads raw lines from standard input.
func (r *LogReader) ReadStdin(ctx context.Context) (<-chan string, <-chan error) {
	lineChan := make(chan string, 100)
	errorChan := make(chan error, 1)

	go func() {
		defer close(lineChan)
		defer close(errorChan)

		if err := scanLines(ctx, os.Stdin, lineChan); err != nil {
			errorChan <- fmt.Errorf("error reading stdin: %w", err)
		}
	}()

	return lineChan, errorChan
}

// TailFile reads a file and, when follow is set, keeps emitting lines
// appended afterwards until the context is cancelled.
func (r *LogReader) TailFile(ctx context.Context, path string, follow bool) (<-chan string, <-chan error) {
	if !follow {
		return r.ReadFile(ctx, path)
	}

	lineChan := make(chan string, 100)
	errorChan := make(chan error, 1)

	go func() {
		defer close(lineChan)
		defer close(errorChan)

		file, err := openFile(path)
		if err != nil {
			errorChan <- fmt.Errorf("failed to open file: %w", err)
			return
		}
		defer file.Close()

		// A bufio.Scanner latches at EOF, so tailing uses a plain
		// bufio.Reader and keeps any partial trailing line buffered
		// until its newline arrives.
		reader := bufio.NewReaderSize(file, 64*1024)
		var partial strings.Builder

		drain := func() bool {
			for {
				chunk, err := reader.ReadString('\n')
				if err == nil {
					line := partial.String() + strings.TrimRight(chunk, "\r\n")
					partial.Reset()
					select {
					case <-ctx.Done():
						return false
					case lineChan <- line:
						continue
					}
				}
				partial.WriteString(chunk)
				if err != io.EOF {
					errorChan <- fmt.Errorf("error reading file: %w", err)
					return false
				}
				return true
			}
		}

		// Drain existing content before watching for appends.
		if !drain() {
			return
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			errorChan <- fmt.Errorf("failed to create watcher: %w", err)
			return
		}
		defer watcher.Close()

		if err := watcher.Add(path); err != nil {
			errorChan <- fmt.Errorf("failed to watch file: %w", err)
			return
		}

		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-watcher.Events:
				if event.Op&fsnotify.Write == fsnotify.Write {
					if !drain() {
						return
					}
				}
			case err := <-watcher.Errors:
				errorChan <- err
				return
			case <-ticker.C:
				if !drain() {
					return
				}
			}
		}
	}()

	return lineChan, errorChan
}

// ReadAll collects a whole file into memory for batched analysis.
func (r *LogReader) ReadAll(path string) ([]string, error) {
	file, err := openFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := newLineScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return lines, nil
}

func scanLines(ctx context.Context, src io.Reader, out chan<- string) error {
	scanner := newLineScanner(src)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		case out <- scanner.Text():
		}
	}
	return scanner.Err()
}

// newLineScanner builds a bufio.Scanner sized for long access-log lines.
func newLineScanner(src io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(src)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	return scanner
}

// openFile opens a file, handling gzip compression.
func openFile(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(path, ".gz") {
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return &gzipReadCloser{gzReader, file}, nil
	}

	return file, nil
}

// gzipReadCloser wraps a gzip.Reader and its underlying file.
type gzipReadCloser struct {
	gzReader *gzip.Reader
	file     *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.gzReader.Read(p)
}

func (g *gzipReadCloser) Close() error {
	g.gzReader.Close()
	return g.file.Close()
}
