package output

import (
	"fmt"
	"io"
	"path"
	"sync"
)

// JSONOutput appends one JSON document per line to data.json in each
// topic/hour partition.
type JSONOutput struct {
	mu    sync.Mutex
	open  fileOpener
	files map[string]io.WriteCloser
}

func NewJSONOutput(open fileOpener) *JSONOutput {
	return &JSONOutput{
		open:  open,
		files: make(map[string]io.WriteCloser),
	}
}

func (j *JSONOutput) WriteMessage(topic string, msg []byte) error {
	_, partition, err := decodeEvent(msg)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	relPath := path.Join(topic, partition, "data.json")
	file, ok := j.files[relPath]
	if !ok {
		file, err = j.open(relPath)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", relPath, err)
		}
		j.files[relPath] = file
	}

	if _, err := file.Write(msg); err != nil {
		return err
	}
	_, err = file.Write([]byte("\n"))
	return err
}

func (j *JSONOutput) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var lastErr error
	for key, file := range j.files {
		if err := file.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close %s: %w", key, err)
		}
		delete(j.files, key)
	}
	return lastErr
}
