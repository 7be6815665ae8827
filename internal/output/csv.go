package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"sync"
)

type csvFile struct {
	file    io.WriteCloser
	writer  *csv.Writer
	headers []string
}

// CSVOutput writes data.csv per topic/hour partition. The header row is the
// sorted key set of the first message written to the file.
type CSVOutput struct {
	mu    sync.Mutex
	open  fileOpener
	files map[string]*csvFile
}

func NewCSVOutput(open fileOpener) *CSVOutput {
	return &CSVOutput{
		open:  open,
		files: make(map[string]*csvFile),
	}
}

func (c *CSVOutput) WriteMessage(topic string, msg []byte) error {
	event, partition, err := decodeEvent(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	relPath := path.Join(topic, partition, "data.csv")
	f, ok := c.files[relPath]
	if !ok {
		file, err := c.open(relPath)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", relPath, err)
		}
		f = &csvFile{file: file, writer: csv.NewWriter(file), headers: headersOf(event)}
		c.files[relPath] = f
		if err := f.writer.Write(f.headers); err != nil {
			return err
		}
	}

	row := make([]string, len(f.headers))
	for i, header := range f.headers {
		row[i] = formatValue(event[header])
	}
	if err := f.writer.Write(row); err != nil {
		return err
	}

	f.writer.Flush()
	return f.writer.Error()
}

func headersOf(event map[string]interface{}) []string {
	headers := make([]string, 0, len(event))
	for key := range event {
		headers = append(headers, key)
	}
	sort.Strings(headers)
	return headers
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	// nested values stay JSON encoded
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func (c *CSVOutput) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for key, f := range c.files {
		f.writer.Flush()
		if err := f.writer.Error(); err != nil {
			lastErr = err
		}
		if err := f.file.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close %s: %w", key, err)
		}
		delete(c.files, key)
	}
	return lastErr
}
