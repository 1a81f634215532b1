package pipeline

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
)

// ReadTestList reads whitespace separated file names
func ReadTestList(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	files := make([]string, 0)
	for scanner.Scan() {
		files = append(files, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "can't read test list")
	}
	return files, nil
}

// ReadTestFile reads list of files to process from the given path
func ReadTestFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrSourceOpen, "%s: %v", path, err)
	}
	defer file.Close()
	return ReadTestList(file)
}
