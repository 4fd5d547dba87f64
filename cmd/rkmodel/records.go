package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dd0wney/rk-toolkit/pkg/ontology"
)

func readRecordsFile(path string) ([]ontology.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := readRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// readRecords accepts a JSON array of objects or a stream of JSON objects
// (one per line or otherwise concatenated).
func readRecords(r io.Reader) ([]ontology.Record, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var rows []ontology.MapRecord
		if err := dec.Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		out := make([]ontology.Record, len(rows))
		for i, row := range rows {
			out[i] = row
		}
		return out, nil
	}

	var out []ontology.Record
	for {
		var row ontology.MapRecord
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("decode record %d: %w", len(out), err)
		}
		out = append(out, row)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
