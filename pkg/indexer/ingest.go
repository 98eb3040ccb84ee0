package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go.mongodb.org/mongo-driver/bson"
)

// sampleDataFiles maps bundled sample-data files to their target
// collections, in ingest order.
var sampleDataFiles = []struct {
	File       string
	Collection string
}{
	{"datapod.json", "datapod"},
	{"datasource.json", "datasource"},
	{"dataset_10.json", "dataset"},
	{"vizpods_10.json", "vizpods"},
}

// DataSink receives ingested documents. *mongodb.Store satisfies it.
type DataSink interface {
	DeleteAll(ctx context.Context, collection string) error
	InsertMany(ctx context.Context, collection string, docs []interface{}) error
}

// Ingestor loads extended-JSON document files into the document store
type Ingestor struct {
	sink DataSink
}

// NewIngestor creates an ingestor over the given sink
func NewIngestor(sink DataSink) (*Ingestor, error) {
	if sink == nil {
		return nil, fmt.Errorf("ingestor requires a data sink")
	}
	return &Ingestor{sink: sink}, nil
}

// IngestFile loads one extended-JSON file into a collection. With replace
// set, existing documents are removed first; the file is parsed before
// anything is deleted so a malformed file never empties a collection.
// Returns how many documents were inserted.
func (in *Ingestor) IngestFile(ctx context.Context, collection, path string, replace bool) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	docs, err := ParseExtendedJSON(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if replace {
		if err := in.sink.DeleteAll(ctx, collection); err != nil {
			return 0, err
		}
	}
	if len(docs) == 0 {
		return 0, nil
	}
	if err := in.sink.InsertMany(ctx, collection, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// IngestSampleData loads the bundled sample-data files from dir. Missing
// files are skipped; any parse or write failure aborts. Returns the total
// number of documents inserted.
func (in *Ingestor) IngestSampleData(ctx context.Context, dir string, replace bool) (int, error) {
	total := 0
	for _, entry := range sampleDataFiles {
		path := filepath.Join(dir, entry.File)
		if _, err := os.Stat(path); err != nil {
			slog.Warn("Sample data file not found", "file", entry.File)
			continue
		}

		n, err := in.IngestFile(ctx, entry.Collection, path, replace)
		if err != nil {
			return total, err
		}
		slog.Info("Ingested sample data",
			"file", entry.File,
			"collection", entry.Collection,
			"documents", n)
		total += n
	}
	return total, nil
}

// ParseExtendedJSON decodes documents from MongoDB extended JSON ($oid,
// $date and friends). The input may be a single object, an array of
// objects, or several top-level objects concatenated in one file; blank
// input yields no documents.
func ParseExtendedJSON(raw []byte) ([]interface{}, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	// A json.Decoder walks concatenated top-level values without being
	// fooled by braces inside strings or nested documents.
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	var docs []interface{}
	for {
		var chunk json.RawMessage
		err := decoder.Decode(&chunk)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid JSON at offset %d: %w", decoder.InputOffset(), err)
		}

		parsed, err := decodeExtendedChunk(chunk)
		if err != nil {
			return nil, err
		}
		docs = append(docs, parsed...)
	}
	return docs, nil
}

// decodeExtendedChunk turns one top-level JSON value into documents: arrays
// contribute one document per element.
func decodeExtendedChunk(chunk json.RawMessage) ([]interface{}, error) {
	c := bytes.TrimSpace(chunk)
	if len(c) > 0 && c[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(c, &elems); err != nil {
			return nil, fmt.Errorf("invalid JSON array: %w", err)
		}
		docs := make([]interface{}, 0, len(elems))
		for _, elem := range elems {
			doc, err := decodeExtendedDocument(elem)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
		return docs, nil
	}

	doc, err := decodeExtendedDocument(c)
	if err != nil {
		return nil, err
	}
	return []interface{}{doc}, nil
}

func decodeExtendedDocument(data []byte) (bson.D, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, fmt.Errorf("invalid extended JSON document: %w", err)
	}
	return doc, nil
}
