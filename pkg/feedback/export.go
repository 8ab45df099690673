package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/singura/singura/pkg/storage"
)

// ExportNDJSON writes the full label set as newline-delimited JSON, one label
// per line, ordered by (organization, automation id). The output is
// deterministic so repeated exports of equal state are byte-identical.
func ExportNDJSON(ctx context.Context, in *Ingestor, store storage.BlobStore, key string) (int, error) {
	labels := in.All()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, l := range labels {
		if err := enc.Encode(l); err != nil {
			return 0, fmt.Errorf("failed to encode label %s: %w", l.AutomationID, err)
		}
	}
	if err := store.Put(ctx, key, buf.Bytes()); err != nil {
		return 0, fmt.Errorf("failed to store label export: %w", err)
	}
	return len(labels), nil
}

// ImportNDJSON reads a label export back into memory. Labels merge by
// (organization, automation id): an imported label overwrites an existing
// one with the same key, and labels absent from the export are kept.
func ImportNDJSON(ctx context.Context, in *Ingestor, store storage.BlobStore, key string) (int, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to read label export: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	count := 0
	for dec.More() {
		var l GroundTruthLabel
		if err := dec.Decode(&l); err != nil {
			return count, fmt.Errorf("failed to decode label: %w", err)
		}
		in.mu.Lock()
		org := in.labels[l.OrganizationID]
		if org == nil {
			org = make(map[string]GroundTruthLabel)
			in.labels[l.OrganizationID] = org
		}
		org[l.AutomationID] = l
		in.mu.Unlock()
		count++
	}
	return count, nil
}
