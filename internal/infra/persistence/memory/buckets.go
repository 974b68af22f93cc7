package memory

import (
	"encoding/json"
	"fmt"
)

// Buckets names the snapshot sections persisted by the sql-backed stores, one
// row per bucket.
var Buckets = []string{"pedigrees", "runs"}

// EncodeBuckets serialises each snapshot section to JSON.
func (s Snapshot) EncodeBuckets() (map[string][]byte, error) {
	out := make(map[string][]byte, len(Buckets))
	for _, bucket := range Buckets {
		var (
			data []byte
			err  error
		)
		switch bucket {
		case "pedigrees":
			data, err = json.Marshal(s.Pedigrees)
		case "runs":
			data, err = json.Marshal(s.Runs)
		}
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", bucket, err)
		}
		out[bucket] = data
	}
	return out, nil
}

// DecodeBucket fills the section named bucket from payload. Unknown buckets are
// ignored so older databases with extra rows still load.
func (s *Snapshot) DecodeBucket(bucket string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	var target any
	switch bucket {
	case "pedigrees":
		target = &s.Pedigrees
	case "runs":
		target = &s.Runs
	default:
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}
