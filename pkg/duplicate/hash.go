// Package duplicate detects exact and near-duplicate workflow submissions.
package duplicate

import (
	"bytes"
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash returns the hex MD5 digest of the document serialized with object keys
// sorted at every depth. Documents that differ only in key order hash equally.
func Hash(doc any) (string, error) {
	canonical, err := Canonicalize(doc)
	if err != nil {
		return "", err
	}

	sum := md5.Sum(canonical) //nolint:gosec

	return hex.EncodeToString(sum[:]), nil
}

// Canonicalize renders the document as compact JSON with sorted keys.
func Canonicalize(doc any) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workflow document: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var generic any

	err = decoder.Decode(&generic)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize workflow document: %w", err)
	}

	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	err = encoder.Encode(generic)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow document: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Similarity is the share of node types present in both sets, relative to the
// larger set. Two empty sets have similarity 0.
func Similarity(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)

	larger := max(len(setA), len(setB))
	if larger == 0 {
		return 0
	}

	shared := 0

	for item := range setA {
		if _, ok := setB[item]; ok {
			shared++
		}
	}

	return float64(shared) / float64(larger)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}

	return set
}
