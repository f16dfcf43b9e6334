package fixture

import (
	"bytes"
	"fmt"

	"github.com/roach88/remock/internal/canon"
)

// Encode renders the key → records mapping as the persisted fixture text.
//
// Layout: a JSON object with one fixture key per line and one record per
// line, keys in canonical order, record bodies in canonical single-line
// form. The file is machine-loadable JSON and diffs cleanly in version
// control: re-recording identical behavior is a zero-line diff.
//
//	{
//	  "t > f 1": [
//	    {"input":[2,4],"output":6}
//	  ]
//	}
func Encode(records map[string][]Record) ([]byte, error) {
	keys := sortedKeys(records)

	var buf bytes.Buffer
	buf.WriteString("{")
	for i, key := range keys {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		keyText, err := canon.MarshalCanonical(canon.String(key))
		if err != nil {
			return nil, fmt.Errorf("encode key %q: %w", key, err)
		}
		buf.Write(keyText)
		buf.WriteString(": [")

		recs := records[key]
		for j, rec := range recs {
			if j > 0 {
				buf.WriteString(",")
			}
			buf.WriteString("\n    ")
			line, err := rec.MarshalCanonical()
			if err != nil {
				return nil, fmt.Errorf("encode key %q record %d: %w", key, j, err)
			}
			buf.Write(line)
		}
		if len(recs) > 0 {
			buf.WriteString("\n  ")
		}
		buf.WriteString("]")
	}
	if len(keys) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// sortedKeys returns fixture keys in canonical (UTF-16 code unit) order,
// matching the key ordering canon uses inside objects.
func sortedKeys(records map[string][]Record) []string {
	obj := make(canon.Object, len(records))
	for k := range records {
		obj[k] = canon.Null{}
	}
	return obj.SortedKeys()
}

// EncodedKey renders one key's record sequence as canonical JSON on a
// single line. Used for change classification in diff summaries.
func EncodedKey(recs []Record) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, rec := range recs {
		if i > 0 {
			buf.WriteByte(',')
		}
		line, err := rec.MarshalCanonical()
		if err != nil {
			return "", err
		}
		buf.Write(line)
	}
	buf.WriteByte(']')
	return buf.String(), nil
}

// Keys returns the fixture keys present in a mapping, canonically ordered.
func Keys(records map[string][]Record) []string {
	return sortedKeys(records)
}
