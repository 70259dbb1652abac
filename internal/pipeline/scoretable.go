package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ScoreEntry is one named score.
type ScoreEntry struct {
	Name  string
	Score float64
}

// ScoreTable is a JSON object of name to score whose key order is kept.
type ScoreTable []ScoreEntry

// Names returns the entry names in order.
func (t ScoreTable) Names() []string {
	out := make([]string, len(t))
	for i, e := range t {
		out[i] = e.Name
	}
	return out
}

// Scores returns the entry scores in order.
func (t ScoreTable) Scores() []float64 {
	out := make([]float64, len(t))
	for i, e := range t {
		out[i] = e.Score
	}
	return out
}

// Get returns the score for name.
func (t ScoreTable) Get(name string) (float64, bool) {
	for _, e := range t {
		if e.Name == name {
			return e.Score, true
		}
	}
	return 0, false
}

// set updates an existing entry in place or appends a new one.
func (t ScoreTable) set(name string, score float64) ScoreTable {
	for i := range t {
		if t[i].Name == name {
			t[i].Score = score
			return t
		}
	}
	return append(t, ScoreEntry{Name: name, Score: score})
}

// MarshalJSON writes the table as an object in entry order.
func (t ScoreTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(e.Score, 'f', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object in document order. Values are coerced to
// clamped scores; non-object input yields an empty table.
func (t *ScoreTable) UnmarshalJSON(data []byte) error {
	table, err := decodeScoreTable(data)
	if err != nil {
		return err
	}
	*t = table
	return nil
}

func decodeScoreTable(data []byte) (ScoreTable, error) {
	out := ScoreTable{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return out, fmt.Errorf("score table: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return out, nil
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return ScoreTable{}, fmt.Errorf("score table key: %w", err)
		}
		key, _ := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return ScoreTable{}, fmt.Errorf("score table value: %w", err)
		}
		if key == "" {
			continue
		}
		out = out.set(key, clampScore(coerceNumber(raw, scorePattern)))
	}
	return out, nil
}
