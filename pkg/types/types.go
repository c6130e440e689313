// Package types holds the prediction record and report types shared by the
// annotation packages, with the JSON codecs that keep file order.
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// ErrMissingKey is returned when a prediction record lacks a required key
var ErrMissingKey = errors.New("missing required key")

// Point is a pixel coordinate on the source image
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmark is a named point predicted on an image
type Landmark struct {
	Name string
	Point
}

// SegmentDirective names a segment and the two landmarks it connects
type SegmentDirective struct {
	Name  string
	Start string
	End   string
}

// Segment is a resolved line between two landmarks
type Segment struct {
	Name  string
	Start Landmark
	End   Landmark
}

// Unit of a measured distance
type Unit string

const (
	Centimeters Unit = "cm"
	Pixels      Unit = "px"
)

// Measurement holds the measured horizontal extent of a segment
type Measurement struct {
	SegmentName   string  `json:"segment_name"`
	PixelDistance float64 `json:"pixel_distance"`
	Scaled        float64 `json:"scaled_distance"`
	Unit          Unit    `json:"unit"`
}

// Field is one key of an ordered JSON object
type Field struct {
	Key   string
	Value json.RawMessage
}

// Text returns the value as display text; strings are unquoted
func (f Field) Text() string {
	var s string
	if err := json.Unmarshal(f.Value, &s); err == nil {
		return s
	}
	return string(f.Value)
}

// OrderedInfo is a JSON object that keeps its key order through a round trip
type OrderedInfo []Field

// UnmarshalJSON decodes an object preserving key order
func (o *OrderedInfo) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = nil
		return nil
	}
	fields, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	*o = fields
	return nil
}

// MarshalJSON encodes the fields in their stored order
func (o OrderedInfo) MarshalJSON() ([]byte, error) {
	return encodeObject(o)
}

// RecordInput is one record of the prediction file
type RecordInput struct {
	ID           string
	OrigHeight   float64
	Info         OrderedInfo
	Details      json.RawMessage
	Landmarks    []Landmark
	Segments     []SegmentDirective
	MeasureNames []string
	// Err is set when the record could not be parsed; the other fields
	// except ID are then empty
	Err error
}

type rawRecord struct {
	OrigHeight   *float64                         `json:"origHeight"`
	Info         OrderedInfo                      `json:"info"`
	Details      json.RawMessage                  `json:"details"`
	Landmarks    []map[string]Point               `json:"landmarks"`
	DrawXLine    []map[string]rawSegmentDirective `json:"drawXLine"`
	MeasureXDist []string                         `json:"measureXDist"`
}

type rawSegmentDirective struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ParseRecord decodes a single record, checking that the keys the
// annotation pass depends on are present
func ParseRecord(id string, data []byte) (RecordInput, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return RecordInput{}, fmt.Errorf("record %s: %w", id, err)
	}

	switch {
	case raw.Landmarks == nil:
		return RecordInput{}, fmt.Errorf("record %s: %w: landmarks", id, ErrMissingKey)
	case raw.DrawXLine == nil:
		return RecordInput{}, fmt.Errorf("record %s: %w: drawXLine", id, ErrMissingKey)
	case raw.MeasureXDist == nil:
		return RecordInput{}, fmt.Errorf("record %s: %w: measureXDist", id, ErrMissingKey)
	}

	rec := RecordInput{
		ID:           id,
		Info:         raw.Info,
		Details:      raw.Details,
		MeasureNames: raw.MeasureXDist,
	}
	if raw.OrigHeight != nil {
		rec.OrigHeight = *raw.OrigHeight
	}

	for _, item := range raw.Landmarks {
		for _, name := range sortedKeys(item) {
			rec.Landmarks = append(rec.Landmarks, Landmark{Name: name, Point: item[name]})
		}
	}
	for _, item := range raw.DrawXLine {
		for _, name := range sortedKeys(item) {
			d := item[name]
			rec.Segments = append(rec.Segments, SegmentDirective{Name: name, Start: d.Start, End: d.End})
		}
	}

	return rec, nil
}

// ParsePrediction reads a prediction file and returns its records in file
// order. A record that fails to parse is returned with Err set so that the
// rest of the batch can still run; only an unreadable file is an error.
func ParsePrediction(r io.Reader) ([]RecordInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read prediction: %w", err)
	}
	fields, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prediction: %w", err)
	}

	records := make([]RecordInput, 0, len(fields))
	for _, f := range fields {
		rec, err := ParseRecord(f.Key, f.Value)
		if err != nil {
			rec = RecordInput{ID: f.Key, Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

// FemurReport holds the femur lengths of both legs
type FemurReport struct {
	RightFemur string `json:"RightFemur"`
	LeftFemur  string `json:"LeftFemur"`
	Difference string `json:"Difference"`
}

// TibiaReport holds the tibia lengths of both legs
type TibiaReport struct {
	RightTibia string `json:"RightTibia"`
	LeftTibia  string `json:"LeftTibia"`
	Difference string `json:"Difference"`
}

// TotalReport holds the femur+tibia totals of both legs
type TotalReport struct {
	TotalRight string `json:"TotalRight"`
	TotalLeft  string `json:"TotalLeft"`
	Difference string `json:"Difference"`
}

// Report is the JSON result for one record
type Report struct {
	Info          OrderedInfo        `json:"info"`
	Femur         FemurReport        `json:"femur"`
	Tibia         TibiaReport        `json:"tibia"`
	Total         TotalReport        `json:"total"`
	PixelDistance map[string]float64 `json:"pixel_distance"`
	Details       json.RawMessage    `json:"details"`
	Warnings      []string           `json:"warnings,omitempty"`
}

// ReportEntry pairs a record id with its report
type ReportEntry struct {
	ID     string
	Report Report
}

// ReportSet is a JSON object of reports keyed by record id, in insertion order
type ReportSet []ReportEntry

// MarshalJSON encodes the set as an object in insertion order
func (s ReportSet) MarshalJSON() ([]byte, error) {
	fields := make([]Field, 0, len(s))
	for _, e := range s {
		v, err := json.Marshal(e.Report)
		if err != nil {
			return nil, fmt.Errorf("report %s: %w", e.ID, err)
		}
		fields = append(fields, Field{Key: e.ID, Value: v})
	}
	return encodeObject(fields)
}

func decodeObject(data []byte) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object")
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		fields = append(fields, Field{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

func encodeObject(fields []Field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(f.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
