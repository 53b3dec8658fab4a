package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

type rawManifest struct {
	Backend     string                     `json:"backend"`
	Version     string                     `json:"version"`
	Types       map[string]json.RawMessage `json:"types"`
	EntryPoints map[string]rawEntry        `json:"entry_points"`
}

type rawType struct {
	Kind     string     `json:"kind"`
	CType    string     `json:"ctype"`
	ElemType string     `json:"elemtype"`
	Rank     uint32     `json:"rank"`
	Ops      rawOps     `json:"ops"`
	Record   *rawRecord `json:"record"`
}

type rawOps struct {
	ArrayOps
}

type rawRecord struct {
	New    string     `json:"new"`
	Fields []rawField `json:"fields"`
}

type rawField struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Project string `json:"project"`
}

type rawEntry struct {
	CFun    string     `json:"cfun"`
	Inputs  []rawParam `json:"inputs"`
	Outputs []rawParam `json:"outputs"`
}

type rawParam struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Unique bool   `json:"unique"`
}

// LoadFile reads and decodes the manifest at path.
func LoadFile(path string) (*Manifest, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, data, nil
}

// Load decodes a manifest from r.
func Load(r io.Reader) (*Manifest, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(buf.Bytes())
}

// Parse decodes the JSON manifest document in data. Types and entry points are
// returned sorted by name so that every run iterates them identically.
func Parse(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON: %w", err)
	}
	m := &Manifest{
		Backend: Backend(raw.Backend),
		Version: raw.Version,
		Types:   make([]NamedType, 0, len(raw.Types)),
		Entries: make([]NamedEntry, 0, len(raw.EntryPoints)),
	}

	for _, name := range sortedKeys(raw.Types) {
		var rt rawType
		if err := json.Unmarshal(raw.Types[name], &rt); err != nil {
			return nil, fmt.Errorf("type %q: %w", name, err)
		}
		ty, err := rt.decode()
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", name, err)
		}
		m.Types = append(m.Types, NamedType{Name: name, Type: ty})
	}

	for _, name := range sortedKeys(raw.EntryPoints) {
		re := raw.EntryPoints[name]
		m.Entries = append(m.Entries, NamedEntry{
			Name: name,
			Entry: &Entry{
				CFun:    re.CFun,
				Inputs:  decodeParams(re.Inputs),
				Outputs: decodeParams(re.Outputs),
			},
		})
	}
	return m, nil
}

func (rt *rawType) decode() (Type, error) {
	switch rt.Kind {
	case "array":
		return &ArrayType{
			Elem:  ElemType(rt.ElemType),
			Rank:  rt.Rank,
			CType: rt.CType,
			Ops:   rt.Ops.ArrayOps,
		}, nil
	case "opaque":
		op := &OpaqueType{CType: rt.CType, Free: rt.Ops.Free}
		if rt.Record != nil {
			rec := &Record{New: rt.Record.New, Fields: make([]Field, 0, len(rt.Record.Fields))}
			for _, f := range rt.Record.Fields {
				rec.Fields = append(rec.Fields, Field(f))
			}
			op.Record = rec
		}
		return op, nil
	default:
		return nil, fmt.Errorf("unsupported type kind %q (expected array or opaque)", rt.Kind)
	}
}

func decodeParams(in []rawParam) []Param {
	out := make([]Param, 0, len(in))
	for _, p := range in {
		out = append(out, Param(p))
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
