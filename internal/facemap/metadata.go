package facemap

import (
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Metadata is the model description exported next to a dice mesh file
type Metadata struct {
	Name            string                           `json:"name,omitempty" yaml:"name"`
	ColliderFaceMap map[protocol.DieType]map[int]int `json:"colliderFaceMap,omitempty" yaml:"colliderFaceMap"`
	D4FaceDown      *bool                            `json:"d4FaceDown,omitempty" yaml:"d4FaceDown"`
	FaceCounts      map[protocol.DieType]int         `json:"faceCounts,omitempty" yaml:"faceCounts"`
}

const metadataSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["colliderFaceMap"],
  "properties": {
    "name": {"type": "string"},
    "d4FaceDown": {"type": "boolean"},
    "colliderFaceMap": {
      "type": "object",
      "minProperties": 1,
      "propertyNames": {"enum": ["d4", "d6", "d8", "d10", "d12", "d20", "d100"]},
      "additionalProperties": {
        "type": "object",
        "minProperties": 1,
        "propertyNames": {"pattern": "^[0-9]+$"},
        "additionalProperties": {"type": "integer", "minimum": 0}
      }
    },
    "faceCounts": {
      "type": "object",
      "additionalProperties": {"type": "integer", "minimum": 1}
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("metadata.schema.json", metadataSchema)
	})
	return schema, schemaErr
}

// LoadMetadata reads a .json, .yaml or .yml metadata file and builds its
// registry. Any problem with the file is a ConfigError.
func LoadMetadata(path string) (*Registry, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errutil.ErrConfig, "read metadata: %v", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseMetadata(data, "yaml", name)
	default:
		return ParseMetadata(data, "json", name)
	}
}

// ParseMetadata decodes metadata in the given format ("json" or "yaml")
func ParseMetadata(data []byte, format, name string) (*Registry, error) {
	meta := &Metadata{}
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, meta)
	default:
		err = json.Unmarshal(data, meta)
	}
	if err != nil {
		return nil, errors.Wrapf(errutil.ErrConfig, "decode %s metadata: %v", format, err)
	}
	if meta.Name == "" {
		meta.Name = name
	}

	if err := meta.validate(); err != nil {
		return nil, err
	}
	return meta.Registry()
}

// validate checks the decoded document against the metadata schema. The
// document is re-encoded first so both formats get the same checks.
func (m *Metadata) validate() error {
	s, err := compiledSchema()
	if err != nil {
		return errors.Wrap(err, "compile metadata schema")
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return errors.Wrapf(errutil.ErrConfig, "encode metadata: %v", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errors.Wrapf(errutil.ErrConfig, "encode metadata: %v", err)
	}
	if err := s.Validate(doc); err != nil {
		if len(m.ColliderFaceMap) == 0 {
			return errors.Wrapf(errutil.ErrConfig, "'colliderFaceMap' data not found in %s, dice values can not be resolved", m.Name)
		}
		return errors.Wrapf(errutil.ErrConfig, "metadata %s: %v", m.Name, err)
	}
	return nil
}

// Registry builds the registry described by the metadata
func (m *Metadata) Registry() (*Registry, error) {
	if len(m.ColliderFaceMap) == 0 {
		return nil, errors.Wrapf(errutil.ErrConfig, "'colliderFaceMap' data not found in %s, dice values can not be resolved", m.Name)
	}

	maps := make(map[protocol.DieType]FaceMap, len(m.ColliderFaceMap))
	for t, values := range m.ColliderFaceMap {
		if !t.Valid() {
			return nil, errors.Wrapf(errutil.ErrConfig, "metadata %s: unknown die type %q", m.Name, t)
		}
		maps[t] = New(values)
	}

	opts := []Option{WithName(m.Name), WithFaceCounts(m.FaceCounts)}
	if m.D4FaceDown != nil {
		opts = append(opts, WithD4FaceDown(*m.D4FaceDown))
	}
	r := NewRegistry(maps, opts...)

	if err := r.Validate(r.FaceCounts()); err != nil {
		return nil, err
	}
	return r, nil
}
