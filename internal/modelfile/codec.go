package modelfile

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// Format is a document encoding.
type Format string

// Supported formats. CUE is read-only.
const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
	FormatCBOR Format = "cbor"
)

// ErrUnknownFormat is returned for an unsupported format or file extension.
var ErrUnknownFormat = fmt.Errorf("%w: unknown document format", types.ErrInvalidArgument)

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatYAML, FormatCUE, FormatCBOR:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

//go:embed schema.cue
var schemaCUE string

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("modelfile: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("modelfile: CBOR decoder initialization failed: " + err.Error())
	}
}

// Decode parses data in the given format.
// Returns ErrInvalidData if the document is malformed.
func Decode(data []byte, f Format) (*Document, error) {
	var d Document
	switch f {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("%w: yaml: %v", types.ErrInvalidData, err)
		}
	case FormatCUE:
		if err := decodeCUE(data, &d); err != nil {
			return nil, err
		}
	case FormatCBOR:
		if err := cborDec.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%w: cbor: %v", types.ErrInvalidData, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return &d, nil
}

// decodeCUE compiles data, unifies it with the document schema and decodes
// the concrete result.
func decodeCUE(data []byte, d *Document) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling document schema: %w", err)
	}
	val := ctx.CompileBytes(data, cue.Filename("document.cue"))
	if err := val.Err(); err != nil {
		return fmt.Errorf("%w: cue: %v", types.ErrInvalidData, err)
	}
	val = schema.LookupPath(cue.ParsePath("#Document")).Unify(val)
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: cue: %v", types.ErrInvalidData, err)
	}
	if err := val.Decode(d); err != nil {
		return fmt.Errorf("%w: cue: %v", types.ErrInvalidData, err)
	}
	return nil
}

// Encode serializes d in the given format. CUE is not an output format.
func Encode(d *Document, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatCBOR:
		data, err := cborEnc.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("encoding cbor: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: cannot encode %q", ErrUnknownFormat, f)
	}
}

// ReadFile decodes the document at path, choosing the format from its
// extension.
func ReadFile(path string) (*Document, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Decode(data, f)
}
