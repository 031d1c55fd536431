package codec

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Format names an encoding.
type Format string

const (
	JSON Format = "json"
	CBOR Format = "cbor"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		// Decoded events are handed to code expecting JSON-shaped values.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// ParseFormat parses a format name. The empty string is JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", JSON:
		return JSON, nil
	case CBOR:
		return CBOR, nil
	default:
		return "", fmt.Errorf("unknown encoding %q, must be json or cbor", s)
	}
}

// Extension returns the file extension for f, without a dot.
func (f Format) Extension() string {
	if f == CBOR {
		return "cbor"
	}
	return "json"
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == CBOR {
		return "application/cbor"
	}
	return "application/json"
}

// Marshal encodes v in format f.
func (f Format) Marshal(v any) ([]byte, error) {
	switch f {
	case CBOR:
		return encMode.Marshal(v)
	case JSON, "":
		return json.Marshal(v)
	default:
		return nil, fmt.Errorf("unknown encoding %q", string(f))
	}
}

// Unmarshal decodes data in format f into v.
func (f Format) Unmarshal(data []byte, v any) error {
	switch f {
	case CBOR:
		return decMode.Unmarshal(data, v)
	case JSON, "":
		return json.Unmarshal(data, v)
	default:
		return fmt.Errorf("unknown encoding %q", string(f))
	}
}
