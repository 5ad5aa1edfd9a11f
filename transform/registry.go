package transform

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Name is the name of a registered codec.
type Name string

// Names of the built-in codecs.
const (
	PassThroughCodec  Name = "PASSTHROUGH"
	Base64EncodeCodec Name = "BASE64-ENCODE"
	Base64DecodeCodec Name = "BASE64-DECODE"
)

// CodecFactory creates a fresh codec instance.
type CodecFactory func() Transform

type codecInfo struct {
	description string
	newCodec    CodecFactory
}

// ByName maps codec names to their registered factories.
var ByName = map[Name]*codecInfo{}

// RegisterCodec registers a stateless-constructible codec under the given
// name. Duplicate registration is a programming error.
func RegisterCodec(name Name, description string, newCodec CodecFactory) {
	if ByName[name] != nil {
		panic(fmt.Sprintf("codec with name %q already registered", name))
	}

	ByName[name] = &codecInfo{description, newCodec}
}

// NewCodec creates a fresh instance of the named codec.
func NewCodec(name Name) (Transform, error) {
	ci := ByName[name]
	if ci == nil {
		return nil, errors.Errorf("unknown codec: %v", name)
	}

	return ci.newCodec(), nil
}

// CodecDescription returns the human-readable description of a registered
// codec, or an empty string when the name is unknown.
func CodecDescription(name Name) string {
	ci := ByName[name]
	if ci == nil {
		return ""
	}

	return ci.description
}

// SupportedCodecs returns the names of registered codecs, sorted.
func SupportedCodecs() []Name {
	var result []Name
	for k := range ByName {
		result = append(result, k)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i] < result[j]
	})

	return result
}
