package formatter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/theoremus-urban-solutions/bus-tracker/siri"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// ParseFormat accepts "json" or "xml" in any case. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXML {
		return "application/xml"
	}
	return "application/json"
}

type responseBuilder struct {
	indent bool
}

// NewResponseBuilder creates a new response builder for formatting SIRI responses
func NewResponseBuilder() *responseBuilder {
	return &responseBuilder{}
}

// Indented pretty-prints JSON output.
func (rb *responseBuilder) Indented() *responseBuilder {
	return &responseBuilder{indent: true}
}

// Build serializes res in format f
func (rb *responseBuilder) Build(res *siri.SiriResponse, f Format) []byte {
	if f == FormatXML {
		return rb.BuildXML(res)
	}
	return rb.BuildJSON(res)
}

// BuildJSON serializes a SIRI response to JSON
func (rb *responseBuilder) BuildJSON(res *siri.SiriResponse) []byte {
	var b []byte
	if rb.indent {
		b, _ = json.MarshalIndent(res, "", "  ")
	} else {
		b, _ = json.Marshal(res)
	}
	return b
}
