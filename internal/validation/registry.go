package validation

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/schemas"
)

// Registry holds one compiled schema per report type. It is built once and
// never modified, so it can be shared by concurrent sessions.
type Registry struct {
	schemas map[report.ReportType]*Schema
}

// LoadRegistry compiles the schema of every report type.
//
// PARAMETERS:
//   - dir: A directory with replacement XSD files named after the schema
//     code ("AB136.xsd"). Empty, or a file missing from the directory,
//     falls back to the embedded copy.
func LoadRegistry(dir string) (*Registry, error) {
	reg := &Registry{schemas: make(map[report.ReportType]*Schema)}
	for _, rt := range report.AllReportTypes {
		s, err := loadFor(dir, rt)
		if err != nil {
			return nil, err
		}
		if _, ok := s.roots[rt.String()]; !ok {
			return nil, fmt.Errorf("schema %s does not declare a %s root element", s.Name, rt)
		}
		reg.schemas[rt] = s
	}
	return reg, nil
}

func loadFor(dir string, rt report.ReportType) (*Schema, error) {
	name := rt.SchemaName()
	open := func() (io.ReadCloser, string, error) {
		rc, err := schemas.Open(name)
		return rc, name, err
	}
	if dir != "" {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		switch {
		case err == nil:
			open = func() (io.ReadCloser, string, error) { return f, path, nil }
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to open schema: %w", err)
		}
	}

	rc, label, err := open()
	if err != nil {
		return nil, fmt.Errorf("failed to open schema %s: %w", name, err)
	}
	defer rc.Close()
	return LoadSchema(rc, label)
}

var embedded = sync.OnceValues(func() (*Registry, error) {
	return LoadRegistry("")
})

// Embedded returns the registry built from the schemas compiled into the
// binary. It is loaded on first use.
func Embedded() (*Registry, error) {
	return embedded()
}

// Schema returns the compiled schema for rt.
func (r *Registry) Schema(rt report.ReportType) (*Schema, error) {
	s, ok := r.schemas[rt]
	if !ok {
		return nil, fmt.Errorf("no schema for report type %s", rt)
	}
	return s, nil
}

// Validate checks doc against the schema of rt.
func (r *Registry) Validate(rt report.ReportType, doc []byte) (*SchemaValidationError, error) {
	s, err := r.Schema(rt)
	if err != nil {
		return nil, err
	}
	return s.Validate(doc), nil
}

// DetectReportType returns the report type named by the root element of doc.
func DetectReportType(doc []byte) (report.ReportType, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.CharsetReader = charsetReader
	for {
		tok, err := dec.Token()
		if err != nil {
			return 0, fmt.Errorf("cannot determine report type: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return report.ParseReportType(se.Name.Local)
		}
	}
}
