// Package schemas carries the XSD files the Wisconsin Department of Revenue
// publishes for the two shipper reports. They are compiled into the binary so
// the tool works without a schema directory; paths.schema_dir can point at a
// newer revision.
package schemas

import (
	"embed"
	"io"
)

//go:embed *.xsd
var files embed.FS

// Open returns the embedded schema with the given file name ("AB136.xsd").
func Open(name string) (io.ReadCloser, error) {
	return files.Open(name)
}

// Names lists the embedded schema files.
func Names() []string {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
