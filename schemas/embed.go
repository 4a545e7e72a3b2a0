// Package schemas embeds the JSON Schema documents that describe provider payloads.
package schemas

import "embed"

// AnalysisResultSchema is the file name of the analysis payload schema.
const AnalysisResultSchema = "analysis_result.schema.json"

//go:embed *.schema.json
var files embed.FS

// Load returns the raw content of an embedded schema file.
func Load(name string) (string, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
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
