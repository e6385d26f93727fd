package export

import (
	"encoding/json"
	"os"
)

// JSONSaver writes the whole document as indented JSON.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(doc Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Summary  any `json:"summary"`
		Matrices any `json:"matrices,omitempty"`
	}{doc.Summary, doc.Matrices})
}
