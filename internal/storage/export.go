package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Run    RunMetadata   `json:"run"`
	Nodes  []NodeResult  `json:"nodes"`
	Sticks []StickResult `json:"sticks"`
}

func ExportJSON(path string, meta *RunMetadata, result *Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteJSON(file, meta, result); err != nil {
		return err
	}
	return file.Close()
}

func WriteJSON(w io.Writer, meta *RunMetadata, result *Result) error {
	data := ExportData{
		Run:    *meta,
		Nodes:  result.Nodes,
		Sticks: result.Sticks,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
