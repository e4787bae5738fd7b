package printers

import (
	"encoding/json"
	"fmt"

	"tableflip.dev/sln/pkg/solution"
)

// JSON writes v as indented JSON.
func (pp *PrettyPrint) JSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(pp.out(), string(b))
	return err
}

// JSONLine writes v as one line of JSON.
func (pp *PrettyPrint) JSONLine(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(pp.out(), string(b))
	return err
}

// ResultJSON is the machine form of an applied edit.
type ResultJSON struct {
	Op      string   `json:"op"`
	Changed bool     `json:"changed"`
	ID      string   `json:"id,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Report prints the result of an edit, as JSON when asJSON is set.
func (pp *PrettyPrint) Report(op, what string, res solution.Result, asJSON bool) error {
	if asJSON {
		return pp.JSON(ResultJSON{Op: op, Changed: res.Changed, ID: res.ID, Removed: res.Removed})
	}
	pp.Result(what, res)
	return nil
}
