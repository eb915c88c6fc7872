package models

import (
	"fmt"
)

// Analyst is a synthesized persona that drives one interview.
// All four fields are non-empty once produced by the persona parser.
type Analyst struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Affiliation string `json:"affiliation"`
	Description string `json:"description"`
}

// Persona renders the analyst as the block of text used in prompts
func (a Analyst) Persona() string {
	return fmt.Sprintf("Name: %s\nRole: %s\nAffiliation: %s\nDescription: %s\n",
		a.Name, a.Role, a.Affiliation, a.Description)
}

// IsComplete reports whether every field is populated
func (a Analyst) IsComplete() bool {
	return a.Name != "" && a.Role != "" && a.Affiliation != "" && a.Description != ""
}
