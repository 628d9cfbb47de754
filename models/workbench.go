package models

import (
	"encoding/json"
	"fmt"
)

// WorkbenchDocument is everything extracted from the wiki's Workshop page
type WorkbenchDocument struct {
	Workbenches []Workbench `json:"workbenches"`
	Scrappy     Scrappy     `json:"scrappy"`
	Metadata    Metadata    `json:"metadata"`
}

// Workbench represents a crafting station and its upgrade levels
type Workbench struct {
	Name   string           `json:"name"`
	Levels []WorkbenchLevel `json:"levels"`
}

// WorkbenchLevel is one upgrade level of a station.
// Level is nil when the level cell carries no leading number.
type WorkbenchLevel struct {
	Level        *int          `json:"level"`
	Requirements []Requirement `json:"requirements"`
	Crafts       []string      `json:"crafts"`
}

// Scrappy is the workshop rooster. It levels up like a station but
// brings back materials at a rate instead of unlocking crafts.
type Scrappy struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	PassiveItems []string       `json:"passiveItems"`
	Levels       []ScrappyLevel `json:"levels"`
}

// ScrappyLevel keeps the level cell as raw text
type ScrappyLevel struct {
	Level        string        `json:"level"`
	Requirements []Requirement `json:"requirements"`
	Rates        string        `json:"rates"`
}

// Metadata records where and when the document was extracted
type Metadata struct {
	Source    string `json:"source"`
	FetchedAt string `json:"fetchedAt"`
}

// Requirement is an item cost for reaching a level.
// When the source text matched "<N>x <name>" Parsed is true and
// Quantity/Item are set; otherwise the raw Text is kept together with
// the linked item name, if any.
type Requirement struct {
	Parsed   bool
	Quantity int
	Item     string
	Text     string
	ItemName *string
}

type parsedRequirement struct {
	Quantity int    `json:"quantity"`
	Item     string `json:"item"`
}

type rawRequirement struct {
	Text     string  `json:"text"`
	ItemName *string `json:"itemName"`
}

// MarshalJSON writes {quantity, item} or {text, itemName}
func (r Requirement) MarshalJSON() ([]byte, error) {
	if r.Parsed {
		return json.Marshal(parsedRequirement{Quantity: r.Quantity, Item: r.Item})
	}
	return json.Marshal(rawRequirement{Text: r.Text, ItemName: r.ItemName})
}

// UnmarshalJSON accepts either requirement shape
func (r *Requirement) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("failed to decode requirement: %w", err)
	}

	if _, ok := fields["quantity"]; ok {
		var p parsedRequirement
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("failed to decode requirement: %w", err)
		}
		*r = Requirement{Parsed: true, Quantity: p.Quantity, Item: p.Item}
		return nil
	}

	var raw rawRequirement
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode requirement: %w", err)
	}
	*r = Requirement{Text: raw.Text, ItemName: raw.ItemName}
	return nil
}
