package exporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"arcdata/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawRecords(records ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(records))
	for i, r := range records {
		out[i] = json.RawMessage(r)
	}
	return out
}

func TestNewAggregate_SinglePageDescriptor(t *testing.T) {
	export := NewAggregate(&models.Collection{
		Records:        rawRecords(`{"id":"a"}`, `{"id":"b"}`, `{"id":"c"}`),
		Pages:          2,
		LastTotalPages: 2,
	})

	assert.Len(t, export.Data, 3)
	assert.Equal(t, models.Pagination{
		Page:        1,
		Limit:       3,
		Total:       3,
		TotalPages:  1,
		HasNextPage: false,
		HasPrevPage: false,
	}, export.Pagination)
	assert.Nil(t, export.MaxValue)
}

func TestNewAggregate_Empty(t *testing.T) {
	export := NewAggregate(&models.Collection{})

	data, err := json.Marshal(export)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"data": [],
		"pagination": {"page":1,"limit":0,"total":0,"totalPages":1,"hasNextPage":false,"hasPrevPage":false}
	}`, string(data))
}

func TestWriteJSON_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "items.json")
	export := NewAggregate(&models.Collection{
		Records:  rawRecords(`{"id":"ärc","name":"Rocketeer <Mk2> & co","stat_block":{"damage":12.50}}`),
		MaxValue: json.RawMessage(`15000`),
	})

	n, err := WriteJSON(path, export)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)

	want := `{
  "data": [
    {
      "id": "ärc",
      "name": "Rocketeer <Mk2> & co",
      "stat_block": {
        "damage": 12.50
      }
    }
  ],
  "maxValue": 15000,
  "pagination": {
    "page": 1,
    "limit": 1,
    "total": 1,
    "totalPages": 1,
    "hasNextPage": false,
    "hasPrevPage": false
  }
}
`
	assert.Equal(t, want, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestWriteJSON_EncodeFailureLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")

	_, err := WriteJSON(path, map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestReadAggregate_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arcs.json")
	export := NewAggregate(&models.Collection{Records: rawRecords(`{"id":"wasp","loot":["ARC Alloy"]}`)})
	_, err := WriteJSON(path, export)
	require.NoError(t, err)

	got, err := ReadAggregate(path)
	require.NoError(t, err)
	require.Len(t, got.Data, 1)
	assert.JSONEq(t, `{"id":"wasp","loot":["ARC Alloy"]}`, string(got.Data[0]))
	assert.Equal(t, export.Pagination, got.Pagination)

	_, err = ReadAggregate(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReadWorkbenches_RoundTrip(t *testing.T) {
	level := 2
	doc := &models.WorkbenchDocument{
		Workbenches: []models.Workbench{{
			Name: "Medical Lab",
			Levels: []models.WorkbenchLevel{{
				Level: &level,
				Requirements: []models.Requirement{
					{Parsed: true, Quantity: 6, Item: "Antiseptic"},
					{Text: "Unlocked by default"},
				},
				Crafts: []string{"Bandage"},
			}},
		}},
		Scrappy:  models.Scrappy{Name: "Scrappy", Levels: []models.ScrappyLevel{{Level: "Level 1", Rates: "Low"}}},
		Metadata: models.Metadata{Source: "https://arcraiders.wiki/wiki/Workshop", FetchedAt: "2026-10-18T07:30:15.123Z"},
	}

	path := filepath.Join(t.TempDir(), "workbenches.json")
	_, err := WriteJSON(path, doc)
	require.NoError(t, err)

	got, err := ReadWorkbenches(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Workbenches, got.Workbenches)
	assert.Equal(t, doc.Metadata, got.Metadata)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"workbenches": 3}`), 0644))
	_, err = ReadWorkbenches(bad)
	assert.Error(t, err)
}

func TestSummarizeCollection(t *testing.T) {
	export := NewAggregate(&models.Collection{
		Records: rawRecords(
			`{"id":"bastion","name":"Bastion","loot":["ARC Alloy","Bastion Cell"]}`,
			`{"id":"tick","name":"Tick"}`,
		),
		MaxValue: json.RawMessage(`640`),
	})

	var out bytes.Buffer
	SummarizeCollection(&out, "arcs", export, "arcs.json", true)
	text := out.String()

	assert.Contains(t, text, "Records exported: 2")
	assert.Contains(t, text, "Max value: 640")
	assert.Contains(t, text, "Saved to: arcs.json")

	lines := strings.Split(text, "\n")
	assert.True(t, containsRow(lines, "Bastion", "bastion", "2"))
	assert.True(t, containsRow(lines, "Tick", "tick", "0"))
}

func TestSummarizeCollection_NoListing(t *testing.T) {
	export := NewAggregate(&models.Collection{Records: rawRecords(`{"id":"a","name":"Alpha"}`)})

	var out bytes.Buffer
	SummarizeCollection(&out, "items", export, "items.json", false)
	assert.NotContains(t, out.String(), "Alpha")
	assert.NotContains(t, out.String(), "Max value")
}

func TestSummarizeWorkbenches(t *testing.T) {
	doc := &models.WorkbenchDocument{
		Workbenches: []models.Workbench{
			{Name: "Gunsmith", Levels: make([]models.WorkbenchLevel, 3)},
			{Name: "Refiner", Levels: make([]models.WorkbenchLevel, 2)},
		},
		Scrappy: models.Scrappy{Name: "Scrappy", Levels: make([]models.ScrappyLevel, 5)},
	}

	var out bytes.Buffer
	SummarizeWorkbenches(&out, doc, "workbenches.json", 2048)
	text := out.String()

	assert.Contains(t, text, "File size: 2048 bytes (2.0 KB)")
	lines := strings.Split(text, "\n")
	assert.True(t, containsRow(lines, "Gunsmith", "3"))
	assert.True(t, containsRow(lines, "Refiner", "2"))
	assert.True(t, containsRow(lines, "Scrappy", "5"))
}

// containsRow reports whether one rendered line holds every cell value
func containsRow(lines []string, cells ...string) bool {
	for _, line := range lines {
		found := true
		for _, c := range cells {
			if !strings.Contains(line, c) {
				found = false
				break
			}
		}
		if found {
			return true
		}
	}
	return false
}
