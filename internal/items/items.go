package items

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Column names shared by the exported JSON keys and the SQLite columns.
const (
	ColItems            = "Items"
	ColImage            = "Image"
	ColEpisode          = "Episode"
	ColVariantOf        = "Variant of"
	ColProfessionA      = "Profession A"
	ColProfessionLevelA = "Profession Level A"
	ColProfessionB      = "Profession B"
	ColProfessionLevelB = "Profession Level B"
	ColTradeable        = "Tradeable"
)

// Columns is the export column order.
var Columns = []string{
	ColItems,
	ColImage,
	ColEpisode,
	ColVariantOf,
	ColProfessionA,
	ColProfessionLevelA,
	ColProfessionB,
	ColProfessionLevelB,
	ColTradeable,
}

// None is the sentinel written in place of an absent optional value.
const None = "None"

// Item is one cleaned row of wiki item data.
type Item struct {
	Name             string    `json:"Items"`
	Image            string    `json:"Image"`
	Episode          string    `json:"Episode"`
	VariantOf        string    `json:"Variant of"`
	ProfessionA      string    `json:"Profession A"`
	ProfessionLevelA string    `json:"Profession Level A"`
	ProfessionB      string    `json:"Profession B"`
	ProfessionLevelB string    `json:"Profession Level B"`
	Tradeable        Tradeable `json:"Tradeable"`
}

// Values returns the fields of the item in Columns order.
func (i Item) Values() []string {
	return []string{
		i.Name,
		i.Image,
		i.Episode,
		i.VariantOf,
		i.ProfessionA,
		i.ProfessionLevelA,
		i.ProfessionB,
		i.ProfessionLevelB,
		string(i.Tradeable),
	}
}

// ToTable turns cleaned items back into a table with the export header.
func ToTable(records []Item) *Table {
	table := &Table{Header: append([]string(nil), Columns...)}
	for _, r := range records {
		values := r.Values()
		row := make(Row, len(values))
		for i, v := range values {
			row[i] = Cell{Value: v, Valid: v != ""}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// ReadJSON decodes an exported items file. Older exports used lowercase
// "name" and "image" keys, those are accepted as fallbacks.
func ReadJSON(r io.Reader) ([]Item, error) {
	var raw []map[string]any
	err := json.NewDecoder(r).Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	out := make([]Item, 0, len(raw))
	for _, record := range raw {
		out = append(out, Item{
			Name:             stringField(record, ColItems, "name"),
			Image:            stringField(record, ColImage, "image"),
			Episode:          stringField(record, ColEpisode),
			VariantOf:        stringField(record, ColVariantOf),
			ProfessionA:      stringField(record, ColProfessionA),
			ProfessionLevelA: stringField(record, ColProfessionLevelA),
			ProfessionB:      stringField(record, ColProfessionB),
			ProfessionLevelB: stringField(record, ColProfessionLevelB),
			Tradeable:        tradeableField(record[ColTradeable]),
		})
	}
	return out, nil
}

// ReadJSONFile is ReadJSON on the file at path.
func ReadJSONFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}

func stringField(record map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := record[k]
		if !ok || v == nil {
			continue
		}
		switch v := v.(type) {
		case string:
			if v == "" {
				continue
			}
			return v
		case float64:
			return formatNumber(v)
		default:
			return fmt.Sprint(v)
		}
	}
	return ""
}

func tradeableField(v any) Tradeable {
	switch v := v.(type) {
	case bool:
		if v {
			return TradeableTrue
		}
		return TradeableFalse
	case string:
		return ParseTradeable(v)
	case nil:
		return TradeableUnknown
	default:
		return Tradeable(fmt.Sprint(v))
	}
}
