package items

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := "\ufeff,Image,Tradeable,Episode\n" +
		"Fire Beetle,File:Fire Beetle.png,true,\n" +
		"Iron Bar,,False,None\n" +
		"Short Row,x.png\n"

	table, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, []string{"", "Image", "Tradeable", "Episode"}, table.Header)
	require.Len(t, table.Rows, 3)

	expected := []Row{
		{{"Fire Beetle", true}, {"File:Fire Beetle.png", true}, {"true", true}, {"", false}},
		{{"Iron Bar", true}, {"", false}, {"False", true}, {"None", false}},
		{{"Short Row", true}, {"x.png", true}, {}, {}},
	}
	if diff := cmp.Diff(expected, table.Rows); diff != "" {
		t.Fatal(diff)
	}

	require.Equal(t, 2, table.Index("Tradeable"))
	require.Equal(t, -1, table.Index("Items"))
	require.Equal(t, Cell{}, table.Rows[0].Cell(10))
}

func TestReadCSVEmpty(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	require.Empty(t, table.Header)
	require.Empty(t, table.Rows)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	table := &Table{
		Header: []string{"Items", "Image"},
		Rows: []Row{
			{{"Fire Beetle", true}, {"/assets/items/Fire_Beetle.png", true}},
			{{"Iron, Bar", true}, {"", false}},
		},
	}

	var buf bytes.Buffer
	err := table.WriteCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "Items,Image\nFire Beetle,/assets/items/Fire_Beetle.png\n\"Iron, Bar\",\n", buf.String())

	read, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(table, read); diff != "" {
		t.Fatal(diff)
	}
}

func TestTradeableJSON(t *testing.T) {
	testCases := []struct {
		value  Tradeable
		expect string
	}{
		{value: TradeableTrue, expect: "true"},
		{value: TradeableFalse, expect: "false"},
		{value: TradeableUnknown, expect: `"unknown"`},
		{value: Tradeable("sometimes"), expect: `"sometimes"`},
	}

	for _, test := range testCases {
		out, err := json.Marshal(test.value)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, test.expect, string(out))

		var back Tradeable
		err = json.Unmarshal(out, &back)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, test.value, back)
	}

	require.Equal(t, TradeableFalse, ParseTradeable("FALSE"))
	require.Equal(t, TradeableTrue, ParseTradeable("True"))
	require.Equal(t, Tradeable("no"), ParseTradeable("no"))
}

func TestReadJSON(t *testing.T) {
	input := `[
		{"Items": "Fire Beetle", "Image": "/assets/items/Fire_Beetle.png", "Episode": "Hopeport", "Profession Level A": 12, "Tradeable": true},
		{"name": "Iron Bar", "image": "iron.png", "Tradeable": "unknown"},
		{"Items": "Copper Ore", "Tradeable": null}
	]`

	records, err := ReadJSON(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	expected := []Item{
		{
			Name:             "Fire Beetle",
			Image:            "/assets/items/Fire_Beetle.png",
			Episode:          "Hopeport",
			ProfessionLevelA: "12",
			Tradeable:        TradeableTrue,
		},
		{Name: "Iron Bar", Image: "iron.png", Tradeable: TradeableUnknown},
		{Name: "Copper Ore", Tradeable: TradeableUnknown},
	}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Fatal(diff)
	}
}

func TestToTable(t *testing.T) {
	table := ToTable([]Item{{Name: "Fire Beetle", Tradeable: TradeableTrue}})
	require.Equal(t, Columns, table.Header)
	require.Len(t, table.Rows, 1)
	require.Equal(t, Cell{"Fire Beetle", true}, table.Rows[0].Cell(0))
	require.Equal(t, Cell{"", false}, table.Rows[0].Cell(1))
	require.Equal(t, Cell{"true", true}, table.Rows[0].Cell(8))
}
