package cleaner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bazaar-items/internal/items"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const rawExport = `,Image,Episode,Variant of,Profession A,Profession Level A,Profession B,Profession Level B,Tradeable
Fire Beetle,File:Fire Beetle.png,Hopeport,,Hammermage,12.0,,,true
Iron Bar,File:Iron Bar.png,,,Blacksmith,3.7,Guardian,-0.5,
Broken Sword,File:Broken Sword.png,Hopeport,,Cryoknight,1,,,False
Old Helmet (Legacy),File:Old Helmet.png,,,,,,,true
Potion,File:Potion.png,Crenopolis,Potion Base,Chef,high,,,TRUE
Quest Key,,,,,,,,false
Ancient Shield,File:Ancient Shield.png,,Shield (Legacy),,,,,true
Rusty Pick,File:Rusty Pick.png,Hopeport (Legacy),,Miner,2,,,true
Mystery Box,,,,,,,,true
`

func readRaw(t *testing.T) *items.Table {
	table, err := items.ReadCSV(strings.NewReader(rawExport))
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestClean(t *testing.T) {
	records, report, err := Clean(context.Background(), readRaw(t), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	expected := []items.Item{
		{
			Name:             "Fire Beetle",
			Image:            "/assets/items/Fire_Beetle.png",
			Episode:          "Hopeport",
			VariantOf:        "None",
			ProfessionA:      "Combat",
			ProfessionLevelA: "12",
			ProfessionB:      "None",
			ProfessionLevelB: "None",
			Tradeable:        items.TradeableTrue,
		},
		{
			Name:             "Iron Bar",
			Image:            "/assets/items/Iron_Bar.png",
			Episode:          "None",
			VariantOf:        "None",
			ProfessionA:      "Blacksmith",
			ProfessionLevelA: "3",
			ProfessionB:      "Combat",
			ProfessionLevelB: "0",
			Tradeable:        items.TradeableUnknown,
		},
		{
			Name:             "Potion",
			Image:            "/assets/items/Potion.png",
			Episode:          "Crenopolis",
			VariantOf:        "Potion Base",
			ProfessionA:      "Chef",
			ProfessionLevelA: "high",
			ProfessionB:      "None",
			ProfessionLevelB: "None",
			Tradeable:        items.TradeableTrue,
		},
		{
			// an absent image stays empty
			Name:             "Mystery Box",
			Image:            "",
			Episode:          "None",
			VariantOf:        "None",
			ProfessionA:      "None",
			ProfessionLevelA: "None",
			ProfessionB:      "None",
			ProfessionLevelB: "None",
			Tradeable:        items.TradeableTrue,
		},
	}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, Report{Input: 9, Kept: 4, Untradeable: 2, Legacy: 3}, report)
}

func TestCleanProperties(t *testing.T) {
	records, _, err := Clean(context.Background(), readRaw(t), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range records {
		require.False(t, r.Tradeable.IsFalse(), r.Name)
		for _, v := range r.Values() {
			require.NotContains(t, v, "(Legacy)")
		}
		for _, level := range []string{r.ProfessionLevelA, r.ProfessionLevelB} {
			require.NotContains(t, level, ".")
		}
		for _, profession := range []string{r.ProfessionA, r.ProfessionB} {
			require.NotContains(t, []string{"Hammermage", "Cryoknight", "Guardian"}, profession)
		}
		if r.Image != "" {
			require.True(t, strings.HasPrefix(r.Image, "/assets/items/"), r.Image)
		}
	}
}

func TestCleanIdempotent(t *testing.T) {
	ctx := context.Background()
	first, _, err := Clean(ctx, readRaw(t), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	second, report, err := Clean(ctx, items.ToTable(first), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, len(first), report.Kept)

	// the same holds after a trip through csv, where "None" reads as missing
	var buf strings.Builder
	err = items.ToTable(first).WriteCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	table, err := items.ReadCSV(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatal(err)
	}
	third, _, err := Clean(ctx, table, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, third); diff != "" {
		t.Fatal(diff)
	}
}

func TestCleanMissingColumn(t *testing.T) {
	table := readRaw(t)
	table.Header[table.Index("Episode")] = "Season"

	_, _, err := Clean(context.Background(), table, DefaultOptions())
	require.True(t, errors.Is(err, ErrMissingColumn))
	require.Contains(t, err.Error(), `"Episode"`)

	table = &items.Table{Header: []string{"Name"}}
	_, _, err = Clean(context.Background(), table, DefaultOptions())
	require.True(t, errors.Is(err, ErrMissingColumn))
}

func TestCleanImage(t *testing.T) {
	opts := DefaultOptions()
	testCases := []struct {
		input  items.Cell
		encode bool
		expect string
	}{
		{input: items.Cell{Value: "File:Fire Beetle.png", Valid: true}, expect: "/assets/items/Fire_Beetle.png"},
		{input: items.Cell{Value: "Fire Beetle.png", Valid: true}, expect: "/assets/items/Fire_Beetle.png"},
		{input: items.Cell{Value: "/assets/items/Fire_Beetle.png", Valid: true}, expect: "/assets/items/Fire_Beetle.png"},
		{input: items.Cell{Value: "File:Crème brûlée.png", Valid: true}, encode: true, expect: "/assets/items/Cr%C3%A8me_br%C3%BBl%C3%A9e.png"},
		{input: items.Cell{Value: "File:100% Ore.png", Valid: true}, encode: true, expect: "/assets/items/100%25_Ore.png"},
		{input: items.Cell{}, expect: ""},
	}

	for _, test := range testCases {
		opts.PercentEncode = test.encode
		require.Equal(t, test.expect, cleanImage(test.input, opts), test.input.Value)
	}
}

func TestStripDecimal(t *testing.T) {
	testCases := map[string]string{
		"12.0":  "12",
		"12":    "12",
		" 7.9 ": "7",
		"-3.9":  "-3",
		"-0.2":  "0",
		"1e3":   "1000",
		"None":  "None",
		"high":  "high",
		"":      "",
		"nan":   "nan",
		"inf":   "inf",
	}
	for input, expect := range testCases {
		require.Equal(t, expect, stripDecimal(input), input)
	}
}
