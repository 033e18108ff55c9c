package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeFilename(t *testing.T) {
	testCases := []struct {
		name   string
		expect string
	}{
		{name: "Fire Beetle", expect: "Fire_Beetle"},
		{name: "Hammer (Iron)", expect: "Hammer__Iron_"},
		{name: "a-b.c_d", expect: "a-b.c_d"},
		{name: "Bob's Pie/Slice", expect: "Bob_s_Pie_Slice"},
		{name: "Crème brûlée", expect: "Crème_brûlée"},
		{name: "50% off!", expect: "50__off_"},
		{name: "", expect: ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expect, SafeFilename(test.name), test.name)
	}
}

func TestLegacyNames(t *testing.T) {
	require.Equal(t, []string{"Potent Potion of Healing"}, LegacyNames("Potion of Healing"))
	require.Nil(t, LegacyNames("Potent Potion of Healing"))
	require.Nil(t, LegacyNames("Fire Beetle"))
}
