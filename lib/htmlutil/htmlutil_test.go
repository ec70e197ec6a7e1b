package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"  Wintersemester   2025/26 ", "Wintersemester 2025/26"},
		{"\tAlgorithmen\n\n12345\t", "Algorithmen 12345"},
		{"already normal", "already normal"},
		{"", ""},
		{" \n\t ", ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, Normalize(test.input))
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"  a  b  c  ",
		"Grundlagen   der\tInformatik 54321",
		"",
		"x",
	}
	for _, s := range inputs {
		once := Normalize(s)
		require.Equal(t, once, Normalize(once))
	}
}

func TestNodeText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><span> Algorithmen </span><span>  12345</span></div>`,
	))
	require.NoError(t, err)

	nodes := doc.Find("div").Nodes
	require.Len(t, nodes, 1)
	require.Equal(t, "Algorithmen 12345", NodeText(nodes[0]))
}
