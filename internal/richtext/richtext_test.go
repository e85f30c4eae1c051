package richtext

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t testing.TB, s string) *Document {
	t.Helper()
	var d Document
	require.NoError(t, json.Unmarshal([]byte(s), &d))
	return &d
}

func TestExtractPlainText(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "simple paragraph",
			doc:  `{"root":{"children":[{"type":"paragraph","children":[{"type":"text","text":"Hello world"}]}]}}`,
			want: "Hello world",
		},
		{
			name: "multiple paragraphs",
			doc: `{"root":{"children":[
				{"type":"paragraph","children":[{"type":"text","text":"First paragraph"}]},
				{"type":"paragraph","children":[{"type":"text","text":"Second paragraph"}]}]}}`,
			want: "First paragraph\nSecond paragraph",
		},
		{
			name: "nested children",
			doc: `{"root":{"children":[{"type":"paragraph","children":[
				{"type":"text","text":"Normal "},
				{"type":"bold","children":[{"type":"text","text":"bold"}]},
				{"type":"text","text":" text"}]}]}}`,
			want: "Normal bold text",
		},
		{
			name: "empty root",
			doc:  `{"root":{}}`,
			want: "",
		},
		{
			name: "surrounding whitespace trimmed",
			doc:  `{"root":{"children":[{"type":"paragraph","children":[{"type":"text","text":"  padded  "}]}]}}`,
			want: "padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPlainText(mustParse(t, tt.doc)))
		})
	}

	assert.Equal(t, "", ExtractPlainText(nil))
}

func TestFromPlainText(t *testing.T) {
	d := FromPlainText("Line 1\nLine 2\nLine 3")
	require.NotNil(t, d.Root)
	require.Len(t, d.Root.Children, 3)
	assert.Equal(t, "Line 2", *d.Root.Children[1].Children[0].Text)

	encoded, err := json.Marshal(FromPlainText("Hello world"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"root":{
		"type":"root","direction":"ltr","format":"","indent":0,"version":1,
		"children":[{"type":"paragraph","direction":"ltr","format":"","indent":0,"version":1,
			"children":[{"type":"text","text":"Hello world","version":1}]}]}}`, string(encoded))

	empty := FromPlainText("")
	require.Len(t, empty.Root.Children, 1)
	assert.Equal(t, "", *empty.Root.Children[0].Children[0].Text)
}

func TestNodeJSON_PreservesAttributes(t *testing.T) {
	in := `{"root":{"type":"root","children":[{"type":"heading","tag":"h2","format":"center",
		"children":[{"type":"text","text":"Title","format":1,"style":"color: red"}]}]}}`

	d := mustParse(t, in)
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestSyncFormat(t *testing.T) {
	t.Run("keeps source format with target text", func(t *testing.T) {
		source := mustParse(t, `{"root":{"type":"root","children":[
			{"type":"paragraph","format":"bold","children":[{"type":"text","text":"Original text"}]}]}}`)
		target := mustParse(t, `{"root":{"type":"root","children":[
			{"type":"paragraph","format":"","children":[{"type":"text","text":"Teks terjemahan"}]}]}}`)

		got := SyncFormat(source, target)
		require.NotNil(t, got)
		assert.JSONEq(t, `"bold"`, string(got.Root.Children[0].Attrs["format"]))
		assert.Equal(t, "Teks terjemahan", *got.Root.Children[0].Children[0].Text)
		// source untouched
		assert.Equal(t, "Original text", *source.Root.Children[0].Children[0].Text)
	})

	t.Run("multiple text nodes consumed in order", func(t *testing.T) {
		source := mustParse(t, `{"root":{"children":[{"type":"paragraph","children":[
			{"type":"text","text":"First"},{"type":"text","text":"Second"}]}]}}`)
		target := mustParse(t, `{"root":{"children":[{"type":"paragraph","children":[
			{"type":"text","text":"Pertama"},{"type":"text","text":"Kedua"}]}]}}`)

		got := SyncFormat(source, target)
		assert.Equal(t, []string{"Pertama", "Kedua"}, Leaves(got))
	})

	t.Run("extra source leaves keep source text", func(t *testing.T) {
		source := mustParse(t, `{"root":{"children":[{"type":"paragraph","children":[
			{"type":"text","text":"a"},{"type":"text","text":"b"},{"type":"text","text":"c"}]}]}}`)
		target := mustParse(t, `{"root":{"children":[{"type":"paragraph","children":[{"type":"text","text":"A"}]}]}}`)

		assert.Equal(t, []string{"A", "b", "c"}, Leaves(SyncFormat(source, target)))
	})

	t.Run("nil target returns copy of source", func(t *testing.T) {
		source := mustParse(t, `{"root":{"children":[{"type":"paragraph","children":[{"type":"text","text":"Original"}]}]}}`)
		got := SyncFormat(source, nil)
		assert.True(t, Equal(source, got))
		assert.NotSame(t, source.Root, got.Root)
	})

	t.Run("nil source returns nil", func(t *testing.T) {
		assert.Nil(t, SyncFormat(nil, mustParse(t, `{"root":{}}`)))
	})
}

func TestEqual(t *testing.T) {
	a := mustParse(t, `{"root":{"type":"root","children":[{"type":"text","text":"x","format":0}]}}`)
	b := mustParse(t, `{ "root" : { "children":[{"format":0,"text":"x","type":"text"}], "type":"root" } }`)
	c := mustParse(t, `{"root":{"type":"root","children":[{"type":"text","text":"x","format":1}]}}`)

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(a, nil))
}

// randomDoc builds an arbitrary nested tree of text and element nodes.
func randomDoc(r *rand.Rand) *Document {
	var build func(depth int) *Node
	build = func(depth int) *Node {
		if depth > 3 || r.Intn(3) == 0 {
			text := fmt.Sprintf("w%d", r.Intn(1000))
			if r.Intn(4) == 0 {
				text = " " + text + "\n" + text
			}
			return &Node{Type: "text", Text: &text}
		}
		n := &Node{Type: "element"}
		for i := 0; i < r.Intn(4); i++ {
			n.Children = append(n.Children, build(depth+1))
		}
		return n
	}

	root := &Node{Type: "root"}
	for i := 0; i < 1+r.Intn(5); i++ {
		root.Children = append(root.Children, build(0))
	}
	return &Document{Root: root}
}

func TestExtractPlainText_RoundTripIsIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		doc := randomDoc(r)
		plain := ExtractPlainText(doc)
		assert.Equal(t, plain, ExtractPlainText(FromPlainText(plain)), "iteration %d", i)
	}
}

func TestSyncFormat_LeavesFollowTargetOrder(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		source := randomDoc(r)
		n := len(Leaves(source))

		target := &Document{Root: &Node{Type: "root"}}
		want := make([]string, n)
		for j := 0; j < n; j++ {
			want[j] = fmt.Sprintf("t%d", j)
			target.Root.Children = append(target.Root.Children, FromPlainText(want[j]).Root.Children...)
		}

		got := SyncFormat(source, target)
		assert.Equal(t, want, nilIfEmpty(Leaves(got)), "iteration %d", i)

		// shape follows source
		stripped := SyncFormat(got, source)
		assert.True(t, Equal(source, stripped), "iteration %d", i)
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return []string{}
	}
	return s
}
