package types

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueShapes(t *testing.T) {
	var zero Value
	assert.True(t, zero.IsZero())
	assert.True(t, zero.IsEmpty())
	assert.Nil(t, zero.Interface())

	assert.False(t, Text("").IsZero())
	assert.True(t, Text("").IsEmpty())
	assert.True(t, List().IsEmpty())

	recs := Records(Record{"title": "Kickoff", "due": "2024-03-01"}, Record{"title": "Launch"})
	assert.Equal(t, "due: 2024-03-01, title: Kickoff; title: Launch", recs.String())
	assert.Equal(t, "a; b", List("a", "b").String())
}

func TestValueCopies(t *testing.T) {
	items := []string{"a", "b"}
	v := List(items...)
	items[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, v.List())

	got := v.List()
	got[1] = "changed"
	assert.Equal(t, []string{"a", "b"}, v.List())

	rec := Record{"name": "Dana"}
	r := Records(rec)
	rec["name"] = "changed"
	assert.Equal(t, "Dana", r.Records()[0]["name"])

	c := r.Clone()
	assert.True(t, c.Equal(r))
	assert.False(t, c.Equal(Records(Record{"name": "Raj"})))
	assert.False(t, Text("a").Equal(List("a")))
}

func TestValueJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Value
	}{
		{name: "null", in: `null`, want: Value{}},
		{name: "text", in: `"Apollo"`, want: Text("Apollo")},
		{name: "list", in: `["a","b"]`, want: List("a", "b")},
		{name: "records", in: `[{"title":"Beta"}]`, want: Records(Record{"title": "Beta"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Value
			require.NoError(t, sonic.Unmarshal([]byte(tt.in), &v))
			assert.True(t, tt.want.Equal(v), "got %s", v.String())
			out, err := sonic.Marshal(v)
			require.NoError(t, err)
			assert.JSONEq(t, tt.in, string(out))
		})
	}

	var v Value
	assert.Error(t, sonic.Unmarshal([]byte(`[{"title":1}]`), &v))
	assert.Error(t, sonic.Unmarshal([]byte(`[{"title":"a"},"b"]`), &v))
}
