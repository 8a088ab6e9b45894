package gink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsURLField(t *testing.T) {
	for _, name := range []string{"url", "live_url", "trackers_url", "_url"} {
		assert.True(t, IsURLField(name), name)
	}
	for _, name := range []string{"name", "myurl", "url_count", "URL", ""} {
		assert.False(t, IsURLField(name), name)
	}
}

func TestRewriteNested(t *testing.T) {
	v, err := ParseValue([]byte(`{
		"foo_url": "rel",
		"name": "x",
		"nested": {"bar_url": "rel2", "deeper": {"url": "../up"}},
		"list": [{"baz_url": "rel3"}, [{"qux_url": "?page=2"}], "plain"],
		"refresh": 5
	}`))
	require.NoError(t, err)

	Rewrite(v, IsURLField, "http://h/a/c")

	assert.Equal(t, "http://h/a/rel", v.Get("foo_url").Text())
	assert.Equal(t, "x", v.Get("name").Text())
	assert.Equal(t, "http://h/a/rel2", v.Get("nested").Get("bar_url").Text())
	assert.Equal(t, "http://h/up", v.Get("nested").Get("deeper").Get("url").Text())

	list := v.Get("list")
	assert.Equal(t, "http://h/a/rel3", list.Index(0).Get("baz_url").Text())
	assert.Equal(t, "http://h/a?page=2", list.Index(1).Index(0).Get("qux_url").Text())
	assert.Equal(t, "plain", list.Index(2).Text())

	n, ok := v.Get("refresh").Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(5), n)
}

func TestRewriteLeavesNonStringReferences(t *testing.T) {
	v, err := ParseValue([]byte(`{"next_url": null, "count_url": 3, "flag_url": true, "done_url": ""}`))
	require.NoError(t, err)

	Rewrite(v, IsURLField, "http://h/a/c")

	assert.Equal(t, `{"next_url":null,"count_url":3,"flag_url":true,"done_url":""}`, v.String())
}

func TestRewriteTopLevelArrayAndCustomMatcher(t *testing.T) {
	v, err := ParseValue([]byte(`[{"href": "x"}, {"other": "y"}]`))
	require.NoError(t, err)

	out := Rewrite(v, func(name string) bool { return name == "href" }, "http://h/base/page")

	assert.Same(t, v, out)
	assert.Equal(t, `[{"href":"http://h/base/x"},{"other":"y"}]`, out.String())
}

func TestRewriteScalarAndNil(t *testing.T) {
	assert.Equal(t, "rel", Rewrite(String("rel"), nil, "http://h/a").Text())
	assert.Nil(t, Rewrite(nil, nil, "http://h/a"))
}
