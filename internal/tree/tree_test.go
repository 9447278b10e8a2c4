package tree

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/symboldb-tools/internal/model"
	"github.com/rickgao/symboldb-tools/internal/reflist"
)

func node(name string, abstract bool, path ...string) model.Document {
	p := make([]any, len(path))
	for i, id := range path {
		p[i] = id
	}
	return model.Document{"_id": path[len(path)-1], "name": name, "isAbstract": abstract, "path": p}
}

func sample() []model.Document {
	return []model.Document{
		node("Root", true, "root"),
		node("FUTURE", true, "root", "fut"),
		node("CME", true, "root", "fut", "cme"),
		node("ES", true, "root", "fut", "cme", "es"),
		node("2023-12", false, "root", "fut", "cme", "es", "esz3"),
		node("2024-03", false, "root", "fut", "cme", "es", "esh4"),
		node("OPTION", true, "root", "opt"),
		node("CME", true, "root", "opt", "ocme"),
		node("CME", true, "root", "opt", "ocme2"),
		node("NQ", true, "root", "fut", "cme", "grp", "nq"),
		node("grp", true, "root", "fut", "cme", "grp"),
	}
}

func TestUUIDByPath(t *testing.T) {
	tr := New(sample())

	id, err := tr.UUIDByPath([]string{"Root", "FUTURE", "CME"})
	require.NoError(t, err)
	assert.Equal(t, "cme", id)

	id, err = tr.UUIDByPath([]string{"Root", "FUTURE", "ICE"})
	require.NoError(t, err)
	assert.Empty(t, id)

	_, err = tr.UUIDByPath([]string{"Root", "OPTION", "CME"})
	var ambiguous *AmbiguousPathError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, []string{"ocme", "ocme2"}, ambiguous.IDs)
	assert.Equal(t, []string{"Root", "OPTION", "CME"}, ambiguous.Path)
}

func TestChildrenAndHeirs(t *testing.T) {
	tr := New(sample())

	children := tr.Children("es")
	require.Len(t, children, 2)
	assert.Equal(t, "2023-12", children[0].Name())

	heirs := tr.Heirs("cme", true)
	var ids []string
	for _, h := range heirs {
		ids = append(ids, h.ID())
	}
	assert.ElementsMatch(t, []string{"es", "esz3", "esh4", "grp", "nq"}, ids)

	assert.Len(t, tr.Heirs("cme", false), 2)
}

func TestFindSeries(t *testing.T) {
	tr := New(sample())

	doc, err := tr.FindSeries("ES", "cme")
	require.NoError(t, err)
	assert.Equal(t, "es", doc.ID())

	doc, err = tr.FindSeries("NQ", "cme")
	require.NoError(t, err)
	assert.Equal(t, "nq", doc.ID(), "nested series are found")

	doc, err = tr.FindSeries("ES", "opt")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestAddReplaces(t *testing.T) {
	tr := New(sample())
	n := tr.Len()

	tr.Add(node("2024-06", false, "root", "fut", "cme", "es", "esm4"))
	assert.Equal(t, n+1, tr.Len())
	assert.Len(t, tr.Children("es"), 3)

	// Moving a node updates the child index.
	tr.Add(node("2024-06", false, "root", "fut", "cme", "grp", "esm4"))
	assert.Len(t, tr.Children("es"), 2)
	assert.Len(t, tr.Children("grp"), 2)

	got, ok := tr.Get("esm4")
	require.True(t, ok)
	assert.Equal(t, []string{"root", "fut", "cme", "grp", "esm4"}, got.Path())

	assert.Equal(t, []string{"Root", "FUTURE", "CME", "unknown"}, tr.PathNames([]string{"root", "fut", "cme", "unknown"}))
}

type countingSource struct {
	calls int
	docs  []model.Document
}

func (s *countingSource) Tree(_ context.Context, _ ...string) ([]model.Document, error) {
	s.calls++
	return s.docs, nil
}

func TestLoadUsesStore(t *testing.T) {
	ctx := context.Background()
	store := reflist.NewFileStore(t.TempDir())
	src := &countingSource{docs: sample()}

	tr, err := Load(ctx, src, LoadOptions{Env: "prod", Store: store, TTL: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, len(sample()), tr.Len())
	assert.Equal(t, 1, src.calls)

	_, err = Load(ctx, src, LoadOptions{Env: "demo", Store: store, TTL: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "demo shares the prod cache")

	_, err = Load(ctx, src, LoadOptions{Env: "prod", Store: store, Fields: []string{"expiryTime"}})
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "extra fields use their own cache")

	_, err = Load(ctx, src, LoadOptions{Env: "prod", Store: store, Reload: true})
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls)
}
