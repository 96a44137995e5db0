package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapping-editor/internal/dom"
	"mapping-editor/internal/mapping/mappingtest"
)

func loadRegistry(t *testing.T, pairs ...string) *Registry {
	t.Helper()
	r := NewRegistry()
	rows, details := mappingtest.Page(pairs...)
	require.NoError(t, r.Load(rows, details))
	return r
}

func newField(t *testing.T, key, category string) *Field {
	t.Helper()
	row, err := dom.FirstElement(mappingtest.Row(key))
	require.NoError(t, err)
	detail, err := dom.FirstElement(mappingtest.Detail(key, category))
	require.NoError(t, err)
	f, err := NewField(row, detail)
	require.NoError(t, err)
	return f
}

func assertPaired(t *testing.T, r *Registry, key string, present bool) {
	t.Helper()
	f, ok := r.Lookup(key)
	assert.Equal(t, present, ok)
	if ok {
		assert.NotNil(t, f.Summary)
		assert.NotNil(t, f.Detail)
		assert.True(t, dom.Contains(r.rows, f.Summary))
		assert.True(t, dom.Contains(r.details, f.Detail))
	}
}

func TestLoadPairsByKey(t *testing.T) {
	r := loadRegistry(t, "city", "source", "zip", "remplacement")
	assert.Equal(t, []string{"city", "zip"}, r.Keys())
	assertPaired(t, r, "city", true)
	assertPaired(t, r, "zip", true)

	f, _ := r.Lookup("zip")
	assert.Equal(t, CategoryRemplacement, f.Category)
	assert.Equal(t, "ZIP", f.OriginalColumn())
}

func TestLoadRejectsUnpairedAndDuplicates(t *testing.T) {
	r := NewRegistry()
	err := r.Load(mappingtest.Row("city"), mappingtest.Detail("zip", "source"))
	assert.ErrorIs(t, err, ErrUnpaired)
	assert.Equal(t, 0, r.Len())

	r = NewRegistry()
	rows := mappingtest.Row("city") + mappingtest.Row("city")
	details := mappingtest.Detail("city", "source") + mappingtest.Detail("city", "source")
	assert.ErrorIs(t, r.Load(rows, details), ErrFieldExists)
	assert.Equal(t, 0, r.Len())
}

func TestAppendAndRemoveKeepPairing(t *testing.T) {
	r := loadRegistry(t, "city", "source")

	require.NoError(t, r.Append(newField(t, "age", "source")))
	assert.Equal(t, []string{"city", "age"}, r.Keys())
	assertPaired(t, r, "age", true)

	assert.ErrorIs(t, r.Append(newField(t, "age", "source")), ErrFieldExists)

	_, ok := r.Remove("age")
	assert.True(t, ok)
	assertPaired(t, r, "age", false)

	_, ok = r.Remove("age")
	assert.False(t, ok, "removing an absent field is a no-op")
	assert.Equal(t, []string{"city"}, r.Keys())
}

func TestDuplicateNaming(t *testing.T) {
	r := loadRegistry(t, "city", "source", "zip", "source")

	first, err := r.Duplicate("city")
	require.NoError(t, err)
	assert.Equal(t, "city_copy", first.Key)

	second, err := r.Duplicate("city")
	require.NoError(t, err)
	assert.Equal(t, "city_copy2", second.Key)

	assert.Equal(t, []string{"city", "city_copy2", "city_copy", "zip"}, r.Keys())
	assertPaired(t, r, "city_copy", true)
	assertPaired(t, r, "city_copy2", true)
	a, _ := r.Lookup("city_copy")
	b, _ := r.Lookup("city_copy2")
	assert.NotSame(t, a.Detail, b.Detail)

	// document order matches registry order
	var rowKeys []string
	for n := r.rows.FirstChild; n != nil; n = n.NextSibling {
		rowKeys = append(rowKeys, dom.Attr(n, "data-source"))
	}
	assert.Equal(t, r.Keys(), rowKeys)
}

func TestDuplicateRewritesNameAndBaseline(t *testing.T) {
	r := loadRegistry(t, "city", "source")
	clone, err := r.Duplicate("city")
	require.NoError(t, err)

	name := clone.Input("name")
	require.NotNil(t, name)
	assert.Equal(t, "city_copy", name.Value())
	assert.Equal(t, "city_copy", name.Baseline)
	assert.Equal(t, "city_copy", dom.Attr(name.Node, "data-original-value"))

	cell := dom.Find(clone.Summary, dom.And(dom.Element("div"), dom.WithAttr("data-field", "name")))
	assert.Equal(t, "city_copy", dom.Text(cell))

	orig, _ := r.Lookup("city")
	v, _ := orig.Value("name")
	assert.Equal(t, "city", v, "original keeps its name")
}

func TestDuplicateUnknownField(t *testing.T) {
	r := loadRegistry(t, "city", "source")
	_, err := r.Duplicate("nope")
	assert.ErrorIs(t, err, ErrFieldNotFound)
}

func TestLockExclusivity(t *testing.T) {
	r := loadRegistry(t, "city", "source", "age", "source", "zip", "phonetic")

	require.NoError(t, r.BeginEdit("city"))
	for _, f := range r.Fields() {
		if f.Key == "city" {
			assert.False(t, dom.HasClass(f.Detail, ClassBlocked))
			assert.True(t, dom.HasClass(f.Detail, ClassModify))
		} else {
			assert.True(t, dom.HasClass(f.Detail, ClassBlocked), f.Key)
			assert.False(t, dom.HasClass(f.Detail, ClassModify), f.Key)
		}
	}

	assert.ErrorIs(t, r.BeginEdit("age"), ErrLocked)
	assert.NoError(t, r.BeginEdit("city"))

	key, err := r.Accept()
	require.NoError(t, err)
	assert.Equal(t, "city", key)
	for _, f := range r.Fields() {
		assert.False(t, dom.HasClass(f.Detail, ClassBlocked), f.Key)
		assert.False(t, dom.HasClass(f.Detail, ClassModify), f.Key)
	}

	_, err = r.Accept()
	assert.ErrorIs(t, err, ErrNotEditing)

	require.NoError(t, r.BeginEdit("age"))
	_, err = r.Revert()
	require.NoError(t, err)
	for _, f := range r.Fields() {
		assert.False(t, dom.HasClass(f.Detail, ClassBlocked), f.Key)
		assert.False(t, dom.HasClass(f.Detail, ClassModify), f.Key)
	}
}

func TestRevertFidelity(t *testing.T) {
	r := loadRegistry(t, "city", "source")

	require.NoError(t, r.BeginEdit("city"))
	require.NoError(t, r.SetValue("city", "type", "date"))
	require.NoError(t, r.SetValue("city", "type", "keyword"))
	require.NoError(t, r.SetValue("city", "name", "town"))

	_, err := r.Revert()
	require.NoError(t, err)

	f, _ := r.Lookup("city")
	v, _ := f.Value("type")
	assert.Equal(t, "text", v)
	v, _ = f.Value("name")
	assert.Equal(t, "city", v)
}

func TestSetValueRequiresEditing(t *testing.T) {
	r := loadRegistry(t, "city", "source", "age", "source")

	assert.ErrorIs(t, r.SetValue("city", "type", "keyword"), ErrNotEditing)

	require.NoError(t, r.BeginEdit("age"))
	assert.ErrorIs(t, r.SetValue("city", "type", "keyword"), ErrLocked)
	assert.ErrorIs(t, r.SetValue("age", "type", "nope"), ErrInvalidValue)
	assert.ErrorIs(t, r.SetValue("age", "missing", "x"), ErrUnknownInput)
	assert.ErrorIs(t, r.SetValue("ghost", "type", "x"), ErrFieldNotFound)
}

func TestUnlockedInputEditableWhileUnlocked(t *testing.T) {
	r := NewRegistry()
	f := newField(t, "To be defined", "fixed_value")
	f.Unlock("value")
	require.NoError(t, r.Append(f))

	cell := dom.Find(f.Detail, dom.WithAttr("data-field", "value"))
	assert.False(t, dom.HasClass(cell, ClassDisabled))
	assert.NoError(t, r.SetValue("To be defined", "value", "FR"))
	v, _ := f.Value("value")
	assert.Equal(t, "FR", v)
}

func TestSummaryDescriptionIsQuickEdit(t *testing.T) {
	r := loadRegistry(t, "city", "source", "age", "source")
	f, _ := r.Lookup("city")

	in := f.Input("description")
	require.NotNil(t, in)
	assert.True(t, in.Unlocked)
	assert.Equal(t, "city description", in.Baseline)

	require.NoError(t, r.SetValue("city", "description", "home town"))
	assert.Equal(t, "home town", f.Description())
	assert.Equal(t, "home town", r.ExportAll()["city"]["description"])

	require.NoError(t, r.BeginEdit("city"))
	_, err := r.Revert()
	require.NoError(t, err)
	assert.Equal(t, "city description", f.Description())
}

func TestDuplicateKeepsUnlockedInputs(t *testing.T) {
	r := NewRegistry()
	f := newField(t, "To be defined", "fixed_value")
	f.Unlock("value")
	require.NoError(t, r.Append(f))

	clone, err := r.Duplicate("To be defined")
	require.NoError(t, err)
	assert.True(t, clone.Input("value").Unlocked)
	assert.False(t, clone.Input("name").Unlocked)
	assert.NoError(t, r.SetValue(clone.Key, "value", "FR"))
}

func TestRemoveReleasesLock(t *testing.T) {
	r := loadRegistry(t, "city", "source", "age", "source")
	require.NoError(t, r.BeginEdit("city"))
	r.Remove("city")

	_, locked := r.Lock().Editing()
	assert.False(t, locked)
	f, _ := r.Lookup("age")
	assert.False(t, dom.HasClass(f.Detail, ClassBlocked))
}

func TestDuplicateWhileEditingIsBlocked(t *testing.T) {
	r := loadRegistry(t, "city", "source")
	require.NoError(t, r.BeginEdit("city"))

	clone, err := r.Duplicate("city")
	require.NoError(t, err)
	assert.False(t, dom.HasClass(clone.Detail, ClassModify))
	assert.True(t, dom.HasClass(clone.Detail, ClassBlocked))
}
