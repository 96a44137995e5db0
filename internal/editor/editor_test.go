package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapping-editor/internal/collab"
	"mapping-editor/internal/mapping"
	"mapping-editor/internal/mapping/mappingtest"
)

func TestAddFieldPayloads(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ed.AddField(ctx, AddRequest{Category: "source", SourceField: "CITY"})
	require.NoError(t, err)
	_, err = h.ed.AddField(ctx, AddRequest{Category: "remplacement", SourceField: "ZIP"})
	require.NoError(t, err)
	_, err = h.ed.AddField(ctx, AddRequest{Category: "phonetic", SourceField: "NAME", Name: "name_sound"})
	require.NoError(t, err)
	_, err = h.ed.AddField(ctx, AddRequest{Category: "fixed_value", SourceField: "X", Name: "country", Value: "FR"})
	require.NoError(t, err)

	require.Len(t, h.collab.created, 4)
	src := h.collab.created[0]
	assert.Equal(t, "CITY_source", src["name"])
	assert.Equal(t, "CITY", src["source_field"])
	assert.Equal(t, true, src["mapped"])
	assert.Equal(t, "text", src["type"])
	assert.Equal(t, "standard", src["analyzer"])

	rep := h.collab.created[1]
	assert.Equal(t, "ZIP_remplacement", rep["name"])
	assert.Equal(t, "remplacement", rep["type_completion"])
	assert.Equal(t, []string{"ZIP", "ZIP_new"}, rep["column_names"])
	assert.Equal(t, true, rep["keep_original"])
	assert.Equal(t, false, rep["use_first_column"])

	ph := h.collab.created[2]
	assert.Equal(t, "name_sound", ph["name"])
	assert.Equal(t, "phonetic", ph["type_completion"])
	assert.Equal(t, map[string]bool{"soundex": false, "metaphone": false, "metaphone3": false}, ph["phonetic"])

	fv := h.collab.created[3]
	assert.Equal(t, "FR", fv["value"])
	assert.NotContains(t, fv, "source_field")

	assert.Equal(t, []string{"CITY_source", "ZIP_remplacement", "name_sound", "country"}, h.ed.Keys())
	assert.Equal(t, []string{"add:ok", "add:ok", "add:ok", "add:ok"}, h.journal.actions())
}

func TestAddFieldNoSource(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	v, err := h.ed.AddField(ctx, AddRequest{Category: "source", SourceField: NoSource})
	require.NoError(t, err)
	assert.Equal(t, PlaceholderName, v.Key)
	assert.Equal(t, "fixed_value", v.Category)
	assert.Equal(t, "fixed_value", h.collab.created[0]["category"])

	// The value cell is editable without entering modify mode.
	require.NoError(t, h.ed.SetValue(PlaceholderName, "value", "42"))
	got, _ := h.ed.Lookup(PlaceholderName)
	assert.Equal(t, "42", got.Values["value"])
	assert.NotContains(t, mustRender(t, h.ed).RowsHTML+mustRender(t, h.ed).DetailsHTML, "fixed-value disabled")

	// Other inputs still need the lock.
	assert.ErrorIs(t, h.ed.SetValue(PlaceholderName, "name", "x"), mapping.ErrNotEditing)

	v, err = h.ed.AddField(ctx, AddRequest{Category: "fixed_value", SourceField: NoSource})
	require.NoError(t, err)
	assert.Equal(t, PlaceholderName+"_copy", v.Key)
}

func TestAddFieldNameCollisionSendsNothing(t *testing.T) {
	h := newHarness(t, "city", "source")
	_, err := h.ed.AddField(context.Background(), AddRequest{Category: "source", SourceField: "CITY", Name: "city"})
	assert.ErrorIs(t, err, mapping.ErrFieldExists)
	assert.Empty(t, h.collab.created)
	assert.Equal(t, []string{"city"}, h.ed.Keys())
}

func TestAddFieldUnknownCategory(t *testing.T) {
	h := newHarness(t)
	_, err := h.ed.AddField(context.Background(), AddRequest{Category: "lookup", SourceField: "CITY"})
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.Empty(t, h.collab.created)
}

func TestAddFieldFailureInsertsNothing(t *testing.T) {
	h := newHarness(t, "city", "source")
	ctx := context.Background()

	h.collab.createErr = &collab.Error{Op: "create field", Kind: collab.KindStatus, Status: 500, Message: "boom"}
	_, err := h.ed.AddField(ctx, AddRequest{Category: "source", SourceField: "ZIP"})
	var cerr *collab.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, []string{"city"}, h.ed.Keys())

	h.collab.createErr = nil
	h.collab.fragments = &collab.FieldFragments{RowHTML: mappingtest.Row("zip"), DetailsHTML: mappingtest.Detail("other", "source")}
	_, err = h.ed.AddField(ctx, AddRequest{Category: "source", SourceField: "ZIP", Name: "zip"})
	assert.ErrorIs(t, err, mapping.ErrUnpaired)
	assert.Equal(t, []string{"city"}, h.ed.Keys())

	h.collab.fragments = &collab.FieldFragments{RowHTML: mappingtest.Row("zip"), DetailsHTML: ""}
	_, err = h.ed.AddField(ctx, AddRequest{Category: "source", SourceField: "ZIP", Name: "zip"})
	assert.Error(t, err)
	assert.Equal(t, []string{"city"}, h.ed.Keys())

	// the service answered with a key that is already taken
	h.collab.fragments = &collab.FieldFragments{RowHTML: mappingtest.Row("city"), DetailsHTML: mappingtest.Detail("city", "source")}
	_, err = h.ed.AddField(ctx, AddRequest{Category: "source", SourceField: "ZIP", Name: "zip"})
	assert.ErrorIs(t, err, mapping.ErrFieldExists)
	assert.Equal(t, []string{"city"}, h.ed.Keys())

	assert.Equal(t, []string{"add:error", "add:error", "add:error", "add:error"}, h.journal.actions())
}

func TestDescriptionQuickEdit(t *testing.T) {
	h := newHarness(t, "city", "source", "age", "source")

	require.NoError(t, h.ed.SetValue("city", "description", "where they live"))
	v, _ := h.ed.Lookup("city")
	assert.Equal(t, "where they live", v.Description)
	assert.Equal(t, "where they live", h.ed.Export()["city"]["description"])

	_, err := h.ed.Save(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, h.collab.saved, 1)
	assert.Equal(t, "where they live", h.collab.saved[0].Mapping["city"]["description"])

	require.NoError(t, h.ed.Modify("age"))
	assert.ErrorIs(t, h.ed.SetValue("city", "description", "x"), mapping.ErrLocked)
	require.NoError(t, h.ed.SetValue("age", "description", "years"))
	_, err = h.ed.Revert()
	require.NoError(t, err)
	assert.Equal(t, "age description", h.ed.Export()["age"]["description"])
}

func TestDuplicateNoSourceKeepsValueEditable(t *testing.T) {
	h := newHarness(t)
	_, err := h.ed.AddField(context.Background(), AddRequest{Category: "source", SourceField: NoSource})
	require.NoError(t, err)

	clone, err := h.ed.DuplicateField(PlaceholderName)
	require.NoError(t, err)
	assert.Equal(t, PlaceholderName+"_copy", clone.Key)
	require.NoError(t, h.ed.SetValue(clone.Key, "value", "7"))
	assert.ErrorIs(t, h.ed.SetValue(clone.Key, "name", "x"), mapping.ErrNotEditing)
}

func TestClosedEditorRejectsMutations(t *testing.T) {
	h := newHarness(t, "city", "source", "age", "source")
	h.ed.Close()
	ctx := context.Background()

	deleted, err := h.ed.DeleteField("city")
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, deleted)
	_, err = h.ed.DuplicateField("age")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, h.ed.Modify("city"), ErrClosed)
	_, err = h.ed.Accept()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = h.ed.Revert()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, h.ed.SetValue("city", "description", "x"), ErrClosed)
	_, err = h.ed.EnterRow("city", RowGeometry{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, h.ed.EnterPanel("city"), ErrClosed)
	assert.ErrorIs(t, h.ed.LeaveRow("city"), ErrClosed)
	assert.ErrorIs(t, h.ed.LeavePanel("city"), ErrClosed)
	_, err = h.ed.Save(ctx, false)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = h.ed.Dispatch(ctx, Event{Type: EventClick, Action: "delete", Key: "city"})
	assert.ErrorIs(t, err, ErrClosed)

	assert.Equal(t, []string{"city", "age"}, h.ed.Keys())
	assert.Empty(t, h.collab.saved)
	assert.Empty(t, h.journal.actions())
	assert.Equal(t, 0, h.clock.pending())
}

func TestAddedFieldIsBlockedWhileEditing(t *testing.T) {
	h := newHarness(t, "city", "source")
	require.NoError(t, h.ed.Modify("city"))
	v, err := h.ed.AddField(context.Background(), AddRequest{Category: "source", SourceField: "ZIP", Name: "zip"})
	require.NoError(t, err)
	assert.True(t, v.Blocked)
}

func TestOpenAddMenu(t *testing.T) {
	h := newHarness(t)
	html, err := h.ed.OpenAddMenu(context.Background(), "phonetic")
	require.NoError(t, err)
	assert.Contains(t, html, "drop-menu")
	assert.Equal(t, []string{"phonetic|ZGF0YS5jc3Y="}, h.collab.menus)

	_, err = h.ed.OpenAddMenu(context.Background(), "lookup")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestDuplicateNamesAndOrder(t *testing.T) {
	h := newHarness(t, "city", "source", "zip", "remplacement")

	c1, err := h.ed.DuplicateField("city")
	require.NoError(t, err)
	c2, err := h.ed.DuplicateField("city")
	require.NoError(t, err)
	assert.Equal(t, "city_copy", c1.Key)
	assert.Equal(t, "city_copy2", c2.Key)
	assert.Equal(t, []string{"city", "city_copy2", "city_copy", "zip"}, h.ed.Keys())
	assert.Equal(t, "city_copy", c1.Values["name"])
	assert.Equal(t, "city_copy", c1.Baseline["name"])

	_, err = h.ed.DuplicateField("missing")
	assert.ErrorIs(t, err, mapping.ErrFieldNotFound)
}

func TestDuplicateDoesNotCarryMarkers(t *testing.T) {
	h := newHarness(t, "city", "source")
	_, err := h.ed.EnterRow("city", RowGeometry{})
	require.NoError(t, err)

	c, err := h.ed.DuplicateField("city")
	require.NoError(t, err)
	assert.False(t, c.Visible)
	assert.False(t, c.Modify)

	visible, ok := h.ed.Visible()
	assert.True(t, ok)
	assert.Equal(t, "city", visible)
}

func TestDuplicateRejectedWhileEditing(t *testing.T) {
	h := newHarness(t, "city", "source")
	require.NoError(t, h.ed.Modify("city"))
	_, err := h.ed.DuplicateField("city")
	assert.ErrorIs(t, err, mapping.ErrLocked)
}

func TestDeleteReleasesLockHoverAndToken(t *testing.T) {
	h := newHarness(t, "city", "source", "zip", "remplacement")
	require.NoError(t, h.ed.Modify("zip"))
	_, err := h.ed.EnterRow("zip", RowGeometry{})
	require.NoError(t, err)
	h.ed.LeaveRow("zip")
	require.Equal(t, 1, h.clock.pending())

	deleted, err := h.ed.DeleteField("zip")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = h.ed.DeleteField("zip")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, []string{"city"}, h.ed.Keys())

	_, editing := h.ed.Editing()
	assert.False(t, editing)
	_, visible := h.ed.Visible()
	assert.False(t, visible)
	assert.Equal(t, 0, h.clock.pending())

	city, _ := h.ed.Lookup("city")
	assert.False(t, city.Blocked)
	require.NoError(t, h.ed.Modify("city"))
}

func TestModifyLockLifecycle(t *testing.T) {
	h := newHarness(t, "city", "source", "zip", "source")

	require.NoError(t, h.ed.Modify("city"))
	key, ok := h.ed.Editing()
	assert.True(t, ok)
	assert.Equal(t, "city", key)

	zip, _ := h.ed.Lookup("zip")
	assert.True(t, zip.Blocked)
	city, _ := h.ed.Lookup("city")
	assert.True(t, city.Modify)

	assert.ErrorIs(t, h.ed.Modify("zip"), mapping.ErrLocked)
	assert.ErrorIs(t, h.ed.SetValue("zip", "type", "keyword"), mapping.ErrLocked)

	// A second click on the same field's modify button accepts.
	require.NoError(t, h.ed.Modify("city"))
	_, ok = h.ed.Editing()
	assert.False(t, ok)

	_, err := h.ed.Accept()
	assert.ErrorIs(t, err, mapping.ErrNotEditing)
	_, err = h.ed.Revert()
	assert.ErrorIs(t, err, mapping.ErrNotEditing)
}

func TestRevertRestoresBaseline(t *testing.T) {
	h := newHarness(t, "city", "source")

	require.NoError(t, h.ed.Modify("city"))
	require.NoError(t, h.ed.SetValue("city", "type", "keyword"))
	require.NoError(t, h.ed.SetValue("city", "name", "town"))
	v, _ := h.ed.Lookup("city")
	assert.Equal(t, "keyword", v.Values["type"])

	key, err := h.ed.Revert()
	require.NoError(t, err)
	assert.Equal(t, "city", key)
	v, _ = h.ed.Lookup("city")
	assert.Equal(t, "text", v.Values["type"])
	assert.Equal(t, "city", v.Values["name"])
	assert.False(t, v.Modify)
}

func TestAcceptKeepsValues(t *testing.T) {
	h := newHarness(t, "city", "source")
	require.NoError(t, h.ed.Modify("city"))
	require.NoError(t, h.ed.SetValue("city", "analyzer", "french"))
	assert.ErrorIs(t, h.ed.SetValue("city", "analyzer", "klingon"), mapping.ErrInvalidValue)
	_, err := h.ed.Accept()
	require.NoError(t, err)

	v, _ := h.ed.Lookup("city")
	assert.Equal(t, "french", v.Values["analyzer"])
	assert.Equal(t, "french", h.ed.Export()["city"]["analyzer"])
}

func TestDownloadURL(t *testing.T) {
	h := newHarness(t, "zip", "remplacement", "city", "source")
	_, err := h.ed.DownloadURL("zip")
	assert.ErrorIs(t, err, ErrNotGeneratable)

	_, err = h.ed.Generate(context.Background(), "zip")
	require.NoError(t, err)
	u, err := h.ed.DownloadURL("zip")
	require.NoError(t, err)
	assert.Equal(t, "/file/remplacement/download/ZIP_remplacement.csv", u)

	_, err = h.ed.DownloadURL("city")
	assert.ErrorIs(t, err, ErrNotGeneratable)
	_, err = h.ed.DownloadURL("nope")
	assert.ErrorIs(t, err, mapping.ErrFieldNotFound)
}

func TestClosedEditorRejectsAdds(t *testing.T) {
	h := newHarness(t, "zip", "remplacement")
	h.ed.Close()
	assert.True(t, h.ed.Closed())
	_, err := h.ed.AddField(context.Background(), AddRequest{Category: "source", SourceField: "A"})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = h.ed.Generate(context.Background(), "zip")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRenderProjectsState(t *testing.T) {
	h := newHarness(t, "city", "source", "zip", "source")
	require.NoError(t, h.ed.Modify("city"))
	page := mustRender(t, h.ed)
	assert.Equal(t, "city", page.Editing)
	assert.Equal(t, "customers", page.MappingName)
	assert.Contains(t, page.DetailsHTML, `class="field-preview modify"`)
	assert.Contains(t, page.DetailsHTML, `class="field-preview blocked"`)
	assert.Contains(t, page.RowsHTML, `data-source="zip"`)
}

func mustRender(t *testing.T, e *Editor) PageView {
	t.Helper()
	p, err := e.Render()
	require.NoError(t, err)
	return p
}
