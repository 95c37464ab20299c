package certificate

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActive(t *testing.T, name string, courseID *uuid.UUID, global bool) Template {
	t.Helper()
	tmpl, err := NewTemplate(name, "<div>{{student_name}}</div>", courseID, global)
	require.NoError(t, err)
	require.NoError(t, tmpl.Activate())
	return *tmpl
}

func TestNewTemplate(t *testing.T) {
	courseID := uuid.New()

	tests := []struct {
		name     string
		tmplName string
		content  string
		courseID *uuid.UUID
		global   bool
		errorMsg string
	}{
		{"global template", "Global", "<div/>", nil, true, ""},
		{"course template", "Course", "<div/>", &courseID, false, ""},
		{"empty name", "  ", "<div/>", nil, true, "name cannot be empty"},
		{"name too long", strings.Repeat("a", 101), "<div/>", nil, true, "cannot exceed 100"},
		{"empty content", "Global", " ", nil, true, "content cannot be empty"},
		{"both scopes", "Both", "<div/>", &courseID, true, "either global or scoped"},
		{"no scope", "None", "<div/>", nil, false, "either global or scoped"},
		{"nil course id", "Nil", "<div/>", &uuid.Nil, false, "either global or scoped"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := NewTemplate(tt.tmplName, tt.content, tt.courseID, tt.global)
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, tmpl)
				return
			}
			require.NoError(t, err)
			assert.False(t, tmpl.Active)
			assert.Equal(t, 1, tmpl.Version)
			assert.NotEqual(t, uuid.Nil, tmpl.ID)
		})
	}
}

func TestTemplateActivation(t *testing.T) {
	tmpl, err := NewTemplate("Global", "<div/>", nil, true)
	require.NoError(t, err)

	require.NoError(t, tmpl.Activate())
	assert.True(t, tmpl.Active)
	assert.True(t, tmpl.Changed())
	assert.Equal(t, 1, tmpl.Version, "the repository bumps the version on save")
	assert.Error(t, tmpl.Activate())

	require.NoError(t, tmpl.Deactivate())
	assert.False(t, tmpl.Active)
	assert.Error(t, tmpl.Deactivate())
}

func TestTemplateSetSigner(t *testing.T) {
	tmpl, err := NewTemplate("Global", "<div/>", nil, true)
	require.NoError(t, err)

	profileID := uuid.New()
	tmpl.SetSigner(" Rector ", "UDES", &profileID)
	assert.Equal(t, "Rector", tmpl.SignerName)
	require.NotNil(t, tmpl.SignatureProfileID)
	assert.Equal(t, profileID, *tmpl.SignatureProfileID)

	tmpl.SetSigner("", "", &uuid.Nil)
	assert.Nil(t, tmpl.SignatureProfileID)
}

func TestSameScope(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	g1 := newActive(t, "g1", nil, true)
	g2 := newActive(t, "g2", nil, true)
	ca := newActive(t, "ca", &a, false)
	ca2 := newActive(t, "ca2", &a, false)
	cb := newActive(t, "cb", &b, false)

	assert.True(t, g1.SameScope(&g2))
	assert.True(t, ca.SameScope(&ca2))
	assert.False(t, ca.SameScope(&cb))
	assert.False(t, ca.SameScope(&g1))
}

func TestSelectTemplate(t *testing.T) {
	courseID := uuid.New()
	otherCourse := uuid.New()

	t.Run("course template wins over global", func(t *testing.T) {
		global := newActive(t, "global", nil, true)
		course := newActive(t, "course", &courseID, false)

		got := SelectTemplate([]Template{global, course}, courseID)
		require.NotNil(t, got)
		assert.Equal(t, "course", got.Name)
	})

	t.Run("global used when no course template", func(t *testing.T) {
		global := newActive(t, "global", nil, true)
		other := newActive(t, "other", &otherCourse, false)

		got := SelectTemplate([]Template{other, global}, courseID)
		require.NotNil(t, got)
		assert.Equal(t, "global", got.Name)
	})

	t.Run("inactive templates are skipped", func(t *testing.T) {
		course := newActive(t, "course", &courseID, false)
		require.NoError(t, course.Deactivate())
		global := newActive(t, "global", nil, true)

		got := SelectTemplate([]Template{course, global}, courseID)
		require.NotNil(t, got)
		assert.Equal(t, "global", got.Name)
	})

	t.Run("first of equals wins", func(t *testing.T) {
		g1 := newActive(t, "first", nil, true)
		g2 := newActive(t, "second", nil, true)

		got := SelectTemplate([]Template{g1, g2}, courseID)
		require.NotNil(t, got)
		assert.Equal(t, "first", got.Name)
	})

	t.Run("nothing active falls through to nil", func(t *testing.T) {
		global := newActive(t, "global", nil, true)
		require.NoError(t, global.Deactivate())

		assert.Nil(t, SelectTemplate([]Template{global}, courseID))
		assert.Nil(t, SelectTemplate(nil, courseID))
	})
}
