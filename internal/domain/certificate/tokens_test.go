package certificate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestSubstitute(t *testing.T) {
	fields := FieldMap{
		TokenStudentName: "María López",
		TokenCourseTitle: "Gestión de Proyectos",
	}

	t.Run("replaces every occurrence", func(t *testing.T) {
		out := Substitute("<h1>{{student_name}}</h1><p>{{student_name}} - {{course_title}}</p>", fields, true)
		assert.Equal(t, "<h1>María López</h1><p>María López - Gestión de Proyectos</p>", out)
	})

	t.Run("unknown tokens stay literal", func(t *testing.T) {
		in := "{{student_name}} {{unknown_token}} {{hours}}"
		out := Substitute(in, fields, true)
		assert.Equal(t, "María López {{unknown_token}} {{hours}}", out)
	})

	t.Run("no placeholders is unchanged", func(t *testing.T) {
		in := "<div>static</div>"
		assert.Equal(t, in, Substitute(in, fields, true))
	})

	t.Run("unused fields are ignored", func(t *testing.T) {
		assert.Equal(t, "{{hours}}", Substitute("{{hours}}", fields, false))
	})

	t.Run("empty value removes placeholder", func(t *testing.T) {
		out := Substitute("[{{student_city}}]", FieldMap{TokenStudentCity: ""}, true)
		assert.Equal(t, "[]", out)
	})

	t.Run("escape controls markup in values", func(t *testing.T) {
		f := FieldMap{TokenStudentName: `<b>"Ana"</b>`}
		assert.Equal(t, "&lt;b&gt;&#34;Ana&#34;&lt;/b&gt;", Substitute("{{student_name}}", f, true))
		assert.Equal(t, `<b>"Ana"</b>`, Substitute("{{student_name}}", f, false))
	})

	t.Run("values containing placeholders are not re-expanded", func(t *testing.T) {
		f := FieldMap{TokenStudentName: "{{course_title}}", TokenCourseTitle: "X"}
		assert.Equal(t, "{{course_title}} X", Substitute("{{student_name}} {{course_title}}", f, false))
	})
}

func TestSubstitute_IdempotentOnUnknownTokens(t *testing.T) {
	fields := FieldMap{TokenStudentName: "Ana"}
	in := "{{student_email}}{{issued_date}}{{custom}}"

	once := Substitute(in, fields, true)
	twice := Substitute(once, fields, true)
	assert.Equal(t, in, once)
	assert.Equal(t, once, twice)
}

func TestBuildFieldMap(t *testing.T) {
	cert := &Certificate{
		VerificationCode: "CERT-0001",
		IssuedAt:         time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
		Hours:            40,
		CourseTitle:      "Python Básico",
		Recipient:        Recipient{FullName: "Luis Andrade", Email: "luis@udes.edu", City: "Loja"},
	}

	fields := BuildFieldMap(cert, Signer{Name: "Rector", Title: "UDES"}, language.Spanish)

	assert.Len(t, fields, len(AllTokens()))
	assert.Equal(t, "Luis Andrade", fields[TokenStudentName])
	assert.Equal(t, "luis@udes.edu", fields[TokenStudentEmail])
	assert.Equal(t, "Loja", fields[TokenStudentCity])
	assert.Equal(t, "Python Básico", fields[TokenCourseTitle])
	assert.Equal(t, "40", fields[TokenHours])
	assert.Equal(t, "5 de marzo de 2026", fields[TokenIssuedDate])
	assert.Equal(t, "CERT-0001", fields[TokenVerificationCode])
	assert.Equal(t, "Rector", fields[TokenSignerName])
	assert.Equal(t, "UDES", fields[TokenSignerTitle])
}

func TestUnresolvedTokens(t *testing.T) {
	fields := FieldMap{TokenStudentName: "Ana"}
	missing := UnresolvedTokens("{{student_name}} {{foo}} {{ bar }} {{foo}} {{", fields)
	assert.Equal(t, []string{"foo", " bar "}, missing)
}

func TestUnresolvedTokens_SpacedPlaceholderIsReported(t *testing.T) {
	cert := &Certificate{
		Recipient:   Recipient{FullName: "Ana Torres"},
		CourseTitle: "Gestión de Proyectos",
		IssuedAt:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	fields := BuildFieldMap(cert, Signer{Name: "Decana"}, language.Spanish)
	markup := "<p>{{ student_name }}</p><p>{{course_title}}</p>"

	assert.Equal(t, []string{" student_name "}, UnresolvedTokens(markup, fields))
	assert.Contains(t, Substitute(markup, fields, true), "{{ student_name }}")
}
