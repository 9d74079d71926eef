package layout

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganlanou/stationcargo/internal/identity"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

var emptyBody = templ.ComponentFunc(func(context.Context, io.Writer) error { return nil })

func TestBase_SignedIn(t *testing.T) {
	p := Page{
		Title: "Cargo",
		Path:  "/cargo",
		User:  &identity.User{ID: "u1", Email: "ana@iss.space", Name: "Ana <Ortiz>", Role: "Astronaut"},
	}.WithNotice(NoticeError, `Search failed: "kit"`)

	html := render(t, Base(p, emptyBody))

	assert.Contains(t, html, "<title>Cargo | Station Cargo</title>")
	assert.Contains(t, html, `data-state="signed-in"`)
	assert.Contains(t, html, "Ana &lt;Ortiz&gt;")
	assert.NotContains(t, html, "Ana <Ortiz>")
	assert.Contains(t, html, "Search failed: &#34;kit&#34;")
	assert.Contains(t, html, "data-dismiss")
	assert.Contains(t, html, `action="/logout"`)
	assert.Regexp(t, `href="/cargo" class="[^"]*font-semibold`, html)
	assert.NotRegexp(t, `href="/cargo" class="[^"]*text-slate-300`, html)
	assert.Contains(t, html, `new WebSocket(proto + location.host + "/live" + query)`)
	assert.NotContains(t, html, `data-protected`)

	p.Protected = true
	html = render(t, Base(p, emptyBody))
	assert.Contains(t, html, `data-protected="true"`)
}

func TestBase_LoadingAndSignedOut(t *testing.T) {
	html := render(t, Base(Page{Loading: true}, emptyBody))
	assert.Contains(t, html, `data-state="loading"`)
	assert.NotContains(t, html, `action="/logout"`)

	html = render(t, Base(Page{}, emptyBody))
	assert.Contains(t, html, `data-state="signed-out"`)
	assert.Contains(t, html, `href="/login"`)
	assert.Contains(t, html, "<title>Station Cargo</title>")
}

func TestWithNotice_DoesNotShareBacking(t *testing.T) {
	base := Page{Notices: make([]Notice, 0, 4)}
	a := base.WithNotice(NoticeInfo, "a")
	b := base.WithNotice(NoticeInfo, "b")
	assert.Equal(t, "a", a.Notices[0].Message)
	assert.Equal(t, "b", b.Notices[0].Message)
	assert.Empty(t, base.Notices)
}
