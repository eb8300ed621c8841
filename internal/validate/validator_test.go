package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spachava753/wikibench/internal/models"
	"github.com/spachava753/wikibench/internal/wiki"
)

const base = "https://en.wikipedia.org"

// fakeSource serves link sets keyed by page title.
type fakeSource struct {
	pages map[string][]models.Page
	errs  map[string]error
	calls []string
}

func newFakeSource(graph map[string][]string) *fakeSource {
	f := &fakeSource{pages: make(map[string][]models.Page), errs: make(map[string]error)}
	for from, tos := range graph {
		links := []models.Page{}
		for _, to := range tos {
			links = append(links, models.Page{Title: to, URL: wiki.ArticleURL(base, to)})
		}
		f.pages[from] = links
	}
	return f
}

func (f *fakeSource) URLForTitle(title string) string {
	return wiki.ArticleURL(base, title)
}

func (f *fakeSource) PageLinks(_ context.Context, pageURL string) ([]models.Page, error) {
	title := wiki.TitleFromURL(pageURL)
	f.calls = append(f.calls, title)
	if err, ok := f.errs[title]; ok {
		return nil, err
	}
	links, ok := f.pages[title]
	if !ok {
		return nil, &wiki.FetchError{URL: pageURL, Err: errors.New("HTTP 404: Not Found")}
	}
	return links, nil
}

var baconGraph = map[string][]string{
	"Bradawl":       {"Awl", "Woodworking", "Hand tool"},
	"Woodworking":   {"Carpentry", "United States", "Wood"},
	"United States": {"Hollywood", "New York City"},
	"Hollywood":     {"Film", "Kevin Bacon"},
	"Kevin Bacon":   {"Kevin Bacon", "Footloose (1984 film)"},
}

func TestValidate_AllHopsValid(t *testing.T) {
	src := newFakeSource(baconGraph)
	v := New(src)

	verdict := v.Validate(context.Background(), models.Page{Title: "Bradawl"},
		[]string{"Woodworking", "United States", "Hollywood", "Kevin Bacon"})

	assert.True(t, verdict.Valid)
	require.Len(t, verdict.Hops, 4)
	for i, h := range verdict.Hops {
		assert.Equal(t, i, h.Index)
		assert.True(t, h.Valid, h.Message)
		assert.Equal(t, models.HopValid, h.Status)
		assert.Empty(t, h.AvailableLinks)
	}
	assert.Equal(t, []string{"Bradawl", "Woodworking", "United States", "Hollywood"}, src.calls)
	assert.Empty(t, verdict.Errors())
}

func TestValidate_NoShortCircuit(t *testing.T) {
	path := []string{"Woodworking", "United States", "Hollywood", "Kevin Bacon"}

	for broken := range path {
		t.Run(path[broken], func(t *testing.T) {
			bad := append([]string(nil), path...)
			bad[broken] = "Nonexistent Page"

			src := newFakeSource(baconGraph)
			verdict := New(src).Validate(context.Background(), models.Page{Title: "Bradawl"}, bad)

			assert.False(t, verdict.Valid)
			assert.Len(t, verdict.Hops, len(bad))
			assert.Len(t, src.calls, len(bad))
			assert.False(t, verdict.Hops[broken].Valid)
			assert.Equal(t, models.HopLinkMissing, verdict.Hops[broken].Status)
		})
	}
}

func TestValidate_CaseAndWhitespaceInsensitive(t *testing.T) {
	src := newFakeSource(map[string][]string{"A": {"Kevin Bacon"}})

	verdict := New(src).Validate(context.Background(), models.Page{Title: "A"}, []string{"kevin  bacon"})

	assert.True(t, verdict.Valid)
	require.Len(t, verdict.Hops, 1)
	assert.Equal(t, "kevin  bacon", verdict.Hops[0].To)
}

func TestValidate_EmptyPath(t *testing.T) {
	src := newFakeSource(baconGraph)

	verdict := New(src).Validate(context.Background(), models.Page{Title: "Bradawl"}, nil)

	assert.True(t, verdict.Valid)
	assert.Empty(t, verdict.Hops)
	assert.Empty(t, src.calls)
}

func TestValidate_MissingLinkDiagnostics(t *testing.T) {
	links := []string{"L1", "L2", "L3", "L4", "L5", "L6", "L7", "L8", "L9", "L10", "L11", "L12"}
	src := newFakeSource(map[string][]string{"Start": links})

	verdict := New(src).Validate(context.Background(), models.Page{Title: "Start"}, []string{"Kevin Bacon"})

	require.Len(t, verdict.Hops, 1)
	h := verdict.Hops[0]
	assert.False(t, h.Valid)
	assert.Equal(t, models.HopLinkMissing, h.Status)
	assert.Equal(t, links[:DefaultSampleSize], h.AvailableLinks)
	assert.Contains(t, h.Message, "Kevin Bacon")
	assert.Contains(t, h.Message, "Start")
	assert.Empty(t, h.Error)
	assert.Equal(t, []string{h.Message}, verdict.Errors())

	verdict = New(src, WithSampleSize(3)).Validate(context.Background(), models.Page{Title: "Start"}, []string{"Kevin Bacon"})
	assert.Equal(t, links[:3], verdict.Hops[0].AvailableLinks)
}

func TestValidate_FetchFailureIsDistinct(t *testing.T) {
	src := newFakeSource(baconGraph)
	src.errs["Woodworking"] = &wiki.FetchError{URL: "x", Err: errors.New("connection reset")}
	src.errs["Hollywood"] = &wiki.ParseError{URL: "y", Err: errors.New("article body not found")}

	verdict := New(src).Validate(context.Background(), models.Page{Title: "Bradawl"},
		[]string{"Woodworking", "United States", "Hollywood", "Kevin Bacon"})

	assert.False(t, verdict.Valid)
	require.Len(t, verdict.Hops, 4)

	assert.Equal(t, models.HopValid, verdict.Hops[0].Status)

	assert.Equal(t, models.HopFetchFailed, verdict.Hops[1].Status)
	assert.Contains(t, verdict.Hops[1].Error, "connection reset")
	assert.Empty(t, verdict.Hops[1].AvailableLinks)

	// The page after a failed fetch is still checked on its own.
	assert.Equal(t, models.HopValid, verdict.Hops[2].Status)

	assert.Equal(t, models.HopParseFailed, verdict.Hops[3].Status)
	assert.Len(t, verdict.Failed(), 2)
}

func TestValidate_SelfLoop(t *testing.T) {
	src := newFakeSource(baconGraph)
	v := New(src)

	verdict := v.Validate(context.Background(), models.Page{Title: "Hollywood"}, []string{"Kevin Bacon", "Kevin Bacon"})
	assert.True(t, verdict.Valid)

	verdict = v.Validate(context.Background(), models.Page{Title: "Hollywood"}, []string{"Hollywood"})
	assert.False(t, verdict.Valid)
}

func TestValidate_UsesKnownURLs(t *testing.T) {
	src := newFakeSource(map[string][]string{
		"Start":                     {},
		"Hollywood, Los Angeles":    {"Kevin Bacon"},
		"Bradawl (start url alias)": {"Hollywood"},
	})
	// The "Hollywood" link resolves to a redirect target with a different title.
	src.pages["Bradawl (start url alias)"][0].URL = wiki.ArticleURL(base, "Hollywood, Los Angeles")

	start := models.Page{Title: "Bradawl", URL: wiki.ArticleURL(base, "Bradawl (start url alias)")}
	verdict := New(src).Validate(context.Background(), start, []string{"Hollywood", "Kevin Bacon"})

	assert.True(t, verdict.Valid)
	assert.Equal(t, []string{"Bradawl (start url alias)", "Hollywood, Los Angeles"}, src.calls)
	assert.Equal(t, start.URL, verdict.Hops[0].FromURL)
}

func TestValidate_Idempotent(t *testing.T) {
	src := newFakeSource(baconGraph)
	v := New(src)
	path := []string{"Woodworking", "Film", "Kevin Bacon"}

	first := v.Validate(context.Background(), models.Page{Title: "Bradawl"}, path)
	second := v.Validate(context.Background(), models.Page{Title: "Bradawl"}, path)

	assert.Equal(t, first, second)
	assert.False(t, first.Valid)
}
