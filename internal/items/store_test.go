package items

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jetgrab/internal/domain"
)

func item(u string, typ domain.ResourceType, name string) domain.ResourceItem {
	return domain.NewResourceItem(0, u, typ, name)
}

func seededStore() *Store {
	s := NewStore()
	s.SetAll([]domain.ResourceItem{
		item("https://cdn.example.com/a.mp4", domain.TypeVideo, "a.mp4"),
		item("https://img.example.com/b.jpg", domain.TypeImage, "b.jpg"),
		item("https://cdn.other.net/c.mp4", domain.TypeVideo, "promo"),
		item("https://files.example.com/manual.pdf", domain.TypeFile, "manual.pdf"),
	})
	return s
}

func urls(items []domain.ResourceItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.URL
	}
	return out
}

func TestSetAll_RenumbersIndex(t *testing.T) {
	s := seededStore()
	for i, it := range s.All() {
		assert.Equal(t, i, it.Index)
		assert.True(t, it.Selected)
	}
	assert.Equal(t, 4, s.Len())
}

func TestFilter_Conjunctive(t *testing.T) {
	s := seededStore()
	all := s.All()
	s.Toggle(all[2].ID) // deselect c.mp4

	s.SetFilter(Filter{
		Types:        map[domain.ResourceType]bool{domain.TypeVideo: true},
		SelectedOnly: true,
		Domain:       "EXAMPLE.com",
		Query:        "a.mp4",
	})
	assert.Equal(t, []string{"https://cdn.example.com/a.mp4"}, urls(s.Filtered()))

	// Relaxing one predicate at a time widens the result only along that axis.
	s.SetFilter(Filter{Types: map[domain.ResourceType]bool{domain.TypeVideo: true}})
	assert.Len(t, s.Filtered(), 2)

	s.SetFilter(Filter{SelectedOnly: true})
	assert.Len(t, s.Filtered(), 3)

	s.SetFilter(Filter{Domain: "other.net"})
	assert.Equal(t, []string{"https://cdn.other.net/c.mp4"}, urls(s.Filtered()))

	s.SetFilter(Filter{Query: "promo"})
	assert.Equal(t, []string{"https://cdn.other.net/c.mp4"}, urls(s.Filtered()))

	s.SetFilter(Filter{Query: "image"})
	assert.Equal(t, []string{"https://img.example.com/b.jpg"}, urls(s.Filtered()))
}

func TestFilter_DomainParseFailureHides(t *testing.T) {
	f := Filter{Domain: "example"}
	bad := domain.ResourceItem{URL: "http://[::1", Type: domain.TypeOther, Selected: true}
	assert.False(t, f.Match(bad))
	assert.True(t, Filter{}.Match(bad), "without a domain filter the item is visible")
}

func TestSelection_OnlyTouchesVisible(t *testing.T) {
	s := seededStore()
	s.SetFilter(Filter{Types: map[domain.ResourceType]bool{domain.TypeVideo: true}})

	assert.Equal(t, 2, s.DeselectAll())
	assert.Len(t, s.Selected(), 2, "image and file stay selected")

	assert.Equal(t, 2, s.InvertSelect())
	assert.Len(t, s.Selected(), 4)

	hidden := s.All()[1]
	assert.False(t, s.Toggle(hidden.ID), "hidden items cannot be toggled")
	got, ok := s.Get(hidden.ID)
	require.True(t, ok)
	assert.True(t, got.Selected)

	s.SetFilter(Filter{})
	s.DeselectAll()
	s.SetFilter(Filter{Domain: "other.net"})
	assert.Equal(t, 1, s.SelectAll())
	assert.Equal(t, []string{"https://cdn.other.net/c.mp4"}, urls(s.Selected()))
}

func TestInvertSelect_SelectedOnlyFilter(t *testing.T) {
	s := seededStore()
	s.SetFilter(Filter{SelectedOnly: true})

	assert.Equal(t, 4, s.InvertSelect())
	assert.Empty(t, s.Selected())
}

func TestSorted(t *testing.T) {
	s := seededStore()

	byURL := urls(Sorted(s.All(), domain.SortURL))
	assert.Equal(t, "https://cdn.example.com/a.mp4", byURL[0])
	assert.Equal(t, "https://img.example.com/b.jpg", byURL[3])

	byLen := Sorted(s.All(), domain.SortLength)
	for i := 1; i < len(byLen); i++ {
		assert.LessOrEqual(t, len(byLen[i-1].URL), len(byLen[i].URL))
	}

	byType := Sorted(s.All(), domain.SortType)
	assert.Equal(t, domain.TypeFile, byType[0].Type)
	assert.Equal(t, domain.TypeVideo, byType[3].Type)

	byDomain := urls(Sorted(s.All(), domain.SortDomain))
	assert.Equal(t, []string{
		"https://cdn.example.com/a.mp4",
		"https://cdn.other.net/c.mp4",
		"https://files.example.com/manual.pdf",
		"https://img.example.com/b.jpg",
	}, byDomain)

	assert.Equal(t, urls(s.All()), urls(Sorted(s.All(), domain.SortDefault)))
}

func TestVisible_Caps(t *testing.T) {
	s := seededStore()
	assert.Len(t, s.Visible(domain.SortURL, 2), 2)
	assert.Len(t, s.Visible(domain.SortURL, 0), 4)
}

func TestRetryMerge(t *testing.T) {
	s := NewStore()
	s.SetAll([]domain.ResourceItem{
		item("https://ok.example.com/1.mp4", domain.TypeVideo, ""),
		item("https://ok.example.com/2.mp4", domain.TypeVideo, ""),
	})
	before := s.All()

	added, updated := s.RetryMerge([]domain.ResourceItem{
		item("https://ok.example.com/2.mp4", domain.TypeVideo, "renamed"),
		item("https://retry.example.com/3.mp4", domain.TypeVideo, ""),
		item("https://retry.example.com/4.jpg", domain.TypeImage, ""),
	})

	assert.Equal(t, 2, added)
	assert.Equal(t, 1, updated)
	all := s.All()
	require.Len(t, all, 4)
	assert.Equal(t, before[0], all[0], "unmatched old entries are kept untouched")
	assert.Equal(t, "renamed", all[1].Name)
	assert.Equal(t, 1, all[1].Index)
	assert.Equal(t, "https://retry.example.com/3.mp4", all[2].URL)
	assert.Equal(t, 3, all[3].Index)
}

func TestCounts(t *testing.T) {
	counts := seededStore().Counts()
	assert.Equal(t, 2, counts[domain.TypeVideo])
	assert.Equal(t, 1, counts[domain.TypeImage])
	assert.Equal(t, 1, counts[domain.TypeFile])
	assert.Zero(t, counts[domain.TypeAudio])
}

func TestParseSortMode(t *testing.T) {
	m, ok := ParseSortMode("domain")
	assert.True(t, ok)
	assert.Equal(t, domain.SortDomain, m)
	_, ok = ParseSortMode("random")
	assert.False(t, ok)
}
