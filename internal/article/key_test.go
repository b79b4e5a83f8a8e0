package article

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "lowercases and strips punctuation",
			title: "Federated Learning: Privacy, at Scale!",
			want:  "federatedlearningprivacyatscale",
		},
		{
			name:  "strips accents",
			title: "Über Fédération",
			want:  "uberfederation",
		},
		{
			name:  "empty",
			title: "   ",
			want:  "",
		},
		{
			name:  "digits preserved",
			title: "GPT-4 Evaluation",
			want:  "gpt4evaluation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.title))
		})
	}
}

func TestNormalizeTitle_Truncates(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "abcdefghij"
	}
	got := NormalizeTitle(long)
	assert.Len(t, got, 100)
}

func TestKey_Priority(t *testing.T) {
	tests := []struct {
		name string
		a    Article
		want string
	}{
		{
			name: "doi wins",
			a:    Article{DOI: " 10.1000/XYZ ", Source: "arxiv", SourceID: "1234", Title: "A Title"},
			want: "doi:10.1000/xyz",
		},
		{
			name: "source id next",
			a:    Article{Source: "ArXiv", SourceID: "2401.0001", Title: "A Title"},
			want: "src:arxiv:2401.0001",
		},
		{
			name: "title fallback",
			a:    Article{Title: "Deep Learning"},
			want: "title:deeplearning",
		},
		{
			name: "no identity",
			a:    Article{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Key())
		})
	}
}

func TestFusionKey_PrefersURLOverTitle(t *testing.T) {
	a := Article{URL: "https://example.org/p/1", Title: "Some Title"}
	assert.Equal(t, "url:https://example.org/p/1", a.FusionKey())

	b := Article{DOI: "10.1/a", URL: "https://example.org/p/1"}
	assert.Equal(t, "doi:10.1/a", b.FusionKey())
}

func TestSameWorkDifferentSourcesShareKey(t *testing.T) {
	x := Article{DOI: "10.1000/xyz", Source: "crossref"}
	y := Article{DOI: "10.1000/XYZ", Source: "semanticscholar", SourceID: "s2-99"}
	assert.Equal(t, x.Key(), y.Key())
}
