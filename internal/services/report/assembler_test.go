package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalize(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		introduction string
		conclusion   string
		want         string
	}{
		{
			name:         "insights stripped and sources relocated",
			body:         "## Insights\nBody\n## Sources\nSrc1",
			introduction: "Intro",
			conclusion:   "Concl",
			want:         "Intro\n\n---\n\nBody\n\n---\n\nConcl\n\n## Sources\nSrc1",
		},
		{
			name: "body only is returned unchanged",
			body: "Plain body\nwith two lines",
			want: "Plain body\nwith two lines",
		},
		{
			name:         "empty conclusion is skipped",
			body:         "Body",
			introduction: "Intro",
			want:         "Intro\n\n---\n\nBody",
		},
		{
			name:       "empty introduction is skipped",
			body:       "Body",
			conclusion: "Concl",
			want:       "Body\n\n---\n\nConcl",
		},
		{
			name: "sources without intro or conclusion",
			body: "Body\n## Sources\n[1] a\n[2] b",
			want: "Body\n\n## Sources\n[1] a\n[2] b",
		},
		{
			name:         "two sources headings leave body intact",
			body:         "Body\n## Sources\nA\n## Sources\nB",
			introduction: "Intro",
			want:         "Intro\n\n---\n\nBody\n## Sources\nA\n## Sources\nB",
		},
		{
			name: "level three sources subheading stays in the body",
			body: "Body text\n### Sources of growth\nDetail",
			want: "Body text\n### Sources of growth\nDetail",
		},
		{
			name:         "sources subheading beside a real sources block",
			body:         "Body\n### Sources of growth\nDetail\n## Sources\n[1] a",
			introduction: "Intro",
			want:         "Intro\n\n---\n\nBody\n### Sources of growth\nDetail\n\n## Sources\n[1] a",
		},
		{
			name: "inline mention is not a heading",
			body: "See ## Sources below\nText",
			want: "See ## Sources below\nText",
		},
		{
			name: "insights heading only stripped when leading",
			body: "Lead\n## Insights\nMore",
			want: "Lead\n## Insights\nMore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Finalize(tt.body, tt.introduction, tt.conclusion))
		})
	}
}

func TestAssemble_Parts(t *testing.T) {
	report := Assemble("## Insights\n\nBody text\n\n## Sources\n[1] https://example.com", "Intro", "Concl")

	assert.Equal(t, "Body text", report.Body)
	assert.Equal(t, "[1] https://example.com", report.Sources)
	assert.True(t, report.HasSources)
	assert.Equal(t, "Intro", report.Introduction)
	assert.Equal(t, "Concl", report.Conclusion)
}
