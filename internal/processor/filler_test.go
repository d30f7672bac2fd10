package processor

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docx_templater/internal/tagstore"
	"github.com/allanpk716/docx_templater/internal/testutil"
	"github.com/allanpk716/docx_templater/pkg/docx"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTags(kv ...string) *tagstore.Store {
	s := tagstore.New()
	for i := 0; i+1 < len(kv); i += 2 {
		s.Put(kv[i], kv[i+1])
	}
	return s
}

func paragraphOf(texts ...string) *docx.Paragraph {
	runs := make([]*docx.Run, 0, len(texts))
	for i, text := range texts {
		runs = append(runs, docx.NewRun(text, string(rune('A'+i))))
	}
	return docx.NewParagraph(runs...)
}

func runTexts(p *docx.Paragraph) []string {
	texts := make([]string, 0, len(p.Runs))
	for _, r := range p.Runs {
		texts = append(texts, r.Text())
	}
	return texts
}

func TestNewTemplateFiller(t *testing.T) {
	filler := NewTemplateFiller(nil)
	if filler == nil {
		t.Fatal("NewTemplateFiller 返回 nil")
	}
}

func TestTemplateFiller_FillParagraph(t *testing.T) {
	tags := newTags("full_name", "Jane Doe", "a", "X", "b", "Y", "city", "Paris")

	tests := []struct {
		name      string
		runs      []string
		want      []string
		wantCount int
	}{
		{
			name:      "no dollar is identity",
			runs:      []string{"Hello ", "world"},
			want:      []string{"Hello ", "world"},
			wantCount: 0,
		},
		{
			name:      "single run placeholder keeps surrounding text",
			runs:      []string{"Dear ${full_name}, welcome", "!"},
			want:      []string{"Dear Jane Doe, welcome", "!"},
			wantCount: 1,
		},
		{
			name:      "cross run placeholder",
			runs:      []string{"Name: $", "{full_name} is valid"},
			want:      []string{"Name: Jane Doe is valid", ""},
			wantCount: 1,
		},
		{
			name:      "placeholder across three runs",
			runs:      []string{"City: $", "{ci", "ty}", " end"},
			want:      []string{"City: Paris", "", "", " end"},
			wantCount: 1,
		},
		{
			name:      "multiple placeholders in one run",
			runs:      []string{"${a} and ${b}"},
			want:      []string{"X and Y"},
			wantCount: 2,
		},
		{
			name:      "repeated placeholder replaced at once",
			runs:      []string{"${a}${a}", "-${a}"},
			want:      []string{"XX", "-X"},
			wantCount: 3,
		},
		{
			name:      "unknown placeholder left verbatim",
			runs:      []string{"${unknown} and ${a}"},
			want:      []string{"${unknown} and X"},
			wantCount: 1,
		},
		{
			name:      "unclosed placeholder left verbatim",
			runs:      []string{"price $", "{a"},
			want:      []string{"price $", "{a"},
			wantCount: 0,
		},
		{
			name:      "plain dollar sign",
			runs:      []string{"costs $5"},
			want:      []string{"costs $5"},
			wantCount: 0,
		},
		{
			name:      "later runs processed after merge",
			runs:      []string{"$", "{a}", " ", "${b}"},
			want:      []string{"X", "", " ", "Y"},
			wantCount: 2,
		},
	}

	filler := NewTemplateFiller(discardLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := paragraphOf(tt.runs...)
			stats := filler.FillParagraph(p, tags)

			assert.Equal(t, tt.want, runTexts(p))
			assert.Equal(t, tt.wantCount, stats.Substitutions)
			assert.Equal(t, 1, stats.Paragraphs)
		})
	}
}

func TestTemplateFiller_PreservesFormatting(t *testing.T) {
	p := paragraphOf("Name: $", "{full_name} is valid")
	NewTemplateFiller(discardLogger()).FillParagraph(p, newTags("full_name", "Jane Doe"))

	assert.Equal(t, "A", p.Runs[0].Properties)
	assert.Equal(t, "B", p.Runs[1].Properties)
	assert.True(t, p.Runs[0].Modified())
	assert.True(t, p.Runs[1].Modified())
}

func TestTemplateFiller_EmptyTags(t *testing.T) {
	p := paragraphOf("${a}", "text")
	stats := NewTemplateFiller(discardLogger()).FillParagraph(p, tagstore.New())

	assert.Equal(t, []string{"${a}", "text"}, runTexts(p))
	assert.Zero(t, stats.Substitutions)
	assert.False(t, p.Runs[0].Modified())
}

func TestTemplateFiller_DeterministicTieBreak(t *testing.T) {
	// 两个占位符在同一次扩展时同时出现，按标签名字典序选择
	p := paragraphOf("$", "{b}${a}")
	stats := NewTemplateFiller(discardLogger()).FillParagraph(p, newTags("b", "B", "a", "A"))

	assert.Equal(t, []string{"BA", ""}, runTexts(p))
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, stats.PerKey)
}

func TestTemplateFiller_SelfReferencingValueTerminates(t *testing.T) {
	p := paragraphOf("${loop}")
	stats := NewTemplateFiller(discardLogger()).FillParagraph(p, newTags("loop", "${loop}"))

	assert.Equal(t, "${loop}", p.Runs[0].Text())
	assert.Equal(t, maxSubstitutionsPerRun, stats.Substitutions)
}

func TestTemplateFiller_ValueWithDollar(t *testing.T) {
	p := paragraphOf("Price: ${price}")
	NewTemplateFiller(discardLogger()).FillParagraph(p, newTags("price", "$100"))

	assert.Equal(t, "Price: $100", p.Runs[0].Text())
}

func TestTemplateFiller_LineBreaksAndTabs(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		tags     *tagstore.Store
		wantText string
		wantXML  string
	}{
		{
			name:     "break before placeholder stays in place",
			body:     `<w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Name: ${a}</w:t></w:r></w:p>`,
			tags:     newTags("a", "X"),
			wantText: "Line one\nName: X",
			wantXML:  `<w:r><w:t>Line one</w:t><w:br/><w:t xml:space="preserve">Name: X</w:t></w:r>`,
		},
		{
			name:     "tab in consumed run moves with its text",
			body:     `<w:p><w:r><w:t>${na</w:t></w:r><w:r><w:t>me}</w:t><w:tab/><w:t>end</w:t></w:r></w:p>`,
			tags:     newTags("name", "Jo"),
			wantText: "Jo\tend",
			wantXML:  `<w:r><w:t xml:space="preserve">Jo</w:t><w:tab/><w:t xml:space="preserve">end</w:t></w:r><w:r></w:r>`,
		},
		{
			name:     "placeholder interrupted by a break is not matched",
			body:     `<w:p><w:r><w:t>${a</w:t><w:br/><w:t>}</w:t></w:r></w:p>`,
			tags:     newTags("a", "X"),
			wantText: "${a\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := docx.ParseXML(testutil.DocumentXML(tt.body))
			require.NoError(t, err)

			NewTemplateFiller(discardLogger()).FillParagraph(doc.Paragraphs[0], tt.tags)

			out := doc.XML()
			if tt.wantXML != "" {
				assert.Contains(t, out, tt.wantXML)
			}
			reparsed, err := docx.ParseXML(out)
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, reparsed.Paragraphs[0].Text())
		})
	}
}

func BenchmarkTemplateFiller_FillParagraph(b *testing.B) {
	tags := newTags("a", "X", "b", "Y", "full_name", "Jane Doe")
	filler := NewTemplateFiller(discardLogger())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := paragraphOf("Name: $", "{full_name}", " and ${a} / $", "{b}")
		filler.FillParagraph(p, tags)
	}
}
