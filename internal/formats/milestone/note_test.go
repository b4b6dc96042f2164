package milestone

import (
	"testing"

	"github.com/FocuswithJustin/JuniperCorpus/core/ir"
	"github.com/FocuswithJustin/JuniperCorpus/core/xml"
)

var testParts = NoteParts{
	Reference: []string{"fr"},
	Text:      []string{"ft"},
	Keyword:   []string{"fk"},
	Quotation: []string{"fq"},
}

func readTestNote(t *testing.T, src string) Note {
	t.Helper()
	doc, err := xml.Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return ReadNote(doc.Root(), ir.KindFootnote, "+", testParts, (*xml.Node).Name)
}

func TestReadNote(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Note
	}{
		{
			name: "all parts",
			src:  `<f><fr>3:16 </fr><fk>world</fk><fq>so loved</fq><ft>Or, age</ft></f>`,
			want: Note{Reference: "3:16", Keyword: "world", Quotation: "so loved", Content: "Or, age"},
		},
		{
			name: "flattened",
			src:  `<f><fr>1:1 </fr>Some <i>plain</i> note</f>`,
			want: Note{Reference: "1:1", Content: "Some plain note"},
		},
		{
			name: "keyword only",
			src:  `<f><fk>Selah</fk></f>`,
			want: Note{Keyword: "Selah", Content: "Selah"},
		},
		{
			name: "empty",
			src:  `<f><fr>1:1</fr></f>`,
			want: Note{Reference: "1:1", Content: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readTestNote(t, tt.src)
			got.Content = Clean(got.Content)
			got.Reference = Clean(got.Reference)
			got.Keyword = Clean(got.Keyword)
			got.Quotation = Clean(got.Quotation)
			tt.want.Kind = ir.KindFootnote
			tt.want.Caller = "+"
			if got != tt.want {
				t.Errorf("ReadNote = %+v, want %+v", got, tt.want)
			}
		})
	}
}
