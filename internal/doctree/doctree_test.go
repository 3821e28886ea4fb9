package doctree

import "testing"

func para(texts ...string) Element {
	p := &Paragraph{}
	for _, t := range texts {
		p.Elements = append(p.Elements, ParagraphElement{TextRun: &TextRun{Content: t}})
	}
	return Element{Paragraph: p}
}

func TestElements_Text(t *testing.T) {
	tree := Elements{
		para("Hello ", "world\n"),
		{SectionBreak: &SectionBreak{}},
		para("Second line\n"),
		{Paragraph: &Paragraph{Elements: []ParagraphElement{{HorizontalRule: &HorizontalRule{}}}}},
	}
	got := tree.Text()
	want := "Hello world\nSecond line"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParagraph_NamedStyleNil(t *testing.T) {
	var p *Paragraph
	if p.NamedStyle() != "" {
		t.Error("expected empty style for nil paragraph")
	}
	if (&Paragraph{}).NamedStyle() != "" {
		t.Error("expected empty style for paragraph without style")
	}
}

func TestFrontMatter_Accessors(t *testing.T) {
	fm := FrontMatter{
		KeyTitle:     "Foo",
		KeyAuthor:    "Ada",
		KeyPublished: true,
		"draftish":   "true-ish",
	}
	if fm.Title() != "Foo" {
		t.Errorf("expected title Foo, got %q", fm.Title())
	}
	if fm.Author() != "Ada" {
		t.Errorf("expected author Ada, got %q", fm.Author())
	}
	published, set := fm.Published()
	if !published || !set {
		t.Errorf("expected published=true set=true, got %v %v", published, set)
	}
	if _, ok := fm.Bool("draftish"); ok {
		t.Error("string value must not read as bool")
	}

	var empty FrontMatter
	if _, set := empty.Published(); set {
		t.Error("nil front matter must report published unset")
	}
}
