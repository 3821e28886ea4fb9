package doctree

// FrontMatter is the metadata block parsed from the head of a tab. Values
// are either string or bool.
type FrontMatter map[string]any

// Well-known front matter keys.
const (
	KeyTitle         = "title"
	KeyAuthor        = "author"
	KeyDate          = "date"
	KeyDescription   = "description"
	KeyFeaturedImage = "featuredImage"
	KeyPublished     = "published"
)

// String returns the value of key if it is a string.
func (fm FrontMatter) String(key string) string {
	s, _ := fm[key].(string)
	return s
}

// Bool returns the value of key and whether it was present as a bool.
func (fm FrontMatter) Bool(key string) (value, ok bool) {
	value, ok = fm[key].(bool)
	return value, ok
}

func (fm FrontMatter) Title() string         { return fm.String(KeyTitle) }
func (fm FrontMatter) Author() string        { return fm.String(KeyAuthor) }
func (fm FrontMatter) Date() string          { return fm.String(KeyDate) }
func (fm FrontMatter) Description() string   { return fm.String(KeyDescription) }
func (fm FrontMatter) FeaturedImage() string { return fm.String(KeyFeaturedImage) }

// Published reports the published flag and whether it was set at all.
func (fm FrontMatter) Published() (published, set bool) {
	return fm.Bool(KeyPublished)
}
