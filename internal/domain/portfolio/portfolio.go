// Package portfolio holds the content shown on the site: who the owner is,
// where to find them, what they work with, and what they have built.
package portfolio

// Profile is the hero banner and page metadata.
type Profile struct {
	Name        string
	Headline    string
	Tagline     string
	Title       string // <title> and Open Graph title
	SiteName    string
	ImageURL    string // Open Graph / Twitter card image
	GitHubURL   string
	Locale      string
	ContactHint string
}

// Link is an outbound profile link. Links with an empty URL are not shown.
type Link struct {
	Key   string // icon key used by the template
	Label string
	URL   string
	// External links open in a new tab.
	External bool
}

// Visible reports whether the link should be rendered.
func (l Link) Visible() bool { return l.URL != "" }

// Skill is one tile in a skill category.
type Skill struct {
	Name string
	Icon string
}

// Category groups skills under a heading.
type Category struct {
	Key    string
	Title  string
	Skills []Skill
}

// Project is a showcase card.
type Project struct {
	Title       string
	Description string
	Tags        []string
	Link        string
}

// HasLink reports whether the card should link out. "#" is a placeholder,
// not a link.
func (p Project) HasLink() bool {
	return p.Link != "" && p.Link != "#"
}

// Content is everything the page renders.
type Content struct {
	Profile    Profile
	Social     []Link
	Freelance  []Link
	Categories []Category
	Projects   []Project
}

// VisibleLinks filters out links with no URL, keeping order.
func VisibleLinks(links []Link) []Link {
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if l.Visible() {
			out = append(out, l)
		}
	}
	return out
}

// Columns deals categories round-robin into n columns, so category i lands
// in column i%n. n below 1 is treated as 1.
func Columns(categories []Category, n int) [][]Category {
	if n < 1 {
		n = 1
	}
	cols := make([][]Category, n)
	for i, c := range categories {
		cols[i%n] = append(cols[i%n], c)
	}
	return cols
}
