package models

// ChallengeSet is a named collection of fixed starting pages.
type ChallengeSet struct {
	Name       string
	Challenges []Challenge
}

// Challenge is one fixed starting point loaded from a challenge file.
type Challenge struct {
	Name string `toml:"name"`
	Page string `toml:"page"`
	URL  string `toml:"url,omitempty"`
}

// Start returns the challenge's starting page.
func (c Challenge) Start() Page {
	return Page{Title: c.Page, URL: c.URL}
}
