package model

import "time"

// Person is the typed projection of the selected search candidate.
type Person struct {
	URL        string `json:"url"`
	Name       string `json:"name,omitempty"`
	Subtitle   string `json:"subtitle,omitempty"`
	Location   string `json:"location,omitempty"`
	Experience any    `json:"experience,omitempty"`
	Education  any    `json:"education,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
}

// PersonFromCandidate projects a raw candidate record onto Person, using
// profileURL as the canonical URL.
func PersonFromCandidate(candidate Record, profileURL string) Person {
	return Person{
		URL:        profileURL,
		Name:       candidate.String("name"),
		Subtitle:   candidate.String("subtitle"),
		Location:   candidate.String("location"),
		Experience: candidate.Value("experience"),
		Education:  candidate.Value("education"),
		Avatar:     candidate.String("avatar"),
	}
}

// Selection is the ranking collaborator's choice among search candidates.
type Selection struct {
	Selected  Record  `json:"selectedProfile"`
	Rationale *string `json:"selectorRationale,omitempty"`
}

// ProfileAnalysis is the output of the profile analyzer task.
type ProfileAnalysis struct {
	ProfileName    string   `json:"profile_name,omitempty"`
	Headline       string   `json:"headline,omitempty"`
	CurrentTitle   string   `json:"current_title,omitempty"`
	CurrentCompany string   `json:"current_company,omitempty"`
	Location       string   `json:"location,omitempty"`
	Highlights     []string `json:"highlights" validate:"len=10,dive,required"`
}

// Summary is the two sentence summary task output.
type Summary struct {
	Summary       string   `json:"summary" validate:"required,two_sentences"`
	KeyHighlights []string `json:"key_highlights" validate:"len=3,dive,required"`
}

// Icebreaker is a single conversation starter.
type Icebreaker struct {
	Category string `json:"category" validate:"oneof=professional educational industry interest personal"`
	Prompt   string `json:"prompt" validate:"required"`
}

// IcebreakerSet is the icebreaker task output.
type IcebreakerSet struct {
	Icebreakers []Icebreaker `json:"icebreakers" validate:"min=3,max=5,dive"`
}

// CrewOutputs holds the structured output of every enrichment task.
type CrewOutputs struct {
	ProfileAnalysis *ProfileAnalysis `json:"profileAnalysis,omitempty"`
	Summary         *Summary         `json:"summary,omitempty"`
	Icebreakers     *IcebreakerSet   `json:"icebreakers,omitempty"`
}

// LookupResult is what the enrichment flow returns and caches.
type LookupResult struct {
	Person            Person      `json:"person"`
	SelectorRationale *string     `json:"selectorRationale,omitempty"`
	CrewOutputs       CrewOutputs `json:"crewOutputs"`
}

// BasicInfo is the identity block of an image extraction.
type BasicInfo struct {
	Names   string `json:"names"`
	Company string `json:"company,omitempty"`
}

// Links is the contact block of an image extraction.
type Links struct {
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Extracted is the structured output of the image extraction collaborator.
type Extracted struct {
	BasicInfo BasicInfo `json:"basic_info"`
	Links     Links     `json:"links"`
	Image     string    `json:"image,omitempty"`
}

// PersonRecord is a persisted capture result. Records are append-only.
type PersonRecord struct {
	LookupResult
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Filename  string    `json:"filename"`
	Markdown  string    `json:"markdown"`
	Extracted Extracted `json:"extracted"`
	ImageURL  string    `json:"imageUrl,omitempty"`
}
