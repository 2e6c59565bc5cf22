package model

import "encoding/json"

// SearchRequest is the input of search, lookup and enrichment flows.
type SearchRequest struct {
	FirstName         string `json:"firstName" validate:"required"`
	LastName          string `json:"lastName" validate:"required"`
	AdditionalContext string `json:"additionalContext,omitempty"`
	LinkedInURL       string `json:"linkedinUrl,omitempty" validate:"omitempty,url"`
}

// ProfileRequest asks for a direct profile fetch.
type ProfileRequest struct {
	URL string `json:"url" validate:"required"`
}

// CrewRunRequest carries a profile object or a list of profile objects.
type CrewRunRequest struct {
	LinkedInData json.RawMessage `json:"linkedinData" validate:"required"`
}

// ChatRequest is a question about stored contacts.
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
	Limit   int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

type SearchResponse struct {
	SelectedProfile   Record  `json:"selectedProfile"`
	SelectorRationale *string `json:"selectorRationale,omitempty"`
}

type CaptureAcceptedResponse struct {
	JobID  string        `json:"jobId"`
	Status CaptureStatus `json:"status"`
}

type PeopleListResponse struct {
	People []PersonRecord `json:"people"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}
