package scraper

import (
	"errors"
	"fmt"
)

// FormField is one fillable or submittable control on a scraped page.
type FormField struct {
	TagName     string   `json:"tagName"`
	Type        string   `json:"type"`
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Value       string   `json:"value,omitempty"`
	Required    bool     `json:"required"`
	Selector    string   `json:"selector"`
	Label       string   `json:"label,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

// Option is one entry of a select control.
type Option struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// Result is the field inventory of one page.
type Result struct {
	URL    string      `json:"url"`
	Title  string      `json:"title,omitempty"`
	Fields []FormField `json:"fields"`
}

// ErrNoURL is returned when Scrape is called without a URL.
var ErrNoURL = errors.New("no URL provided")

// ScrapeError reports a scrape that could not produce an inventory.
type ScrapeError struct {
	URL string
	Op  string
	Err error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape %s: %s: %v", e.URL, e.Op, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }
