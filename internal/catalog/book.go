package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultAuthor = "unknown"
	DefaultGenre  = "Other"
)

type CoverSize string

const (
	CoverSmall  CoverSize = "S"
	CoverMedium CoverSize = "M"
	CoverLarge  CoverSize = "L"
)

// ParseCoverSize accepts S, M or L in either case.
func ParseCoverSize(s string) (CoverSize, bool) {
	switch CoverSize(strings.ToUpper(strings.TrimSpace(s))) {
	case CoverSmall:
		return CoverSmall, true
	case CoverMedium:
		return CoverMedium, true
	case CoverLarge:
		return CoverLarge, true
	}
	return "", false
}

// Book is one catalog entry. Everything except ID and Title is optional so
// that snapshots written by older versions still decode.
type Book struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author,omitempty"`
	Year         Loose     `json:"year,omitempty"`
	CoverID      Loose     `json:"cover_i,omitempty"`
	CoverSize    CoverSize `json:"cover_size,omitempty"`
	Genre        string    `json:"genre,omitempty"`
	ISBN         string    `json:"isbn,omitempty"`
	Subject      string    `json:"subject,omitempty"`
	EditionCount Count     `json:"edition_count,omitempty"`
	PageCount    Count     `json:"page_count,omitempty"`
}

// UnmarshalJSON also accepts the misspelled "genere" key used by the first
// snapshots.
func (b *Book) UnmarshalJSON(data []byte) error {
	type plain Book
	aux := struct {
		*plain
		Genere string `json:"genere"`
	}{plain: (*plain)(b)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if b.Genre == "" {
		b.Genre = aux.Genere
	}
	return nil
}

// Fields is the mutable part of a Book, as supplied by a form submission or
// by a search candidate.
type Fields struct {
	Title        string    `json:"title"`
	Author       string    `json:"author,omitempty"`
	Year         Loose     `json:"year,omitempty"`
	CoverID      Loose     `json:"cover_i,omitempty"`
	CoverSize    CoverSize `json:"cover_size,omitempty"`
	Genre        string    `json:"genre,omitempty"`
	ISBN         string    `json:"isbn,omitempty"`
	Subject      string    `json:"subject,omitempty"`
	EditionCount Count     `json:"edition_count,omitempty"`
	PageCount    Count     `json:"page_count,omitempty"`
}

func (f Fields) normalize() Fields {
	f.Title = strings.TrimSpace(f.Title)
	f.Author = strings.TrimSpace(f.Author)
	f.Year = Loose(strings.TrimSpace(string(f.Year)))
	f.CoverID = Loose(strings.TrimSpace(string(f.CoverID)))
	f.Genre = strings.TrimSpace(f.Genre)
	f.ISBN = strings.TrimSpace(f.ISBN)
	f.Subject = strings.TrimSpace(f.Subject)
	if f.Author == "" {
		f.Author = DefaultAuthor
	}
	if f.Genre == "" {
		f.Genre = DefaultGenre
	}
	if f.EditionCount < 0 {
		f.EditionCount = 0
	}
	if f.PageCount < 0 {
		f.PageCount = 0
	}
	return f
}

func (f Fields) validate() error {
	if f.Title == "" {
		return validationErr("title is required")
	}
	if f.CoverSize != "" {
		if _, ok := ParseCoverSize(string(f.CoverSize)); !ok {
			return validationErr("cover_size must be one of S, M, L")
		}
	}
	return nil
}

func (b *Book) apply(f Fields) {
	b.Title = f.Title
	b.Author = f.Author
	b.Year = f.Year
	b.CoverID = f.CoverID
	b.Genre = f.Genre
	b.ISBN = f.ISBN
	b.Subject = f.Subject
	b.EditionCount = f.EditionCount
	b.PageCount = f.PageCount
	if f.CoverSize != "" {
		b.CoverSize, _ = ParseCoverSize(string(f.CoverSize))
	}
	if b.CoverSize == "" {
		b.CoverSize = CoverSmall
	}
}

// Loose is a string that decodes from either a JSON string or a JSON number.
// Years and cover ids have been stored both ways.
type Loose string

func (l *Loose) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Loose(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*l = Loose(n.String())
	return nil
}

func LooseInt(n int) Loose {
	if n == 0 {
		return ""
	}
	return Loose(strconv.Itoa(n))
}

func (l Loose) String() string { return string(l) }

// Count is a non-negative counter that decodes from a JSON number or a
// numeric string. Form values were sometimes stored as strings.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	var l Loose
	if err := l.UnmarshalJSON(data); err != nil {
		return err
	}

	s := strings.TrimSpace(string(l))
	if s == "" {
		*c = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("count %q: %w", s, err)
	}
	*c = Count(f)
	return nil
}
