// internal/api/types.go
package api

import "encoding/json"

// BookRef is a reference to a book on the wire. The backend sends either a
// bare id string or a populated summary object depending on whether the
// query joined the book collection; both decode into the same type.
type BookRef struct {
	ID       string
	Title    string
	CoverURL string
}

type bookSummary struct {
	ID       string `json:"_id"`
	Title    string `json:"book_title"`
	CoverURL string `json:"book_cover_url"`
}

// UnmarshalJSON accepts both the string and the object form
func (r *BookRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		r.ID = id
		return nil
	}

	var summary bookSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return err
	}
	r.ID = summary.ID
	r.Title = summary.Title
	r.CoverURL = summary.CoverURL
	return nil
}

// MarshalJSON always emits the bare id form
func (r BookRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// Populated reports whether the reference carries book details
func (r BookRef) Populated() bool {
	return r.Title != ""
}
