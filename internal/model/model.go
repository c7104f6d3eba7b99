// Package model defines core types for shelf: catalog products and the
// recommendation results built from them.
package model

// Product is a single catalog entry. Name and Tags come from the required
// catalog columns; the remaining fields are optional display metadata.
type Product struct {
	Position    int     `json:"position"`
	Name        string  `json:"name"`
	Tags        string  `json:"tags"`
	Brand       string  `json:"brand,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`
}

// Mode records which branch produced a recommendation result.
type Mode string

const (
	// ModeEmpty means the catalog had no products.
	ModeEmpty Mode = "empty"
	// ModeDefault means the first catalog entries were returned in load order,
	// either because no name matched or because ranking failed.
	ModeDefault Mode = "default"
	// ModeSimilar means products were ranked by tag similarity to a reference item.
	ModeSimilar Mode = "similar"
)

// Result is a recommendation response with diagnostics.
type Result struct {
	Query      string    `json:"query"`
	TopN       int       `json:"top_n"`
	Mode       Mode      `json:"mode"`
	Reference  *Product  `json:"reference,omitempty"`
	Products   []Product `json:"products"`
	Scores     []float64 `json:"scores,omitempty"`
	DidYouMean string    `json:"did_you_mean,omitempty"`
	Cached     bool      `json:"cached,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Clone returns a deep copy of r so cached results can be handed out safely.
func (r Result) Clone() Result {
	out := r
	if r.Reference != nil {
		ref := *r.Reference
		out.Reference = &ref
	}
	if r.Products != nil {
		out.Products = make([]Product, len(r.Products))
		copy(out.Products, r.Products)
	}
	if r.Scores != nil {
		out.Scores = make([]float64, len(r.Scores))
		copy(out.Scores, r.Scores)
	}
	return out
}
