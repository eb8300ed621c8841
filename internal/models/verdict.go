package models

// HopStatus distinguishes "not a link" from "could not check".
type HopStatus string

const (
	HopValid       HopStatus = "valid"
	HopLinkMissing HopStatus = "link_missing"
	HopFetchFailed HopStatus = "fetch_failed"
	HopParseFailed HopStatus = "parse_failed"
)

// Hop is one claimed link traversal and its diagnostics.
type Hop struct {
	Index   int       `json:"index"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	FromURL string    `json:"from_url"`
	Valid   bool      `json:"valid"`
	Status  HopStatus `json:"status"`

	// AvailableLinks is a bounded sample of the links found on From, set when
	// the target link was missing.
	AvailableLinks []string `json:"available_links,omitempty"`
	Message        string   `json:"message,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Verdict is the hop-by-hop validation of an entire path.
type Verdict struct {
	Valid bool  `json:"valid"`
	Hops  []Hop `json:"hops"`
}

// Errors returns one message per failed hop, in hop order.
func (v Verdict) Errors() []string {
	var msgs []string
	for _, h := range v.Hops {
		if !h.Valid {
			msgs = append(msgs, h.Message)
		}
	}
	return msgs
}

// Failed returns the hops that did not validate.
func (v Verdict) Failed() []Hop {
	var hops []Hop
	for _, h := range v.Hops {
		if !h.Valid {
			hops = append(hops, h)
		}
	}
	return hops
}
