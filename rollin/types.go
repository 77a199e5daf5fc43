package rollin

import "strconv"

// FeedbackTypes lists the accepted submit_feedback kinds.
var FeedbackTypes = []any{"accurate", "inaccurate", "correction"}

// SearchLocationsInput holds search_locations arguments. Optional numbers are
// pointers so that an explicit 0 is still sent.
type SearchLocationsInput struct {
	Q        string   `json:"q,omitempty" jsonschema:"Search by name, cuisine, or category (e.g. 'sushi', 'Italian')"`
	Lat      float64  `json:"lat" jsonschema:"Latitude of the search center"`
	Lng      float64  `json:"lng" jsonschema:"Longitude of the search center"`
	Radius   *float64 `json:"radius,omitempty" jsonschema:"Search radius in miles (default 5, max 25)"`
	MinScore *float64 `json:"min_score,omitempty" jsonschema:"Minimum accessibility score (0-100)"`
	Features string   `json:"features,omitempty" jsonschema:"Comma-separated feature filter: wheelchair_entry, accessible_restroom, level_entry, parking, elevator, wide_aisles"`
	Limit    *float64 `json:"limit,omitempty" jsonschema:"Number of results (default 10, max 50)"`
}

func (in SearchLocationsInput) query() map[string]string {
	params := map[string]string{
		"q":        in.Q,
		"lat":      formatNumber(in.Lat),
		"lng":      formatNumber(in.Lng),
		"features": in.Features,
	}
	if in.Radius != nil {
		params["radius"] = formatNumber(*in.Radius)
	}
	if in.MinScore != nil {
		params["min_score"] = formatNumber(*in.MinScore)
	}
	if in.Limit != nil {
		params["limit"] = formatNumber(*in.Limit)
	}
	return params
}

// LocationDetailsInput holds get_location_details arguments.
type LocationDetailsInput struct {
	ID string `json:"id" jsonschema:"Location ID (from search results)"`
}

// NoInput is the argument type of tools that take no parameters.
type NoInput struct{}

// SubmitFeedbackInput is both the submit_feedback arguments and the POST
// /feedback body. A nil entry in Features is sent as JSON null.
type SubmitFeedbackInput struct {
	LocationID   string           `json:"location_id" jsonschema:"Location ID to submit feedback for"`
	FeedbackType string           `json:"feedback_type" jsonschema:"Type: 'accurate' to confirm, 'inaccurate' to flag, 'correction' to update features"`
	Features     map[string]*bool `json:"features,omitempty" jsonschema:"Feature corrections, e.g. { wheelchair_entry: true, parking: false }"`
	Comment      string           `json:"comment,omitempty" jsonschema:"Additional context (max 1000 characters)"`
}

// formatNumber renders v in its shortest round-trip form, e.g. 40.7 or 5.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
