package rollin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/joinrollin/rollin-mcp/infer"
	"github.com/joinrollin/rollin-mcp/safeunmarshal"
	"github.com/joinrollin/rollin-mcp/tools"
)

var openWorld = true

var readOnly = tools.Annotations{
	ReadOnlyHint:   true,
	IdempotentHint: true,
	OpenWorldHint:  &openWorld,
}

// Tools returns the five ROLLIN tools in registration order.
func Tools(client *Client) []tools.Tool {
	return []tools.Tool{
		searchLocationsTool(client),
		locationDetailsTool(client),
		listRegionsTool(client),
		submitFeedbackTool(client),
		checkHealthTool(client),
	}
}

func searchLocationsTool(client *Client) tools.Tool {
	return tools.NewTool(
		"search_locations",
		"Search for wheelchair-accessible restaurants, cafes, and bars near a location. "+
			"Returns scored results with accessibility features. Requires latitude and longitude.",
		func(ctx context.Context, in SearchLocationsInput) (json.RawMessage, error) {
			return client.SearchLocations(ctx, in)
		},
		tools.WithTitle("Search Accessible Locations"),
		tools.WithVerb("Searching locations"),
		tools.WithProperty("radius", infer.Type("number"), infer.Range(0.1, 25), infer.Default(5)),
		tools.WithProperty("min_score", infer.Type("number"), infer.Range(0, 100)),
		tools.WithProperty("limit", infer.Type("number"), infer.Range(1, 50), infer.Default(10)),
		tools.WithAnnotations(readOnly),
		tools.WithFailurePrefix("Failed to search locations"),
	)
}

func locationDetailsTool(client *Client) tools.Tool {
	return tools.NewTool(
		"get_location_details",
		"Get full accessibility details and score breakdown for a specific location. "+
			"Returns features, score components, and verification status.",
		func(ctx context.Context, in LocationDetailsInput) (json.RawMessage, error) {
			return locationWithScore(ctx, client, in.ID)
		},
		tools.WithTitle("Get Location Details"),
		tools.WithVerb("Fetching location details"),
		tools.WithAnnotations(readOnly),
		tools.WithFailurePrefix("Failed to get location details"),
	)
}

func listRegionsTool(client *Client) tools.Tool {
	return tools.NewTool(
		"list_regions",
		"List all regions where accessibility data is available. "+
			"Returns states, regions, and location counts for each area.",
		func(ctx context.Context, _ NoInput) (json.RawMessage, error) {
			return client.Regions(ctx)
		},
		tools.WithTitle("List Coverage Regions"),
		tools.WithVerb("Listing regions"),
		tools.WithAnnotations(readOnly),
		tools.WithFailurePrefix("Failed to list regions"),
	)
}

func submitFeedbackTool(client *Client) tools.Tool {
	notDestructive := false
	return tools.NewTool(
		"submit_feedback",
		"Submit a correction or feedback about a location's accessibility. "+
			"Use this when a user reports that accessibility information is inaccurate.",
		func(ctx context.Context, in SubmitFeedbackInput) (json.RawMessage, error) {
			return client.SubmitFeedback(ctx, in)
		},
		tools.WithTitle("Submit Location Feedback"),
		tools.WithVerb("Submitting feedback"),
		tools.WithProperty("feedback_type", infer.Enum(FeedbackTypes...)),
		tools.WithProperty("comment", infer.MaxLength(1000)),
		tools.WithAnnotations(tools.Annotations{
			DestructiveHint: &notDestructive,
			OpenWorldHint:   &openWorld,
		}),
		tools.WithFailurePrefix("Failed to submit feedback"),
	)
}

func checkHealthTool(client *Client) tools.Tool {
	return tools.NewTool(
		"check_health",
		"Check if the ROLLIN API is operational.",
		func(ctx context.Context, _ NoInput) (json.RawMessage, error) {
			return client.Health(ctx)
		},
		tools.WithTitle("Check API Health"),
		tools.WithVerb("Checking API health"),
		tools.WithAnnotations(readOnly),
		tools.WithFailurePrefix("API health check failed"),
	)
}

// locationWithScore fetches the details record and its score breakdown
// concurrently. A failed score fetch only drops score_breakdown from the
// result; a failed details fetch fails the call.
func locationWithScore(ctx context.Context, client *Client, id string) (json.RawMessage, error) {
	var details, score json.RawMessage

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		details, err = client.LocationDetails(gctx, id)
		return err
	})
	g.Go(func() error {
		s, err := client.ScoreBreakdown(gctx, id)
		if err != nil {
			client.logger.Debug("score breakdown unavailable", "id", id, "error", err)
			return nil
		}
		score = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if isNull(score) {
		score = nil
	}
	return withField(details, "score_breakdown", score)
}

// withField returns obj with key set to value, keeping the original key order.
// A nil value leaves obj unchanged. obj must be a JSON object.
func withField(obj json.RawMessage, key string, value json.RawMessage) (json.RawMessage, error) {
	fields, err := safeunmarshal.To[map[string]json.RawMessage](obj)
	if err != nil {
		return nil, fmt.Errorf("location details: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("location details: expected a JSON object, got null")
	}
	if value == nil {
		return obj, nil
	}

	if _, exists := fields[key]; exists {
		return replaceField(obj, key, value)
	}

	encodedKey, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(obj)
	var buf bytes.Buffer
	buf.Write(bytes.TrimSpace(trimmed[:len(trimmed)-1]))
	if len(fields) > 0 {
		buf.WriteByte(',')
	}
	buf.Write(encodedKey)
	buf.WriteByte(':')
	buf.Write(value)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// replaceField rewrites obj with the value of key swapped for value. Other
// members keep their order and bytes.
func replaceField(obj json.RawMessage, key string, value json.RawMessage) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(obj))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("location details: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; dec.More(); i++ {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("location details: %w", err)
		}
		name, _ := tok.(string)

		var member json.RawMessage
		if err := dec.Decode(&member); err != nil {
			return nil, fmt.Errorf("location details: %w", err)
		}
		if name == key {
			member = value
		}

		encodedKey, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(member)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func isNull(raw json.RawMessage) bool {
	return raw == nil || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
