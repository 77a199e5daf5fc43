package rollin

import "github.com/joinrollin/rollin-mcp/mcp"

const (
	APIInfoURI  = "rollin://api-info"
	apiInfoName = "api-info"
)

const apiInfoText = `ROLLIN Accessibility API
========================

Wheelchair accessibility data for 56,000+ restaurants, cafes, and bars across 6 US states.

Coverage: New York, California, Florida, Massachusetts, New Jersey, Pennsylvania
Regions: 22 metro areas and regions

Accessibility features tracked:
- wheelchair_entry: Step-free entrance
- accessible_restroom: ADA-compliant restroom
- level_entry: No steps at entrance
- parking: Accessible parking available
- elevator: Elevator access between floors
- wide_aisles: Sufficient space for wheelchair navigation

Scores: 0-100 scale based on multiple verified sources.

Docs: https://joinrollin.com/developers.html
API Keys: https://joinrollin.com/portal.html
Status: https://joinrollin.com/status.html
`

// APIInfoResource returns the static API overview served at rollin://api-info.
func APIInfoResource() mcp.Resource {
	return mcp.StaticResource(
		APIInfoURI,
		apiInfoName,
		"ROLLIN API overview and available features",
		"text/plain",
		apiInfoText,
	)
}
