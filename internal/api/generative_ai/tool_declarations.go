package generativeAI

import (
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

var categories = []string{
	string(types.CategoryRestaurant),
	string(types.CategoryCafe),
	string(types.CategoryAttraction),
	string(types.CategoryShopping),
	string(types.CategoryAccommodation),
	string(types.CategoryNightlife),
	string(types.CategoryOther),
}

func placeSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":        {Type: genai.TypeString, Description: "Place name in the user's language"},
			"nameEn":      {Type: genai.TypeString, Description: "English or romanized name, used for lookup"},
			"category":    {Type: genai.TypeString, Enum: categories},
			"description": {Type: genai.TypeString, Description: "One or two sentences on why it fits the trip"},
			"address":     {Type: genai.TypeString},
			"latitude":    {Type: genai.TypeNumber, Minimum: genai.Ptr[float64](-90), Maximum: genai.Ptr[float64](90)},
			"longitude":   {Type: genai.TypeNumber, Minimum: genai.Ptr[float64](-180), Maximum: genai.Ptr[float64](180)},
		},
		Required: []string{"name", "category"},
	}
}

// ToolDeclarations describes the tools the assistant may call. The argument
// shapes mirror the validated structs in the types package.
func ToolDeclarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name: types.ToolNameRecommendPlaces,
			Description: "Recommend concrete places for the trip. Places already in the project are skipped " +
				"automatically. Each place is verified against Google Places before it is shown.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"places": {
						Type:     genai.TypeArray,
						Items:    placeSchema(),
						MinItems: genai.Ptr[int64](1),
						MaxItems: genai.Ptr[int64](10),
					},
					"reason": {Type: genai.TypeString, Description: "Short summary of why these places were chosen"},
				},
				Required: []string{"places"},
			},
		},
		{
			Name: types.ToolNameGenerateItinerary,
			Description: "Draft a day-by-day itinerary preview from the project's places and optionally newly " +
				"recommended ones. Nothing is saved; the user confirms the preview separately.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"startDate": {Type: genai.TypeString, Format: "date", Description: "YYYY-MM-DD"},
					"endDate":   {Type: genai.TypeString, Format: "date", Description: "YYYY-MM-DD, at most 30 days after startDate"},
					"placeIds": {
						Type:        genai.TypeArray,
						Items:       &genai.Schema{Type: genai.TypeString},
						Description: "Ids of project places to schedule. Empty means all project places.",
					},
					"includeRecommended": {Type: genai.TypeArray, Items: placeSchema()},
					"pace": {
						Type: genai.TypeString,
						Enum: []string{"relaxed", "moderate", "packed"},
					},
				},
				Required: []string{"startDate", "endDate"},
			},
		},
		{
			Name: types.ToolNameSearchNearbyPlaces,
			Description: "Find real places near a point or near a named place, sorted by distance. " +
				"Provide latitude and longitude, or referencePlaceName.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"latitude":           {Type: genai.TypeNumber},
					"longitude":          {Type: genai.TypeNumber},
					"referencePlaceName": {Type: genai.TypeString},
					"category":           {Type: genai.TypeString, Enum: categories},
					"keyword":            {Type: genai.TypeString},
					"radiusMeters":       {Type: genai.TypeInteger, Minimum: genai.Ptr[float64](100), Maximum: genai.Ptr[float64](50000)},
					"maxResults":         {Type: genai.TypeInteger, Minimum: genai.Ptr[float64](1), Maximum: genai.Ptr[float64](20)},
				},
			},
		},
	}
}
