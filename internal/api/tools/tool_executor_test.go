package tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/duplicate"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

type MockPlaces struct {
	mock.Mock
}

func (m *MockPlaces) ValidateAndEnrich(ctx context.Context, places []types.RecommendedPlace, destination, country string) []types.ValidatedPlace {
	args := m.Called(ctx, places, destination, country)
	return args.Get(0).([]types.ValidatedPlace)
}

func (m *MockPlaces) SearchNearby(ctx context.Context, params types.NearbySearchParams) ([]types.ValidatedPlace, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.ValidatedPlace), args.Error(1)
}

func (m *MockPlaces) GetPlaceDetails(ctx context.Context, placeID string) (*types.PlaceDetails, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PlaceDetails), args.Error(1)
}

func (m *MockPlaces) Geocode(ctx context.Context, name, nameEn, destination, country string) (*types.GeocodeResult, error) {
	args := m.Called(ctx, name, nameEn, destination, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.GeocodeResult), args.Error(1)
}

func ptr[T any](v T) *T { return &v }

func newTestExecutor(p *MockPlaces) *ExecutorImpl {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewExecutor(p, duplicate.NewDetector(100), logger)
}

var (
	cafeAID   = uuid.MustParse("0b9c5d2e-1111-4d4c-9a55-1d2c3b4a5f60")
	towerID   = uuid.MustParse("0b9c5d2e-2222-4d4c-9a55-1d2c3b4a5f60")
	hotelID   = uuid.MustParse("0b9c5d2e-3333-4d4c-9a55-1d2c3b4a5f60")
	projectID = uuid.MustParse("0b9c5d2e-4444-4d4c-9a55-1d2c3b4a5f60")
)

func testContext() types.ToolExecutionContext {
	return types.ToolExecutionContext{
		ProjectID:   projectID,
		UserID:      uuid.New(),
		Destination: "Tokyo",
		Country:     "JP",
		ExistingPlaces: []types.DuplicateCandidate{
			{ID: cafeAID, Name: "Cafe A", Category: types.CategoryCafe, Latitude: 35.0, Longitude: 139.0, GooglePlaceID: ptr("X")},
			{ID: towerID, Name: "Tokyo Tower", Category: types.CategoryAttraction, Latitude: 35.6586, Longitude: 139.7454},
			{ID: hotelID, Name: "Park Hotel", Category: types.CategoryAccommodation, Latitude: 35.66, Longitude: 139.76},
		},
	}
}

func TestExecute_UnknownTool(t *testing.T) {
	p := new(MockPlaces)
	e := newTestExecutor(p)

	res := e.Execute(context.Background(), "delete_everything", json.RawMessage(`{}`), testContext())

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Nil(t, res.Data)
	p.AssertNotCalled(t, "ValidateAndEnrich", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_InvalidArgumentsNeverRun(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args string
	}{
		{name: "no places", tool: types.ToolNameRecommendPlaces, args: `{"places":[]}`},
		{name: "bad category", tool: types.ToolNameRecommendPlaces, args: `{"places":[{"name":"A","category":"spa"}]}`},
		{name: "missing name", tool: types.ToolNameRecommendPlaces, args: `{"places":[{"category":"cafe"}]}`},
		{name: "latitude out of range", tool: types.ToolNameRecommendPlaces, args: `{"places":[{"name":"A","category":"cafe","latitude":123}]}`},
		{name: "malformed json", tool: types.ToolNameRecommendPlaces, args: `{"places":`},
		{name: "wrong type", tool: types.ToolNameRecommendPlaces, args: `{"places":"cafe"}`},
		{name: "bad date", tool: types.ToolNameGenerateItinerary, args: `{"startDate":"2024/05/01","endDate":"2024-05-02"}`},
		{name: "end before start", tool: types.ToolNameGenerateItinerary, args: `{"startDate":"2024-05-03","endDate":"2024-05-01"}`},
		{name: "too long", tool: types.ToolNameGenerateItinerary, args: `{"startDate":"2024-05-01","endDate":"2024-06-30"}`},
		{name: "bad pace", tool: types.ToolNameGenerateItinerary, args: `{"startDate":"2024-05-01","endDate":"2024-05-02","pace":"sprint"}`},
		{name: "bad place id", tool: types.ToolNameGenerateItinerary, args: `{"startDate":"2024-05-01","endDate":"2024-05-02","placeIds":["nope"]}`},
		{name: "no reference", tool: types.ToolNameSearchNearbyPlaces, args: `{"category":"cafe"}`},
		{name: "radius too small", tool: types.ToolNameSearchNearbyPlaces, args: `{"latitude":35,"longitude":139,"radiusMeters":10}`},
		{name: "too many results", tool: types.ToolNameSearchNearbyPlaces, args: `{"latitude":35,"longitude":139,"maxResults":50}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := new(MockPlaces)
			e := newTestExecutor(p)

			res := e.Execute(context.Background(), tt.tool, json.RawMessage(tt.args), testContext())

			assert.False(t, res.Success)
			assert.Contains(t, res.Error, "invalid arguments")
			assert.Empty(t, p.Calls)
		})
	}
}

func TestExecute_RecommendPlaces(t *testing.T) {
	p := new(MockPlaces)
	e := newTestExecutor(p)
	tctx := testContext()

	args := `{"places":[
		{"name":"cafe a","category":"cafe"},
		{"name":"Blue Bottle Kiyosumi","category":"cafe"},
		{"name":"blue bottle kiyosumi","category":"cafe"},
		{"name":"Shibuya Sky","nameEn":"Shibuya Sky","category":"attraction"},
		{"name":"Renamed Cafe","category":"cafe"}
	],"reason":"coffee day"}`

	kept := []types.RecommendedPlace{
		{Name: "Blue Bottle Kiyosumi", Category: types.CategoryCafe},
		{Name: "Shibuya Sky", NameEn: "Shibuya Sky", Category: types.CategoryAttraction},
		{Name: "Renamed Cafe", Category: types.CategoryCafe},
	}
	p.On("ValidateAndEnrich", mock.Anything, kept, "Tokyo", "JP").Return([]types.ValidatedPlace{
		{RecommendedPlace: types.RecommendedPlace{Name: kept[0].Name, Category: kept[0].Category, Latitude: ptr(35.68), Longitude: ptr(139.80)}, IsVerified: true, GooglePlaceID: "bb1"},
		{RecommendedPlace: kept[1], IsVerified: false},
		{RecommendedPlace: types.RecommendedPlace{Name: kept[2].Name, Category: kept[2].Category, Latitude: ptr(10.0), Longitude: ptr(10.0)}, IsVerified: true, GooglePlaceID: "X"},
	}).Once()

	res := e.Execute(context.Background(), types.ToolNameRecommendPlaces, json.RawMessage(args), tctx)

	require.True(t, res.Success, res.Error)
	data := res.Data.(*types.RecommendPlacesResult)
	require.Len(t, data.Places, 2)
	assert.Equal(t, "Blue Bottle Kiyosumi", data.Places[0].Name)
	assert.Equal(t, "Shibuya Sky", data.Places[1].Name)
	assert.False(t, data.Places[1].IsVerified, "unverified places are surfaced, not dropped")

	require.Len(t, data.Skipped, 3)
	assert.Equal(t, types.SkippedPlace{Name: "cafe a", Reason: SkipDuplicateExisting, ExistingPlace: &tctx.ExistingPlaces[0]}, data.Skipped[0])
	assert.Equal(t, SkipDuplicateInBatch, data.Skipped[1].Reason)
	assert.Equal(t, "Renamed Cafe", data.Skipped[2].Name)
	assert.Equal(t, cafeAID, data.Skipped[2].ExistingPlace.ID, "matched by place id after enrichment")
	p.AssertExpectations(t)
}

func TestExecute_RecommendPlacesAllDuplicates(t *testing.T) {
	p := new(MockPlaces)
	e := newTestExecutor(p)

	res := e.Execute(context.Background(), types.ToolNameRecommendPlaces,
		json.RawMessage(`{"places":[{"name":"Tokyo Tower","category":"attraction"}]}`), testContext())

	require.True(t, res.Success)
	data := res.Data.(*types.RecommendPlacesResult)
	assert.Empty(t, data.Places)
	assert.Len(t, data.Skipped, 1)
	p.AssertNotCalled(t, "ValidateAndEnrich", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_GenerateItinerary(t *testing.T) {
	p := new(MockPlaces)
	e := newTestExecutor(p)

	args := `{"startDate":"2024-05-01","endDate":"2024-05-02","pace":"relaxed",
		"includeRecommended":[{"name":"Shibuya Sky","category":"attraction","latitude":35.658,"longitude":139.702}]}`
	res := e.Execute(context.Background(), types.ToolNameGenerateItinerary, json.RawMessage(args), testContext())

	require.True(t, res.Success, res.Error)
	data := res.Data.(*types.ItineraryPreviewData)
	assert.Equal(t, "relaxed", data.Pace)
	require.Len(t, data.Days, 2)
	assert.Equal(t, "2024-05-01", data.Days[0].Date)
	assert.Equal(t, "2024-05-02", data.Days[1].Date)

	var names []string
	for _, d := range data.Days {
		for _, it := range d.Items {
			names = append(names, it.PlaceName)
		}
	}
	assert.ElementsMatch(t, []string{"Cafe A", "Tokyo Tower", "Shibuya Sky"}, names, "accommodation is not a visit")
	assert.Equal(t, "10:00", data.Days[0].Items[0].StartTime)
	assert.Equal(t, "12:00", data.Days[0].Items[1].StartTime)
	assert.Empty(t, data.Unplaced)
	p.AssertNotCalled(t, "ValidateAndEnrich", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_GenerateItineraryNoPlaces(t *testing.T) {
	e := newTestExecutor(new(MockPlaces))
	tctx := testContext()
	tctx.ExistingPlaces = nil

	res := e.Execute(context.Background(), types.ToolNameGenerateItinerary,
		json.RawMessage(`{"startDate":"2024-05-01","endDate":"2024-05-01"}`), tctx)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no places")
}

func TestExecute_SearchNearbyPlaces(t *testing.T) {
	p := new(MockPlaces)
	e := newTestExecutor(p)
	tctx := testContext()

	// Reference resolved from the project's own places without geocoding.
	p.On("SearchNearby", mock.Anything, types.NearbySearchParams{
		Latitude: 35.6586, Longitude: 139.7454, Category: types.CategoryCafe, MaxResults: 3,
	}).Return([]types.ValidatedPlace{
		{RecommendedPlace: types.RecommendedPlace{Name: "Far", Category: types.CategoryCafe, Latitude: ptr(35.67), Longitude: ptr(139.75)}, IsVerified: true, GooglePlaceID: "f"},
		{RecommendedPlace: types.RecommendedPlace{Name: "No coords", Category: types.CategoryCafe}, IsVerified: true, GooglePlaceID: "n"},
		{RecommendedPlace: types.RecommendedPlace{Name: "Cafe A", Category: types.CategoryCafe, Latitude: ptr(35.659), Longitude: ptr(139.7455)}, IsVerified: true, GooglePlaceID: "X"},
	}, nil).Once()

	res := e.Execute(context.Background(), types.ToolNameSearchNearbyPlaces,
		json.RawMessage(`{"referencePlaceName":"tokyo tower","category":"cafe","maxResults":3}`), tctx)

	require.True(t, res.Success, res.Error)
	data := res.Data.(*types.SearchNearbyPlacesResult)
	assert.Equal(t, types.Coordinates{Latitude: 35.6586, Longitude: 139.7454}, data.Reference)
	require.Len(t, data.Places, 3)
	assert.Equal(t, "Cafe A", data.Places[0].Name)
	assert.True(t, data.Places[0].AlreadyInProject)
	assert.InDelta(t, 44.5, *data.Places[0].DistanceFromReference, 5)
	assert.Equal(t, "Far", data.Places[1].Name)
	assert.False(t, data.Places[1].AlreadyInProject)
	assert.Equal(t, "No coords", data.Places[2].Name)
	assert.Nil(t, data.Places[2].DistanceFromReference)
	p.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	p.AssertExpectations(t)
}

func TestExecute_SearchNearbyGeocodesReference(t *testing.T) {
	p := new(MockPlaces)
	e := newTestExecutor(p)

	p.On("Geocode", mock.Anything, "Senso-ji", "", "Tokyo", "JP").Return(nil, nil).Once()

	res := e.Execute(context.Background(), types.ToolNameSearchNearbyPlaces,
		json.RawMessage(`{"referencePlaceName":"Senso-ji"}`), testContext())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not found")
	p.AssertExpectations(t)
}

func TestExecute_UpstreamErrorsAreSanitized(t *testing.T) {
	p := new(MockPlaces)
	e := newTestExecutor(p)

	p.On("SearchNearby", mock.Anything, mock.Anything).
		Return(nil, errors.New(`googleapi: {"error_message":"API key AIza... is invalid","status":"REQUEST_DENIED"}`)).Once()

	res := e.Execute(context.Background(), types.ToolNameSearchNearbyPlaces,
		json.RawMessage(`{"latitude":35.0,"longitude":139.0}`), testContext())

	assert.False(t, res.Success)
	assert.Equal(t, errMsgInternal, res.Error)
	assert.NotContains(t, res.Error, "REQUEST_DENIED")
}

func TestExecute_RecoversFromPanics(t *testing.T) {
	p := new(MockPlaces)
	e := newTestExecutor(p)
	p.On("SearchNearby", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("boom") })

	res := e.Execute(context.Background(), types.ToolNameSearchNearbyPlaces,
		json.RawMessage(`{"latitude":35.0,"longitude":139.0}`), testContext())
	assert.False(t, res.Success)
	assert.Equal(t, errMsgInternal, res.Error)
}
