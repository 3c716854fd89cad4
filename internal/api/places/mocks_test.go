package places

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Geocode(ctx context.Context, name, nameEn, destination, country string) (*types.GeocodeResult, error) {
	args := m.Called(ctx, name, nameEn, destination, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.GeocodeResult), args.Error(1)
}

func (m *MockClient) GetPlaceDetails(ctx context.Context, placeID string) (*types.PlaceDetails, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PlaceDetails), args.Error(1)
}

func (m *MockClient) SearchNearby(ctx context.Context, params types.NearbySearchParams) ([]types.PlaceDetails, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.PlaceDetails), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}
