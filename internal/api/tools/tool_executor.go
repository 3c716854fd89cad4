package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-trip-planner-chat/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/duplicate"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/geo"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/places"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

const (
	SkipDuplicateExisting = "duplicate_existing"
	SkipDuplicateInBatch  = "duplicate_in_batch"

	errMsgUnknownTool = "unknown tool"
	errMsgInternal    = "tool execution failed, please try again"
)

// toolError is a failure whose message is safe to hand back to the model.
type toolError struct {
	msg string
}

func (e *toolError) Error() string { return e.msg }

func newToolError(format string, args ...any) error {
	return &toolError{msg: fmt.Sprintf(format, args...)}
}

var _ Executor = (*ExecutorImpl)(nil)

// Executor runs tool calls issued by the model. It never panics or returns
// an error; failures are reported in the result.
type Executor interface {
	Execute(ctx context.Context, name string, args json.RawMessage, tctx types.ToolExecutionContext) types.ToolExecutionResult
}

type ExecutorImpl struct {
	places   places.ValidationService
	detector *duplicate.Detector
	validate *validator.Validate
	logger   *slog.Logger
}

func NewExecutor(placesService places.ValidationService, detector *duplicate.Detector, logger *slog.Logger) *ExecutorImpl {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &ExecutorImpl{
		places:   placesService,
		detector: detector,
		validate: v,
		logger:   logger,
	}
}

func (e *ExecutorImpl) Execute(ctx context.Context, name string, args json.RawMessage, tctx types.ToolExecutionContext) (result types.ToolExecutionResult) {
	kind := types.ParseToolKind(name)
	ctx, span := otel.Tracer("ToolExecutor").Start(ctx, "Execute")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", name), attribute.String("project.id", tctx.ProjectID.String()))

	l := e.logger.With(slog.String("method", "Execute"), slog.String("tool", name), slog.String("projectID", tctx.ProjectID.String()))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			l.ErrorContext(ctx, "tool panicked", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			result = types.ToolExecutionResult{Success: false, Error: errMsgInternal}
		}
		attrs := metric.WithAttributes(attribute.String("tool", kind.String()), attribute.Bool("success", result.Success))
		metrics.Get().ToolCallsTotal.Add(ctx, 1, attrs)
		metrics.Get().ToolDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
		if !result.Success {
			span.SetStatus(codes.Error, result.Error)
		}
	}()

	var (
		data any
		err  error
	)
	switch kind {
	case types.ToolRecommendPlaces:
		data, err = e.recommendPlaces(ctx, args, tctx)
	case types.ToolGenerateItinerary:
		data, err = e.generateItinerary(ctx, args, tctx)
	case types.ToolSearchNearbyPlaces:
		data, err = e.searchNearbyPlaces(ctx, args, tctx)
	case types.ToolUnknown:
		l.WarnContext(ctx, "model requested an unknown tool")
		return types.ToolExecutionResult{Success: false, Error: errMsgUnknownTool}
	}

	if err != nil {
		span.RecordError(err)
		var te *toolError
		if errors.As(err, &te) {
			l.InfoContext(ctx, "tool rejected call", slog.String("reason", te.msg))
			return types.ToolExecutionResult{Success: false, Error: te.msg}
		}
		l.ErrorContext(ctx, "tool failed", slog.Any("error", err))
		return types.ToolExecutionResult{Success: false, Error: errMsgInternal}
	}
	return types.ToolExecutionResult{Success: true, Data: data}
}

// decodeArgs unmarshals and validates args into dst. Nothing runs on failure.
func (e *ExecutorImpl) decodeArgs(args json.RawMessage, dst any) error {
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(args, dst); err != nil {
		return newToolError("invalid arguments: %s", jsonErrorSummary(err))
	}
	if err := e.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", trimNamespace(fe.Namespace()), fe.Tag()))
			}
			return newToolError("invalid arguments: %s", strings.Join(fields, ", "))
		}
		return newToolError("invalid arguments")
	}
	return nil
}

func jsonErrorSummary(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("field %s has the wrong type", typeErr.Field)
	}
	return "malformed JSON"
}

// trimNamespace drops the struct type prefix of a validator namespace.
func trimNamespace(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func (e *ExecutorImpl) recommendPlaces(ctx context.Context, raw json.RawMessage, tctx types.ToolExecutionContext) (*types.RecommendPlacesResult, error) {
	var args types.RecommendPlacesArgs
	if err := e.decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	result := &types.RecommendPlacesResult{Places: []types.ValidatedPlace{}}
	seen := duplicate.NewNameSet()
	kept := make([]types.RecommendedPlace, 0, len(args.Places))
	for _, p := range args.Places {
		if seen.Contains(p.Name) {
			result.Skipped = append(result.Skipped, types.SkippedPlace{Name: p.Name, Reason: SkipDuplicateInBatch})
			continue
		}
		seen.Add(p.Name)

		c := duplicate.Candidate{Name: p.Name}
		if p.Latitude != nil && p.Longitude != nil {
			c.Coordinates = &types.Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude}
		}
		if dup := e.detector.Check(c, tctx.ExistingPlaces); dup.IsDuplicate {
			result.Skipped = append(result.Skipped, types.SkippedPlace{Name: p.Name, Reason: SkipDuplicateExisting, ExistingPlace: dup.ExistingPlace})
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return result, nil
	}

	// Enrichment can reveal a duplicate by place id or precise coordinates.
	for _, v := range e.places.ValidateAndEnrich(ctx, kept, tctx.Destination, tctx.Country) {
		if v.IsVerified {
			c := duplicate.Candidate{Name: v.Name, GooglePlaceID: v.GooglePlaceID}
			if v.Latitude != nil && v.Longitude != nil {
				c.Coordinates = &types.Coordinates{Latitude: *v.Latitude, Longitude: *v.Longitude}
			}
			if dup := e.detector.Check(c, tctx.ExistingPlaces); dup.IsDuplicate {
				result.Skipped = append(result.Skipped, types.SkippedPlace{Name: v.Name, Reason: SkipDuplicateExisting, ExistingPlace: dup.ExistingPlace})
				continue
			}
		}
		result.Places = append(result.Places, v)
	}
	return result, nil
}

func (e *ExecutorImpl) generateItinerary(ctx context.Context, raw json.RawMessage, tctx types.ToolExecutionContext) (*types.ItineraryPreviewData, error) {
	var args types.GenerateItineraryArgs
	if err := e.decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	start, _ := time.Parse(time.DateOnly, args.StartDate)
	end, _ := time.Parse(time.DateOnly, args.EndDate)
	if end.Before(start) {
		return nil, newToolError("invalid arguments: endDate is before startDate")
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > MaxItineraryDays {
		return nil, newToolError("invalid arguments: itinerary may span at most %d days", MaxItineraryDays)
	}

	byID := make(map[uuid.UUID]types.DuplicateCandidate, len(tctx.ExistingPlaces))
	for _, p := range tctx.ExistingPlaces {
		byID[p.ID] = p
	}

	var stops []stop
	if len(args.PlaceIDs) > 0 {
		for _, raw := range args.PlaceIDs {
			id, _ := uuid.Parse(raw)
			p, ok := byID[id]
			if !ok {
				e.logger.WarnContext(ctx, "itinerary references a place outside the project", slog.String("placeID", raw))
				continue
			}
			stops = append(stops, stopFromExisting(p))
		}
	} else {
		for _, p := range tctx.ExistingPlaces {
			stops = append(stops, stopFromExisting(p))
		}
	}
	for _, p := range args.IncludeRecommended {
		s := stop{name: p.Name, category: p.Category}
		if p.Latitude != nil && p.Longitude != nil {
			s.coords = &types.Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude}
		}
		stops = append(stops, s)
	}
	if len(stops) == 0 {
		return nil, newToolError("no places available to schedule, recommend or add places first")
	}

	preview := buildItinerary(start, end, args.Pace, stops)
	return &preview, nil
}

func stopFromExisting(p types.DuplicateCandidate) stop {
	id := p.ID
	return stop{
		placeID:  &id,
		name:     p.Name,
		category: p.Category,
		coords:   &types.Coordinates{Latitude: p.Latitude, Longitude: p.Longitude},
	}
}

func (e *ExecutorImpl) searchNearbyPlaces(ctx context.Context, raw json.RawMessage, tctx types.ToolExecutionContext) (*types.SearchNearbyPlacesResult, error) {
	var args types.SearchNearbyPlacesArgs
	if err := e.decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	hasCoords := args.Latitude != nil && args.Longitude != nil
	if !hasCoords && strings.TrimSpace(args.ReferencePlaceName) == "" {
		return nil, newToolError("invalid arguments: latitude and longitude or referencePlaceName is required")
	}

	var ref types.Coordinates
	if hasCoords {
		ref = types.Coordinates{Latitude: *args.Latitude, Longitude: *args.Longitude}
	} else {
		resolved, err := e.resolveReference(ctx, args.ReferencePlaceName, tctx)
		if err != nil {
			return nil, err
		}
		ref = *resolved
	}

	found, err := e.places.SearchNearby(ctx, types.NearbySearchParams{
		Latitude:     ref.Latitude,
		Longitude:    ref.Longitude,
		Category:     types.PlaceCategory(args.Category),
		Keyword:      args.Keyword,
		RadiusMeters: args.RadiusMeters,
		MaxResults:   args.MaxResults,
	})
	if err != nil {
		return nil, err
	}

	for i := range found {
		p := &found[i]
		c := duplicate.Candidate{Name: p.Name, GooglePlaceID: p.GooglePlaceID}
		if p.Latitude != nil && p.Longitude != nil {
			pos := types.Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude}
			c.Coordinates = &pos
			d := geo.Distance(ref, pos)
			p.DistanceFromReference = &d
		}
		p.AlreadyInProject = e.detector.Check(c, tctx.ExistingPlaces).IsDuplicate
	}
	slices.SortStableFunc(found, func(a, b types.ValidatedPlace) int {
		return compareDistance(a.DistanceFromReference, b.DistanceFromReference)
	})

	return &types.SearchNearbyPlacesResult{Reference: ref, Places: found}, nil
}

// resolveReference finds a named place in the project first, then geocodes it.
func (e *ExecutorImpl) resolveReference(ctx context.Context, name string, tctx types.ToolExecutionContext) (*types.Coordinates, error) {
	if dup := e.detector.Check(duplicate.Candidate{Name: name}, tctx.ExistingPlaces); dup.IsDuplicate {
		return &types.Coordinates{Latitude: dup.ExistingPlace.Latitude, Longitude: dup.ExistingPlace.Longitude}, nil
	}
	res, err := e.places.Geocode(ctx, name, "", tctx.Destination, tctx.Country)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode reference place: %w", err)
	}
	if res == nil {
		return nil, newToolError("reference place %q was not found", name)
	}
	return &types.Coordinates{Latitude: res.Latitude, Longitude: res.Longitude}, nil
}

// compareDistance sorts unknown distances last.
func compareDistance(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}
