package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/neomorfeo/gardeniq/internal/app"
	"github.com/neomorfeo/gardeniq/internal/domain"
)

const timeFormat = time.RFC3339

// Subscriber is the change feed behind the SSE stream.
type Subscriber interface {
	Subscribe() (<-chan domain.Event, func())
}

// --- Responses ---

// SectionResponse is the API representation of a bed section.
type SectionResponse struct {
	Index      int    `json:"index" doc:"Position inside the bed"`
	Occupied   bool   `json:"occupied" doc:"Whether a plant is in the section"`
	Kind       string `json:"kind,omitempty" doc:"Plant kind"`
	State      string `json:"state,omitempty" doc:"Lifecycle state"`
	PlantedOn  string `json:"planted_on,omitempty" doc:"Planting timestamp (ISO 8601)"`
	Points     int    `json:"points" doc:"Accumulated growth score"`
	CanPlant   bool   `json:"can_plant" doc:"Whether a plant can be put here"`
	CanHarvest bool   `json:"can_harvest" doc:"Whether the plant is producing"`
}

// BedResponse is the API representation of a bed.
type BedResponse struct {
	Index      int               `json:"index" doc:"Position of the bed"`
	CanPlant   bool              `json:"can_plant" doc:"Whether any section is free"`
	CanHarvest bool              `json:"can_harvest" doc:"Whether any section is producing"`
	Sections   []SectionResponse `json:"sections" doc:"Sections in order"`
}

// WeatherResponse is the API representation of the current weather.
type WeatherResponse struct {
	Now         string  `json:"now" doc:"Real timestamp (ISO 8601)"`
	Date        string  `json:"date" doc:"In-garden calendar date (ISO 8601)"`
	Temperature float64 `json:"temperature" doc:"Temperature in degrees Fahrenheit"`
}

// GardenResponse is the API representation of the whole garden.
type GardenResponse struct {
	Weather    WeatherResponse `json:"weather"`
	Version    uint64          `json:"version" doc:"Increases with every change"`
	CanPlant   bool            `json:"can_plant" doc:"Whether any bed has room"`
	CanHarvest bool            `json:"can_harvest" doc:"Whether anything is producing"`
	Stored     int             `json:"stored" doc:"Number of harvested plants in the store"`
	Beds       []BedResponse   `json:"beds" doc:"Beds in order"`
}

// HarvestedResponse is the API representation of a harvested plant.
type HarvestedResponse struct {
	Kind        string `json:"kind" doc:"Plant kind"`
	PlantedOn   string `json:"planted_on" doc:"Planting timestamp (ISO 8601)"`
	HarvestedOn string `json:"harvested_on" doc:"Harvest timestamp (ISO 8601)"`
	Points      int    `json:"points" doc:"Growth score at harvest"`
}

// EventResponse is the API representation of a garden event.
type EventResponse struct {
	ID         string `json:"id" doc:"Unique identifier"`
	Kind       string `json:"kind" doc:"Event kind"`
	OccurredAt string `json:"occurred_at" doc:"Real timestamp (ISO 8601)"`
	GardenDate string `json:"garden_date" doc:"In-garden calendar date (ISO 8601)"`
	Version    uint64 `json:"version" doc:"Garden version after the change"`
	Bed        *int   `json:"bed,omitempty" doc:"Bed index"`
	Section    *int   `json:"section,omitempty" doc:"Section index"`
	Plant      string `json:"plant,omitempty" doc:"Plant kind"`
	State      string `json:"state,omitempty" doc:"Lifecycle state reached"`
	Count      int    `json:"count,omitempty" doc:"Number of plants involved"`
}

// CatalogEntryResponse is the API representation of a plant kind.
type CatalogEntryResponse struct {
	Kind            string  `json:"kind" doc:"Plant kind"`
	Icon            string  `json:"icon" doc:"Display icon"`
	GerminationSecs float64 `json:"germination_seconds" doc:"Seconds until growing"`
	ProductionSecs  float64 `json:"production_seconds" doc:"Seconds until producing"`
	LifeSpanSecs    float64 `json:"lifespan_seconds" doc:"Seconds until dead"`
}

func toGardenResponse(v domain.WorldView) GardenResponse {
	resp := GardenResponse{
		Weather: WeatherResponse{
			Now:         v.Now.Format(timeFormat),
			Date:        v.Date.Format(timeFormat),
			Temperature: v.Weather.Temperature,
		},
		Version:    v.Version,
		CanPlant:   v.CanPlant,
		CanHarvest: v.CanHarvest,
		Stored:     v.Stored,
		Beds:       make([]BedResponse, len(v.Beds)),
	}

	for b, bed := range v.Beds {
		br := BedResponse{
			Index:      b,
			CanPlant:   bed.CanPlant,
			CanHarvest: bed.CanHarvest,
			Sections:   make([]SectionResponse, len(bed.Sections)),
		}
		for i, s := range bed.Sections {
			sr := SectionResponse{
				Index:      i,
				Occupied:   s.Occupied,
				Points:     s.Points,
				CanPlant:   s.CanPlant,
				CanHarvest: s.CanHarvest,
			}
			if s.Occupied {
				sr.Kind = string(s.Kind)
				sr.State = string(s.State)
				sr.PlantedOn = s.PlantedOn.Format(timeFormat)
			}
			br.Sections[i] = sr
		}
		resp.Beds[b] = br
	}

	return resp
}

func toHarvestedResponses(hs []domain.Harvested) []HarvestedResponse {
	out := make([]HarvestedResponse, len(hs))
	for i, h := range hs {
		out[i] = HarvestedResponse{
			Kind:        string(h.Plant.Kind),
			PlantedOn:   h.Plant.PlantedOn.Format(timeFormat),
			HarvestedOn: h.HarvestedOn.Format(timeFormat),
			Points:      h.Plant.Points,
		}
	}
	return out
}

func toEventResponse(e domain.Event) EventResponse {
	resp := EventResponse{
		ID:         e.ID,
		Kind:       string(e.Kind),
		OccurredAt: e.OccurredAt.Format(timeFormat),
		GardenDate: e.GardenDate.Format(timeFormat),
		Version:    e.Version,
		Plant:      string(e.Plant),
		State:      string(e.State),
		Count:      e.Count,
	}
	if e.Slot != nil {
		bed := e.Slot.Bed
		resp.Bed = &bed
		if e.Slot.Section >= 0 {
			section := e.Slot.Section
			resp.Section = &section
		}
	}
	return resp
}

// --- Garden ---

type GetGardenOutput struct {
	Body GardenResponse
}

// --- Beds ---

type AddBedOutput struct {
	Body struct {
		Index int `json:"index" doc:"Index of the new bed"`
	}
}

// --- Plantings ---

type PlantInput struct {
	Body struct {
		Kind string `json:"kind" enum:"kale,tomato" doc:"Plant kind"`
	}
}

type PlantOutput struct {
	Body struct {
		Bed     int    `json:"bed" doc:"Bed index"`
		Section int    `json:"section" doc:"Section index"`
		Kind    string `json:"kind" doc:"Plant kind"`
	}
}

// --- Harvests ---

type HarvestOutput struct {
	Body []HarvestedResponse
}

// --- Stores ---

type StoresOutput struct {
	Body struct {
		Harvested []HarvestedResponse `json:"harvested" doc:"Harvested plants in order"`
		Counts    map[string]int      `json:"counts" doc:"Totals per plant kind"`
	}
}

// --- Weather ---

type WeatherOutput struct {
	Body WeatherResponse
}

// --- Catalog ---

type CatalogOutput struct {
	Body []CatalogEntryResponse
}

// --- Events ---

type ListEventsInput struct {
	Kind   string `query:"kind" required:"false" doc:"Filter by event kind"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListEventsOutput struct {
	Body []EventResponse
}

// Register adds all garden API routes to the Huma API. The SSE stream is
// only registered when stream is not nil.
func Register(api huma.API, svc *app.GardenService, stream Subscriber) {
	huma.Register(api, huma.Operation{
		OperationID: "get-garden",
		Method:      http.MethodGet,
		Path:        "/api/v1/garden",
		Summary:     "Get the garden",
		Tags:        []string{"Garden"},
	}, func(ctx context.Context, _ *struct{}) (*GetGardenOutput, error) {
		return &GetGardenOutput{Body: toGardenResponse(svc.View(ctx))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-bed",
		Method:      http.MethodPost,
		Path:        "/api/v1/beds",
		Summary:     "Add an empty bed",
		Tags:        []string{"Garden"},
	}, func(ctx context.Context, _ *struct{}) (*AddBedOutput, error) {
		out := &AddBedOutput{}
		out.Body.Index = svc.AddBed(ctx)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "plant",
		Method:      http.MethodPost,
		Path:        "/api/v1/plantings",
		Summary:     "Plant in the first free section",
		Tags:        []string{"Garden"},
	}, func(ctx context.Context, input *PlantInput) (*PlantOutput, error) {
		slot, err := svc.Plant(ctx, domain.PlantKind(input.Body.Kind))
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &PlantOutput{}
		out.Body.Bed = slot.Bed
		out.Body.Section = slot.Section
		out.Body.Kind = input.Body.Kind
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "harvest",
		Method:      http.MethodPost,
		Path:        "/api/v1/harvests",
		Summary:     "Harvest every producing plant",
		Tags:        []string{"Garden"},
	}, func(ctx context.Context, _ *struct{}) (*HarvestOutput, error) {
		return &HarvestOutput{Body: toHarvestedResponses(svc.Harvest(ctx))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "tick",
		Method:      http.MethodPost,
		Path:        "/api/v1/ticks",
		Summary:     "Advance growth by one tick",
		Description: "Every call counts toward growth; the periodic driver already ticks on its own.",
		Tags:        []string{"Garden"},
	}, func(ctx context.Context, _ *struct{}) (*GetGardenOutput, error) {
		if err := svc.Tick(ctx); err != nil {
			return nil, toHumaError(err)
		}
		return &GetGardenOutput{Body: toGardenResponse(svc.View(ctx))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-stores",
		Method:      http.MethodGet,
		Path:        "/api/v1/stores",
		Summary:     "List harvested goods",
		Tags:        []string{"Stores"},
	}, func(ctx context.Context, _ *struct{}) (*StoresOutput, error) {
		summary := svc.Stores(ctx)
		out := &StoresOutput{}
		out.Body.Harvested = toHarvestedResponses(summary.Harvested)
		out.Body.Counts = make(map[string]int, len(summary.Counts))
		for kind, n := range summary.Counts {
			out.Body.Counts[string(kind)] = n
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-weather",
		Method:      http.MethodGet,
		Path:        "/api/v1/weather",
		Summary:     "Get the current weather",
		Tags:        []string{"Garden"},
	}, func(ctx context.Context, _ *struct{}) (*WeatherOutput, error) {
		r := svc.Weather(ctx)
		return &WeatherOutput{Body: WeatherResponse{
			Now:         r.Now.Format(timeFormat),
			Date:        r.Date.Format(timeFormat),
			Temperature: r.Weather.Temperature,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-catalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog",
		Summary:     "List plant kinds",
		Tags:        []string{"Catalog"},
	}, func(_ context.Context, _ *struct{}) (*CatalogOutput, error) {
		entries := svc.Catalog()
		resp := make([]CatalogEntryResponse, len(entries))
		for i, e := range entries {
			resp[i] = CatalogEntryResponse{
				Kind:            string(e.Kind),
				Icon:            e.Info.Icon,
				GerminationSecs: e.Info.GerminationTime.Seconds(),
				ProductionSecs:  e.Info.ProductionTime.Seconds(),
				LifeSpanSecs:    e.Info.LifeSpan.Seconds(),
			}
		}
		return &CatalogOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/api/v1/events",
		Summary:     "List journaled garden events",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
		filter := domain.JournalFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.Kind != "" {
			k := domain.EventKind(input.Kind)
			filter.Kind = &k
		}

		events, err := svc.History(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]EventResponse, len(events))
		for i, e := range events {
			resp[i] = toEventResponse(e)
		}
		return &ListEventsOutput{Body: resp}, nil
	})

	if stream == nil {
		return
	}

	sse.Register(api, huma.Operation{
		OperationID: "stream-events",
		Method:      http.MethodGet,
		Path:        "/api/v1/stream",
		Summary:     "Stream garden changes",
		Tags:        []string{"Events"},
	}, map[string]any{
		"garden": EventResponse{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		events, cancel := stream.Subscribe()
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				if err := send.Data(toEventResponse(e)); err != nil {
					return
				}
			}
		}
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrNoRoomInWorld) || errors.Is(err, domain.ErrNoRoomInBed) {
		return huma.Error409Conflict(err.Error())
	}

	if errors.Is(err, domain.ErrNothingToHarvest) {
		return huma.Error409Conflict(err.Error())
	}

	var kindErr *domain.UnknownKindError
	if errors.As(err, &kindErr) {
		return huma.Error422UnprocessableEntity(kindErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
