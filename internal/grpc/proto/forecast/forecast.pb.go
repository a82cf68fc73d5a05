package forecast

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TimeSeriesData is the wire shape of a series exchanged with FORECAST-ENGINE
type TimeSeriesData struct {
	Timestamps []string  `json:"timestamps"` // RFC3339
	Values     []float64 `json:"values"`
	Quality    []string  `json:"quality,omitempty"`
	Frequency  string    `json:"frequency"`
}

// SeriesProfile is the slice of the segmentation profile the engine
// uses to pick its algorithm
type SeriesProfile struct {
	Trend      string `json:"trend"`
	Seasonal   bool   `json:"seasonal"`
	RuleNumber int32  `json:"rule_number"`
}

// GenerateRequest represents a request to forecast one segment
type GenerateRequest struct {
	HistoricalData     *TimeSeriesData `json:"historical_data"`
	Model              string          `json:"model"` // auto, arima, ets
	Horizon            int32           `json:"horizon"`
	ConfidenceInterval float64         `json:"confidence_interval"`
	Profile            *SeriesProfile  `json:"profile,omitempty"`
}

// GenerateResponse represents the forecast for one segment. Parallel
// slices all have horizon length.
type GenerateResponse struct {
	Timestamps      []string  `json:"timestamps"` // RFC3339
	Values          []float64 `json:"values"`
	Lower           []float64 `json:"lower"`
	Upper           []float64 `json:"upper"`
	AlgorithmUsed   string    `json:"algorithm_used"`
	ConfidenceLevel float64   `json:"confidence_level"`
	Mape            float64   `json:"mape"`
	Rmse            float64   `json:"rmse"`
	Success         bool      `json:"success"`
	Message         string    `json:"message"`
}

// GetHealthRequest represents a health check request
type GetHealthRequest struct{}

// GetHealthResponse represents a health check response
type GetHealthResponse struct {
	Status     string `json:"status"`
	LastUpdate string `json:"last_update"`
}

// ForecastEngineServiceClient is the client interface for ForecastEngineService
type ForecastEngineServiceClient interface {
	GenerateForecast(ctx context.Context, in *GenerateRequest, opts ...grpc.CallOption) (*GenerateResponse, error)
	GetHealth(ctx context.Context, in *GetHealthRequest, opts ...grpc.CallOption) (*GetHealthResponse, error)
}

type forecastEngineServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewForecastEngineServiceClient creates a new ForecastEngineService client
func NewForecastEngineServiceClient(cc grpc.ClientConnInterface) ForecastEngineServiceClient {
	return &forecastEngineServiceClient{cc}
}

func (c *forecastEngineServiceClient) GenerateForecast(ctx context.Context, in *GenerateRequest, opts ...grpc.CallOption) (*GenerateResponse, error) {
	out := new(GenerateResponse)
	err := c.cc.Invoke(ctx, "/prognos.forecast.ForecastEngineService/GenerateForecast", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *forecastEngineServiceClient) GetHealth(ctx context.Context, in *GetHealthRequest, opts ...grpc.CallOption) (*GetHealthResponse, error) {
	out := new(GetHealthResponse)
	err := c.cc.Invoke(ctx, "/prognos.forecast.ForecastEngineService/GetHealth", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ForecastEngineServiceServer is the server interface for ForecastEngineService
type ForecastEngineServiceServer interface {
	GenerateForecast(context.Context, *GenerateRequest) (*GenerateResponse, error)
	GetHealth(context.Context, *GetHealthRequest) (*GetHealthResponse, error)
}

// UnimplementedForecastEngineServiceServer should be embedded for forward compatibility
type UnimplementedForecastEngineServiceServer struct{}

func (UnimplementedForecastEngineServiceServer) GenerateForecast(context.Context, *GenerateRequest) (*GenerateResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GenerateForecast not implemented")
}

func (UnimplementedForecastEngineServiceServer) GetHealth(context.Context, *GetHealthRequest) (*GetHealthResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetHealth not implemented")
}
