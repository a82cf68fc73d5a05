package preprocess

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TimeSeriesData is the wire shape of a series exchanged with PREPROCESS-ENGINE
type TimeSeriesData struct {
	Timestamps []string  `json:"timestamps"` // RFC3339
	Values     []float64 `json:"values"`
	Quality    []string  `json:"quality,omitempty"`
	Frequency  string    `json:"frequency"`
}

// PreprocessConfig carries the per-request preprocessing options
type PreprocessConfig struct {
	RemoveOutliers bool   `json:"remove_outliers"`
	FillMissing    string `json:"fill_missing"`
	Normalize      bool   `json:"normalize"`
}

// PreprocessRequest represents a request to clean a raw series
type PreprocessRequest struct {
	RawData *TimeSeriesData   `json:"raw_data"`
	Config  *PreprocessConfig `json:"config"`
}

// PreprocessResponse represents the cleaned series or a stage failure
type PreprocessResponse struct {
	ProcessedData *TimeSeriesData `json:"processed_data"`
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
}

// GetHealthRequest represents a health check request
type GetHealthRequest struct{}

// GetHealthResponse represents a health check response
type GetHealthResponse struct {
	Status     string `json:"status"`
	LastUpdate string `json:"last_update"`
}

// PreprocessEngineServiceClient is the client interface for PreprocessEngineService
type PreprocessEngineServiceClient interface {
	PreprocessData(ctx context.Context, in *PreprocessRequest, opts ...grpc.CallOption) (*PreprocessResponse, error)
	GetHealth(ctx context.Context, in *GetHealthRequest, opts ...grpc.CallOption) (*GetHealthResponse, error)
}

type preprocessEngineServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPreprocessEngineServiceClient creates a new PreprocessEngineService client
func NewPreprocessEngineServiceClient(cc grpc.ClientConnInterface) PreprocessEngineServiceClient {
	return &preprocessEngineServiceClient{cc}
}

func (c *preprocessEngineServiceClient) PreprocessData(ctx context.Context, in *PreprocessRequest, opts ...grpc.CallOption) (*PreprocessResponse, error) {
	out := new(PreprocessResponse)
	err := c.cc.Invoke(ctx, "/prognos.preprocess.PreprocessEngineService/PreprocessData", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *preprocessEngineServiceClient) GetHealth(ctx context.Context, in *GetHealthRequest, opts ...grpc.CallOption) (*GetHealthResponse, error) {
	out := new(GetHealthResponse)
	err := c.cc.Invoke(ctx, "/prognos.preprocess.PreprocessEngineService/GetHealth", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PreprocessEngineServiceServer is the server interface for PreprocessEngineService
type PreprocessEngineServiceServer interface {
	PreprocessData(context.Context, *PreprocessRequest) (*PreprocessResponse, error)
	GetHealth(context.Context, *GetHealthRequest) (*GetHealthResponse, error)
}

// UnimplementedPreprocessEngineServiceServer should be embedded for forward compatibility
type UnimplementedPreprocessEngineServiceServer struct{}

func (UnimplementedPreprocessEngineServiceServer) PreprocessData(context.Context, *PreprocessRequest) (*PreprocessResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PreprocessData not implemented")
}

func (UnimplementedPreprocessEngineServiceServer) GetHealth(context.Context, *GetHealthRequest) (*GetHealthResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetHealth not implemented")
}
