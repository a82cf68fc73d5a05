package outlier

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TimeSeriesData is the wire shape of a series exchanged with OUTLIER-ENGINE
type TimeSeriesData struct {
	Timestamps []string  `json:"timestamps"` // RFC3339
	Values     []float64 `json:"values"`
	Quality    []string  `json:"quality,omitempty"`
	Frequency  string    `json:"frequency"`
}

// OutlierParams carries the per-request detection and correction options
type OutlierParams struct {
	SigmaMultiplier float64 `json:"sigma_multiplier"`
	RollingWindow   int32   `json:"rolling_window"`
	IqrMultiplier   float64 `json:"iqr_multiplier"`
	CorrectionType  string  `json:"correction_type"` // limit, interpolation
}

// SeriesProfile is the slice of the segmentation profile the engine
// uses to pick its detection method
type SeriesProfile struct {
	Trend    string `json:"trend"`
	Seasonal bool   `json:"seasonal"`
}

// CleanseRequest represents a request to cleanse one segment
type CleanseRequest struct {
	Data    *TimeSeriesData `json:"data"`
	Params  *OutlierParams  `json:"params"`
	Profile *SeriesProfile  `json:"profile,omitempty"`
}

// CleanseResponse represents the corrected segment or a stage failure
type CleanseResponse struct {
	CorrectedSeries *TimeSeriesData `json:"corrected_series"`
	OutlierIndices  []int32         `json:"outlier_indices"`
	MethodUsed      string          `json:"method_used"`
	CorrectionType  string          `json:"correction_type"`
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
}

// GetHealthRequest represents a health check request
type GetHealthRequest struct{}

// GetHealthResponse represents a health check response
type GetHealthResponse struct {
	Status     string `json:"status"`
	LastUpdate string `json:"last_update"`
}

// OutlierEngineServiceClient is the client interface for OutlierEngineService
type OutlierEngineServiceClient interface {
	CleanseOutliers(ctx context.Context, in *CleanseRequest, opts ...grpc.CallOption) (*CleanseResponse, error)
	GetHealth(ctx context.Context, in *GetHealthRequest, opts ...grpc.CallOption) (*GetHealthResponse, error)
}

type outlierEngineServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewOutlierEngineServiceClient creates a new OutlierEngineService client
func NewOutlierEngineServiceClient(cc grpc.ClientConnInterface) OutlierEngineServiceClient {
	return &outlierEngineServiceClient{cc}
}

func (c *outlierEngineServiceClient) CleanseOutliers(ctx context.Context, in *CleanseRequest, opts ...grpc.CallOption) (*CleanseResponse, error) {
	out := new(CleanseResponse)
	err := c.cc.Invoke(ctx, "/prognos.outlier.OutlierEngineService/CleanseOutliers", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *outlierEngineServiceClient) GetHealth(ctx context.Context, in *GetHealthRequest, opts ...grpc.CallOption) (*GetHealthResponse, error) {
	out := new(GetHealthResponse)
	err := c.cc.Invoke(ctx, "/prognos.outlier.OutlierEngineService/GetHealth", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// OutlierEngineServiceServer is the server interface for OutlierEngineService
type OutlierEngineServiceServer interface {
	CleanseOutliers(context.Context, *CleanseRequest) (*CleanseResponse, error)
	GetHealth(context.Context, *GetHealthRequest) (*GetHealthResponse, error)
}

// UnimplementedOutlierEngineServiceServer should be embedded for forward compatibility
type UnimplementedOutlierEngineServiceServer struct{}

func (UnimplementedOutlierEngineServiceServer) CleanseOutliers(context.Context, *CleanseRequest) (*CleanseResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CleanseOutliers not implemented")
}

func (UnimplementedOutlierEngineServiceServer) GetHealth(context.Context, *GetHealthRequest) (*GetHealthResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetHealth not implemented")
}
