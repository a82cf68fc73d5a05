package segment

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TimeSeriesData is the wire shape of a series exchanged with SEGMENT-ENGINE
type TimeSeriesData struct {
	Timestamps []string  `json:"timestamps"` // RFC3339
	Values     []float64 `json:"values"`
	Quality    []string  `json:"quality,omitempty"`
	Frequency  string    `json:"frequency"`
}

// SegmentRequest represents a request to split a preprocessed series
type SegmentRequest struct {
	Data          *TimeSeriesData `json:"data"`
	Method        string          `json:"method"`
	SegmentCount  int32           `json:"segment_count"`
	HistoryMonths int32           `json:"history_months"`
}

// SegmentInfo describes one segment as an offset range into the input
// series; the gateway slices the series itself, so segment payloads are
// never echoed back over the wire.
type SegmentInfo struct {
	Index       int32  `json:"index"`
	Label       string `json:"label"`
	StartOffset int32  `json:"start_offset"`
	EndOffset   int32  `json:"end_offset"`
}

// SegmentationProfile carries the engine's series classification
type SegmentationProfile struct {
	VolumeClass          string  `json:"volume_class"`
	CovClass             string  `json:"cov_class"`
	Intermittent         bool    `json:"intermittent"`
	Density              float64 `json:"density"`
	PlcStatus            string  `json:"plc_status"`
	Trend                string  `json:"trend"`
	Seasonal             bool    `json:"seasonal"`
	RuleNumber           int32   `json:"rule_number"`
	VolumePercentage     float64 `json:"volume_percentage"`
	CoefficientVariation float64 `json:"coefficient_variation"`
}

// SegmentResponse represents the segmentation outcome
type SegmentResponse struct {
	Segments []*SegmentInfo       `json:"segments"`
	Profile  *SegmentationProfile `json:"profile"`
	Success  bool                 `json:"success"`
	Message  string               `json:"message"`
}

// GetHealthRequest represents a health check request
type GetHealthRequest struct{}

// GetHealthResponse represents a health check response
type GetHealthResponse struct {
	Status     string `json:"status"`
	LastUpdate string `json:"last_update"`
}

// SegmentEngineServiceClient is the client interface for SegmentEngineService
type SegmentEngineServiceClient interface {
	SegmentData(ctx context.Context, in *SegmentRequest, opts ...grpc.CallOption) (*SegmentResponse, error)
	GetHealth(ctx context.Context, in *GetHealthRequest, opts ...grpc.CallOption) (*GetHealthResponse, error)
}

type segmentEngineServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSegmentEngineServiceClient creates a new SegmentEngineService client
func NewSegmentEngineServiceClient(cc grpc.ClientConnInterface) SegmentEngineServiceClient {
	return &segmentEngineServiceClient{cc}
}

func (c *segmentEngineServiceClient) SegmentData(ctx context.Context, in *SegmentRequest, opts ...grpc.CallOption) (*SegmentResponse, error) {
	out := new(SegmentResponse)
	err := c.cc.Invoke(ctx, "/prognos.segment.SegmentEngineService/SegmentData", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *segmentEngineServiceClient) GetHealth(ctx context.Context, in *GetHealthRequest, opts ...grpc.CallOption) (*GetHealthResponse, error) {
	out := new(GetHealthResponse)
	err := c.cc.Invoke(ctx, "/prognos.segment.SegmentEngineService/GetHealth", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SegmentEngineServiceServer is the server interface for SegmentEngineService
type SegmentEngineServiceServer interface {
	SegmentData(context.Context, *SegmentRequest) (*SegmentResponse, error)
	GetHealth(context.Context, *GetHealthRequest) (*GetHealthResponse, error)
}

// UnimplementedSegmentEngineServiceServer should be embedded for forward compatibility
type UnimplementedSegmentEngineServiceServer struct{}

func (UnimplementedSegmentEngineServiceServer) SegmentData(context.Context, *SegmentRequest) (*SegmentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SegmentData not implemented")
}

func (UnimplementedSegmentEngineServiceServer) GetHealth(context.Context, *GetHealthRequest) (*GetHealthResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetHealth not implemented")
}
