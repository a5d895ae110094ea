package grpc

// proto.go defines the gRPC server interface derived from veridex/risk/v1/risk.proto.
// This file serves as a stand-in for buf-generated code. Once `buf generate` is run,
// replace this file with the import from github.com/veridex/riskengine/api/gen/go/veridex/risk/v1.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RiskServiceServer is the server API for RiskService.
type RiskServiceServer interface {
	EvaluateText(context.Context, *EvaluateTextRequest) (*EvaluateTextResponse, error)
	GetDriftStatus(context.Context, *GetDriftStatusRequest) (*GetDriftStatusResponse, error)
	mustEmbedUnimplementedRiskServiceServer()
}

// UnimplementedRiskServiceServer provides forward-compatible default implementations.
type UnimplementedRiskServiceServer struct{}

func (UnimplementedRiskServiceServer) EvaluateText(context.Context, *EvaluateTextRequest) (*EvaluateTextResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method EvaluateText not implemented")
}
func (UnimplementedRiskServiceServer) GetDriftStatus(context.Context, *GetDriftStatusRequest) (*GetDriftStatusResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetDriftStatus not implemented")
}
func (UnimplementedRiskServiceServer) mustEmbedUnimplementedRiskServiceServer() {}

// RegisterRiskServiceServer registers the RiskServiceServer with the gRPC server.
func RegisterRiskServiceServer(s *grpclib.Server, srv RiskServiceServer) {
	s.RegisterService(&_RiskService_serviceDesc, srv)
}

var _RiskService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: "veridex.risk.v1.RiskService",
	HandlerType: (*RiskServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "EvaluateText", Handler: _RiskService_EvaluateText_Handler},
		{MethodName: "GetDriftStatus", Handler: _RiskService_GetDriftStatus_Handler},
	},
	Streams: []grpclib.StreamDesc{},
}

func _RiskService_EvaluateText_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(EvaluateTextRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(RiskServiceServer).EvaluateText(ctx, req)
}

func _RiskService_GetDriftStatus_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetDriftStatusRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(RiskServiceServer).GetDriftStatus(ctx, req)
}
