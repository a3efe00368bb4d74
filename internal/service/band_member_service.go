package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/bandmates/internal/membership"
	"github.com/mmynk/bandmates/internal/middleware"
	"github.com/mmynk/bandmates/internal/models"
)

const (
	BandMemberServiceName = "bandmates.v1.BandMemberService"

	BandMemberServiceCreateBandProcedure       = "/bandmates.v1.BandMemberService/CreateBand"
	BandMemberServiceGetBandProcedure          = "/bandmates.v1.BandMemberService/GetBand"
	BandMemberServiceListMyBandsProcedure      = "/bandmates.v1.BandMemberService/ListMyBands"
	BandMemberServiceAddMemberProcedure        = "/bandmates.v1.BandMemberService/AddMember"
	BandMemberServiceUpdateMemberProcedure     = "/bandmates.v1.BandMemberService/UpdateMember"
	BandMemberServiceRemoveMemberProcedure     = "/bandmates.v1.BandMemberService/RemoveMember"
	BandMemberServiceStartPerformanceProcedure = "/bandmates.v1.BandMemberService/StartPerformance"
	BandMemberServiceEndPerformanceProcedure   = "/bandmates.v1.BandMemberService/EndPerformance"
)

var errBandKeyRequired = errors.New("band key is required")

// BandMemberService exposes band rosters and membership changes over connect.
type BandMemberService struct {
	members *membership.Service
	stage   *membership.Stage
}

// NewBandMemberService creates a new band member service.
func NewBandMemberService(members *membership.Service, stage *membership.Stage) *BandMemberService {
	return &BandMemberService{members: members, stage: stage}
}

// NewBandMemberServiceHandler mounts every BandMemberService procedure.
func NewBandMemberServiceHandler(svc *BandMemberService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(BandMemberServiceCreateBandProcedure, connect.NewUnaryHandler(BandMemberServiceCreateBandProcedure, svc.CreateBand, opts...))
	mux.Handle(BandMemberServiceGetBandProcedure, connect.NewUnaryHandler(BandMemberServiceGetBandProcedure, svc.GetBand, opts...))
	mux.Handle(BandMemberServiceListMyBandsProcedure, connect.NewUnaryHandler(BandMemberServiceListMyBandsProcedure, svc.ListMyBands, opts...))
	mux.Handle(BandMemberServiceAddMemberProcedure, connect.NewUnaryHandler(BandMemberServiceAddMemberProcedure, svc.AddMember, opts...))
	mux.Handle(BandMemberServiceUpdateMemberProcedure, connect.NewUnaryHandler(BandMemberServiceUpdateMemberProcedure, svc.UpdateMember, opts...))
	mux.Handle(BandMemberServiceRemoveMemberProcedure, connect.NewUnaryHandler(BandMemberServiceRemoveMemberProcedure, svc.RemoveMember, opts...))
	mux.Handle(BandMemberServiceStartPerformanceProcedure, connect.NewUnaryHandler(BandMemberServiceStartPerformanceProcedure, svc.StartPerformance, opts...))
	mux.Handle(BandMemberServiceEndPerformanceProcedure, connect.NewUnaryHandler(BandMemberServiceEndPerformanceProcedure, svc.EndPerformance, opts...))

	return "/" + BandMemberServiceName + "/", mux
}

// CreateBand registers a band owned by the caller.
func (s *BandMemberService) CreateBand(ctx context.Context, req *connect.Request[CreateBandRequest]) (*connect.Response[BandResponse], error) {
	slog.Info("CreateBand request received", "handle", req.Msg.Handle)

	band, err := s.members.CreateBand(ctx, middleware.GetUserID(ctx), req.Msg.Name, req.Msg.Handle)
	if err != nil {
		return nil, membershipError(err)
	}
	return connect.NewResponse(&BandResponse{Band: bandToWire(band)}), nil
}

// GetBand returns a band and its roster.
func (s *BandMemberService) GetBand(ctx context.Context, req *connect.Request[GetBandRequest]) (*connect.Response[BandResponse], error) {
	if req.Msg.BandKey == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errBandKeyRequired)
	}

	band, err := s.members.GetBand(ctx, req.Msg.BandKey)
	if err != nil {
		return nil, membershipError(err)
	}
	return connect.NewResponse(&BandResponse{Band: bandToWire(band)}), nil
}

// ListMyBands returns the bands the caller belongs to.
func (s *BandMemberService) ListMyBands(ctx context.Context, req *connect.Request[ListMyBandsRequest]) (*connect.Response[ListBandsResponse], error) {
	bands, err := s.members.ListBandsForUser(ctx, middleware.GetUserID(ctx))
	if err != nil {
		return nil, membershipError(err)
	}

	resp := &ListBandsResponse{Bands: make([]Band, len(bands))}
	for i, b := range bands {
		resp.Bands[i] = bandToWire(b)
	}
	return connect.NewResponse(resp), nil
}

// AddMember adds a user to the band as a plain member.
func (s *BandMemberService) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[BandResponse], error) {
	slog.Info("AddMember request received", "band", req.Msg.BandKey, "handle", req.Msg.Handle)
	if req.Msg.BandKey == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errBandKeyRequired)
	}

	band, err := s.members.AddMember(ctx, req.Msg.BandKey, middleware.GetUserID(ctx), req.Msg.Handle)
	if err != nil {
		return nil, membershipError(err)
	}
	return connect.NewResponse(&BandResponse{Band: bandToWire(band)}), nil
}

// UpdateMember changes a member's role.
func (s *BandMemberService) UpdateMember(ctx context.Context, req *connect.Request[UpdateMemberRequest]) (*connect.Response[BandResponse], error) {
	slog.Info("UpdateMember request received", "band", req.Msg.BandKey, "handle", req.Msg.Handle, "role", req.Msg.Role)
	if req.Msg.BandKey == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errBandKeyRequired)
	}

	// Role validity is part of the policy, after the owner check.
	role := models.Role(strings.ToLower(strings.TrimSpace(req.Msg.Role)))

	band, err := s.members.UpdateMemberRole(ctx, req.Msg.BandKey, middleware.GetUserID(ctx), req.Msg.Handle, role)
	if err != nil {
		return nil, membershipError(err)
	}
	return connect.NewResponse(&BandResponse{Band: bandToWire(band)}), nil
}

// RemoveMember removes a member and redistributes their share.
func (s *BandMemberService) RemoveMember(ctx context.Context, req *connect.Request[RemoveMemberRequest]) (*connect.Response[BandResponse], error) {
	slog.Info("RemoveMember request received", "band", req.Msg.BandKey, "handle", req.Msg.Handle)
	if req.Msg.BandKey == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errBandKeyRequired)
	}

	band, err := s.members.RemoveMember(ctx, req.Msg.BandKey, middleware.GetUserID(ctx), req.Msg.Handle)
	if err != nil {
		return nil, membershipError(err)
	}
	return connect.NewResponse(&BandResponse{Band: bandToWire(band)}), nil
}

// StartPerformance puts the band on stage, freezing its roster.
func (s *BandMemberService) StartPerformance(ctx context.Context, req *connect.Request[PerformanceRequest]) (*connect.Response[PerformanceResponse], error) {
	slog.Info("StartPerformance request received", "band", req.Msg.BandKey)

	p, err := s.stage.Start(ctx, req.Msg.BandKey, middleware.GetUserID(ctx))
	if err != nil {
		return nil, membershipError(err)
	}
	return connect.NewResponse(&PerformanceResponse{ID: p.ID, StartedAt: p.StartedAt}), nil
}

// EndPerformance ends the band's running performance.
func (s *BandMemberService) EndPerformance(ctx context.Context, req *connect.Request[PerformanceRequest]) (*connect.Response[Empty], error) {
	slog.Info("EndPerformance request received", "band", req.Msg.BandKey)

	if err := s.stage.End(ctx, req.Msg.BandKey, middleware.GetUserID(ctx)); err != nil {
		return nil, membershipError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}
