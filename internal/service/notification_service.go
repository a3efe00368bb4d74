package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/bandmates/internal/middleware"
	"github.com/mmynk/bandmates/internal/models"
	"github.com/mmynk/bandmates/internal/notify"
	"github.com/mmynk/bandmates/internal/storage"
)

const (
	NotificationServiceName = "bandmates.v1.NotificationService"

	NotificationServiceListNotificationsProcedure    = "/bandmates.v1.NotificationService/ListNotifications"
	NotificationServiceMarkAllAsReadProcedure        = "/bandmates.v1.NotificationService/MarkAllAsRead"
	NotificationServiceGetUnreadCountProcedure       = "/bandmates.v1.NotificationService/GetUnreadCount"
	NotificationServiceRegisterDeviceProcedure       = "/bandmates.v1.NotificationService/RegisterDevice"
	NotificationServiceSubscribeProcedure            = "/bandmates.v1.NotificationService/Subscribe"
	NotificationServiceRequestPatronageProcedure     = "/bandmates.v1.NotificationService/RequestPatronage"
	NotificationServiceResolvePatronRequestProcedure = "/bandmates.v1.NotificationService/ResolvePatronRequest"
)

var (
	errTokenRequired       = errors.New("device token is required")
	errNotModerator        = errors.New("only moderators can resolve philanthropist requests")
	errRequestResolved     = errors.New("philanthropist request is already resolved")
	errRequestIDRequired   = errors.New("request id is required")
	errPatronRequestAbsent = errors.New("philanthropist request not found")
)

// NotificationService exposes the notification inbox, push registration and
// philanthropist requests over connect.
type NotificationService struct {
	store      storage.Store
	dispatcher *notify.Dispatcher
	moderators map[string]bool
}

// NewNotificationService creates a notification service.
// moderators are the profile handles allowed to resolve philanthropist requests.
func NewNotificationService(store storage.Store, dispatcher *notify.Dispatcher, moderators []string) *NotificationService {
	m := make(map[string]bool, len(moderators))
	for _, h := range moderators {
		m[strings.ToLower(strings.TrimSpace(h))] = true
	}
	return &NotificationService{store: store, dispatcher: dispatcher, moderators: m}
}

// NewNotificationServiceHandler mounts every NotificationService procedure.
func NewNotificationServiceHandler(svc *NotificationService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(NotificationServiceListNotificationsProcedure, connect.NewUnaryHandler(NotificationServiceListNotificationsProcedure, svc.ListNotifications, opts...))
	mux.Handle(NotificationServiceMarkAllAsReadProcedure, connect.NewUnaryHandler(NotificationServiceMarkAllAsReadProcedure, svc.MarkAllAsRead, opts...))
	mux.Handle(NotificationServiceGetUnreadCountProcedure, connect.NewUnaryHandler(NotificationServiceGetUnreadCountProcedure, svc.GetUnreadCount, opts...))
	mux.Handle(NotificationServiceRegisterDeviceProcedure, connect.NewUnaryHandler(NotificationServiceRegisterDeviceProcedure, svc.RegisterDevice, opts...))
	mux.Handle(NotificationServiceSubscribeProcedure, connect.NewUnaryHandler(NotificationServiceSubscribeProcedure, svc.Subscribe, opts...))
	mux.Handle(NotificationServiceRequestPatronageProcedure, connect.NewUnaryHandler(NotificationServiceRequestPatronageProcedure, svc.RequestPatronage, opts...))
	mux.Handle(NotificationServiceResolvePatronRequestProcedure, connect.NewUnaryHandler(NotificationServiceResolvePatronRequestProcedure, svc.ResolvePatronRequest, opts...))

	return "/" + NotificationServiceName + "/", mux
}

// ListNotifications pages the caller's inbox newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, req *connect.Request[ListNotificationsRequest]) (*connect.Response[ListNotificationsResponse], error) {
	app, err := parseApplication(req.Msg.Application)
	if err != nil {
		return nil, err
	}

	items, total, err := s.dispatcher.ListForUser(ctx, middleware.GetUserID(ctx), app, req.Msg.Skip, req.Msg.Size)
	if err != nil {
		slog.Error("Failed to list notifications", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &ListNotificationsResponse{
		Notifications: make([]Notification, len(items)),
		Total:         total,
	}
	for i, n := range items {
		resp.Notifications[i] = notificationToWire(n)
	}
	return connect.NewResponse(resp), nil
}

// MarkAllAsRead marks the caller's notifications as read, up to MaxID when set.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, req *connect.Request[MarkAllAsReadRequest]) (*connect.Response[Empty], error) {
	app, err := parseApplication(req.Msg.Application)
	if err != nil {
		return nil, err
	}

	if err := s.dispatcher.MarkAllAsRead(ctx, middleware.GetUserID(ctx), app, req.Msg.MaxID); err != nil {
		slog.Error("Failed to mark notifications as read", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// GetUnreadCount returns how many notifications the caller has not read.
func (s *NotificationService) GetUnreadCount(ctx context.Context, req *connect.Request[GetUnreadCountRequest]) (*connect.Response[GetUnreadCountResponse], error) {
	app, err := parseApplication(req.Msg.Application)
	if err != nil {
		return nil, err
	}

	count, err := s.dispatcher.UnreadCount(ctx, middleware.GetUserID(ctx), app)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&GetUnreadCountResponse{Count: count}), nil
}

// RegisterDevice records a push token for the caller.
func (s *NotificationService) RegisterDevice(ctx context.Context, req *connect.Request[RegisterDeviceRequest]) (*connect.Response[Empty], error) {
	app, err := parseApplication(req.Msg.Application)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Msg.Token) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errTokenRequired)
	}

	device := &models.Device{
		UserID:      middleware.GetUserID(ctx),
		Application: app,
		Token:       strings.TrimSpace(req.Msg.Token),
	}
	if err := s.store.RegisterDevice(ctx, device); err != nil {
		slog.Error("Failed to register device", "user_id", device.UserID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Device registered", "user_id", device.UserID, "application", app)
	return connect.NewResponse(&Empty{}), nil
}

// Subscribe opts the caller's profile into broadcasts of an application.
func (s *NotificationService) Subscribe(ctx context.Context, req *connect.Request[SubscribeRequest]) (*connect.Response[Empty], error) {
	app, err := parseApplication(req.Msg.Application)
	if err != nil {
		return nil, err
	}

	user, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.Subscribe(ctx, user.Profile.ID, app); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// RequestPatronage files a philanthropist request for the caller.
func (s *NotificationService) RequestPatronage(ctx context.Context, req *connect.Request[RequestPatronageRequest]) (*connect.Response[PatronRequest], error) {
	r := &models.PatronRequest{UserID: middleware.GetUserID(ctx)}
	if err := s.store.CreatePatronRequest(ctx, r); err != nil {
		slog.Error("Failed to create patron request", "user_id", r.UserID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Patron request created", "request_id", r.ID, "user_id", r.UserID)
	resp := patronRequestToWire(r)
	return connect.NewResponse(&resp), nil
}

// ResolvePatronRequest accepts or rejects a pending request and notifies the requester.
func (s *NotificationService) ResolvePatronRequest(ctx context.Context, req *connect.Request[ResolvePatronRequestRequest]) (*connect.Response[PatronRequest], error) {
	slog.Info("ResolvePatronRequest request received", "request_id", req.Msg.RequestID, "accept", req.Msg.Accept)

	if !s.moderators[strings.ToLower(middleware.GetHandle(ctx))] {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotModerator)
	}
	if req.Msg.RequestID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errRequestIDRequired)
	}

	r, err := s.store.GetPatronRequest(ctx, req.Msg.RequestID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, errPatronRequestAbsent)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if r.Status.Terminal() {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errRequestResolved)
	}

	if req.Msg.Accept {
		r.Status = models.PatronRequestAccepted
		r.RejectionReason = ""
	} else {
		r.Status = models.PatronRequestRejected
		r.RejectionReason = req.Msg.RejectionReason
	}
	err = s.store.UpdatePatronRequestStatus(ctx, r)
	if errors.Is(err, storage.ErrConflict) {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errRequestResolved)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	if err := s.dispatcher.SendPhilanthropistRequestResolution(ctx, r); err != nil {
		slog.Error("Failed to notify patron request resolution", "request_id", r.ID, "error", err)
	}

	slog.Info("Patron request resolved", "request_id", r.ID, "status", r.Status)
	resp := patronRequestToWire(r)
	return connect.NewResponse(&resp), nil
}

func (s *NotificationService) caller(ctx context.Context) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, middleware.GetUserID(ctx))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("unknown caller: %w", err))
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return user, nil
}

func parseApplication(s string) (models.Application, error) {
	app, err := models.ParseApplication(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return "", connect.NewError(connect.CodeInvalidArgument, err)
	}
	return app, nil
}
