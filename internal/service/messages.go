package service

import (
	"time"

	"github.com/mmynk/bandmates/internal/models"
)

// Band is the wire form of a band and its roster.
type Band struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Handle    string   `json:"handle"`
	CreatedAt int64    `json:"createdAt"`
	Members   []Member `json:"members"`
}

type Member struct {
	UserID   string `json:"userId"`
	Handle   string `json:"handle"`
	Role     string `json:"role"`
	Share    int    `json:"share"`
	JoinedAt int64  `json:"joinedAt"`
}

type CreateBandRequest struct {
	Name   string `json:"name"`
	Handle string `json:"handle"`
}

type GetBandRequest struct {
	BandKey string `json:"bandKey"`
}

type ListMyBandsRequest struct{}

type ListBandsResponse struct {
	Bands []Band `json:"bands"`
}

type AddMemberRequest struct {
	BandKey string `json:"bandKey"`
	Handle  string `json:"handle"`
}

type UpdateMemberRequest struct {
	BandKey string `json:"bandKey"`
	Handle  string `json:"handle"`
	Role    string `json:"role"`
}

type RemoveMemberRequest struct {
	BandKey string `json:"bandKey"`
	Handle  string `json:"handle"`
}

type BandResponse struct {
	Band Band `json:"band"`
}

type PerformanceRequest struct {
	BandKey string `json:"bandKey"`
}

type PerformanceResponse struct {
	ID        string `json:"id"`
	StartedAt int64  `json:"startedAt"`
}

type Empty struct{}

// Notification is the wire form of an inbox entry.
type Notification struct {
	ID        int64     `json:"id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

type ListNotificationsRequest struct {
	Application string `json:"application"`
	Skip        int    `json:"skip"`
	Size        int    `json:"size"`
}

type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
}

type MarkAllAsReadRequest struct {
	Application string `json:"application"`
	MaxID       int64  `json:"maxId"`
}

type GetUnreadCountRequest struct {
	Application string `json:"application"`
}

type GetUnreadCountResponse struct {
	Count int `json:"count"`
}

type RegisterDeviceRequest struct {
	Application string `json:"application"`
	Token       string `json:"token"`
}

type SubscribeRequest struct {
	Application string `json:"application"`
}

// PatronRequest is the wire form of a philanthropist request.
type PatronRequest struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejectionReason,omitempty"`
	CreatedAt       int64  `json:"createdAt"`
}

type RequestPatronageRequest struct{}

type ResolvePatronRequestRequest struct {
	RequestID       string `json:"requestId"`
	Accept          bool   `json:"accept"`
	RejectionReason string `json:"rejectionReason"`
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Handle      string `json:"handle"`
	CreatedAt   int64  `json:"createdAt"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Handle      string `json:"handle"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

func bandToWire(b *models.Band) Band {
	out := Band{
		ID:        b.ID,
		Name:      b.Name,
		Handle:    b.Profile.Handle,
		CreatedAt: b.CreatedAt,
		Members:   make([]Member, len(b.Members)),
	}
	for i, m := range b.Members {
		out.Members[i] = Member{
			UserID:   m.UserID,
			Handle:   m.Handle,
			Role:     string(m.Role),
			Share:    m.Share,
			JoinedAt: m.JoinedAt,
		}
	}
	return out
}

func notificationToWire(n *models.Notification) Notification {
	return Notification{
		ID:        n.ID,
		Subject:   n.Subject,
		Body:      n.Body,
		Type:      string(n.Type),
		Timestamp: n.Timestamp,
		Read:      n.Read,
	}
}

func patronRequestToWire(r *models.PatronRequest) PatronRequest {
	return PatronRequest{
		ID:              r.ID,
		UserID:          r.UserID,
		Status:          string(r.Status),
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
	}
}

func userToWire(u *models.User) User {
	return User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Handle:      u.Profile.Handle,
		CreatedAt:   u.CreatedAt,
	}
}
