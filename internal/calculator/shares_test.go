package calculator

import (
	"errors"
	"testing"
)

func sumShares(holders []Holder) int {
	sum := 0
	for _, h := range holders {
		sum += h.Share
	}
	return sum
}

func TestSplit(t *testing.T) {
	tests := []struct {
		departing int
		remaining int
		want      int
	}{
		{30, 2, 15},
		{31, 2, 15},
		{10, 3, 3},
		{1, 4, 0},
		{0, 3, 0},
		{25, 0, 0},
		{-5, 2, 0},
	}

	for _, tt := range tests {
		if got := Split(tt.departing, tt.remaining); got != tt.want {
			t.Errorf("Split(%d, %d) = %d, want %d", tt.departing, tt.remaining, got, tt.want)
		}
	}
}

func TestRedistribute(t *testing.T) {
	tests := []struct {
		name      string
		departing int
		holders   []Holder
		want      []int
		wantErr   error
	}{
		{
			name:      "even split leaves no remainder",
			departing: 30,
			holders: []Holder{
				{ID: "owner", Share: 40, IsOwner: true},
				{ID: "member", Share: 30},
			},
			want: []int{55, 45},
		},
		{
			name:      "uneven split credits remainder to owner",
			departing: 31,
			holders: []Holder{
				{ID: "member", Share: 30},
				{ID: "owner", Share: 39, IsOwner: true},
			},
			// split = 15 each; 45 + 54 = 99; owner takes the missing 1
			want: []int{45, 55},
		},
		{
			name:      "share smaller than member count goes to owner",
			departing: 2,
			holders: []Holder{
				{ID: "owner", Share: 50, IsOwner: true},
				{ID: "a", Share: 24},
				{ID: "b", Share: 24},
			},
			want: []int{52, 24, 24},
		},
		{
			name:      "owner holding zero still absorbs remainder",
			departing: 100,
			holders: []Holder{
				{ID: "owner", Share: 0, IsOwner: true},
				{ID: "a", Share: 0},
				{ID: "b", Share: 0},
			},
			want: []int{34, 33, 33},
		},
		{
			name:      "zero departing share is a no-op",
			departing: 0,
			holders: []Holder{
				{ID: "owner", Share: 70, IsOwner: true},
				{ID: "a", Share: 30},
			},
			want: []int{70, 30},
		},
		{
			name:      "no remaining holders drops the share",
			departing: 40,
			holders:   nil,
			want:      []int{},
		},
		{
			name:      "missing owner fails",
			departing: 10,
			holders: []Holder{
				{ID: "a", Share: 45},
				{ID: "b", Share: 45},
			},
			wantErr: ErrNoOwner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Redistribute(tt.departing, tt.holders, 100)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Redistribute() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Redistribute() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Redistribute() returned %d holders, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if got[i].Share != w {
					t.Errorf("holder %s share = %d, want %d", got[i].ID, got[i].Share, w)
				}
			}
			if len(got) > 0 && tt.departing > 0 && sumShares(got) != 100 {
				t.Errorf("sum of shares = %d, want 100", sumShares(got))
			}
		})
	}
}

func TestRedistributeDoesNotMutateInput(t *testing.T) {
	holders := []Holder{
		{ID: "owner", Share: 60, IsOwner: true},
		{ID: "a", Share: 20},
	}

	if _, err := Redistribute(20, holders, 100); err != nil {
		t.Fatalf("Redistribute() unexpected error: %v", err)
	}

	if holders[0].Share != 60 || holders[1].Share != 20 {
		t.Errorf("input holders modified: %+v", holders)
	}
}

func TestRedistributeRejectsTwoOwners(t *testing.T) {
	holders := []Holder{
		{ID: "a", Share: 45, IsOwner: true},
		{ID: "b", Share: 45, IsOwner: true},
	}

	if _, err := Redistribute(10, holders, 100); err == nil {
		t.Error("expected error for two owners, got nil")
	}
}
