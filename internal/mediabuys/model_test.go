package mediabuys_test

import (
	"testing"
	"time"

	"github.com/adcontexthq/salesagent/internal/adcp"
	"github.com/adcontexthq/salesagent/internal/mediabuys"
)

func flight(status string, start, end time.Time) *mediabuys.MediaBuy {
	return &mediabuys.MediaBuy{
		MediaBuyID: "mb_1",
		TenantID:   "wonder",
		Status:     status,
		StartTime:  start,
		EndTime:    end,
	}
}

func TestDeliveryStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	before := now.Add(-48 * time.Hour)
	after := now.Add(48 * time.Hour)

	cases := []struct {
		name string
		buy  *mediabuys.MediaBuy
		want string
	}{
		{"active mid flight", flight(mediabuys.StatusActive, before, after), adcp.DeliveryStatusDelivering},
		{"active before flight", flight(mediabuys.StatusActive, after, after.Add(time.Hour)), adcp.DeliveryStatusPendingStart},
		{"active after flight", flight(mediabuys.StatusActive, before.Add(-time.Hour), before), adcp.DeliveryStatusCompleted},
		{"paused wins over window", flight(mediabuys.StatusPaused, before, after), adcp.DeliveryStatusPaused},
		{"pending approval", flight(mediabuys.StatusPendingApproval, before, after), adcp.DeliveryStatusPendingStart},
		{"completed state", flight(mediabuys.StatusCompleted, before, after), adcp.DeliveryStatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.buy.DeliveryStatus(now); got != tc.want {
				t.Errorf("DeliveryStatus = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestFlightFraction(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * 24 * time.Hour)
	buy := flight(mediabuys.StatusActive, start, end)

	if got := buy.FlightFraction(start.Add(-time.Hour)); got != 0 {
		t.Errorf("before flight: %v, want 0", got)
	}
	if got := buy.FlightFraction(start.Add(5 * 24 * time.Hour)); got != 0.5 {
		t.Errorf("mid flight: %v, want 0.5", got)
	}
	if got := buy.FlightFraction(end.Add(time.Hour)); got != 1 {
		t.Errorf("after flight: %v, want 1", got)
	}
}

func TestOwnedBy(t *testing.T) {
	buy := &mediabuys.MediaBuy{TenantID: "wonder", PrincipalID: "nike"}
	if !buy.OwnedBy("nike") {
		t.Error("owner denied")
	}
	if !buy.OwnedBy("admin_wonder") {
		t.Error("tenant admin denied")
	}
	if buy.OwnedBy("acme") {
		t.Error("foreign principal allowed")
	}
}
