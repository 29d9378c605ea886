package adapters_test

import (
	"context"
	"testing"
	"time"

	"github.com/adcontexthq/salesagent/internal/adapters"
	"github.com/adcontexthq/salesagent/internal/mediabuys"
)

func testBuy() (*mediabuys.MediaBuy, []mediabuys.Package) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	buy := &mediabuys.MediaBuy{
		MediaBuyID:     "mb_42",
		TenantID:       "wonder",
		PrincipalID:    "nike",
		Status:         mediabuys.StatusActive,
		StartTime:      start,
		EndTime:        start.Add(10 * 24 * time.Hour),
		BudgetTotal:    10000,
		BudgetCurrency: "USD",
	}
	packages := []mediabuys.Package{
		{PackageID: "pkg_1", MediaBuyID: "mb_42", ProductID: "ctv_prime",
			PricingModel: "cpm", BudgetTotal: 6000, Active: true},
		{PackageID: "pkg_2", MediaBuyID: "mb_42", ProductID: "audio_drive",
			PricingModel: "cpcv", BudgetTotal: 4000, Active: true},
	}
	return buy, packages
}

func TestMockCreateAssignsPlatformIDs(t *testing.T) {
	buy, packages := testBuy()
	mock := adapters.NewMockAdapter(false, nil)

	res, err := mock.CreateMediaBuy(context.Background(), &adapters.CreateMediaBuyRequest{
		MediaBuy: buy, Packages: packages, Account: "acct-1",
	})
	if err != nil {
		t.Fatalf("CreateMediaBuy: %v", err)
	}
	if res.PlatformOrderID == "" {
		t.Error("no platform order id")
	}
	if len(res.LineItemIDs) != 2 {
		t.Fatalf("line items = %d, want 2", len(res.LineItemIDs))
	}
	if res.LineItemIDs["pkg_1"] == res.LineItemIDs["pkg_2"] {
		t.Error("line item ids collide")
	}
}

func TestMockDeliveryIsDeterministic(t *testing.T) {
	buy, packages := testBuy()
	mock := adapters.NewMockAdapter(false, nil)
	asOf := buy.StartTime.Add(5 * 24 * time.Hour) // halfway

	first, err := mock.Delivery(context.Background(), &adapters.DeliveryRequest{
		MediaBuy: buy, Packages: packages, AsOf: asOf,
	})
	if err != nil {
		t.Fatalf("Delivery: %v", err)
	}
	second, err := mock.Delivery(context.Background(), &adapters.DeliveryRequest{
		MediaBuy: buy, Packages: packages, AsOf: asOf,
	})
	if err != nil {
		t.Fatalf("Delivery: %v", err)
	}
	if first.Totals != second.Totals {
		t.Errorf("delivery not stable: %+v vs %+v", first.Totals, second.Totals)
	}

	if got, want := first.Totals.Spend, 5000.0; got != want {
		t.Errorf("spend at half flight = %v, want %v", got, want)
	}
	if first.Totals.Impressions == 0 {
		t.Error("no impressions mid flight")
	}
	if first.ByPackage["pkg_2"].VideoCompletions == 0 {
		t.Error("cpcv package has no video completions")
	}
	if first.ByPackage["pkg_1"].VideoCompletions != 0 {
		t.Error("cpm package reports video completions")
	}
}

func TestMockDeliveryBeforeFlight(t *testing.T) {
	buy, packages := testBuy()
	mock := adapters.NewMockAdapter(false, nil)

	report, err := mock.Delivery(context.Background(), &adapters.DeliveryRequest{
		MediaBuy: buy, Packages: packages, AsOf: buy.StartTime.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("Delivery: %v", err)
	}
	if report.Totals.Impressions != 0 || report.Totals.Spend != 0 {
		t.Errorf("delivery before flight start: %+v", report.Totals)
	}
}

func TestMockDeliveryPausedPackage(t *testing.T) {
	buy, packages := testBuy()
	packages[0].Active = false
	mock := adapters.NewMockAdapter(false, nil)

	report, err := mock.Delivery(context.Background(), &adapters.DeliveryRequest{
		MediaBuy: buy, Packages: packages, AsOf: buy.StartTime.Add(5 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Delivery: %v", err)
	}
	if got := report.ByPackage["pkg_1"]; got.Impressions != 0 {
		t.Errorf("inactive package delivered: %+v", got)
	}
	if got := report.ByPackage["pkg_2"]; got.Impressions == 0 {
		t.Error("active package did not deliver")
	}
}

func TestRegistryFallback(t *testing.T) {
	reg := adapters.NewRegistry("mock")
	reg.Register(adapters.NewMockAdapter(false, nil))

	a, err := reg.For("")
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	if a.Name() != "mock" {
		t.Errorf("fallback adapter = %s", a.Name())
	}
	if _, err := reg.For("gam"); err == nil {
		t.Error("unknown ad server accepted")
	}
}
