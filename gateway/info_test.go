package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenOrders(t *testing.T) {
	var got infoRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/info" {
			t.Errorf("path = %s, want /info", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`[
			{"coin":"ETH","side":"B","sz":"0.003","limitPx":"99.95","oid":11},
			{"coin":"SOL","side":"A","sz":"0.1","limitPx":"150.2","oid":12}
		]`))
	}))
	defer srv.Close()

	cli := NewInfoClient(srv.URL)
	cli.HTTPClient = srv.Client()
	cli.Limiter = nil

	orders, err := cli.OpenOrders(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("OpenOrders error: %v", err)
	}
	if got.Type != "openOrders" || got.User != "0xabc" {
		t.Errorf("request = %+v", got)
	}
	if len(orders) != 2 {
		t.Fatalf("len(orders) = %d, want 2", len(orders))
	}
	if orders[0].Coin != "ETH" || orders[0].Side != "B" || orders[0].OID != 11 {
		t.Errorf("orders[0] = %+v", orders[0])
	}
	if orders[1].LimitPx != "150.2" {
		t.Errorf("orders[1] = %+v", orders[1])
	}
}

func TestUserState(t *testing.T) {
	var got infoRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"assetPositions":[
			{"position":{"coin":"ETH","szi":"-0.006"}},
			{"position":{"coin":"BTC","szi":"0.002"}}
		]}`))
	}))
	defer srv.Close()

	cli := NewInfoClient(srv.URL)
	cli.HTTPClient = srv.Client()
	cli.Limiter = nil

	state, err := cli.UserState(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("UserState error: %v", err)
	}
	if got.Type != "clearinghouseState" {
		t.Errorf("request type = %q", got.Type)
	}
	if len(state.AssetPositions) != 2 {
		t.Fatalf("len = %d, want 2", len(state.AssetPositions))
	}
	if p := state.AssetPositions[0].Position; p.Coin != "ETH" || p.Szi != "-0.006" {
		t.Errorf("position = %+v", p)
	}
}

func TestInfoDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	cli := NewInfoClient(srv.URL)
	cli.HTTPClient = srv.Client()
	cli.Limiter = nil

	if _, err := cli.OpenOrders(context.Background(), "0xabc"); err == nil {
		t.Fatal("want decode error")
	}
}
