package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hyper-maker-go/order"
)

func newTestExchange(t *testing.T, handler http.HandlerFunc) (*ExchangeClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cli := NewExchangeClient(srv.URL, "0xabc", "secret")
	cli.HTTPClient = srv.Client()
	cli.Limiter = nil
	cli.nowMillis = func() int64 { return 1700000000000 }
	return cli, srv
}

func TestPlaceLimitResting(t *testing.T) {
	var got signedRequest
	cli, _ := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exchange" {
			t.Errorf("path = %s, want /exchange", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(`{"status":"ok","response":{"type":"order","data":{"statuses":[{"resting":{"oid":77}}]}}}`))
	})

	ack, err := cli.PlaceLimit(context.Background(), order.PlaceRequest{
		Asset: "ETH", IsBuy: true, Price: 99.95, Size: 0.003, TIF: "Alo",
	})
	if err != nil {
		t.Fatalf("PlaceLimit error: %v", err)
	}
	if !ack.Resting || ack.OID != 77 {
		t.Errorf("ack = %+v, want resting oid 77", ack)
	}

	if got.Account != "0xabc" {
		t.Errorf("account = %q", got.Account)
	}
	if got.Nonce != 1700000000000 {
		t.Errorf("nonce = %d", got.Nonce)
	}
	if want := Sign(got.Action, got.Nonce, "secret"); got.Signature != want {
		t.Errorf("signature = %q, want %q", got.Signature, want)
	}

	var action orderAction
	if err := json.Unmarshal(got.Action, &action); err != nil {
		t.Fatalf("decode action: %v", err)
	}
	o := action.Orders[0]
	if o.Asset != "ETH" || !o.IsBuy || o.Price != "99.95" || o.Size != "0.003" {
		t.Errorf("wire order = %+v", o)
	}
	if o.Type.Limit.TIF != "Alo" {
		t.Errorf("tif = %q, want Alo", o.Type.Limit.TIF)
	}
}

func TestPlaceLimitStatuses(t *testing.T) {
	cases := []struct {
		name string
		body string
		want order.PlaceAck
	}{
		{
			name: "filled immediately",
			body: `{"status":"ok","response":{"type":"order","data":{"statuses":[{"filled":{"oid":5,"totalSz":"0.1","avgPx":"100"}}]}}}`,
			want: order.PlaceAck{Filled: true, OID: 5},
		},
		{
			name: "per-order error",
			body: `{"status":"ok","response":{"type":"order","data":{"statuses":[{"error":"Post only order would have immediately matched"}]}}}`,
			want: order.PlaceAck{Err: "Post only order would have immediately matched"},
		},
		{
			name: "top-level error",
			body: `{"status":"err","response":"Insufficient margin"}`,
			want: order.PlaceAck{Err: "Insufficient margin"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cli, _ := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})
			ack, err := cli.PlaceLimit(context.Background(), order.PlaceRequest{Asset: "ETH", TIF: "Alo"})
			if err != nil {
				t.Fatalf("PlaceLimit error: %v", err)
			}
			if ack != tc.want {
				t.Errorf("ack = %+v, want %+v", ack, tc.want)
			}
		})
	}
}

func TestPlaceLimitMalformed(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `oops`},
		{"unknown status", `{"status":"weird","response":{}}`},
		{"empty statuses", `{"status":"ok","response":{"type":"order","data":{"statuses":[]}}}`},
		{"missing data", `{"status":"ok","response":{"type":"order"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cli, _ := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})
			_, err := cli.PlaceLimit(context.Background(), order.PlaceRequest{Asset: "ETH", TIF: "Alo"})
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("err = %v, want ErrMalformedResponse", err)
			}
		})
	}
}

func TestCancel(t *testing.T) {
	var got signedRequest
	cli, _ := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"status":"ok","response":{"type":"cancel","data":{"statuses":["success"]}}}`))
	})
	ack, err := cli.Cancel(context.Background(), "ETH", 42)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if !ack.Success {
		t.Errorf("ack = %+v, want success", ack)
	}
	var action cancelAction
	if err := json.Unmarshal(got.Action, &action); err != nil {
		t.Fatalf("decode action: %v", err)
	}
	if action.Cancels[0].Asset != "ETH" || action.Cancels[0].OID != 42 {
		t.Errorf("wire cancel = %+v", action.Cancels[0])
	}
}

func TestCancelError(t *testing.T) {
	cli, _ := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","response":{"type":"cancel","data":{"statuses":[{"error":"Order already canceled"}]}}}`))
	})
	ack, err := cli.Cancel(context.Background(), "ETH", 42)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if ack.Success || ack.Err != "Order already canceled" {
		t.Errorf("ack = %+v", ack)
	}
}

func TestSubmitHTTPError(t *testing.T) {
	cli, _ := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	if _, err := cli.Cancel(context.Background(), "ETH", 42); err == nil {
		t.Fatal("want transport error on 429")
	}
}
