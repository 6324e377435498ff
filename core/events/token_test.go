package events

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestTokenMintedEvent(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	evt := TokenMinted{Mint: mint, To: to, Amount: 250, Supply: 5000}.Event()
	if evt == nil {
		t.Fatalf("expected event")
	}
	if evt.Type != TypeTokenMinted {
		t.Fatalf("unexpected type: %s", evt.Type)
	}
	if evt.Attr("amount") != "250" || evt.Attr("supply") != "5000" {
		t.Fatalf("unexpected attrs: %+v", evt.Attributes)
	}
	if evt.Attr("to") != to.String() || evt.Attr("mint") != mint.String() {
		t.Fatalf("unexpected keys: %+v", evt.Attributes)
	}
}

func TestRecorderFiltersByType(t *testing.T) {
	var rec Recorder
	rec.Emit(TokenMinted{Amount: 1})
	rec.Emit(TokenTransferred{Amount: 2})
	rec.Emit(TokenMinted{Amount: 3})

	if got := len(rec.Events()); got != 3 {
		t.Fatalf("expected 3 events, got %d", got)
	}
	minted := rec.OfType(TypeTokenMinted)
	if len(minted) != 2 {
		t.Fatalf("expected 2 mint events, got %d", len(minted))
	}
	rec.Reset()
	if len(rec.Events()) != 0 {
		t.Fatalf("expected reset to clear events")
	}
}

func TestFanoutSkipsNil(t *testing.T) {
	var a, b Recorder
	fan := Fanout{&a, nil, &b}
	fan.Emit(TokenTransferred{Amount: 7})
	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Fatalf("expected both recorders to receive the event")
	}
}
