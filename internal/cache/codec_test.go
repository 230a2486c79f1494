package cache

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type payload struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

func TestCodecsRoundTrip(t *testing.T) {
	in := payload{ID: 7, Name: "Ann", Balance: -30}

	codecs := map[string]Codec[payload]{
		"json":    JSONCodec[payload]{},
		"msgpack": MsgpackCodec[payload]{},
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			raw, err := c.Encode(in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			out, err := c.Decode(raw)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(in, out); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMsgpackDecodeRejectsGarbage(t *testing.T) {
	if _, err := (MsgpackCodec[payload]{}).Decode([]byte("\xc1not msgpack")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestUserKey(t *testing.T) {
	if got := UserKey(42); got != "user:42" {
		t.Fatalf("UserKey(42) = %q, want %q", got, "user:42")
	}
}
