package a2a

import (
	"encoding/json"
	"testing"
)

func TestCoerceID(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"string untouched", `"req-1"`, `"req-1"`},
		{"integer quoted", `42`, `"42"`},
		{"float quoted", `1.5`, `"1.5"`},
		{"null untouched", `null`, `null`},
		{"object untouched", `{"a":1}`, `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := coerceID(json.RawMessage(tc.in))
			if string(got) != tc.want {
				t.Errorf("coerceID(%s) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestCoerceID_empty(t *testing.T) {
	if got := coerceID(nil); got != nil {
		t.Errorf("coerceID(nil) = %s, want nil", got)
	}
}

func TestRPCErrorf_dataCode(t *testing.T) {
	e := rpcErrorf(codeInvalidRequest, "authentication_error", "bad token")
	data, ok := e.Data.(map[string]string)
	if !ok || data["code"] != "authentication_error" {
		t.Errorf("Data = %#v, want code authentication_error", e.Data)
	}

	plain := rpcErrorf(codeInternalError, "", "boom")
	if plain.Data != nil {
		t.Errorf("Data = %#v, want nil without a code", plain.Data)
	}
}
