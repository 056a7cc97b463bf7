package domain

import (
	"encoding/json"
	"testing"
)

func TestFlag_AcceptsLooseBackendEncodings(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{`{"is_admin":true}`, true},
		{`{"is_admin":1}`, true},
		{`{"is_admin":"1"}`, true},
		{`{"is_admin":false}`, false},
		{`{"is_admin":0}`, false},
		{`{"is_admin":"0"}`, false},
		{`{"is_admin":null}`, false},
		{`{}`, false},
		{`{"is_admin":"maybe"}`, false}, // unknown shape fails closed
	}

	for _, tc := range cases {
		var u User
		if err := json.Unmarshal([]byte(tc.in), &u); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		if bool(u.IsAdmin) != tc.want {
			t.Fatalf("%s: IsAdmin = %v, want %v", tc.in, u.IsAdmin, tc.want)
		}
	}
}

func TestSession_AdminRequiresSnapshot(t *testing.T) {
	var nilSession *Session
	if nilSession.Authenticated() || nilSession.Admin() {
		t.Fatalf("nil session must be unauthenticated")
	}

	s := &Session{Token: "tok"}
	if !s.Authenticated() {
		t.Fatalf("token should authenticate")
	}
	if s.Admin() {
		t.Fatalf("no snapshot must mean no admin")
	}

	s.User = &User{IsAdmin: true}
	if !s.Admin() {
		t.Fatalf("admin snapshot should report admin")
	}
}
