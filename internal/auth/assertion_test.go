package auth

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestIdentityAssertionRoundTrip(t *testing.T) {
	f := newFixture(t, 900, WithAssertionSecret("test-secret", time.Minute))
	u := f.registerAlice(t)
	ctx := context.Background()

	token, res := f.engine.Authenticate(ctx, "alice", "secretpw", "")
	if !res.OK() {
		t.Fatalf("authenticate: %+v", res)
	}
	assertion, res := f.engine.AssertIdentity(ctx, token)
	if !res.OK() {
		t.Fatalf("AssertIdentity: %+v", res)
	}

	claims, err := f.engine.VerifyAssertion(assertion)
	if err != nil {
		t.Fatalf("VerifyAssertion: %v", err)
	}
	if claims.Subject != u.ID {
		t.Errorf("subject = %q, want %q", claims.Subject, u.ID)
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != f.client.ID {
		t.Errorf("audience = %v, want [%s]", claims.Audience, f.client.ID)
	}
	if claims.ID == "" {
		t.Error("assertion has no id")
	}
}

func TestIdentityAssertionExpires(t *testing.T) {
	f := newFixture(t, 900, WithAssertionSecret("test-secret", time.Minute))
	f.registerAlice(t)
	ctx := context.Background()

	token, res := f.engine.Authenticate(ctx, "alice", "secretpw", "")
	if !res.OK() {
		t.Fatalf("authenticate: %+v", res)
	}
	assertion, res := f.engine.AssertIdentity(ctx, token)
	if !res.OK() {
		t.Fatalf("AssertIdentity: %+v", res)
	}

	f.advance(2 * time.Minute)
	if _, err := f.engine.VerifyAssertion(assertion); err == nil {
		t.Fatal("expired assertion verified")
	}
}

func TestIdentityAssertionTamperAndMisuse(t *testing.T) {
	f := newFixture(t, 900, WithAssertionSecret("test-secret", time.Minute))
	f.registerAlice(t)
	ctx := context.Background()

	token, res := f.engine.Authenticate(ctx, "alice", "secretpw", "")
	if !res.OK() {
		t.Fatalf("authenticate: %+v", res)
	}
	assertion, res := f.engine.AssertIdentity(ctx, token)
	if !res.OK() {
		t.Fatalf("AssertIdentity: %+v", res)
	}

	parts := strings.Split(assertion, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := f.engine.VerifyAssertion(tampered); err == nil {
		t.Error("tampered assertion verified")
	}
	if _, err := f.engine.VerifyAssertion(""); err == nil {
		t.Error("empty assertion verified")
	}

	// Unconfigured engine refuses to mint.
	bare := newFixture(t, 900)
	bare.registerAlice(t)
	token, res = bare.engine.Authenticate(ctx, "alice", "secretpw", "")
	if !res.OK() {
		t.Fatalf("authenticate: %+v", res)
	}
	if _, res := bare.engine.AssertIdentity(ctx, token); res.Status != StatusConfigError {
		t.Fatalf("assertion without secret: %+v", res)
	}
}
