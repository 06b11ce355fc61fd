package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testIdentity = Identity{
	ID:        "user-001",
	Username:  "jdoe",
	FirstName: "Jane",
	LastName:  "Doe",
	Role:      "student",
}

func testCodec(t *testing.T, ttl time.Duration) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec([]byte("unit-test-signing-key"), "student-portal", "student-portal-api", ttl)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	return c
}

func TestNewTokenCodec_RequiresKey(t *testing.T) {
	if _, err := NewTokenCodec(nil, "", "", time.Minute); !errors.Is(err, ErrKeyMissing) {
		t.Fatalf("NewTokenCodec(nil key) error = %v, want ErrKeyMissing", err)
	}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	c := testCodec(t, 30*time.Minute)

	token, err := c.Issue(testIdentity, "1.2.3.4")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := c.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != testIdentity.ID {
		t.Errorf("Subject = %q, want %q", claims.Subject, testIdentity.ID)
	}
	if claims.Username != "jdoe" || claims.FirstName != "Jane" || claims.LastName != "Doe" {
		t.Errorf("identity claims = %q/%q/%q", claims.Username, claims.FirstName, claims.LastName)
	}
	if claims.Role != "student" {
		t.Errorf("Role = %q, want student", claims.Role)
	}
	if claims.IP != "1.2.3.4" {
		t.Errorf("IP = %q, want 1.2.3.4", claims.IP)
	}
	if claims.ID == "" {
		t.Error("jti nonce is empty")
	}
}

func TestIssue_NonceIsUnique(t *testing.T) {
	c := testCodec(t, 30*time.Minute)

	t1, err := c.Issue(testIdentity, "1.2.3.4")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	t2, err := c.Issue(testIdentity, "1.2.3.4")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if t1 == t2 {
		t.Error("two tokens for the same identity are identical")
	}
}

func TestVerify_WrongKey(t *testing.T) {
	c := testCodec(t, 30*time.Minute)
	other, err := NewTokenCodec([]byte("a-different-key"), "student-portal", "student-portal-api", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	token, err := c.Issue(testIdentity, "1.2.3.4")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Verify with wrong key error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	c := testCodec(t, 30*time.Minute)

	token, err := c.Issue(testIdentity, "1.2.3.4")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d segments", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := c.Verify(tampered); err == nil {
		t.Fatal("Verify accepted a tampered token")
	}
}

func TestVerify_Malformed(t *testing.T) {
	c := testCodec(t, 30*time.Minute)

	if _, err := c.Verify("not-a-token"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("Verify(garbage) error = %v, want ErrTokenMalformed", err)
	}
}

func TestVerify_HardCeiling_NoLeeway(t *testing.T) {
	c := testCodec(t, 30*time.Minute)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.Clock = func() time.Time { return base }

	token, err := c.Issue(testIdentity, "1.2.3.4")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Still inside the ceiling.
	c.Clock = func() time.Time { return base.Add(29 * time.Minute) }
	if _, err := c.Verify(token); err != nil {
		t.Fatalf("Verify before ceiling: %v", err)
	}

	// One second past the ceiling: rejected, no skew tolerance.
	c.Clock = func() time.Time { return base.Add(30*time.Minute + time.Second) }
	if _, err := c.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Verify past ceiling error = %v, want ErrTokenExpired", err)
	}
}

func TestVerify_IssuerAudience(t *testing.T) {
	c := testCodec(t, 30*time.Minute)
	other, err := NewTokenCodec([]byte("unit-test-signing-key"), "someone-else", "student-portal-api", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	token, err := other.Issue(testIdentity, "1.2.3.4")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := c.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Verify with wrong issuer error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_NoIssuerConfigured_SkipsCheck(t *testing.T) {
	c, err := NewTokenCodec([]byte("unit-test-signing-key"), "", "", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	token, err := c.Issue(testIdentity, "1.2.3.4")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := c.Verify(token); err != nil {
		t.Fatalf("Verify without iss/aud: %v", err)
	}
}

func TestDecode_IgnoresExpiry(t *testing.T) {
	c := testCodec(t, 30*time.Minute)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.Clock = func() time.Time { return base }

	token, err := c.Issue(testIdentity, "1.2.3.4")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	c.Clock = func() time.Time { return base.Add(2 * time.Hour) }
	claims, err := c.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Username != "jdoe" {
		t.Errorf("Username = %q, want jdoe", claims.Username)
	}

	if _, err := c.Decode("garbage"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("Decode(garbage) error = %v, want ErrTokenMalformed", err)
	}
}
