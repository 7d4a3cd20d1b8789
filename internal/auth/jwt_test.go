package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	tok, err := Issue("teacher-7", RoleTeacher, "classtrack", "test-key", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := Parse(tok.Value, "test-key", "classtrack")
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "teacher-7" || claims.Role != RoleTeacher {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseRejects(t *testing.T) {
	tok, err := Issue("admin-1", RoleAdmin, "classtrack", "test-key", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(tok.Value, "wrong-key", "classtrack"); err == nil {
		t.Fatal("wrong key accepted")
	}
	if _, err := Parse(tok.Value, "test-key", "someone-else"); err == nil {
		t.Fatal("wrong issuer accepted")
	}

	expired, err := Issue("admin-1", RoleAdmin, "classtrack", "test-key", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(expired.Value, "test-key", "classtrack"); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestIssueRejectsUnknownRole(t *testing.T) {
	if _, err := Issue("x", "superuser", "classtrack", "test-key", time.Minute); err == nil {
		t.Fatal("unknown role accepted")
	}
}
