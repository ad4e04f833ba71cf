package auth

import (
	"testing"
	"time"
)

func TestManager_LoginAndVerify(t *testing.T) {
	m := NewManager("test-secret", time.Minute, []User{
		{Username: "admin", Password: "s3cret", Role: "Admin"},
	})
	if !m.Enabled() {
		t.Fatal("manager should be enabled")
	}

	token, expiry, err := m.Login("admin", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || expiry.Before(time.Now()) {
		t.Fatalf("bad token or expiry: %q %v", token, expiry)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Username != "admin" || claims.Role != "Admin" {
		t.Fatalf("claims = %#v", claims)
	}

	if _, _, err := m.Login("admin", "wrong"); err == nil {
		t.Fatal("wrong password accepted")
	}
	if _, _, err := m.Login("ghost", "s3cret"); err == nil {
		t.Fatal("unknown user accepted")
	}
	if _, err := m.Verify("not-a-token"); err == nil {
		t.Fatal("garbage token verified")
	}
}

func TestManager_ExpiredTokenRejected(t *testing.T) {
	m := NewManager("test-secret", time.Nanosecond, []User{
		{Username: "admin", Password: "pw", Role: "Admin"},
	})
	token, _, err := m.Login("admin", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := m.Verify(token); err == nil {
		t.Fatal("expired token verified")
	}
}

func TestManager_CrossSecretRejected(t *testing.T) {
	a := NewManager("secret-a", time.Minute, []User{{Username: "u", Password: "p"}})
	b := NewManager("secret-b", time.Minute, []User{{Username: "u", Password: "p"}})

	token, _, err := a.Login("u", "p")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := b.Verify(token); err == nil {
		t.Fatal("token verified across secrets")
	}
}

func TestManager_Disabled(t *testing.T) {
	m := NewManager("", 0, nil)
	if m.Enabled() {
		t.Fatal("empty manager enabled")
	}
	if _, _, err := m.Login("x", "y"); err == nil {
		t.Fatal("login succeeded without configuration")
	}
}
