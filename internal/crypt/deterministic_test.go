package crypt

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

var testKM = KeyMaterial{
	Address: "0xABCdef0123456789abcdef0123456789ABCDEF01",
	AuditID: "audit_1",
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	payload := map[string]any{"vendor": "Acme", "amount": 100, "flags": []any{"reviewed"}}

	ct, err := Encrypt(payload, testKM)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := Decrypt(ct, testKM)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("unmarshal plaintext: %v", err)
	}
	if decoded["vendor"] != "Acme" {
		t.Errorf("vendor = %v, want Acme", decoded["vendor"])
	}
}

func TestEncrypt_Deterministic(t *testing.T) {
	payload := map[string]any{"vendor": "Acme", "amount": 100}

	ct1, err := Encrypt(payload, testKM)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	ct2, err := Encrypt(payload, testKM)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if ct1 != ct2 {
		t.Error("same payload and key material produced different ciphertexts")
	}
}

func TestEncrypt_AddressCaseInsensitive(t *testing.T) {
	payload := map[string]any{"vendor": "Acme", "amount": 100}
	upper := KeyMaterial{Address: "0x" + strings.ToUpper(testKM.Address[2:]), AuditID: testKM.AuditID}
	lower := KeyMaterial{Address: strings.ToLower(testKM.Address), AuditID: testKM.AuditID}

	ctUpper, err := Encrypt(payload, upper)
	if err != nil {
		t.Fatalf("Encrypt upper: %v", err)
	}
	ctLower, err := Encrypt(payload, lower)
	if err != nil {
		t.Fatalf("Encrypt lower: %v", err)
	}
	if ctUpper != ctLower {
		t.Error("mixed-case and lowercase addresses produced different ciphertexts")
	}
}

func TestEncrypt_DifferentKeyMaterialDiffers(t *testing.T) {
	payload := map[string]any{"vendor": "Acme"}
	other := KeyMaterial{Address: testKM.Address, AuditID: "audit_2"}

	ct1, err := Encrypt(payload, testKM)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	ct2, err := Encrypt(payload, other)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if ct1 == ct2 {
		t.Error("different audit ids produced identical ciphertext")
	}
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	ct, err := Encrypt(map[string]any{"vendor": "Acme"}, testKM)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	wrong := KeyMaterial{Address: testKM.Address, AuditID: "audit_other"}
	if _, err := Decrypt(ct, wrong); !errors.Is(err, ErrCiphertext) {
		t.Errorf("Decrypt with wrong key = %v, want ErrCiphertext", err)
	}
}

func TestDecrypt_MalformedCiphertext(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not base64", "%%%not-base64%%%"},
		{"too short", "AAAA"},
		{"empty", ""},
		{"corrupted", func() string {
			ct, _ := Encrypt(map[string]any{"a": 1}, testKM)
			return ct[:len(ct)-8] + "AAAAAAAA"
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decrypt(tt.in, testKM); !errors.Is(err, ErrCiphertext) {
				t.Errorf("Decrypt(%q) = %v, want ErrCiphertext", tt.in, err)
			}
		})
	}
}

func TestKeyMaterial_Validation(t *testing.T) {
	tests := []struct {
		name    string
		km      KeyMaterial
		wantErr error
	}{
		{"missing 0x prefix", KeyMaterial{Address: "abcdef0123456789abcdef0123456789abcdef01", AuditID: "a"}, ErrInvalidAddress},
		{"too short", KeyMaterial{Address: "0xabc", AuditID: "a"}, ErrInvalidAddress},
		{"not hex", KeyMaterial{Address: "0x" + strings.Repeat("zz", 20), AuditID: "a"}, ErrInvalidAddress},
		{"empty address", KeyMaterial{Address: "", AuditID: "a"}, ErrInvalidAddress},
		{"empty audit id", KeyMaterial{Address: testKM.Address, AuditID: ""}, ErrEmptyAuditID},
		{"whitespace audit id", KeyMaterial{Address: testKM.Address, AuditID: "   "}, ErrEmptyAuditID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Encrypt(map[string]any{"a": 1}, tt.km); !errors.Is(err, tt.wantErr) {
				t.Errorf("Encrypt = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
