package referrals

import (
	"errors"
	"testing"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{StatusReceived, StatusContacted, true},
		{StatusReceived, StatusDeclined, true},
		{StatusReceived, StatusConverted, false},
		{StatusContacted, StatusConverted, true},
		{StatusContacted, StatusDeclined, true},
		{StatusContacted, StatusReceived, false},
		{StatusConverted, StatusDeclined, false},
		{StatusDeclined, StatusContacted, false},
		{StatusConverted, StatusConverted, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.allowed {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestValidateTransitionError(t *testing.T) {
	if err := ValidateTransition(StatusConverted, StatusDeclined); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := ValidateTransition(StatusReceived, StatusContacted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateReferralRequestValidate(t *testing.T) {
	req := CreateReferralRequest{
		OrgID:       "org-1",
		PartnerName: "Lakeside Dental",
		PatientName: "Ana Ruiz",
		Contact:     "ana@example.com",
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missing := req
	missing.Contact = ""
	if err := missing.Validate(); err == nil {
		t.Fatal("expected validation error for missing contact")
	}
}
