package utils

import "testing"

func TestPasswordRoundTrip(test *testing.T) {
	test.Parallel()
	hash, err := HashPassword("s3cret-pa55", 4)
	if err != nil {
		test.Fatalf("HashPassword failed: %v", err)
	}
	if !VerifyPassword(hash, "s3cret-pa55") {
		test.Fatal("expected the original password to verify")
	}
	if VerifyPassword(hash, "wrong") {
		test.Fatal("expected a wrong password to fail")
	}
}
