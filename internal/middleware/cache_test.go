package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPayloadCodecRoundTrip(test *testing.T) {
	test.Parallel()
	hdr := http.Header{"Content-Type": {"application/json"}, "X-Total": {"3"}}
	body := []byte(`{"restaurants":[]}`)
	bs, err := encodePayload(http.StatusOK, hdr, body)
	if err != nil {
		test.Fatalf("encode failed: %v", err)
	}
	status, gotHdr, gotBody, ok := decodePayload(bs)
	if !ok {
		test.Fatal("decode reported failure")
	}
	if status != http.StatusOK {
		test.Fatalf("status mismatch: %d", status)
	}
	if gotHdr.Get("Content-Type") != "application/json" || gotHdr.Get("X-Total") != "3" {
		test.Fatalf("headers mismatch: %v", gotHdr)
	}
	if string(gotBody) != string(body) {
		test.Fatalf("body mismatch: %q", gotBody)
	}
}

func TestDecodePayloadRejectsTruncatedInput(test *testing.T) {
	test.Parallel()
	if _, _, _, ok := decodePayload([]byte{1, 2, 3}); ok {
		test.Fatal("expected short input to be rejected")
	}
}

func TestCaptureWriterHonorsLimit(test *testing.T) {
	test.Parallel()
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	if _, err := cw.Write([]byte("abcdefgh")); err != nil {
		test.Fatalf("write failed: %v", err)
	}
	if cw.buf.String() != "abcd" {
		test.Fatalf("expected capture truncated to limit, got %q", cw.buf.String())
	}
	// The client still receives the full body.
	if rec.Body.String() != "abcdefgh" {
		test.Fatalf("client body truncated: %q", rec.Body.String())
	}
}
