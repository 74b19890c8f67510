package worker

import (
	"testing"

	"mediaforge/internal/ingest"
)

func TestDecideAcksOnSuccess(t *testing.T) {
	got := decide(ingest.ProcessResult{Success: true})
	if got != actionAck {
		t.Fatalf("got %v, want actionAck", got)
	}
}

func TestDecideDeadLettersOnExceededRetries(t *testing.T) {
	got := decide(ingest.ProcessResult{Success: false, ExceededRetries: true, Error: "boom", Attempts: 5})
	if got != actionDeadLetterThenAck {
		t.Fatalf("got %v, want actionDeadLetterThenAck", got)
	}
}

func TestDecideNacksOnTransientFailure(t *testing.T) {
	got := decide(ingest.ProcessResult{Success: false, ExceededRetries: false, Error: "transient", Attempts: 1})
	if got != actionNack {
		t.Fatalf("got %v, want actionNack", got)
	}
}
