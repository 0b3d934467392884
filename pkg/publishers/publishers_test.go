package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: hub-disabled
    type: http
    enabled: false
    http:
      url: https://example.com/hub
  - id: hub
    type: http
    enabled: true
    http:
      url: https://example.com/hub2
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "hub" {
		t.Fatalf("expected only hub enabled, got %#v", enabled)
	}
}

func TestLoadRegistryRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: hub
    type: http
    http:
      url: https://example.com/a
  - id: hub
    type: http
    http:
      url: https://example.com/b
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestLoadRegistryRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	if err := os.WriteFile(path, []byte("publishers: []\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected error for empty publishers file")
	}
}

func TestValidatePublisherConfig(t *testing.T) {
	cases := []struct {
		name    string
		cfg     PublisherConfig
		wantErr bool
	}{
		{name: "missing http block", cfg: PublisherConfig{ID: "h1", Type: TypeHTTP}, wantErr: true},
		{name: "missing sns region", cfg: PublisherConfig{ID: "s1", Type: TypeSNS, SNS: &SNSPublisherConfig{TopicARN: "arn:x"}}, wantErr: true},
		{name: "missing gcp topic", cfg: PublisherConfig{ID: "g1", Type: TypeGCPPubSub, GCP: &GCPQueueConfig{ProjectID: "p"}}, wantErr: true},
		{name: "missing sqs uri", cfg: PublisherConfig{ID: "q1", Type: TypeSQS, SQS: &SQSPublisherConfig{Region: "eu-north-1"}}, wantErr: true},
		{name: "valid sqs", cfg: PublisherConfig{ID: "q2", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "https://q", Region: "eu-north-1"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePublisherConfig(tc.cfg)
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
