package gcs

import "testing"

func TestParseURI(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{name: "nested object", uri: "gs://exports/sms/2024-01.json", wantBucket: "exports", wantObject: "sms/2024-01.json"},
		{name: "top level object", uri: "gs://exports/sms.json", wantBucket: "exports", wantObject: "sms.json"},
		{name: "missing scheme", uri: "exports/sms.json", wantErr: true},
		{name: "bucket only", uri: "gs://exports", wantErr: true},
		{name: "trailing slash only", uri: "gs://exports/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, object, err := ParseURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("ParseURI(%q) = (%q, %q), want (%q, %q)", tt.uri, bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}

func TestURIAndFilename(t *testing.T) {
	uri := URI("exports", "/sms/2024-01.json")
	if uri != "gs://exports/sms/2024-01.json" {
		t.Errorf("URI = %q", uri)
	}
	if got := Filename(uri); got != "2024-01.json" {
		t.Errorf("Filename(%q) = %q, want 2024-01.json", uri, got)
	}
	if got := Filename("gs://exports"); got != "exports" {
		t.Errorf("Filename without object = %q", got)
	}
}
