package pubsub

import "testing"

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "pf-prod"}

	cases := map[string]string{
		"":                                 "",
		"  ":                               "",
		"storefront-events":                "projects/pf-prod/topics/storefront-events",
		"projects/other/topics/raw-events": "projects/other/topics/raw-events",
	}
	for in, want := range cases {
		if got := c.topicResourceName(in); got != want {
			t.Fatalf("topicResourceName(%q) = %q, want %q", in, got, want)
		}
	}

	if got := (&Client{}).topicResourceName("events"); got != "" {
		t.Fatalf("expected empty name without project, got %q", got)
	}
	var nilClient *Client
	if nilClient.Publisher("events") != nil {
		t.Fatalf("nil client should not return a publisher")
	}
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
