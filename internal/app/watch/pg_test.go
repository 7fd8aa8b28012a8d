package watch

import "testing"

func TestChannelFor(t *testing.T) {
	for _, collection := range []string{"courses", "students", "faculty", "rooms"} {
		channel, err := channelFor(collection)
		if err != nil {
			t.Errorf("channelFor(%s): %v", collection, err)
			continue
		}
		if channel != collection+"_changed" {
			t.Errorf("channelFor(%s) = %q", collection, channel)
		}
	}
}

func TestChannelForRejectsUnknownCollection(t *testing.T) {
	if _, err := channelFor("users; DROP TABLE users"); err == nil {
		t.Fatal("channelFor accepted an unwatched collection name")
	}
}
