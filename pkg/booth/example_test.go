package booth_test

import (
	"context"
	"fmt"
	"os"

	"github.com/bft-labs/tetherbooth/pkg/booth"
)

// ExampleNew demonstrates how to embed the booth in an application.
func ExampleNew() {
	home, err := os.MkdirTemp("", "tetherbooth-example")
	if err != nil {
		fmt.Printf("failed to create home: %v\n", err)
		return
	}
	defer os.RemoveAll(home)

	cfg := booth.Config{Home: home}

	b, err := booth.New(cfg)
	if err != nil {
		fmt.Printf("failed to create booth: %v\n", err)
		return
	}

	if err := b.Start(context.Background()); err != nil {
		fmt.Printf("failed to start: %v\n", err)
		return
	}
	fmt.Println("Status:", b.Status())

	_ = b.Stop()
	fmt.Println("Status:", b.Status())

	// Output:
	// Status: Running
	// Status: Stopped
}

// Example_withEventHandler demonstrates how to receive booth events.
func Example_withEventHandler() {
	handler := &myEventHandler{}

	cfg := booth.DefaultConfig()
	cfg.WatchDir = "/srv/eos/incoming"

	b, err := booth.New(cfg, booth.WithEventHandler(handler))
	if err != nil {
		fmt.Printf("failed to create booth: %v\n", err)
		return
	}

	_ = b // Start, run sessions...
}

// myEventHandler implements booth.EventHandler for event notifications.
type myEventHandler struct {
	booth.BaseEventHandler // Embed for no-op defaults
}

func (h *myEventHandler) OnStateChange(event booth.StateChangeEvent) {
	fmt.Printf("State changed: %s -> %s (reason: %s)\n",
		event.Previous, event.Current, event.Reason)
}

func (h *myEventHandler) OnPhotoAccepted(event booth.PhotoAcceptedEvent) {
	fmt.Printf("Photo %d accepted, %d to go\n", event.Photo.Index+1, event.Remaining)
}

func (h *myEventHandler) OnComposed(event booth.ComposedEvent) {
	fmt.Printf("Print ready: %s\n", event.Print.Path)
}
